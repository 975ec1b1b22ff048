package slot

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/doctorgo/doctorgo/internal/doctor"
)

// Seeder fills the rolling slot window for every doctor. Seeding is
// idempotent: a (doctor, slot time) row is written once and its
// availability is never re-randomized afterwards, so a slot a client
// saw as open stays open until a booking claims it.
type Seeder struct {
	doctors   doctor.Repository
	slots     Repository
	openRatio float64
	rng       *rand.Rand
}

func NewSeeder(doctors doctor.Repository, slots Repository, openRatio float64) *Seeder {
	return &Seeder{
		doctors:   doctors,
		slots:     slots,
		openRatio: openRatio,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SeedDoctor ensures the doctor's calendar exists for the window around ref.
func (s *Seeder) SeedDoctor(ctx context.Context, doctorID uuid.UUID, ref time.Time) (int, error) {
	times := Times(ref)

	slots := make([]Slot, 0, len(times))
	for _, t := range times {
		slots = append(slots, Slot{
			DoctorID:  doctorID,
			Time:      t,
			Available: s.rng.Float64() < s.openRatio,
		})
	}

	inserted, err := s.slots.InsertSlots(ctx, slots)
	if err != nil {
		return 0, fmt.Errorf("insert slots: %w", err)
	}
	return inserted, nil
}

// SeedAll runs SeedDoctor over the whole roster.
func (s *Seeder) SeedAll(ctx context.Context, ref time.Time) error {
	docs, err := s.doctors.ListDoctors(ctx)
	if err != nil {
		return fmt.Errorf("list doctors: %w", err)
	}

	total := 0
	for _, d := range docs {
		n, err := s.SeedDoctor(ctx, d.ID, ref)
		if err != nil {
			return fmt.Errorf("seed doctor %s: %w", d.ID, err)
		}
		total += n
	}

	if total > 0 {
		log.Printf("slot seeder inserted %d new slots across %d doctors", total, len(docs))
	}
	return nil
}
