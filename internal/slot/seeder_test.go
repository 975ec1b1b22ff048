package slot

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/doctorgo/doctorgo/internal/doctor"
)

type memSlotRepo struct {
	mu    sync.Mutex
	slots map[uuid.UUID]map[time.Time]Slot
}

func newMemSlotRepo() *memSlotRepo {
	return &memSlotRepo{slots: make(map[uuid.UUID]map[time.Time]Slot)}
}

func (m *memSlotRepo) InsertSlots(ctx context.Context, slots []Slot) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inserted := 0
	for _, s := range slots {
		byTime, ok := m.slots[s.DoctorID]
		if !ok {
			byTime = make(map[time.Time]Slot)
			m.slots[s.DoctorID] = byTime
		}
		key := s.Time.UTC()
		if _, exists := byTime[key]; exists {
			continue
		}
		byTime[key] = s
		inserted++
	}
	return inserted, nil
}

func (m *memSlotRepo) ListByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []Slot
	for _, tm := range Times(from) {
		if s, ok := m.slots[doctorID][tm.UTC()]; ok && !tm.Before(from) && tm.Before(to) {
			result = append(result, s)
		}
	}
	return result, nil
}

type staticDoctorRepo struct {
	doctors []doctor.Doctor
}

func (r *staticDoctorRepo) GetDoctorByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	for i := range r.doctors {
		if r.doctors[i].ID == id {
			return &r.doctors[i], nil
		}
	}
	return nil, doctor.ErrDoctorNotFound
}

func (r *staticDoctorRepo) GetDoctorByUserID(ctx context.Context, userID uuid.UUID) (*doctor.Doctor, error) {
	for i := range r.doctors {
		if r.doctors[i].UserID == userID {
			return &r.doctors[i], nil
		}
	}
	return nil, doctor.ErrDoctorNotFound
}

func (r *staticDoctorRepo) ListDoctors(ctx context.Context) ([]doctor.Doctor, error) {
	return r.doctors, nil
}

func TestSeedDoctorIsIdempotent(t *testing.T) {
	repo := newMemSlotRepo()
	docs := &staticDoctorRepo{doctors: []doctor.Doctor{{ID: uuid.New()}}}
	s := NewSeeder(docs, repo, 0.7)
	s.rng = rand.New(rand.NewSource(1))

	ref := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	docID := docs.doctors[0].ID

	first, err := s.SeedDoctor(context.Background(), docID, ref)
	if err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if first != 18 {
		t.Fatalf("first seed inserted %d, want 18", first)
	}

	before, _ := repo.ListByDoctor(context.Background(), docID, ref, ref.AddDate(0, 0, 2))

	second, err := s.SeedDoctor(context.Background(), docID, ref)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if second != 0 {
		t.Fatalf("second seed inserted %d, want 0", second)
	}

	// Availability must not be re-randomized by the second pass.
	after, _ := repo.ListByDoctor(context.Background(), docID, ref, ref.AddDate(0, 0, 2))
	for i := range before {
		if before[i].Available != after[i].Available {
			t.Fatalf("slot %s availability changed across seeding runs", before[i].Time)
		}
	}
}

func TestSeedAllCoversRoster(t *testing.T) {
	repo := newMemSlotRepo()
	docs := &staticDoctorRepo{doctors: []doctor.Doctor{
		{ID: uuid.New()}, {ID: uuid.New()}, {ID: uuid.New()},
	}}
	s := NewSeeder(docs, repo, 1.0)

	ref := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	if err := s.SeedAll(context.Background(), ref); err != nil {
		t.Fatalf("SeedAll: %v", err)
	}

	for _, d := range docs.doctors {
		slots, _ := repo.ListByDoctor(context.Background(), d.ID, ref, ref.AddDate(0, 0, 2))
		if len(slots) != 18 {
			t.Fatalf("doctor %s has %d slots, want 18", d.ID, len(slots))
		}
		for _, sl := range slots {
			if !sl.Available {
				t.Fatalf("open ratio 1.0 should leave every slot open")
			}
		}
	}
}
