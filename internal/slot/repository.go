package slot

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists the per-(doctor, slot time) availability calendar.
// Claiming a slot is part of the appointment ledger's transaction and
// lives there; this interface covers seeding and reads.
type Repository interface {
	// InsertSlots inserts calendar rows, skipping ones that already
	// exist so seeding is idempotent. Returns the number inserted.
	InsertSlots(ctx context.Context, slots []Slot) (int, error)

	// ListByDoctor returns the doctor's slots in [from, to) ordered by time.
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Slot, error)
}
