package queue

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrEntryNotFound    = errors.New("queue entry not found")
	ErrNoWaitingEntries = errors.New("no waiting entries")
)

// Repository contains the queue's DB interactions. The two mutating
// operations are each a single transaction so the entry set and the
// denormalized doctors.queue_length can never diverge through a crash
// between the two writes.
type Repository interface {
	// InsertWaiting appends a waiting entry and increments the doctor's
	// queue length in one atomic unit. The entry's advisory position is
	// the incremented counter value.
	InsertWaiting(ctx context.Context, patientID uuid.UUID, patientName string, doctorID uuid.UUID) (*Entry, error)

	// ListWaiting returns waiting entries ordered by join time, then id.
	ListWaiting(ctx context.Context, doctorID uuid.UUID) ([]Entry, error)

	// InviteOldestWaiting flips the oldest waiting entry to invited and
	// decrements the queue length (never below zero) in one atomic unit.
	// Returns ErrNoWaitingEntries when the queue is empty.
	InviteOldestWaiting(ctx context.Context, doctorID uuid.UUID) (*Entry, error)

	// CountWaiting recomputes the true waiting count from the entry set.
	CountWaiting(ctx context.Context, doctorID uuid.UUID) (int, error)

	// QueueLength reads the doctor's denormalized counter.
	QueueLength(ctx context.Context, doctorID uuid.UUID) (int, error)

	// SetQueueLength overwrites the counter; used only by Reconcile.
	SetQueueLength(ctx context.Context, doctorID uuid.UUID, n int) error
}
