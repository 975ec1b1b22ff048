package queue

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusInvited   Status = "invited"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Entry is one patient in a doctor's walk-in queue.
//
// Position is advisory: it is the counter value at join time and is
// never renumbered when earlier entries leave. Retrieval and invitation
// order strictly by JoinedAt (then ID for equal timestamps).
type Entry struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	PatientName string
	DoctorID    uuid.UUID
	Status      Status
	Position    int
	JoinedAt    time.Time
	UpdatedAt   time.Time
}
