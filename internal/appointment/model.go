package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ValidStatus reports whether s is one of the four enumerated values.
// The data layer enforces no transition table beyond this; completed
// and cancelled should be treated as terminal by callers.
func ValidStatus(s Status) bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

type Appointment struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	PatientName string
	DoctorID    uuid.UUID
	DoctorName  string
	Time        time.Time
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
