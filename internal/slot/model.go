package slot

import (
	"time"

	"github.com/google/uuid"
)

// Slot is one bookable hour for a doctor. Identity is (DoctorID, Time);
// availability is persisted and flipped exactly once by a booking claim.
type Slot struct {
	DoctorID  uuid.UUID
	Time      time.Time
	Available bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
