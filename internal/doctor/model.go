package doctor

import (
	"time"

	"github.com/google/uuid"
)

// The fixed set of specialties the recommendation keyword table knows about.
const (
	SpecialtyGeneralPractice = "General Practice"
	SpecialtyCardiology      = "Cardiology"
	SpecialtyPediatrics      = "Pediatrics"
	SpecialtyDermatology     = "Dermatology"
	SpecialtyOrthopedics     = "Orthopedics"
)

func Specialties() []string {
	return []string{
		SpecialtyGeneralPractice,
		SpecialtyCardiology,
		SpecialtyPediatrics,
		SpecialtyDermatology,
		SpecialtyOrthopedics,
	}
}

type Clinic struct {
	ID        uuid.UUID
	Name      string
	Address   string
	Lat       float64
	Lng       float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Doctor is the roster record the directory, queue and ledger share.
// QueueLength is a denormalized count of waiting queue entries; it is
// mutated only by the queue service's atomic operations.
type Doctor struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Name          string
	Specialty     string
	Rating        float64
	Cost          float64
	ClinicID      *uuid.UUID
	ClinicName    string
	ClinicAddress string
	Lat           float64
	Lng           float64
	QueueLength   int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
