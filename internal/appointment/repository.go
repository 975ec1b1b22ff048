package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotUnavailable     = errors.New("slot is not available")
)

// Repository contains the ledger's DB interactions.
type Repository interface {
	// CreateScheduled claims the (doctor, time) slot and inserts the
	// scheduled appointment in one atomic unit. Concurrent claims for
	// the same slot see exactly one success; the rest get
	// ErrSlotUnavailable.
	CreateScheduled(ctx context.Context, patientID uuid.UUID, patientName string, doctorID uuid.UUID, doctorName string, at time.Time) (*Appointment, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// ListByPatient returns the patient's appointments by time ascending.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)

	// ListByDoctor returns every appointment for the doctor by time ascending.
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error)

	// UpdateStatus overwrites the status unconditionally. Ownership and
	// value validation happen in the service.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error)
}
