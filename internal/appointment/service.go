package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/doctorgo/doctorgo/internal/audit"
	"github.com/doctorgo/doctorgo/internal/auth"
	"github.com/doctorgo/doctorgo/internal/doctor"
	"github.com/doctorgo/doctorgo/internal/metrics"
	redisclient "github.com/doctorgo/doctorgo/internal/redis"
)

var (
	ErrMissingField    = errors.New("doctor id and appointment time are required")
	ErrInvalidStatus   = errors.New("invalid status value")
	ErrForbidden       = errors.New("not allowed to modify this appointment")
	ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")
)

type Service struct {
	repo    Repository
	doctors doctor.Repository
	locker  redisclient.Locker
	audit   audit.Recorder
	metrics *metrics.Metrics
}

func NewService(repo Repository, doctors doctor.Repository, locker redisclient.Locker, rec audit.Recorder, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		doctors: doctors,
		locker:  locker,
		audit:   rec,
		metrics: m,
	}
}

// Create books a slot for the patient. The per-slot lock plus the
// conditional claim inside the repository transaction guarantee that
// concurrent bookings of the same (doctor, time) produce exactly one
// scheduled appointment.
func (s *Service) Create(ctx context.Context, patient auth.Principal, doctorID uuid.UUID, at time.Time) (*Appointment, error) {
	if doctorID == uuid.Nil || at.IsZero() {
		return nil, ErrMissingField
	}

	doc, err := s.doctors.GetDoctorByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, doctor.ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	var created *Appointment
	err = s.locker.WithSlotLock(ctx, doctorID, at, func(lockCtx context.Context) error {
		appt, err := s.repo.CreateScheduled(lockCtx, patient.ID, patient.Name, doctorID, doc.Name, at)
		if err != nil {
			return err
		}
		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSlotUnavailable) {
			s.metrics.ObserveSlotConflict()
			return nil, ErrSlotUnavailable
		}
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.metrics.ObserveBooking()
	s.logEvent(ctx, audit.EventAppointmentCreated, doctorID, &created.ID, map[string]any{
		"patient_id":       patient.ID.String(),
		"appointment_time": at,
	})

	return created, nil
}

// List returns the principal's own appointments, or every appointment
// for a doctor when doctorID is supplied (doctor-facing views).
func (s *Service) List(ctx context.Context, principal auth.Principal, doctorID *uuid.UUID) ([]Appointment, error) {
	if doctorID != nil {
		appts, err := s.repo.ListByDoctor(ctx, *doctorID)
		if err != nil {
			return nil, fmt.Errorf("list appointments by doctor: %w", err)
		}
		return appts, nil
	}

	appts, err := s.repo.ListByPatient(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return appts, nil
}

// UpdateStatus overwrites the appointment status after validating the
// value and the acting principal's ownership. No transition table is
// enforced; completed and cancelled are terminal by convention only.
func (s *Service) UpdateStatus(ctx context.Context, actor auth.Principal, id uuid.UUID, status Status) (*Appointment, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if !s.canModify(ctx, actor, appt) {
		return nil, ErrForbidden
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.logEvent(ctx, audit.EventAppointmentStatusChanged, appt.DoctorID, &appt.ID, map[string]any{
		"from":       string(appt.Status),
		"to":         string(status),
		"changed_by": actor.ID.String(),
	})

	return updated, nil
}

// canModify allows the patient on the appointment, or the principal who
// owns the doctor record on the appointment.
func (s *Service) canModify(ctx context.Context, actor auth.Principal, appt *Appointment) bool {
	if actor.ID == appt.PatientID {
		return true
	}

	doc, err := s.doctors.GetDoctorByUserID(ctx, actor.ID)
	if err != nil {
		if !errors.Is(err, doctor.ErrDoctorNotFound) {
			log.Printf("ownership lookup for user %s failed: %v", actor.ID, err)
		}
		return false
	}
	return doc.ID == appt.DoctorID
}

func (s *Service) logEvent(ctx context.Context, eventType string, doctorID uuid.UUID, subjectID *uuid.UUID, payload map[string]any) {
	if s.audit == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal %s payload: %v", eventType, err)
		data = nil
	}

	ev := audit.Event{
		EventType: eventType,
		DoctorID:  doctorID,
		SubjectID: subjectID,
		Payload:   data,
	}
	if err := s.audit.Record(ctx, ev); err != nil {
		log.Printf("failed to record %s event for doctor %s: %v", eventType, doctorID, err)
	}
}
