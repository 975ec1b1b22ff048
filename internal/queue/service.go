package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/doctorgo/doctorgo/internal/audit"
	"github.com/doctorgo/doctorgo/internal/auth"
	"github.com/doctorgo/doctorgo/internal/doctor"
	"github.com/doctorgo/doctorgo/internal/metrics"
	redisclient "github.com/doctorgo/doctorgo/internal/redis"
)

var (
	ErrMissingDoctorID = errors.New("doctor id is required")
	ErrForbidden       = errors.New("not allowed to manage this queue")
	ErrQueueBusy       = errors.New("queue is busy, please retry")
)

// Service owns every mutation of a doctor's queue. Join and InviteNext
// run under a per-doctor lock so the FIFO order and the queue-length
// counter stay consistent under concurrent requests.
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

// Join appends the patient to the doctor's walk-in queue.
func (s *Service) Join(ctx context.Context, patient auth.Principal, doctorID uuid.UUID) (*Entry, error) {
	if doctorID == uuid.Nil {
		return nil, ErrMissingDoctorID
	}

	if _, err := s.doctors.GetDoctorByID(ctx, doctorID); err != nil {
		if errors.Is(err, doctor.ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	var entry *Entry
	err := s.locker.WithDoctorLock(ctx, doctorID, func(lockCtx context.Context) error {
		e, err := s.repo.InsertWaiting(lockCtx, patient.ID, patient.Name, doctorID)
		if err != nil {
			return fmt.Errorf("insert waiting entry: %w", err)
		}
		entry = e
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrQueueBusy
		}
		return nil, err
	}

	s.metrics.ObserveJoin()
	s.logEvent(ctx, audit.EventQueueJoined, doctorID, &entry.ID, map[string]any{
		"patient_id": patient.ID.String(),
		"position":   entry.Position,
	})

	return entry, nil
}

// ListWaiting returns the authoritative queue order: waiting entries by
// join time ascending. The stored advisory position plays no part.
func (s *Service) ListWaiting(ctx context.Context, doctorID uuid.UUID) ([]Entry, error) {
	if doctorID == uuid.Nil {
		return nil, ErrMissingDoctorID
	}

	entries, err := s.repo.ListWaiting(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list waiting entries: %w", err)
	}
	return entries, nil
}

// InviteNext calls the longest-waiting patient in. An empty queue is a
// normal outcome: it returns (nil, nil).
func (s *Service) InviteNext(ctx context.Context, actor auth.Principal, doctorID uuid.UUID) (*Entry, error) {
	if doctorID == uuid.Nil {
		return nil, ErrMissingDoctorID
	}
	if !actor.CanManageQueue() {
		return nil, ErrForbidden
	}

	var invited *Entry
	err := s.locker.WithDoctorLock(ctx, doctorID, func(lockCtx context.Context) error {
		e, err := s.repo.InviteOldestWaiting(lockCtx, doctorID)
		if err != nil {
			return err
		}
		invited = e
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoWaitingEntries) {
			s.metrics.ObserveInvite("empty")
			return nil, nil
		}
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrQueueBusy
		}
		return nil, fmt.Errorf("invite next: %w", err)
	}

	s.metrics.ObserveInvite("invited")
	s.logEvent(ctx, audit.EventQueueInvited, doctorID, &invited.ID, map[string]any{
		"patient_id": invited.PatientID.String(),
		"invited_by": actor.ID.String(),
	})

	return invited, nil
}

// Reconcile recomputes the queue-length counter from the entry set. A
// divergence is a programming defect, not a user error: it is logged,
// counted and healed. Returns true when the counter had drifted.
func (s *Service) Reconcile(ctx context.Context, doctorID uuid.UUID) (bool, error) {
	repaired := false
	err := s.locker.WithDoctorLock(ctx, doctorID, func(lockCtx context.Context) error {
		stored, err := s.repo.QueueLength(lockCtx, doctorID)
		if err != nil {
			return fmt.Errorf("read queue length: %w", err)
		}
		actual, err := s.repo.CountWaiting(lockCtx, doctorID)
		if err != nil {
			return fmt.Errorf("count waiting entries: %w", err)
		}
		if stored == actual {
			return nil
		}

		log.Printf("queue counter drift for doctor %s: stored=%d actual=%d, repairing", doctorID, stored, actual)
		if err := s.repo.SetQueueLength(lockCtx, doctorID, actual); err != nil {
			return fmt.Errorf("repair queue length: %w", err)
		}
		repaired = true
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return false, ErrQueueBusy
		}
		return false, err
	}

	if repaired {
		s.metrics.ObserveCounterRepair()
		s.logEvent(ctx, audit.EventQueueCounterRepaired, doctorID, nil, nil)
	}
	return repaired, nil
}

func (s *Service) logEvent(ctx context.Context, eventType string, doctorID uuid.UUID, subjectID *uuid.UUID, payload map[string]any) {
	if s.audit == nil {
		return
	}

	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			log.Printf("failed to marshal %s payload: %v", eventType, err)
			data = nil
		}
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
