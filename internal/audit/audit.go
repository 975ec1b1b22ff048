package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventQueueJoined              = "QUEUE_JOINED"
	EventQueueInvited             = "QUEUE_INVITED"
	EventAppointmentCreated       = "APPOINTMENT_CREATED"
	EventAppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
	EventQueueCounterRepaired     = "QUEUE_COUNTER_REPAIRED"
)

type Event struct {
	ID        int64
	EventType string
	DoctorID  uuid.UUID
	SubjectID *uuid.UUID // queue entry or appointment id
	Payload   []byte
	CreatedAt time.Time
}

// Recorder appends to the audit trail. Recording is best effort: callers
// log failures and carry on rather than failing the user operation.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}
