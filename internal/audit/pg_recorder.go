package audit

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRecorder struct {
	pool *pgxpool.Pool
}

func NewPgRecorder(pool *pgxpool.Pool) *PgRecorder {
	return &PgRecorder{pool: pool}
}

func (r *PgRecorder) Record(ctx context.Context, ev Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO events (event_type, doctor_id, subject_id, payload, created_at)
		VALUES ($1, $2, $3, $4, now())
	`, ev.EventType, ev.DoctorID, ev.SubjectID, ev.Payload)
	return err
}
