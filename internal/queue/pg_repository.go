package queue

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doctorgo/doctorgo/internal/doctor"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry

	err := row.Scan(
		&e.ID,
		&e.PatientID,
		&e.PatientName,
		&e.DoctorID,
		&e.Status,
		&e.Position,
		&e.JoinedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	return &e, nil
}

func (r *PgRepository) InsertWaiting(ctx context.Context, patientID uuid.UUID, patientName string, doctorID uuid.UUID) (*Entry, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var newLength int
	err = tx.QueryRow(ctx, `
		UPDATE doctors
		SET queue_length = queue_length + 1,
		    updated_at = now()
		WHERE id = $1
		RETURNING queue_length
	`, doctorID).Scan(&newLength)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, doctor.ErrDoctorNotFound
		}
		return nil, err
	}

	id := uuid.New()
	row := tx.QueryRow(ctx, `
		INSERT INTO queue_entries (id, patient_id, patient_name, doctor_id, status, position, joined_at, updated_at)
		VALUES ($1, $2, $3, $4, 'waiting', $5, now(), now())
		RETURNING id, patient_id, patient_name, doctor_id, status, position, joined_at, updated_at
	`, id, patientID, patientName, doctorID, newLength)

	entry, err := scanEntry(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *PgRepository) ListWaiting(ctx context.Context, doctorID uuid.UUID) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, patient_name, doctor_id, status, position, joined_at, updated_at
		FROM queue_entries
		WHERE doctor_id = $1 AND status = 'waiting'
		ORDER BY joined_at, id
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) InviteOldestWaiting(ctx context.Context, doctorID uuid.UUID) (*Entry, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Row lock so two invites inside overlapping transactions cannot
	// both select the same entry.
	row := tx.QueryRow(ctx, `
		SELECT id, patient_id, patient_name, doctor_id, status, position, joined_at, updated_at
		FROM queue_entries
		WHERE doctor_id = $1 AND status = 'waiting'
		ORDER BY joined_at, id
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`, doctorID)

	oldest, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return nil, ErrNoWaitingEntries
		}
		return nil, err
	}

	row = tx.QueryRow(ctx, `
		UPDATE queue_entries
		SET status = 'invited',
		    updated_at = now()
		WHERE id = $1 AND status = 'waiting'
		RETURNING id, patient_id, patient_name, doctor_id, status, position, joined_at, updated_at
	`, oldest.ID)

	invited, err := scanEntry(row)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE doctors
		SET queue_length = GREATEST(queue_length - 1, 0),
		    updated_at = now()
		WHERE id = $1
	`, doctorID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return invited, nil
}

func (r *PgRepository) CountWaiting(ctx context.Context, doctorID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM queue_entries
		WHERE doctor_id = $1 AND status = 'waiting'
	`, doctorID).Scan(&n)
	return n, err
}

func (r *PgRepository) QueueLength(ctx context.Context, doctorID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT queue_length FROM doctors WHERE id = $1
	`, doctorID).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, doctor.ErrDoctorNotFound
	}
	return n, err
}

func (r *PgRepository) SetQueueLength(ctx context.Context, doctorID uuid.UUID, n int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctors
		SET queue_length = $2,
		    updated_at = now()
		WHERE id = $1
	`, doctorID, n)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return doctor.ErrDoctorNotFound
	}
	return nil
}
