package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.PatientName,
		&a.DoctorID,
		&a.DoctorName,
		&a.Time,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func (r *PgRepository) CreateScheduled(ctx context.Context, patientID uuid.UUID, patientName string, doctorID uuid.UUID, doctorName string, at time.Time) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Claim the slot. A missing row and an already-claimed row are the
	// same outcome to the caller: the slot cannot be booked.
	tag, err := tx.Exec(ctx, `
		UPDATE doctor_slots
		SET available = false,
		    updated_at = now()
		WHERE doctor_id = $1
		  AND slot_time = $2
		  AND available = true
	`, doctorID, at)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrSlotUnavailable
	}

	id := uuid.New()
	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, patient_name, doctor_id, doctor_name, appointment_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'scheduled', now(), now())
		RETURNING id, patient_id, patient_name, doctor_id, doctor_name, appointment_time, status, created_at, updated_at
	`, id, patientID, patientName, doctorID, doctorName, at)

	appt, err := scanAppointment(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return appt, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, patient_name, doctor_id, doctor_name, appointment_time, status, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return r.list(ctx, `
		SELECT id, patient_id, patient_name, doctor_id, doctor_name, appointment_time, status, created_at, updated_at
		FROM appointments
		WHERE patient_id = $1
		ORDER BY appointment_time
	`, patientID)
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	return r.list(ctx, `
		SELECT id, patient_id, patient_name, doctor_id, doctor_name, appointment_time, status, created_at, updated_at
		FROM appointments
		WHERE doctor_id = $1
		ORDER BY appointment_time
	`, doctorID)
}

func (r *PgRepository) list(ctx context.Context, sql string, arg any) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, patient_id, patient_name, doctor_id, doctor_name, appointment_time, status, created_at, updated_at
	`, id, status)
	return scanAppointment(row)
}
