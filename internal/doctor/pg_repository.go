package doctor

import (
	"context"
	"errors"

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

const doctorColumns = `
	d.id, d.user_id, d.name, d.specialty, d.rating, d.cost, d.clinic_id,
	COALESCE(c.name, ''), COALESCE(c.address, ''),
	COALESCE(c.lat, 0), COALESCE(c.lng, 0),
	d.queue_length, d.created_at, d.updated_at
`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var clinicID *uuid.UUID

	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Name,
		&d.Specialty,
		&d.Rating,
		&d.Cost,
		&clinicID,
		&d.ClinicName,
		&d.ClinicAddress,
		&d.Lat,
		&d.Lng,
		&d.QueueLength,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.ClinicID = clinicID
	return &d, nil
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors d
		LEFT JOIN clinics c ON d.clinic_id = c.id
		WHERE d.id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) GetDoctorByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors d
		LEFT JOIN clinics c ON d.clinic_id = c.id
		WHERE d.user_id = $1
	`, userID)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctors(ctx context.Context) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors d
		LEFT JOIN clinics c ON d.clinic_id = c.id
		ORDER BY d.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
