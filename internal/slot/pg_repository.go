package slot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) InsertSlots(ctx context.Context, slots []Slot) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, s := range slots {
		tag, err := tx.Exec(ctx, `
			INSERT INTO doctor_slots (doctor_id, slot_time, available, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
			ON CONFLICT (doctor_id, slot_time) DO NOTHING
		`, s.DoctorID, s.Time, s.Available)
		if err != nil {
			return 0, err
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT doctor_id, slot_time, available, created_at, updated_at
		FROM doctor_slots
		WHERE doctor_id = $1
		  AND slot_time >= $2
		  AND slot_time < $3
		ORDER BY slot_time
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.DoctorID, &s.Time, &s.Available, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
