package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doctorgo/doctorgo/internal/db"
	"github.com/doctorgo/doctorgo/internal/doctor"
	"github.com/doctorgo/doctorgo/internal/slot"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	clinicIDs, err := seedClinics(context.Background(), pool, 8)
	if err != nil {
		log.Fatalf("seed clinics: %v", err)
	}
	if err := seedDoctors(context.Background(), pool, clinicIDs, 40); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedSlots(context.Background(), pool); err != nil {
		log.Fatalf("seed slots: %v", err)
	}

	log.Println("seed complete")
}

func seedClinics(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d clinics", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Company() + " Clinic"
		address := gofakeit.Street() + ", " + gofakeit.City()
		lat := gofakeit.Float64Range(38.70, 38.80)
		lng := gofakeit.Float64Range(-9.25, -9.10)

		_, err := tx.Exec(ctx, `
			INSERT INTO clinics (id, name, address, lat, lng, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
		`, id, name, address, lat, lng)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("clinics seeded")
	return ids, nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, clinicIDs []uuid.UUID, count int) error {
	log.Printf("seeding %d doctors", count)

	specialties := doctor.Specialties()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		userID := uuid.New()
		name := "Dr. " + gofakeit.Name()
		// Round-robin so every specialty has coverage for recommendations.
		spec := specialties[i%len(specialties)]
		rating := gofakeit.Float64Range(3.5, 5.0)
		cost := gofakeit.Float64Range(30, 150)
		clinicID := clinicIDs[gofakeit.Number(0, len(clinicIDs)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, user_id, name, specialty, rating, cost, clinic_id, queue_length, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 0, now(), now())
		`, id, userID, name, spec, rating, cost, clinicID)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("doctors seeded")
	return nil
}

func seedSlots(ctx context.Context, pool *pgxpool.Pool) error {
	seeder := slot.NewSeeder(doctor.NewPgRepository(pool), slot.NewPgRepository(pool), 0.7)
	return seeder.SeedAll(ctx, time.Now())
}
