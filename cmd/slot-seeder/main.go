package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/doctorgo/doctorgo/internal/audit"
	"github.com/doctorgo/doctorgo/internal/config"
	"github.com/doctorgo/doctorgo/internal/db"
	"github.com/doctorgo/doctorgo/internal/doctor"
	"github.com/doctorgo/doctorgo/internal/queue"
	redisclient "github.com/doctorgo/doctorgo/internal/redis"
	"github.com/doctorgo/doctorgo/internal/slot"
)

// worker owns the periodic maintenance: fill the rolling slot window
// for every doctor and reconcile the denormalized queue counters.
type worker struct {
	seeder  *slot.Seeder
	queue   *queue.Service
	doctors doctor.Repository
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("slot-seeder starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running slot seeder in env=%s interval=%s open_ratio=%v", cfg.Env, cfg.SeederInterval, cfg.SlotOpenRatio)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	doctorRepo := doctor.NewPgRepository(pgPool)
	locker := redisclient.NewRedisKeyedLocker(rdb, cfg.LockTTL, cfg.LockWait)

	// No /metrics endpoint here, so nil metrics; repairs still land in
	// the audit trail.
	w := &worker{
		seeder:  slot.NewSeeder(doctorRepo, slot.NewPgRepository(pgPool), cfg.SlotOpenRatio),
		queue:   queue.NewService(queue.NewPgRepository(pgPool), doctorRepo, locker, audit.NewPgRecorder(pgPool), nil),
		doctors: doctorRepo,
	}

	// Run once at startup so a fresh deploy has calendars immediately.
	w.runOnce(rootCtx)

	ticker := time.NewTicker(cfg.SeederInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping slot seeder")
			return
		case <-ticker.C:
			w.runOnce(rootCtx)
		}
	}
}

func (w *worker) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	start := time.Now()
	if err := w.seeder.SeedAll(runCtx, time.Now()); err != nil {
		log.Printf("seed run error: %v", err)
		return
	}

	w.reconcileQueues(runCtx)
	log.Printf("maintenance run complete in %s", time.Since(start))
}

func (w *worker) reconcileQueues(ctx context.Context) {
	docs, err := w.doctors.ListDoctors(ctx)
	if err != nil {
		log.Printf("list doctors for reconcile: %v", err)
		return
	}

	repaired := 0
	for _, d := range docs {
		ok, err := w.queue.Reconcile(ctx, d.ID)
		if err != nil {
			log.Printf("reconcile doctor %s: %v", d.ID, err)
			continue
		}
		if ok {
			repaired++
		}
	}

	if repaired > 0 {
		log.Printf("repaired %d drifted queue counters", repaired)
	}
}
