package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/doctorgo/doctorgo/internal/api"
	"github.com/doctorgo/doctorgo/internal/appointment"
	"github.com/doctorgo/doctorgo/internal/audit"
	"github.com/doctorgo/doctorgo/internal/config"
	"github.com/doctorgo/doctorgo/internal/db"
	"github.com/doctorgo/doctorgo/internal/doctor"
	"github.com/doctorgo/doctorgo/internal/metrics"
	"github.com/doctorgo/doctorgo/internal/payment"
	"github.com/doctorgo/doctorgo/internal/queue"
	redisclient "github.com/doctorgo/doctorgo/internal/redis"
	"github.com/doctorgo/doctorgo/internal/slot"
)

var version = "dev"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s", cfg.Env, cfg.HTTPPort)

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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	locker := redisclient.NewRedisKeyedLocker(rdb, cfg.LockTTL, cfg.LockWait)
	recorder := audit.NewPgRecorder(pgPool)

	doctorRepo := doctor.NewPgRepository(pgPool)
	slotRepo := slot.NewPgRepository(pgPool)
	queueRepo := queue.NewPgRepository(pgPool)
	apptRepo := appointment.NewPgRepository(pgPool)

	queueSvc := queue.NewService(queueRepo, doctorRepo, locker, recorder, appMetrics)
	apptSvc := appointment.NewService(apptRepo, doctorRepo, locker, recorder, appMetrics)

	router := api.NewRouter(api.RouterConfig{
		Doctors:      doctorRepo,
		Slots:        slotRepo,
		Queue:        queueSvc,
		Appointments: apptSvc,
		Payments:     payment.NewProcessor(),
		PgPool:       pgPool,
		Redis:        rdb,
		Registry:     registry,
		AuthSecret:   cfg.AuthSecret,
		Env:          cfg.Env,
		Version:      version,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		log.Println("shutdown signal received")
	case err := <-errCh:
		log.Fatalf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("api-server stopped")
}
