package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doctorgo/doctorgo/internal/auth"
	"github.com/doctorgo/doctorgo/internal/config"
	"github.com/doctorgo/doctorgo/internal/db"
)

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	JoinRatio   float64
	InviteRatio float64
	BookRatio   float64
	ReadRatio   float64
	DoctorLimit int
	SlotLimit   int
	Patients    int
	PostgresDSN string
	AuthSecret  string
}

type openSlot struct {
	DoctorID uuid.UUID
	Time     time.Time
}

// DataPool holds the identifiers the workers pick from. Patients are
// synthetic principals; doctors and open slots come from the database.
type DataPool struct {
	Doctors       []uuid.UUID
	Slots         []openSlot
	PatientTokens []string
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Metrics struct {
	Join        OperationMetrics
	Invite      OperationMetrics
	Book        OperationMetrics
	ListDoctors OperationMetrics
	ListQueue   OperationMetrics
}

type Simulator struct {
	config         SimConfig
	pool           *DataPool
	client         *http.Client
	metrics        Metrics
	secretaryToken string
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d join=%.2f invite=%.2f book=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.JoinRatio, cfg.InviteRatio, cfg.BookRatio, cfg.ReadRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d doctors, %d open slots, %d patient tokens",
		len(dataPool.Doctors), len(dataPool.Slots), len(dataPool.PatientTokens))

	secretaryToken, err := auth.SignToken(cfg.AuthSecret, auth.Principal{
		ID:   uuid.New(),
		Name: "Sim Secretary",
		Role: auth.RoleSecretary,
	})
	if err != nil {
		log.Fatalf("sign secretary token: %v", err)
	}

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		secretaryToken: secretaryToken,
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:  getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:    getDurationEnv("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 10),
		JoinRatio:   getFloat("SIM_JOIN_RATIO", 0.3),
		InviteRatio: getFloat("SIM_INVITE_RATIO", 0.2),
		BookRatio:   getFloat("SIM_BOOK_RATIO", 0.2),
		ReadRatio:   getFloat("SIM_READ_RATIO", 0.3),
		DoctorLimit: getInt("SIM_DOCTOR_LIMIT", 40),
		SlotLimit:   getInt("SIM_SLOT_LIMIT", 500),
		Patients:    getInt("SIM_PATIENTS", 200),
		PostgresDSN: baseCfg.PostgresDSN,
		AuthSecret:  baseCfg.AuthSecret,
	}

	total := cfg.JoinRatio + cfg.InviteRatio + cfg.BookRatio + cfg.ReadRatio
	if total > 0 {
		cfg.JoinRatio /= total
		cfg.InviteRatio /= total
		cfg.BookRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.AuthSecret == "" {
		return fmt.Errorf("AUTH_SECRET is required to mint simulation tokens")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	rows, err := pool.Query(ctx, `
		SELECT id FROM doctors LIMIT $1
	`, cfg.DoctorLimit)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.Doctors = append(dataPool.Doctors, id)
	}

	rows, err = pool.Query(ctx, `
		SELECT doctor_id, slot_time FROM doctor_slots
		WHERE available = true AND slot_time > now()
		LIMIT $1
	`, cfg.SlotLimit)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s openSlot
		if err := rows.Scan(&s.DoctorID, &s.Time); err != nil {
			return nil, err
		}
		dataPool.Slots = append(dataPool.Slots, s)
	}

	if len(dataPool.Doctors) == 0 {
		return nil, fmt.Errorf("no doctors loaded, run the seed tool first")
	}

	gofakeit.Seed(time.Now().UnixNano())
	for i := 0; i < cfg.Patients; i++ {
		token, err := auth.SignToken(cfg.AuthSecret, auth.Principal{
			ID:   uuid.New(),
			Name: gofakeit.Name(),
			Role: auth.RolePatient,
		})
		if err != nil {
			return nil, fmt.Errorf("sign patient token: %w", err)
		}
		dataPool.PatientTokens = append(dataPool.PatientTokens, token)
	}

	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.JoinRatio:
				s.doJoin(ctx, rng)
			case r < s.config.JoinRatio+s.config.InviteRatio:
				s.doInvite(ctx, rng)
			case r < s.config.JoinRatio+s.config.InviteRatio+s.config.BookRatio:
				s.doBook(ctx, rng)
			default:
				if rng.Intn(2) == 0 {
					s.doListDoctors(ctx, rng)
				} else {
					s.doListQueue(ctx, rng)
				}
			}
		}
	}
}

func (s *Simulator) randomDoctor(rng *rand.Rand) uuid.UUID {
	return s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]
}

func (s *Simulator) randomPatientToken(rng *rand.Rand) string {
	return s.pool.PatientTokens[rng.Intn(len(s.pool.PatientTokens))]
}

func (s *Simulator) doJoin(ctx context.Context, rng *rand.Rand) {
	doctorID := s.randomDoctor(rng)
	token := s.randomPatientToken(rng)

	start := time.Now()
	resp, err := s.post(ctx, "/api/queue", token, map[string]string{
		"doctor_id": doctorID.String(),
	})
	latency := time.Since(start)

	success, conflict := false, false
	if err == nil {
		resp.Body.Close()
		success = resp.StatusCode == http.StatusCreated
		conflict = resp.StatusCode == http.StatusConflict
	}
	s.metrics.Join.Record(latency, success, conflict)
}

func (s *Simulator) doInvite(ctx context.Context, rng *rand.Rand) {
	doctorID := s.randomDoctor(rng)

	start := time.Now()
	resp, err := s.post(ctx, "/api/queue/next", s.secretaryToken, map[string]string{
		"doctor_id": doctorID.String(),
	})
	latency := time.Since(start)

	success, conflict := false, false
	if err == nil {
		resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
		conflict = resp.StatusCode == http.StatusConflict
	}
	s.metrics.Invite.Record(latency, success, conflict)
}

func (s *Simulator) doBook(ctx context.Context, rng *rand.Rand) {
	if len(s.pool.Slots) == 0 {
		return
	}
	slot := s.pool.Slots[rng.Intn(len(s.pool.Slots))]
	token := s.randomPatientToken(rng)

	start := time.Now()
	resp, err := s.post(ctx, "/api/appointments", token, map[string]string{
		"doctor_id":        slot.DoctorID.String(),
		"appointment_time": slot.Time.Format(time.RFC3339),
	})
	latency := time.Since(start)

	success, conflict := false, false
	if err == nil {
		resp.Body.Close()
		success = resp.StatusCode == http.StatusCreated
		conflict = resp.StatusCode == http.StatusConflict
	}
	s.metrics.Book.Record(latency, success, conflict)
}

func (s *Simulator) doListDoctors(ctx context.Context, rng *rand.Rand) {
	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET", s.config.APIBaseURL+"/api/doctors", nil)
	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}
	s.metrics.ListDoctors.Record(latency, success, false)
}

func (s *Simulator) doListQueue(ctx context.Context, rng *rand.Rand) {
	doctorID := s.randomDoctor(rng)

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/api/queue?doctor_id=%s", s.config.APIBaseURL, doctorID.String()), nil)
	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}
	s.metrics.ListQueue.Record(latency, success, false)
}

func (s *Simulator) post(ctx context.Context, path, token string, payload map[string]string) (*http.Response, error) {
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	return s.client.Do(req)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Queue Join", &s.metrics.Join)
	printOperationReport("Invite Next", &s.metrics.Invite)
	printOperationReport("Book Appointment", &s.metrics.Book)
	printOperationReport("List Doctors", &s.metrics.ListDoctors)
	printOperationReport("List Queue", &s.metrics.ListQueue)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	errs := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if errs > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errs, float64(errs)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
