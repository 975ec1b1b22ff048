package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/doctorgo/doctorgo/internal/appointment"
	"github.com/doctorgo/doctorgo/internal/auth"
	"github.com/doctorgo/doctorgo/internal/doctor"
	"github.com/doctorgo/doctorgo/internal/payment"
	"github.com/doctorgo/doctorgo/internal/queue"
	"github.com/doctorgo/doctorgo/internal/slot"
)

// RouterConfig carries everything the HTTP surface needs. Repositories
// back the read-only directory endpoints directly; mutations go through
// the services.
type RouterConfig struct {
	Doctors      doctor.Repository
	Slots        slot.Repository
	Queue        *queue.Service
	Appointments *appointment.Service
	Payments     *payment.Processor

	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Registry *prometheus.Registry

	AuthSecret string
	Env        string
	Version    string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	if cfg.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		// Browsing the directory needs no identity.
		r.Get("/doctors", listDoctorsHandler(cfg.Doctors))
		r.Get("/doctors/{id}", getDoctorHandler(cfg.Doctors, cfg.Slots))
		r.Get("/recommendation", recommendationHandler(cfg.Doctors))
		r.Get("/queue", listQueueHandler(cfg.Queue))

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.AuthSecret))

			r.Post("/queue", joinQueueHandler(cfg.Queue))
			r.Post("/queue/next", inviteNextHandler(cfg.Queue))

			r.Post("/appointments", createAppointmentHandler(cfg.Appointments))
			r.Get("/appointments", listAppointmentsHandler(cfg.Appointments))
			r.Put("/appointments/{id}", updateAppointmentHandler(cfg.Appointments))

			r.Post("/payments/mock", mockPaymentHandler(cfg.Payments))
		})
	})

	return r
}
