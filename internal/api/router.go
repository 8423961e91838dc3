package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/VietNguyen1207/Health-Support-System-sub001/internal/booking"
)

type RouterConfig struct {
	Service *booking.Service
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Logger  *zap.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints sit outside the actor gate.
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Group(func(r chi.Router) {
		r.Use(ActorMiddleware)

		r.Get("/menu", menuHandler())
		r.Get("/availability", availabilityHandler(cfg.Service))

		r.Route("/schedule", func(r chi.Router) {
			r.Get("/", listScheduleHandler(cfg.Service))
			r.Post("/", createScheduleHandler(cfg.Service))
			r.Get("/candidates", scheduleCandidatesHandler(cfg.Service))
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", bookAppointmentHandler(cfg.Service))
			r.Get("/calendar", calendarHandler(cfg.Service))
		})

		r.Route("/leave-requests", func(r chi.Router) {
			r.Get("/", listLeaveRequestsHandler(cfg.Service))
			r.Post("/", createLeaveRequestHandler(cfg.Service))
			r.Put("/{id}", decideLeaveRequestHandler(cfg.Service))
		})
	})

	return r
}
