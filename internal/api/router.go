package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/scheduling-engine/internal/appointment"
	"github.com/clinicdesk/scheduling-engine/internal/clinichours"
	"github.com/clinicdesk/scheduling-engine/internal/notify"
)

type RouterConfig struct {
	Service *appointment.Service
	Store   *appointment.Store
	Engine  *notify.Engine
	Gate    clinichours.Gate
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
	Log     zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Appointment endpoints
	r.Get("/appointments", listAppointmentsHandler(cfg.Service))
	r.Post("/appointments", createAppointmentHandler(cfg.Service, cfg.Gate))
	r.Put("/appointments", replaceAppointmentsHandler(cfg.Service, cfg.Store))
	r.Patch("/appointments/{id}", patchAppointmentHandler(cfg.Service, cfg.Store, cfg.Gate))
	r.Delete("/appointments/{id}", deleteAppointmentHandler(cfg.Service))

	// Notification endpoints; the viewer scope is an explicit parameter
	r.Get("/notifications", feedNotificationsHandler(cfg.Engine))
	r.Post("/notifications/poll", pollNotificationsHandler(cfg.Engine, cfg.Store))
	r.Post("/notifications/{id}/dismiss", dismissNotificationHandler(cfg.Engine))

	return r
}
