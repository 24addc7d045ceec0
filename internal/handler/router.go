package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/guest-messaging/internal/middleware"
	"github.com/capitalize-ai/guest-messaging/internal/service"
	"github.com/capitalize-ai/guest-messaging/pkg/logger"
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Service  *service.InboxService
	Activity ActivityReader // nil when the mirror is disabled
	NATS     ConnChecker    // nil when the mirror is disabled
	Logger   *logger.Logger

	// JWTSecret enables bearer auth when set. Mutations then need the
	// inbox:write scope.
	JWTSecret string

	AllowedOrigins    []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	Heartbeat         time.Duration
}

// NewRouter builds the chi router for the inbox API.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Global()
	}

	health := NewHealthHandler(cfg.NATS)
	threads := NewThreadHandler(cfg.Service, cfg.Activity, log)
	messages := NewMessageHandler(cfg.Service, log)
	state := NewStateHandler(cfg.Service, log)
	stream := NewStreamHandler(cfg.Service, cfg.Heartbeat, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTSecret != "" {
			r.Use(middleware.Auth(cfg.JWTSecret))
		}
		if cfg.RateLimitRequests > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}

		// Reads
		r.Get("/state", state.Snapshot)
		r.Get("/stream", stream.Stream)
		r.Get("/threads", threads.List)
		r.Get("/threads/{id}", threads.Get)
		r.Get("/threads/{id}/messages", messages.List)
		r.Get("/threads/{id}/activity", threads.Activity)

		// Mutations
		r.Group(func(r chi.Router) {
			if cfg.JWTSecret != "" {
				r.Use(middleware.RequireScope(middleware.ScopeWrite))
			}

			r.Post("/threads/{id}/messages", messages.Send)
			r.Post("/threads/{id}/select", threads.Select)
			r.Post("/threads/{id}/archive", threads.Archive)
			r.Post("/threads/{id}/reopen", threads.Reopen)
			r.Post("/threads/{id}/block", threads.Block)
			r.Post("/threads/{id}/unblock", threads.Unblock)
			r.Post("/threads/{id}/unread", threads.MarkUnread)

			r.Post("/compose", state.StartCompose)
			r.Put("/compose", state.UpdateCompose)
			r.Delete("/compose", state.CancelCompose)
			r.Post("/compose/thread", state.CreateThread)

			r.Put("/view", state.SetView)
			r.Put("/search", state.SetSearch)
			r.Put("/ai", state.SetAI)
			r.Put("/typing", state.SetTyping)
			r.Post("/guest-info/toggle", state.ToggleGuestInfo)
			r.Delete("/guest-info", state.CloseGuestInfo)
		})
	})

	return r
}
