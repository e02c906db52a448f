// Package api serves the invitation portal over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"wedding-invitation/internal/archive"
	"wedding-invitation/internal/countdown"
	"wedding-invitation/internal/greeting"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/portal"
	"wedding-invitation/internal/rsvp"
	"wedding-invitation/internal/validation"
)

// Sharer delivers an invitation link to a guest.
type Sharer interface {
	ShareInvitation(ctx context.Context, phoneNumber, guestName string, cfg models.InvitationConfig, link string) error
}

// Services are the dependencies of the HTTP handlers.
type Services struct {
	Workspace *portal.Workspace
	Engine    *countdown.Engine
	RSVPs     *rsvp.Service
	Archive   *archive.Archive
	Greeting  greeting.Generator
	// Sharer is nil when WhatsApp is disabled.
	Sharer Sharer
}

// Options configures the server.
type Options struct {
	PortalName  string
	CORSOrigins []string
	Location    *time.Location
	Clock       clockwork.Clock
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services  Services
	opts      Options
	validator *validation.Validator
	router    *chi.Mux
	log       zerolog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services Services, opts Options, log zerolog.Logger) *Server {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	s := &Server{
		services:  services,
		opts:      opts,
		validator: validation.New(),
		router:    chi.NewRouter(),
		log:       log,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RealIP)
	s.router.Use(hlog.NewHandler(s.log))
	s.router.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	s.router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("HTTP request")
	}))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/portal", s.handlePortal)

		r.Route("/countdown", func(r chi.Router) {
			r.Get("/", s.handleCountdown)
			r.Get("/stream", s.handleCountdownStream)
		})

		r.Route("/rsvps", func(r chi.Router) {
			r.Post("/", s.handleSubmitRSVP)
			r.Get("/", s.handleListRSVPs)
			r.Delete("/", s.handleClearRSVPs)
			r.Get("/summary", s.handleRSVPSummary)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/config", s.handleGetConfig)
			r.Patch("/config", s.handlePatchConfig)
			r.Post("/config/new", s.handleNewConfig)
			r.Post("/publish", s.handlePublish)
			r.Post("/share", s.handleShare)

			r.Route("/archive", func(r chi.Router) {
				r.Get("/", s.handleListArchive)
				r.Get("/{id}", s.handleGetArchived)
				r.Post("/{id}/restore", s.handleRestoreArchived)
				r.Delete("/{id}", s.handleDeleteArchived)
			})
		})
	})
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}
