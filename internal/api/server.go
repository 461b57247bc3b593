package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/math-practice/internal/config"
	"github.com/terra-clan/math-practice/internal/practice"
	"github.com/terra-clan/math-practice/internal/services"
)

// Server represents the HTTP API server
type Server struct {
	config      config.ServerConfig
	router      *chi.Mux
	manager     *practice.Manager
	registry    *services.Registry
	restMinutes int
	timerTick   time.Duration
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	manager *practice.Manager,
	registry *services.Registry,
	timerCfg config.TimerConfig,
) *Server {
	if registry == nil {
		registry = services.NewRegistry()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	s := &Server{
		config:      cfg,
		manager:     manager,
		registry:    registry,
		restMinutes: timerCfg.RestMinutes,
		timerTick:   time.Second,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		// Long-lived, no request timeout
		r.Get("/ws/timer", s.handleTimerWS)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.config.RequestTimeout))

			// Exercises
			r.Get("/exercises", s.handleListExercises)
			r.Get("/exercises/section/{sectionId}", s.handleListSectionExercises)
			r.Get("/exercise/{id}", s.handleGetExercise)

			// Responses
			r.Post("/response", s.handleSaveResponse)
			r.Get("/response/{exerciseId}", s.handleGetResponse)

			// Settings
			r.Get("/settings", s.handleGetSettings)
			r.Patch("/settings", s.handleUpdateSettings)

			// Study sessions
			r.Route("/sessions", func(r chi.Router) {
				r.Get("/current", s.handleGetCurrentSession)
				r.Post("/", s.handleCreateSession)
				r.Patch("/{id}", s.handleUpdateSession)
			})

			// Domain estimates
			r.Get("/bkt/domains", s.handleGetDomains)

			// Section files
			r.Route("/sections", func(r chi.Router) {
				r.Get("/files", s.handleListSectionFiles)
				r.Post("/upload", s.handleUploadSectionFile)
				r.Delete("/files/{filename}", s.handleDeleteSectionFile)
			})

			// AI feedback
			r.Route("/ai", func(r chi.Router) {
				r.Post("/response", s.handleSolve)
				r.Post("/feedback", s.handleSectionFeedback)
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
