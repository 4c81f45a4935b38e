package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"proofdrop-scorer/internal/domain/service"
	"proofdrop-scorer/internal/infrastructure/logger"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RequestObserver records the outcome of each score request
type RequestObserver interface {
	ObserveRequest(transport, status string)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	RequestTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxBodyBytes   int64
}

// DefaultServerConfig returns server defaults for the given port
func DefaultServerConfig(port int) ServerConfig {
	return ServerConfig{
		Port:           port,
		RequestTimeout: 15 * time.Second,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxBodyBytes:   16 << 20,
	}
}

// Server exposes the scorer over HTTP
type Server struct {
	router   *mux.Router
	server   *http.Server
	handlers *Handlers
	config   ServerConfig
	logger   *logger.Logger
}

// NewServer creates the HTTP server and registers its routes.
// checks are reported by GET /health keyed by dependency name.
func NewServer(
	cfg ServerConfig,
	scorer service.ReputationService,
	observer RequestObserver,
	checks map[string]HealthCheck,
	log *logger.Logger,
) *Server {
	log = log.WithComponent("http-server")

	s := &Server{
		router:   mux.NewRouter(),
		handlers: NewHandlers(scorer, observer, checks, cfg.MaxBodyBytes, log),
		config:   cfg,
		logger:   log,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.timeoutMiddleware)

	s.router.HandleFunc("/health", s.handlers.Health).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/score", s.handlers.Score).Methods(http.MethodPost)
	v1.HandleFunc("/badges", s.handlers.Badges).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(s.handlers.NotFound)
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves in the background until Shutdown
func (s *Server) Start() {
	s.logger.Info("Starting HTTP server", zap.Int("port", s.config.Port))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// requestLoggingMiddleware logs every request with its status and latency
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapper.statusCode),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr))
	})
}

// timeoutMiddleware bounds the time spent resolving a request
func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.RequestTimeout <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
