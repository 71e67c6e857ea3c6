package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"

	"github.com/subdeck/subdeck/pkg/airtable"
	"github.com/subdeck/subdeck/pkg/audit"
	"github.com/subdeck/subdeck/pkg/auth"
	"github.com/subdeck/subdeck/pkg/httputil"
	"github.com/subdeck/subdeck/pkg/middleware"
	"github.com/subdeck/subdeck/pkg/observability"
	"github.com/subdeck/subdeck/pkg/tenants"
)

// Config wires the server's collaborators
type Config struct {
	Registry *tenants.Registry
	Sessions *auth.Store
	Upstream *airtable.Client
	Logger   *observability.Logger
	Metrics  *observability.Metrics
	Audit    audit.Logger

	// WebDir is the static dashboard bundle; empty disables static serving
	WebDir string

	// AllowedOrigins for CORS; defaults to "*"
	AllowedOrigins []string

	// Version reported by the health endpoint
	Version string
}

// Server is the dashboard-facing HTTP server
type Server struct {
	router   *mux.Router
	registry *tenants.Registry
	sessions *auth.Store
	upstream *airtable.Client
	logger   *observability.Logger
	metrics  *observability.Metrics
	audit    audit.Logger
	webDir   string
}

// NewServer creates the API server and registers all routes
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	auditLog := cfg.Audit
	if auditLog == nil {
		auditLog = audit.NewNopLogger()
	}

	s := &Server{
		router:   mux.NewRouter(),
		registry: cfg.Registry,
		sessions: cfg.Sessions,
		upstream: cfg.Upstream,
		logger:   logger,
		metrics:  cfg.Metrics,
		audit:    auditLog,
		webDir:   cfg.WebDir,
	}
	s.setupRoutes(cfg)
	return s
}

// setupRoutes configures middleware and all API routes
func (s *Server) setupRoutes(cfg Config) {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(httputil.RequestIDMiddleware)
	s.router.Use(httputil.LoggingMiddleware(s.logger))
	s.router.Use(httputil.RecoveryMiddleware(s.logger))
	s.router.Use(httputil.CORSMiddleware(origins))
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost, http.MethodOptions)

	// Tenant-scoped routes sit behind the auth gate; rejection happens
	// before any upstream call.
	authGate := middleware.NewAuthMiddleware(s.sessions, s.registry, s.audit)
	protected := api.NewRoute().Subrouter()
	protected.Use(authGate.Handler)
	protected.HandleFunc("/posts", s.handleListPosts).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/posts", s.handleCreatePost).Methods(http.MethodPost)
	protected.HandleFunc("/subreddits", s.handleListSubreddits).Methods(http.MethodGet, http.MethodOptions)

	health := observability.NewHealthChecker(cfg.Version, s.sessions.Len)
	s.router.HandleFunc("/health", health.Liveness).Methods(http.MethodGet)
	s.router.HandleFunc("/health/status", health.Status).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	if s.webDir != "" {
		s.router.PathPrefix("/").Handler(dashboardHandler(s.webDir))
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// dashboardHandler serves the static dashboard bundle, falling back to
// index.html for unknown paths so the client-side app handles them.
func dashboardHandler(dir string) http.Handler {
	fileServer := http.FileServer(http.Dir(dir))
	indexPath := filepath.Join(dir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(requested); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, indexPath)
	})
}
