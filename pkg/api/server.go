package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/bootpe/pluginmart/pkg/bootdrive"
	"github.com/bootpe/pluginmart/pkg/download"
	"github.com/bootpe/pluginmart/pkg/lifecycle"
	"github.com/bootpe/pluginmart/pkg/mode"
	"github.com/bootpe/pluginmart/pkg/observability"
	"github.com/bootpe/pluginmart/pkg/plugin"
	"github.com/bootpe/pluginmart/pkg/registry"
)

// CatalogClient fetches and probes the remote catalog.
type CatalogClient interface {
	Fetch(ctx context.Context, m mode.Mode) ([]plugin.Category, error)
	Probe(ctx context.Context, m mode.Mode) error
}

// DriveManager exposes boot drive discovery and selection.
type DriveManager interface {
	Drives() []bootdrive.Drive
	SetCurrent(root string)
	CurrentRoot() (string, bool)
	Reload()
}

// Server represents the plugin manager API server
type Server struct {
	mode    mode.Mode
	router  *mux.Router
	reg     *registry.Registry
	orch    *lifecycle.Orchestrator
	catalog CatalogClient
	drives  DriveManager
	engine  *download.Engine
	log     *logrus.Logger
}

// Config collects the server's collaborators.
type Config struct {
	Mode     mode.Mode
	Registry *registry.Registry
	Orch     *lifecycle.Orchestrator
	Catalog  CatalogClient
	Drives   DriveManager
	Engine   *download.Engine
	Log      *logrus.Logger
	Metrics  *observability.Metrics
}

// NewServer creates a new API server
func NewServer(cfg Config) *Server {
	s := &Server{
		mode:    cfg.Mode,
		router:  mux.NewRouter(),
		reg:     cfg.Registry,
		orch:    cfg.Orch,
		catalog: cfg.Catalog,
		drives:  cfg.Drives,
		engine:  cfg.Engine,
		log:     cfg.Log,
	}

	if cfg.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(cfg.Metrics))
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Mode and connectivity
	s.router.HandleFunc("/api/v1/mode", s.getMode).Methods("GET")
	s.router.HandleFunc("/api/v1/connectivity", s.getConnectivity).Methods("GET")

	// Catalog
	s.router.HandleFunc("/api/v1/categories", s.getCategories).Methods("GET")
	s.router.HandleFunc("/api/v1/refresh", s.refreshCatalog).Methods("POST")
	s.router.HandleFunc("/api/v1/search", s.search).Methods("GET")

	// Local plugins
	s.router.HandleFunc("/api/v1/plugins/enabled", s.getEnabled).Methods("GET")
	s.router.HandleFunc("/api/v1/plugins/disabled", s.getDisabled).Methods("GET")
	s.router.HandleFunc("/api/v1/plugins/enable", s.enablePlugin).Methods("POST")
	s.router.HandleFunc("/api/v1/plugins/disable", s.disablePlugin).Methods("POST")
	s.router.HandleFunc("/api/v1/plugins/delete", s.deletePlugin).Methods("POST")

	// Per-identity operations
	s.router.HandleFunc("/api/v1/plugins/{id}/status", s.getStatus).Methods("GET")
	s.router.HandleFunc("/api/v1/plugins/{id}/install", s.installPlugin).Methods("POST")
	s.router.HandleFunc("/api/v1/plugins/{id}/update", s.updatePlugin).Methods("POST")
	s.router.HandleFunc("/api/v1/plugins/{id}/download", s.downloadPlugin).Methods("POST")

	// Tasks and progress
	s.router.HandleFunc("/api/v1/tasks", s.getTasks).Methods("GET")
	s.router.HandleFunc("/api/v1/plugins/{id}/tasks/{kind}", s.getInFlight).Methods("GET")
	s.router.HandleFunc("/api/v1/progress", s.getProgress).Methods("GET")

	// Boot drives
	s.router.HandleFunc("/api/v1/drives", s.getDrives).Methods("GET")
	s.router.HandleFunc("/api/v1/drives/current", s.getCurrentDrive).Methods("GET")
	s.router.HandleFunc("/api/v1/drives/current", s.setCurrentDrive).Methods("POST")
	s.router.HandleFunc("/api/v1/drives/reload", s.reloadDrives).Methods("POST")

	// Health
	s.router.HandleFunc("/healthz", s.healthz).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
