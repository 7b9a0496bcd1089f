// Package api exposes the bridge state over a local REST API.
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hautomata/jellybridge/internal/browse"
	"github.com/hautomata/jellybridge/internal/devices"
	"github.com/hautomata/jellybridge/internal/history"
	"github.com/hautomata/jellybridge/internal/jellyfin"
	"github.com/hautomata/jellybridge/internal/logging"
)

// MediaServer is the slice of the Jellyfin client the API needs beyond
// device control.
type MediaServer interface {
	browse.Library
	GetSystemInfo() (*jellyfin.SystemInfo, error)
	RefreshLibrary() error
}

// Bridge reports connection state to the upstream server.
type Bridge interface {
	Connected() bool
}

// Server implements the REST API.
type Server struct {
	manager *devices.Manager
	media   MediaServer
	bridge  Bridge
	store   *history.Store
	log     *logging.Logger
	started time.Time
	version string
	origins []string
}

// NewServer creates a new API server. store may be nil when history is
// disabled.
func NewServer(manager *devices.Manager, media MediaServer, bridge Bridge, store *history.Store, log *logging.Logger, version string) *Server {
	if log == nil {
		log = logging.Nop()
	}
	return &Server{
		manager: manager,
		media:   media,
		bridge:  bridge,
		store:   store,
		log:     log,
		started: time.Now(),
		version: version,
		origins: []string{"*"},
	}
}

// SetCORSOrigins overrides the allowed CORS origins.
func (s *Server) SetCORSOrigins(origins []string) {
	if len(origins) > 0 {
		s.origins = origins
	}
}

// Handler returns the HTTP handler with middleware and API routes.
func (s *Server) Handler() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Mount("/api/v1", s.apiRouter())

	return r
}

func (s *Server) apiRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Get("/health", s.HealthCheck)
	r.Get("/devices", s.ListDevices)
	r.Get("/devices/{key}", s.GetDevice)
	r.Post("/devices/{key}/command", s.SendCommand)
	r.Get("/devices/{key}/history", s.GetDeviceHistory)
	r.Get("/browse", s.BrowseLibrary)
	r.Get("/history", s.GetHistory)
	r.Post("/library/refresh", s.RefreshLibrary)

	return r
}
