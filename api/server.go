// Package api serves options panels over HTTP: it opens panels on fresh
// documents, dispatches user interaction into them, and streams control
// button broadcasts over a websocket.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/CreativeUnicorns/addonprefs"
	"github.com/CreativeUnicorns/addonprefs/events"
)

// PreferenceReader exposes effective values for the prefs endpoint.
type PreferenceReader interface {
	Effective(ctx context.Context, prefix string) (map[string]any, error)
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	manager *addonprefs.Manager
	prefs   PreferenceReader
	bus     *events.Bus
	logger  addonprefs.Logger

	// docMu serializes every render and dispatch; panel documents are single-threaded.
	docMu  sync.Mutex
	panels *panelRegistry
	hub    *hub
	hubSub addonprefs.Subscription

	router     *chi.Mux
	httpServer *http.Server
}

// Config holds configuration for the API server.
type Config struct {
	ListenAddress string
	// Manager must have been created with Bus.
	Manager     *addonprefs.Manager
	Preferences PreferenceReader
	Bus         *events.Bus
	Logger      addonprefs.Logger
	// MaxPanels caps open panels; the oldest is dropped past it. Zero means 256.
	MaxPanels int
}

// NewServer creates and configures a new API server instance.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Manager == nil {
		return nil, errors.New("manager is required")
	}
	if cfg.Preferences == nil {
		return nil, errors.New("preferences are required")
	}
	if cfg.Bus == nil {
		return nil, errors.New("event bus is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = addonprefs.NewDefaultLogger()
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8080"
	}
	if cfg.MaxPanels <= 0 {
		cfg.MaxPanels = 256
	}

	s := &Server{
		manager: cfg.Manager,
		prefs:   cfg.Preferences,
		bus:     cfg.Bus,
		logger:  cfg.Logger,
		panels:  newPanelRegistry(cfg.MaxPanels),
		hub:     newHub(cfg.Logger),
		router:  chi.NewRouter(),
	}
	s.hubSub = cfg.Bus.AddObserver(events.AllTopics, s.hub.observe)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the routed handler, for embedding or httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server and blocks until it stops.
// A graceful shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("API server starting", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server and disconnects websocket clients.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("API server stopping")
	s.Close()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("API server stopped gracefully")
	return nil
}

// Close detaches the server from the bus and drops websocket clients and panels.
// Stop calls it; use it directly when only Handler was served.
func (s *Server) Close() {
	s.bus.RemoveObserver(s.hubSub)
	s.hub.close()

	s.docMu.Lock()
	s.panels.clear()
	s.docMu.Unlock()
}
