package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(LoggerMiddleware(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.SetHeader("Content-Type", "application/json"))

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		})

		r.Route("/addons", func(r chi.Router) {
			r.Get("/", s.handleListAddons)
			r.Post("/", s.handleEnableAddon)
			r.Delete("/{id}", s.handleDisableAddon)
			r.Get("/{id}/prefs", s.handleGetPrefs)
			r.Get("/{id}/options", s.handleOpenPanel)
		})

		r.Route("/panels/{panelID}", func(r chi.Router) {
			r.Post("/events", s.handlePanelEvent)
			r.Delete("/", s.handleClosePanel)
		})

		r.Get("/events/ws", s.handleWS)
	})
}
