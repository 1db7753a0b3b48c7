package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/CreativeUnicorns/addonprefs"
	"github.com/CreativeUnicorns/addonprefs/dom"
)

// PanelIDHeader carries the id of a panel opened by the options endpoint.
const PanelIDHeader = "X-Panel-ID"

const maxBodyBytes = 1024 * 1024

type addonSummary struct {
	ID          string `json:"id"`
	Preferences int    `json:"preferences"`
}

type prefsResponse struct {
	ID          string         `json:"id"`
	Preferences map[string]any `json:"preferences"`
}

type panelEventRequest struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Detail any    `json:"detail"`
}

type panelEventResponse struct {
	Handled int `json:"handled"`
}

func (s *Server) handleListAddons(w http.ResponseWriter, r *http.Request) {
	ids := s.manager.Enabled()
	out := make([]addonSummary, 0, len(ids))
	for _, id := range ids {
		descs, ok := s.manager.Descriptors(id)
		if !ok {
			continue
		}
		out = append(out, addonSummary{ID: id, Preferences: len(descs)})
	}
	s.respondWithJSON(w, r, http.StatusOK, out)
}

// handleEnableAddon enables the preferences of a posted manifest.
func (s *Server) handleEnableAddon(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var m addonprefs.Manifest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&m); err != nil {
		s.respondWithError(w, r, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	res, err := s.manager.Enable(r.Context(), m.Preferences, strings.TrimSpace(m.ID))
	if err != nil {
		var descErr *addonprefs.DescriptorError
		if errors.As(err, &descErr) || errors.Is(err, addonprefs.ErrInvalidKey) {
			s.respondWithError(w, r, http.StatusBadRequest, "Invalid preferences", err)
			return
		}
		s.respondWithError(w, r, http.StatusInternalServerError, "Failed to enable preferences", err)
		return
	}
	s.respondWithJSON(w, r, http.StatusCreated, res)
}

func (s *Server) handleDisableAddon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.manager.Disable(id) {
		s.respondWithError(w, r, http.StatusNotFound, "Extension not enabled", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetPrefs returns the effective value of every preference of an
// enabled extension, keyed by preference name.
func (s *Server) handleGetPrefs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.manager.Descriptors(id); !ok {
		s.respondWithError(w, r, http.StatusNotFound, "Extension not enabled", nil)
		return
	}

	prefix := id + "."
	values, err := s.prefs.Effective(r.Context(), prefix)
	if err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "Failed to read preferences", err)
		return
	}

	out := prefsResponse{ID: id, Preferences: make(map[string]any, len(values))}
	for key, v := range values {
		out.Preferences[strings.TrimPrefix(key, prefix)] = v
	}
	s.respondWithJSON(w, r, http.StatusOK, out)
}

// handleOpenPanel shows an extension's options panel on a fresh document
// and returns it as HTML. The panel stays open for events until closed.
func (s *Server) handleOpenPanel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.manager.Descriptors(id); !ok {
		s.respondWithError(w, r, http.StatusNotFound, "Extension not enabled", nil)
		return
	}

	s.docMu.Lock()
	doc := dom.NewOptionsPage(addonprefs.DetailRowsID)
	s.bus.DisplayPanel(doc, id)
	body := doc.String()
	panelID := uuid.NewString()
	s.panels.add(&panel{id: panelID, extensionID: id, doc: doc, opened: time.Now()})
	s.docMu.Unlock()

	s.logger.Debug("Opened options panel", "extension", id, "panel", panelID)
	w.Header().Set(PanelIDHeader, panelID)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// handlePanelEvent dispatches one event to every element of the panel
// carrying the named preference.
func (s *Server) handlePanelEvent(w http.ResponseWriter, r *http.Request) {
	panelID := chi.URLParam(r, "panelID")
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req panelEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, r, http.StatusBadRequest, "Invalid request payload", err)
		return
	}
	if req.Name == "" || req.Type == "" {
		s.respondWithError(w, r, http.StatusBadRequest, "Event name and type are required", nil)
		return
	}

	s.docMu.Lock()
	p, ok := s.panels.get(panelID)
	handled := 0
	if ok {
		handled = p.doc.Dispatch(addonprefs.AttrPrefName, req.Name, addonprefs.Event{Type: req.Type, Detail: req.Detail})
	}
	s.docMu.Unlock()

	if !ok {
		s.respondWithError(w, r, http.StatusNotFound, "Panel not found", nil)
		return
	}
	if handled == 0 {
		s.respondWithError(w, r, http.StatusUnprocessableEntity, "No listener handled the event", nil)
		return
	}
	s.respondWithJSON(w, r, http.StatusOK, panelEventResponse{Handled: handled})
}

func (s *Server) handleClosePanel(w http.ResponseWriter, r *http.Request) {
	panelID := chi.URLParam(r, "panelID")

	s.docMu.Lock()
	ok := s.panels.remove(panelID)
	s.docMu.Unlock()

	if !ok {
		s.respondWithError(w, r, http.StatusNotFound, "Panel not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// panel is one open options panel.
type panel struct {
	id          string
	extensionID string
	doc         *dom.Document
	opened      time.Time
}

// panelRegistry holds open panels. It is guarded by Server.docMu.
type panelRegistry struct {
	max    int
	panels map[string]*panel
}

func newPanelRegistry(max int) *panelRegistry {
	return &panelRegistry{max: max, panels: make(map[string]*panel)}
}

func (reg *panelRegistry) add(p *panel) {
	if len(reg.panels) >= reg.max {
		reg.evictOldest()
	}
	reg.panels[p.id] = p
}

func (reg *panelRegistry) get(id string) (*panel, bool) {
	p, ok := reg.panels[id]
	return p, ok
}

func (reg *panelRegistry) remove(id string) bool {
	if _, ok := reg.panels[id]; !ok {
		return false
	}
	delete(reg.panels, id)
	return true
}

func (reg *panelRegistry) clear() {
	reg.panels = make(map[string]*panel)
}

func (reg *panelRegistry) evictOldest() {
	all := make([]*panel, 0, len(reg.panels))
	for _, p := range reg.panels {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].opened.Before(all[j].opened) })
	for _, p := range all[:len(all)-reg.max+1] {
		delete(reg.panels, p.id)
	}
}
