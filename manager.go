// manager.go
package addonprefs

import (
	"context"
	"slices"
	"sort"
	"sync"
)

// DetailRowsID is the id of the container the options panel renders into.
const DetailRowsID = "detail-rows"

// EnableResult is returned by a successful Enable.
type EnableResult struct {
	ID string `json:"id"`
}

type managerConfig struct {
	renderer  *Renderer
	localizer Localizer
	logger    Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*managerConfig)

// WithRenderer replaces the Renderer built from the Manager's store and bus.
func WithRenderer(r *Renderer) ManagerOption {
	return func(c *managerConfig) {
		c.renderer = r
	}
}

// WithLocalizer sets the pass run over the document after each render.
func WithLocalizer(l Localizer) ManagerOption {
	return func(c *managerConfig) {
		c.localizer = l
	}
}

// WithManagerLogger sets the logger used by the Manager and its default Renderer.
func WithManagerLogger(l Logger) ManagerOption {
	return func(c *managerConfig) {
		c.logger = l
	}
}

type enabled struct {
	descs []Descriptor
	sub   Subscription
}

// Manager enables extensions' preference panels on a host.
type Manager struct {
	mu     sync.RWMutex
	prefs  PreferenceService
	bus    EventBus
	config managerConfig
	addons map[string]enabled
}

// NewManager creates a Manager storing values in prefs and listening on bus.
func NewManager(prefs PreferenceService, bus EventBus, opts ...ManagerOption) *Manager {
	cfg := managerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = NewDefaultLogger()
	}
	if cfg.renderer == nil {
		cfg.renderer = NewRenderer(prefs, bus, cfg.logger)
	}

	return &Manager{
		prefs:  prefs,
		bus:    bus,
		config: cfg,
		addons: make(map[string]enabled),
	}
}

// Enable validates descs, seeds their defaults under the extensionID namespace
// and renders them every time the host displays that extension's options panel.
// A validation error is returned before anything is written or subscribed.
// Enabling an id again replaces its previous descriptors.
func (m *Manager) Enable(ctx context.Context, descs []Descriptor, extensionID string) (EnableResult, error) {
	if extensionID == "" {
		return EnableResult{}, ErrInvalidKey
	}
	if err := Validate(descs); err != nil {
		return EnableResult{}, err
	}
	if err := SeedDefaults(ctx, m.prefs, extensionID, descs); err != nil {
		return EnableResult{}, err
	}

	descs = slices.Clone(descs)

	// at most one display subscription per extension at any time
	m.mu.Lock()
	if prev, ok := m.addons[extensionID]; ok {
		m.bus.OffPanelDisplay(prev.sub)
	}
	sub := m.bus.OnPanelDisplay(extensionID, func(doc Document) {
		m.display(ctx, doc, descs, extensionID)
	})
	m.addons[extensionID] = enabled{descs: descs, sub: sub}
	m.mu.Unlock()

	m.config.logger.Info("Enabled options panel", "extension", extensionID, "preferences", len(descs))
	return EnableResult{ID: extensionID}, nil
}

// Disable stops rendering extensionID's panel. Stored values are kept.
// It reports whether the extension was enabled.
func (m *Manager) Disable(extensionID string) bool {
	m.mu.Lock()
	e, ok := m.addons[extensionID]
	if ok {
		m.bus.OffPanelDisplay(e.sub)
		delete(m.addons, extensionID)
	}
	m.mu.Unlock()

	if ok {
		m.config.logger.Info("Disabled options panel", "extension", extensionID)
	}
	return ok
}

// Enabled returns the enabled extension ids in sorted order.
func (m *Manager) Enabled() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.addons))
	for id := range m.addons {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Descriptors returns a copy of the descriptors enabled for extensionID.
func (m *Manager) Descriptors(extensionID string) ([]Descriptor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.addons[extensionID]
	if !ok {
		return nil, false
	}
	return slices.Clone(e.descs), true
}

func (m *Manager) display(ctx context.Context, doc Document, descs []Descriptor, extensionID string) {
	container := doc.GetElementByID(DetailRowsID)
	if container == nil {
		m.config.logger.Warn("Options panel has no container", "extension", extensionID, "id", DetailRowsID)
		return
	}

	if _, err := m.config.renderer.Render(ctx, doc, container, extensionID, descs, extensionID); err != nil {
		m.config.logger.Error("Failed to render options panel", "extension", extensionID, "error", err)
		return
	}

	if m.config.localizer != nil {
		if err := m.config.localizer.Localize(doc); err != nil {
			m.config.logger.Warn("Failed to localize options panel", "extension", extensionID, "error", err)
		}
	}
}
