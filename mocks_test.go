package addonprefs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockStorage implements the Storage interface for testing.
type MockStorage struct {
	mu     sync.RWMutex
	data   map[Layer]map[string]StoredPref
	getErr error
	setErr error
	closed bool
	gets   int
}

// NewMockStorage creates a new MockStorage for testing.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		data: map[Layer]map[string]StoredPref{
			LayerDefault: {},
			LayerUser:    {},
		},
	}
}

func (m *MockStorage) Get(ctx context.Context, layer Layer, key string) (*StoredPref, error) {
	_, _ = ctx.Deadline()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	pref, ok := m.data[layer][key]
	if !ok {
		return nil, ErrNotFound
	}
	return &pref, nil
}

func (m *MockStorage) Set(ctx context.Context, pref *StoredPref) error {
	_, _ = ctx.Deadline()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.setErr != nil {
		return m.setErr
	}
	m.data[pref.Layer][pref.Key] = *pref
	return nil
}

func (m *MockStorage) Delete(ctx context.Context, layer Layer, key string) error {
	_, _ = ctx.Deadline()
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[layer][key]; !ok {
		return ErrNotFound
	}
	delete(m.data[layer], key)
	return nil
}

func (m *MockStorage) List(ctx context.Context, layer Layer, prefix string) (map[string]*StoredPref, error) {
	_, _ = ctx.Deadline()
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make(map[string]*StoredPref)
	for key, pref := range m.data[layer] {
		if strings.HasPrefix(key, prefix) {
			p := pref
			out[key] = &p
		}
	}
	return out, nil
}

func (m *MockStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// raw returns the stored record as persisted, bypassing the Service.
func (m *MockStorage) raw(layer Layer, key string) (StoredPref, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pref, ok := m.data[layer][key]
	return pref, ok
}

func (m *MockStorage) getCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gets
}

// MockCache implements the Cache interface for testing.
type MockCache struct {
	mu     sync.RWMutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	closed bool
}

// NewMockCache creates a new MockCache for testing.
func NewMockCache() *MockCache {
	return &MockCache{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	_, _ = ctx.Deadline()
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrCacheUnavailable
	}
	value, exists := m.data[key]
	if !exists {
		return nil, ErrNotFound
	}
	return value, nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, _ = ctx.Deadline()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrCacheUnavailable
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	_, _ = ctx.Deadline()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrCacheUnavailable
	}
	delete(m.data, key)
	return nil
}

func (m *MockCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// MockLogger implements the Logger interface for testing.
type MockLogger struct {
	mu       sync.Mutex
	Messages []string
}

func (m *MockLogger) Debug(msg string, args ...interface{}) { m.record("DEBUG", msg, args...) }
func (m *MockLogger) Info(msg string, args ...interface{})  { m.record("INFO", msg, args...) }
func (m *MockLogger) Warn(msg string, args ...interface{})  { m.record("WARN", msg, args...) }
func (m *MockLogger) Error(msg string, args ...interface{}) { m.record("ERROR", msg, args...) }

// SetLevel records the attempt to set the log level.
func (m *MockLogger) SetLevel(level LogLevel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, fmt.Sprintf("SET_LEVEL: %v", level))
}

func (m *MockLogger) record(level, msg string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, formatMessage(level, msg, args...))
}

// contains reports whether any message starts with the level and msg.
func (m *MockLogger) contains(level, msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, line := range m.Messages {
		if strings.HasPrefix(line, level+": "+msg) {
			return true
		}
	}
	return false
}

func formatMessage(level, msg string, args ...interface{}) string {
	if len(args) > 0 {
		return fmt.Sprintf("%s: %s %v", level, msg, args)
	}
	return fmt.Sprintf("%s: %s", level, msg)
}

// fakeElement is a minimal Element recording attributes, children and listeners.
type fakeElement struct {
	ns        string
	tag       string
	attrs     map[string]string
	children  []*fakeElement
	listeners map[string][]EventListener
}

func (e *fakeElement) SetAttribute(name, value string) { e.attrs[name] = value }
func (e *fakeElement) GetAttribute(name string) string { return e.attrs[name] }

func (e *fakeElement) AppendChild(child Element) Element {
	c := child.(*fakeElement)
	e.children = append(e.children, c)
	return c
}

func (e *fakeElement) AddEventListener(eventType string, fn EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], fn)
}

func (e *fakeElement) dispatch(eventType string, detail any) int {
	for _, fn := range e.listeners[eventType] {
		fn(Event{Type: eventType, Detail: detail})
	}
	return len(e.listeners[eventType])
}

// fakeDocument implements Document over fakeElements.
type fakeDocument struct {
	ids map[string]*fakeElement
}

func newFakeDocument() *fakeDocument {
	return &fakeDocument{ids: make(map[string]*fakeElement)}
}

func (d *fakeDocument) CreateElement(tag string) Element {
	return d.CreateElementNS(HTMLNamespace, tag)
}

func (d *fakeDocument) CreateElementNS(namespace, tag string) Element {
	return &fakeElement{ns: namespace, tag: tag, attrs: map[string]string{}, listeners: map[string][]EventListener{}}
}

func (d *fakeDocument) GetElementByID(id string) Element {
	if el, ok := d.ids[id]; ok {
		return el
	}
	return nil
}

// withContainer registers an empty element under id.
func (d *fakeDocument) withContainer(id string) *fakeElement {
	el := d.CreateElement("div").(*fakeElement)
	d.ids[id] = el
	return el
}

// fakeBus implements EventBus, recording broadcasts and delivering
// panel display events on demand.
type fakeBus struct {
	mu         sync.Mutex
	nextID     uint64
	handlers   map[uint64]fakeHandler
	broadcasts []string
	ops        []string
}

type fakeHandler struct {
	extensionID string
	fn          PanelDisplayHandler
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: make(map[uint64]fakeHandler)}
}

func (b *fakeBus) OnPanelDisplay(extensionID string, h PanelDisplayHandler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.handlers[b.nextID] = fakeHandler{extensionID: extensionID, fn: h}
	b.ops = append(b.ops, fmt.Sprintf("on:%d", b.nextID))
	return Subscription{Topic: "addon-options-displayed", ID: b.nextID}
}

func (b *fakeBus) OffPanelDisplay(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, sub.ID)
	b.ops = append(b.ops, fmt.Sprintf("off:%d", sub.ID))
}

func (b *fakeBus) Broadcast(topic, data string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcasts = append(b.broadcasts, topic+"="+data)
}

// display runs every handler subscribed for extensionID, in subscription order.
func (b *fakeBus) display(doc Document, extensionID string) int {
	b.mu.Lock()
	ids := make([]uint64, 0, len(b.handlers))
	for id, h := range b.handlers {
		if h.extensionID == extensionID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]PanelDisplayHandler, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, b.handlers[id].fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(doc)
	}
	return len(fns)
}

func (b *fakeBus) subscriptions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

// newTestService returns a Service over a MockStorage with logging discarded.
func newTestService(opts ...ServiceOption) (*Service, *MockStorage) {
	store := NewMockStorage()
	opts = append([]ServiceOption{WithStorage(store), WithLogger(NopLogger())}, opts...)
	return New(opts...), store
}
