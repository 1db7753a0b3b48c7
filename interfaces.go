// Package addonprefs defines the capability interfaces the panel logic depends on.
package addonprefs

import (
	"context"
	"time"
)

// Storage defines the methods required for a persistence backend.
type Storage interface {
	Get(ctx context.Context, layer Layer, key string) (*StoredPref, error)
	Set(ctx context.Context, pref *StoredPref) error
	Delete(ctx context.Context, layer Layer, key string) error
	// List returns every value in layer whose key starts with prefix, keyed by full key.
	List(ctx context.Context, layer Layer, prefix string) (map[string]*StoredPref, error)
	Close() error
}

// Cache defines the methods required for a caching backend.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// EncryptionManager seals values before they are written to storage.
type EncryptionManager interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// PreferenceBranch is a view of the store rooted at a dotted prefix.
// Names passed to its methods are relative to Root.
type PreferenceBranch interface {
	Root() string
	GetBool(ctx context.Context, name string) (bool, error)
	SetBool(ctx context.Context, name string, value bool) error
	GetInt(ctx context.Context, name string) (int64, error)
	SetInt(ctx context.Context, name string, value int64) error
	GetString(ctx context.Context, name string) (string, error)
	SetString(ctx context.Context, name string, value string) error
	// Kind reports the primitive the current value is stored as, or KindInvalid when unset.
	Kind(ctx context.Context, name string) (Kind, error)
	// Clear removes the value this branch writes to.
	Clear(ctx context.Context, name string) error
}

// PreferenceService hands out branches of the preference store.
type PreferenceService interface {
	// Branch returns the user branch: reads fall back to defaults, writes set user values.
	Branch(root string) PreferenceBranch
	// DefaultBranch reads and writes default values only.
	DefaultBranch(root string) PreferenceBranch
}

// Namespaces for elements created by the renderer.
const (
	XULNamespace  = "http://www.mozilla.org/keymaster/gatekeeper/there.is.only.xul"
	HTMLNamespace = "http://www.w3.org/1999/xhtml"
)

// Event is delivered to element listeners.
type Event struct {
	Type   string
	Detail any
}

// EventListener handles an Event dispatched to an element.
type EventListener func(ev Event)

// Element is the part of a host element the renderer uses.
type Element interface {
	SetAttribute(name, value string)
	GetAttribute(name string) string
	AppendChild(child Element) Element
	AddEventListener(eventType string, fn EventListener)
}

// Document is the host document provider.
type Document interface {
	CreateElement(tag string) Element
	CreateElementNS(namespace, tag string) Element
	// GetElementByID returns nil when no element has the id.
	GetElementByID(id string) Element
}

// PanelDisplayHandler runs when the host shows an extension's options panel.
type PanelDisplayHandler func(doc Document)

// Subscription identifies a registered panel display handler.
type Subscription struct {
	Topic string
	ID    uint64
}

// EventBus carries the host's broadcast notifications.
type EventBus interface {
	OnPanelDisplay(extensionID string, h PanelDisplayHandler) Subscription
	OffPanelDisplay(sub Subscription)
	Broadcast(topic, data string)
}

// Localizer rewrites inline text of a rendered document.
type Localizer interface {
	Localize(doc Document) error
}

// LocalizerFunc adapts a function to Localizer.
type LocalizerFunc func(doc Document) error

func (f LocalizerFunc) Localize(doc Document) error {
	return f(doc)
}
