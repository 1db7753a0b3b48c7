// Package addonprefs defines the core types used by the preferences panel.
package addonprefs

import (
	"time"
)

// Type is the wire name of a descriptor's control kind.
type Type string

// Descriptor types. These are the only values Validate accepts.
const (
	TypeBool        Type = "bool"
	TypeBoolInt     Type = "boolint"
	TypeInteger     Type = "integer"
	TypeString      Type = "string"
	TypeColor       Type = "color"
	TypeFile        Type = "file"
	TypeDirectory   Type = "directory"
	TypeControl     Type = "control"
	TypeMenuList    Type = "menulist"
	TypeMultiSelect Type = "multiselect"
	TypeRadio       Type = "radio"
)

// Option is a single value/label choice offered by menulist, multiselect and radio descriptors.
type Option struct {
	Value any    `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Descriptor is one preference's schema entry as declared by an extension.
// It is a plain value; Validate must accept a list before it is seeded or rendered.
type Descriptor struct {
	// Name identifies the preference inside the extension's namespace.
	Name string `json:"name" yaml:"name"`
	// Title is the display label of the setting row.
	Title string `json:"title" yaml:"title"`
	// Type selects the control rendered for the preference.
	Type Type `json:"type" yaml:"type"`
	// Value is the default value seeded into the default branch.
	Value any `json:"value,omitempty" yaml:"value,omitempty"`
	// Label is the button caption; required for TypeControl.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	// Description is optional help text shown under the title.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Hidden suppresses rendering. Defaults are still seeded.
	Hidden bool `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	// Options lists the choices for menulist, multiselect and radio.
	Options []Option `json:"options,omitempty" yaml:"options,omitempty"`
	// On and Off are the integer values a boolint setting stores.
	On  any `json:"on,omitempty" yaml:"on,omitempty"`
	Off any `json:"off,omitempty" yaml:"off,omitempty"`
	// Open lets a multiselect accept tags that are not in Options.
	Open bool `json:"open,omitempty" yaml:"open,omitempty"`
}

// Manifest is the preference section of an extension package.
type Manifest struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name,omitempty" yaml:"name,omitempty"`
	Preferences []Descriptor `json:"preferences" yaml:"preferences"`
}

// Layer distinguishes default values from user-set values in the store.
type Layer string

const (
	LayerDefault Layer = "default"
	LayerUser    Layer = "user"
)

// Kind is the store primitive a preference value is kept as.
type Kind string

const (
	KindInvalid Kind = ""
	KindBool    Kind = "bool"
	KindInt     Kind = "int"
	KindString  Kind = "string"
)

// StoredPref is a single preference value as persisted by a Storage backend.
type StoredPref struct {
	// Layer is the branch the value belongs to.
	Layer Layer `json:"layer"`
	// Key is the fully qualified preference name, e.g. "my-addon.debug".
	Key string `json:"key"`
	// Kind is the primitive the value was written with.
	Kind Kind `json:"kind"`
	// Value is the canonical text form: "true"/"false", base-10 integer, or the raw string.
	// When Encrypted is set it holds ciphertext instead.
	Value string `json:"value"`
	// Encrypted reports whether Value was sealed by the configured EncryptionManager.
	Encrypted bool `json:"encrypted,omitempty"`
	// UpdatedAt records the last write.
	UpdatedAt time.Time `json:"updated_at"`
}

// Config holds the internal configuration for a Service.
// It is populated by applying functional Options when New is called.
type Config struct {
	storage    Storage
	cache      Cache
	cacheTTL   time.Duration
	logger     Logger
	encryption EncryptionManager
}

// ServiceOption configures a Service.
type ServiceOption func(*Config)

// WithStorage sets the persistence backend. A Service without storage
// returns ErrStorageUnavailable from every operation.
func WithStorage(s Storage) ServiceOption {
	return func(c *Config) {
		c.storage = s
	}
}

// WithCache sets an optional read-through cache in front of the storage.
func WithCache(cache Cache) ServiceOption {
	return func(c *Config) {
		c.cache = cache
	}
}

// WithCacheTTL overrides how long cached entries live. Zero keeps the default.
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(c *Config) {
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithLogger sets the logger used by the Service.
func WithLogger(l Logger) ServiceOption {
	return func(c *Config) {
		c.logger = l
	}
}

// WithEncryption seals every value before it reaches storage.
func WithEncryption(e EncryptionManager) ServiceOption {
	return func(c *Config) {
		c.encryption = e
	}
}
