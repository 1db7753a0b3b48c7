// service.go
package addonprefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const defaultCacheTTL = 24 * time.Hour

// Service is the preference store: typed branches over a Storage backend,
// with optional caching and encryption at rest. It is safe for concurrent use.
type Service struct {
	config *Config
}

// New creates a Service configured by opts.
func New(opts ...ServiceOption) *Service {
	cfg := &Config{
		logger:   NewDefaultLogger(),
		cacheTTL: defaultCacheTTL,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &Service{
		config: cfg,
	}
}

// Branch returns the user branch rooted at root.
func (s *Service) Branch(root string) PreferenceBranch {
	return &branch{svc: s, root: root, layer: LayerUser}
}

// DefaultBranch returns the default branch rooted at root.
func (s *Service) DefaultBranch(root string) PreferenceBranch {
	return &branch{svc: s, root: root, layer: LayerDefault}
}

// Effective returns the value a user branch would read for every key under prefix:
// user values where set, defaults otherwise. Values are decoded to bool, int64 or string.
func (s *Service) Effective(ctx context.Context, prefix string) (map[string]any, error) {
	if s.config.storage == nil {
		return nil, ErrStorageUnavailable
	}

	out := make(map[string]any)
	for _, layer := range []Layer{LayerDefault, LayerUser} {
		prefs, err := s.config.storage.List(ctx, layer, prefix)
		if err != nil {
			return nil, err
		}
		for key, pref := range prefs {
			if err := s.open(pref); err != nil {
				return nil, err
			}
			v, err := decodeValue(pref)
			if err != nil {
				s.config.logger.Warn("Skipping undecodable preference", "key", key, "error", err)
				continue
			}
			out[key] = v
		}
	}
	return out, nil
}

// Close releases the storage and cache.
func (s *Service) Close() error {
	var errs []error
	if s.config.cache != nil {
		if err := s.config.cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.config.storage != nil {
		if err := s.config.storage.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) get(ctx context.Context, layer Layer, key string) (*StoredPref, error) {
	if s.config.storage == nil {
		return nil, ErrStorageUnavailable
	}

	if s.config.cache != nil {
		if pref, err := s.getFromCache(ctx, layer, key); err == nil {
			if err := s.open(pref); err != nil {
				return nil, err
			}
			return pref, nil
		}
	}

	pref, err := s.config.storage.Get(ctx, layer, key)
	if err != nil {
		return nil, err
	}

	if s.config.cache != nil {
		s.setToCache(ctx, pref)
	}

	if err := s.open(pref); err != nil {
		return nil, err
	}
	return pref, nil
}

func (s *Service) set(ctx context.Context, pref *StoredPref) error {
	if s.config.storage == nil {
		return ErrStorageUnavailable
	}

	if s.config.encryption != nil {
		sealed, err := s.config.encryption.Encrypt(pref.Value)
		if err != nil {
			return fmt.Errorf("failed to encrypt preference %s: %w", pref.Key, err)
		}
		pref.Value = sealed
		pref.Encrypted = true
	}

	if err := s.config.storage.Set(ctx, pref); err != nil {
		return err
	}

	if s.config.cache != nil {
		s.setToCache(ctx, pref)
	}

	return nil
}

func (s *Service) delete(ctx context.Context, layer Layer, key string) error {
	if s.config.storage == nil {
		return ErrStorageUnavailable
	}

	if err := s.config.storage.Delete(ctx, layer, key); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	if s.config.cache != nil {
		s.deleteFromCache(ctx, layer, key)
	}

	return nil
}

// open decrypts pref in place when it was sealed.
func (s *Service) open(pref *StoredPref) error {
	if !pref.Encrypted {
		return nil
	}
	if s.config.encryption == nil {
		return fmt.Errorf("preference %s is encrypted but no encryption is configured", pref.Key)
	}
	plain, err := s.config.encryption.Decrypt(pref.Value)
	if err != nil {
		return fmt.Errorf("failed to decrypt preference %s: %w", pref.Key, err)
	}
	pref.Value = plain
	pref.Encrypted = false
	return nil
}

func cacheKey(layer Layer, key string) string {
	return fmt.Sprintf("pref:%s:%s", layer, key)
}

func (s *Service) getFromCache(ctx context.Context, layer Layer, key string) (*StoredPref, error) {
	data, err := s.config.cache.Get(ctx, cacheKey(layer, key))
	if err != nil {
		return nil, err
	}

	var pref StoredPref
	if err := json.Unmarshal(data, &pref); err != nil {
		return nil, err
	}

	return &pref, nil
}

func (s *Service) setToCache(ctx context.Context, pref *StoredPref) {
	data, err := json.Marshal(pref)
	if err != nil {
		s.config.logger.Error("Failed to marshal preference for cache", "error", err)
		return
	}

	if err := s.config.cache.Set(ctx, cacheKey(pref.Layer, pref.Key), data, s.config.cacheTTL); err != nil {
		s.config.logger.Error("Failed to cache preference", "error", err)
	}
}

func (s *Service) deleteFromCache(ctx context.Context, layer Layer, key string) {
	if err := s.config.cache.Delete(ctx, cacheKey(layer, key)); err != nil {
		s.config.logger.Error("Failed to delete preference from cache", "error", err)
	}
}

// branch implements PreferenceBranch for one layer.
type branch struct {
	svc   *Service
	root  string
	layer Layer
}

func (b *branch) Root() string {
	return b.root
}

func (b *branch) key(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrInvalidKey
	}
	return b.root + name, nil
}

// lookup reads the value visible through this branch.
func (b *branch) lookup(ctx context.Context, name string) (*StoredPref, error) {
	key, err := b.key(name)
	if err != nil {
		return nil, err
	}
	if b.layer == LayerUser {
		pref, err := b.svc.get(ctx, LayerUser, key)
		if err == nil {
			return pref, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return b.svc.get(ctx, LayerDefault, key)
}

func (b *branch) write(ctx context.Context, name string, kind Kind, value string) error {
	key, err := b.key(name)
	if err != nil {
		return err
	}
	return b.svc.set(ctx, &StoredPref{
		Layer:     b.layer,
		Key:       key,
		Kind:      kind,
		Value:     value,
		UpdatedAt: time.Now(),
	})
}

func (b *branch) GetBool(ctx context.Context, name string) (bool, error) {
	pref, err := b.lookup(ctx, name)
	if err != nil {
		return false, err
	}
	if pref.Kind != KindBool {
		return false, fmt.Errorf("%w: %s is %s, not bool", ErrTypeMismatch, pref.Key, pref.Kind)
	}
	return strconv.ParseBool(pref.Value)
}

func (b *branch) SetBool(ctx context.Context, name string, value bool) error {
	return b.write(ctx, name, KindBool, strconv.FormatBool(value))
}

func (b *branch) GetInt(ctx context.Context, name string) (int64, error) {
	pref, err := b.lookup(ctx, name)
	if err != nil {
		return 0, err
	}
	if pref.Kind != KindInt {
		return 0, fmt.Errorf("%w: %s is %s, not int", ErrTypeMismatch, pref.Key, pref.Kind)
	}
	return strconv.ParseInt(pref.Value, 10, 64)
}

func (b *branch) SetInt(ctx context.Context, name string, value int64) error {
	return b.write(ctx, name, KindInt, strconv.FormatInt(value, 10))
}

func (b *branch) GetString(ctx context.Context, name string) (string, error) {
	pref, err := b.lookup(ctx, name)
	if err != nil {
		return "", err
	}
	if pref.Kind != KindString {
		return "", fmt.Errorf("%w: %s is %s, not string", ErrTypeMismatch, pref.Key, pref.Kind)
	}
	return pref.Value, nil
}

func (b *branch) SetString(ctx context.Context, name string, value string) error {
	return b.write(ctx, name, KindString, value)
}

func (b *branch) Kind(ctx context.Context, name string) (Kind, error) {
	pref, err := b.lookup(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return KindInvalid, nil
	}
	if err != nil {
		return KindInvalid, err
	}
	return pref.Kind, nil
}

func (b *branch) Clear(ctx context.Context, name string) error {
	key, err := b.key(name)
	if err != nil {
		return err
	}
	return b.svc.delete(ctx, b.layer, key)
}

func decodeValue(pref *StoredPref) (any, error) {
	switch pref.Kind {
	case KindBool:
		return strconv.ParseBool(pref.Value)
	case KindInt:
		return strconv.ParseInt(pref.Value, 10, 64)
	case KindString:
		return pref.Value, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrTypeMismatch, pref.Kind)
}
