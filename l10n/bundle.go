package l10n

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// Bundle is a set of catalogs keyed by locale with a fallback.
type Bundle struct {
	catalogs map[string]*Catalog
	fallback string
}

// NewBundle groups catalogs. fallback names the locale used when no better match exists.
func NewBundle(fallback string, catalogs ...*Catalog) *Bundle {
	b := &Bundle{catalogs: make(map[string]*Catalog), fallback: normalizeLocale(fallback)}
	for _, c := range catalogs {
		b.catalogs[normalizeLocale(c.Locale())] = c
	}
	return b
}

// LoadFS reads every .json, .yaml and .yml file directly under dir in fsys.
// Each file's base name is its locale, e.g. "fr-FR.yaml".
func LoadFS(fsys fs.FS, dir, fallback string) (*Bundle, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("l10n: read %s: %w", dir, err)
	}

	b := NewBundle(fallback)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(path.Ext(entry.Name())) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}
		p := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("l10n: read %s: %w", p, err)
		}
		c, err := Parse(data, localeFromPath(p))
		if err != nil {
			return nil, err
		}
		b.catalogs[normalizeLocale(c.Locale())] = c
	}
	return b, nil
}

// Locales returns the available locales in sorted order.
func (b *Bundle) Locales() []string {
	out := make([]string, 0, len(b.catalogs))
	for l := range b.catalogs {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Match returns the catalog for locale: an exact match, then its base
// language, then the fallback. It returns nil when none exist.
func (b *Bundle) Match(locale string) *Catalog {
	locale = normalizeLocale(locale)
	if c, ok := b.catalogs[locale]; ok {
		return c
	}
	if base, _, found := strings.Cut(locale, "-"); found {
		if c, ok := b.catalogs[base]; ok {
			return c
		}
	}
	return b.catalogs[b.fallback]
}

func normalizeLocale(locale string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
}
