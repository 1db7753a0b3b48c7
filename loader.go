package addonprefs

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadManifest reads a JSON or YAML manifest from path.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	return ParseManifest(data, path)
}

// ParseManifest decodes a manifest, trying JSON first and YAML second.
// source is only used in error messages.
func ParseManifest(data []byte, source string) (Manifest, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Manifest{}, fmt.Errorf("manifest: file %s is empty", source)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		m = Manifest{}
		if yerr := yaml.Unmarshal(data, &m); yerr != nil {
			return Manifest{}, fmt.Errorf("manifest: parse %s: invalid JSON or YAML", source)
		}
		normalizeYAML(&m)
	}

	m.ID = strings.TrimSpace(m.ID)
	if m.ID == "" {
		return Manifest{}, fmt.Errorf("manifest: file %s has no id", source)
	}
	return m, nil
}

// LoadFS walks fsys and parses every .json, .yaml and .yml file as a manifest.
// Manifests are keyed by id; two files declaring the same id is an error.
func LoadFS(fsys fs.FS) (map[string]Manifest, error) {
	manifests := make(map[string]Manifest)
	if fsys == nil {
		return manifests, nil
	}

	sources := make(map[string]string)
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isManifestFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("manifest: read %s: %w", path, err)
		}
		m, err := ParseManifest(data, path)
		if err != nil {
			return err
		}
		if prev, exists := sources[m.ID]; exists {
			return fmt.Errorf("manifest: duplicate id %q (files %s and %s)", m.ID, prev, path)
		}
		sources[m.ID] = path
		manifests[m.ID] = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return manifests, nil
}

func isManifestFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// normalizeYAML converts YAML-decoded nested maps into the map[string]any
// shape encoding/json produces, so composite defaults marshal the same way.
func normalizeYAML(m *Manifest) {
	for i := range m.Preferences {
		d := &m.Preferences[i]
		d.Value = normalizeValue(d.Value)
		for j := range d.Options {
			d.Options[j].Value = normalizeValue(d.Options[j].Value)
		}
	}
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			x[k] = normalizeValue(val)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = normalizeValue(val)
		}
		return out
	case []any:
		for i, val := range x {
			x[i] = normalizeValue(val)
		}
		return x
	}
	return v
}
