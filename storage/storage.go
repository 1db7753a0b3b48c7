// Package storage provides Storage backends for addonprefs: in-memory, SQLite and PostgreSQL.
package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/CreativeUnicorns/addonprefs"
)

// Compile-time checks that every backend satisfies addonprefs.Storage.
var (
	_ addonprefs.Storage = (*MemoryStorage)(nil)
	_ addonprefs.Storage = (*SQLiteStorage)(nil)
	_ addonprefs.Storage = (*PostgresStorage)(nil)
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPref reads the columns layer, key, kind, value, encrypted, updated_at.
func scanPref(row rowScanner) (*addonprefs.StoredPref, error) {
	var pref addonprefs.StoredPref
	var layer, kind string
	err := row.Scan(
		&layer,
		&pref.Key,
		&kind,
		&pref.Value,
		&pref.Encrypted,
		&pref.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, addonprefs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	pref.Layer = addonprefs.Layer(layer)
	pref.Kind = addonprefs.Kind(kind)
	return &pref, nil
}

// scanPrefs drains rows into a map keyed by preference key.
func scanPrefs(rows *sql.Rows) (map[string]*addonprefs.StoredPref, error) {
	prefs := make(map[string]*addonprefs.StoredPref)
	for rows.Next() {
		pref, err := scanPref(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs[pref.Key] = pref
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return prefs, nil
}
