// Package storage provides a SQLite-based implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/CreativeUnicorns/addonprefs"
)

const (
	sqliteCreateTableSQL = `
		CREATE TABLE IF NOT EXISTS addon_preferences (
			layer TEXT NOT NULL,
			key TEXT NOT NULL,
			kind TEXT NOT NULL,
			value TEXT NOT NULL,
			encrypted BOOLEAN NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (layer, key)
		);
	`

	sqliteInsertSQL = `
		INSERT INTO addon_preferences (layer, key, kind, value, encrypted, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(layer, key)
		DO UPDATE SET kind = excluded.kind, value = excluded.value,
			encrypted = excluded.encrypted, updated_at = excluded.updated_at
	`

	sqliteSelectSQL = `
		SELECT layer, key, kind, value, encrypted, updated_at
		FROM addon_preferences
		WHERE layer = ? AND key = ?
	`

	sqliteSelectPrefixSQL = `
		SELECT layer, key, kind, value, encrypted, updated_at
		FROM addon_preferences
		WHERE layer = ? AND substr(key, 1, length(?)) = ?
	`

	sqliteDeleteSQL = `
		DELETE FROM addon_preferences
		WHERE layer = ? AND key = ?
	`
)

// SQLiteStorage implements addonprefs.Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens the database at dbPath and runs migrations.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to ping database: %w", err)
	}

	storage := &SQLiteStorage{db: db}
	if err := storage.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to run migrations: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) migrate() error {
	_, err := s.db.Exec(sqliteCreateTableSQL)
	return err
}

// Get retrieves a value. It returns addonprefs.ErrNotFound if none is stored.
func (s *SQLiteStorage) Get(ctx context.Context, layer addonprefs.Layer, key string) (*addonprefs.StoredPref, error) {
	pref, err := scanPref(s.db.QueryRowContext(ctx, sqliteSelectSQL, string(layer), key))
	if err == addonprefs.ErrNotFound {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get preference: %w", err)
	}
	return pref, nil
}

// Set inserts or replaces a value.
func (s *SQLiteStorage) Set(ctx context.Context, pref *addonprefs.StoredPref) error {
	_, err := s.db.ExecContext(ctx, sqliteInsertSQL,
		string(pref.Layer),
		pref.Key,
		string(pref.Kind),
		pref.Value,
		pref.Encrypted,
		pref.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to set preference: %w", err)
	}
	return nil
}

// Delete removes a value. It returns addonprefs.ErrNotFound if none was stored.
func (s *SQLiteStorage) Delete(ctx context.Context, layer addonprefs.Layer, key string) error {
	result, err := s.db.ExecContext(ctx, sqliteDeleteSQL, string(layer), key)
	if err != nil {
		return fmt.Errorf("sqlite: failed to delete preference: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return addonprefs.ErrNotFound
	}
	return nil
}

// List returns every value in layer whose key starts with prefix.
func (s *SQLiteStorage) List(ctx context.Context, layer addonprefs.Layer, prefix string) (map[string]*addonprefs.StoredPref, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelectPrefixSQL, string(layer), prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query preferences: %w", err)
	}
	defer rows.Close()

	return scanPrefs(rows)
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
