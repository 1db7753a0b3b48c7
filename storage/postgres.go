// Package storage provides a PostgreSQL-based implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/CreativeUnicorns/addonprefs"
)

// sqlOpenFunc is a package-level variable that can be overridden for testing.
var sqlOpenFunc = sql.Open

const (
	createTableSQL = `
		CREATE TABLE IF NOT EXISTS addon_preferences (
			layer TEXT NOT NULL,
			key TEXT NOT NULL,
			kind TEXT NOT NULL,
			value TEXT NOT NULL,
			encrypted BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (layer, key)
		);
	`

	insertSQL = `
		INSERT INTO addon_preferences (layer, key, kind, value, encrypted, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (layer, key)
		DO UPDATE SET kind = $3, value = $4, encrypted = $5, updated_at = $6
	`

	selectSQL = `
		SELECT layer, key, kind, value, encrypted, updated_at
		FROM addon_preferences
		WHERE layer = $1 AND key = $2
	`

	selectPrefixSQL = `
		SELECT layer, key, kind, value, encrypted, updated_at
		FROM addon_preferences
		WHERE layer = $1 AND left(key, length($2)) = $2
	`

	deleteSQL = `
		DELETE FROM addon_preferences
		WHERE layer = $1 AND key = $2
	`
)

// PostgresStorage implements addonprefs.Storage using PostgreSQL.
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage connects with connString and runs migrations.
func NewPostgresStorage(connString string) (*PostgresStorage, error) {
	db, err := sqlOpenFunc("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to ping database: %w", err)
	}

	storage := &PostgresStorage{db: db}
	if err := storage.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to run migrations: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) migrate() error {
	if _, err := s.db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("postgres: failed to execute create table statement: %w", err)
	}
	return nil
}

// Get retrieves a value. It returns addonprefs.ErrNotFound if none is stored.
func (s *PostgresStorage) Get(ctx context.Context, layer addonprefs.Layer, key string) (*addonprefs.StoredPref, error) {
	pref, err := scanPref(s.db.QueryRowContext(ctx, selectSQL, string(layer), key))
	if err == addonprefs.ErrNotFound {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to get preference: %w", err)
	}
	return pref, nil
}

// Set inserts or replaces a value.
func (s *PostgresStorage) Set(ctx context.Context, pref *addonprefs.StoredPref) error {
	_, err := s.db.ExecContext(ctx, insertSQL,
		string(pref.Layer),
		pref.Key,
		string(pref.Kind),
		pref.Value,
		pref.Encrypted,
		pref.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to set preference: %w", err)
	}
	return nil
}

// Delete removes a value. It returns addonprefs.ErrNotFound if none was stored.
func (s *PostgresStorage) Delete(ctx context.Context, layer addonprefs.Layer, key string) error {
	result, err := s.db.ExecContext(ctx, deleteSQL, string(layer), key)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete preference: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return addonprefs.ErrNotFound
	}
	return nil
}

// List returns every value in layer whose key starts with prefix.
func (s *PostgresStorage) List(ctx context.Context, layer addonprefs.Layer, prefix string) (map[string]*addonprefs.StoredPref, error) {
	rows, err := s.db.QueryContext(ctx, selectPrefixSQL, string(layer), prefix)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query preferences: %w", err)
	}
	defer rows.Close()

	return scanPrefs(rows)
}

// Close closes the database connection.
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
