// Package config wires the binaries' flags and ADDONPREFS_* environment
// variables to a preference Service.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/CreativeUnicorns/addonprefs"
	"github.com/CreativeUnicorns/addonprefs/cache"
	"github.com/CreativeUnicorns/addonprefs/storage"
)

const envPrefix = "ADDONPREFS_"

// Storage and cache backend names.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is the runtime configuration shared by the binaries.
type Config struct {
	ListenAddr string
	LogLevel   string

	Storage     string
	SQLitePath  string
	PostgresDSN string

	Cache         string
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// Encrypt seals stored values with the key in ADDONPREFS_ENCRYPTION_KEY.
	Encrypt bool

	ManifestDir string
	LocaleDir   string
	Locale      string
}

// LoadEnv reads a .env file in the working directory if there is one.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: load .env: %w", err)
	}
	return nil
}

// RegisterFlags binds c to flags. Each flag defaults to its environment
// variable, then to the built-in default.
func (c *Config) RegisterFlags(flags *flag.FlagSet) {
	flags.StringVar(&c.ListenAddr, "listen-addr", env("LISTEN_ADDR", ":8080"), "HTTP listen address")
	flags.StringVar(&c.LogLevel, "log-level", env("LOG_LEVEL", "info"), "log level: debug, info, warn, error")

	flags.StringVar(&c.Storage, "storage", env("STORAGE", StorageMemory), "storage backend: memory, sqlite, postgres")
	flags.StringVar(&c.SQLitePath, "sqlite-path", env("SQLITE_PATH", "addonprefs.db"), "SQLite database file")
	flags.StringVar(&c.PostgresDSN, "postgres-dsn", env("POSTGRES_DSN", ""), "PostgreSQL connection string")

	flags.StringVar(&c.Cache, "cache", env("CACHE", CacheNone), "cache backend: none, memory, redis")
	flags.DurationVar(&c.CacheTTL, "cache-ttl", envDuration("CACHE_TTL", 24*time.Hour), "cache entry lifetime")
	flags.StringVar(&c.RedisAddr, "redis-addr", env("REDIS_ADDR", "localhost:6379"), "Redis address")
	flags.StringVar(&c.RedisPassword, "redis-password", env("REDIS_PASSWORD", ""), "Redis password")
	flags.IntVar(&c.RedisDB, "redis-db", envInt("REDIS_DB", 0), "Redis database number")
	flags.StringVar(&c.RedisPrefix, "redis-prefix", env("REDIS_PREFIX", "addonprefs:"), "Redis key prefix")

	flags.BoolVar(&c.Encrypt, "encrypt", envBool("ENCRYPT", false), "encrypt stored values with "+envPrefix+"ENCRYPTION_KEY")

	flags.StringVar(&c.ManifestDir, "manifest-dir", env("MANIFEST_DIR", ""), "directory of extension manifests to enable")
	flags.StringVar(&c.LocaleDir, "locale-dir", env("LOCALE_DIR", ""), "directory of message catalogs")
	flags.StringVar(&c.Locale, "locale", env("LOCALE", "en"), "locale used to localize panels")
}

// Validate checks backend names and required connection settings.
func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StorageSQLite:
		if c.SQLitePath == "" {
			return errors.New("config: sqlite storage needs a database path")
		}
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return errors.New("config: postgres storage needs a connection string")
		}
	default:
		return fmt.Errorf("config: unknown storage %q", c.Storage)
	}

	switch c.Cache {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.RedisAddr == "" {
			return errors.New("config: redis cache needs an address")
		}
	default:
		return fmt.Errorf("config: unknown cache %q", c.Cache)
	}
	return nil
}

// Logger returns the default logger at the configured level.
func (c Config) Logger() addonprefs.Logger {
	logger := addonprefs.NewDefaultLogger()
	logger.SetLevel(addonprefs.ParseLogLevel(c.LogLevel))
	return logger
}

// OpenService connects the configured storage, cache and encryption.
// The caller owns the returned Service and must Close it.
func (c Config) OpenService(logger addonprefs.Logger) (*addonprefs.Service, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	store, err := c.openStorage()
	if err != nil {
		return nil, err
	}

	opts := []addonprefs.ServiceOption{
		addonprefs.WithStorage(store),
		addonprefs.WithLogger(logger),
		addonprefs.WithCacheTTL(c.CacheTTL),
	}

	switch c.Cache {
	case CacheMemory:
		opts = append(opts, addonprefs.WithCache(cache.NewMemoryCache()))
	case CacheRedis:
		rc, err := cache.NewRedisCache(cache.RedisOptions{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
			Prefix:   c.RedisPrefix,
		})
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		opts = append(opts, addonprefs.WithCache(rc))
	}

	if c.Encrypt {
		enc, err := addonprefs.NewEncryptionAdapter()
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("config: encryption: %w", err)
		}
		opts = append(opts, addonprefs.WithEncryption(enc))
	}

	logger.Info("Preference store ready", "storage", c.Storage, "cache", c.Cache, "encrypted", c.Encrypt)
	return addonprefs.New(opts...), nil
}

func (c Config) openStorage() (addonprefs.Storage, error) {
	switch c.Storage {
	case StorageSQLite:
		return storage.NewSQLiteStorage(c.SQLitePath)
	case StoragePostgres:
		return storage.NewPostgresStorage(c.PostgresDSN)
	}
	return storage.NewMemoryStorage(), nil
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func envInt(key string, def int) int {
	if n, err := strconv.Atoi(env(key, "")); err == nil {
		return n
	}
	return def
}

func envBool(key string, def bool) bool {
	if b, err := strconv.ParseBool(env(key, "")); err == nil {
		return b
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(env(key, "")); err == nil {
		return d
	}
	return def
}
