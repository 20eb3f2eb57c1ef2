package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Backend     BackendConfig
	Session     SessionConfig
	Redis       RedisConfig
	Cache       CacheConfig
	Coordinator CoordinatorConfig
	Drive       DriveConfig
	Gmail       GmailConfig
	Exports     ExportsConfig
	CORS        CORSConfig
	Log         LogConfig
}

// BackendConfig locates the Digital Twin backend. The base URL is taken as-is
// from the environment; no well-formedness check is applied.
type BackendConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// SessionConfig locates the local identity store.
type SessionConfig struct {
	StorePath string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig tunes the backend read cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// CoordinatorConfig carries the timing contract of the academic coordinator.
type CoordinatorConfig struct {
	RefreshInterval   time.Duration
	PostSyncRefreshes []time.Duration
	SyncingFloor      time.Duration
}

// DriveConfig carries the broadcast schedule fired after a folder sync.
type DriveConfig struct {
	BroadcastDelays []time.Duration
}

// GmailConfig tunes the scan trigger flow.
type GmailConfig struct {
	AutoCloseDelay time.Duration
}

// ExportsConfig governs asynchronous digest exports.
type ExportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Backend = BackendConfig{
		BaseURL:        v.GetString("BACKEND_BASE_URL"),
		RequestTimeout: parseDuration(v.GetString("BACKEND_REQUEST_TIMEOUT"), 30*time.Second),
	}

	cfg.Session = SessionConfig{
		StorePath: v.GetString("SESSION_STORE_PATH"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), time.Minute),
	}

	cfg.Coordinator = CoordinatorConfig{
		RefreshInterval: parseDuration(v.GetString("COORDINATOR_REFRESH_INTERVAL"), 5*time.Minute),
		PostSyncRefreshes: parseDurationList(v.GetString("COORDINATOR_POST_SYNC_REFRESHES"),
			[]time.Duration{3 * time.Second, 8 * time.Second}),
		SyncingFloor: parseDuration(v.GetString("COORDINATOR_SYNCING_FLOOR"), 5*time.Second),
	}

	cfg.Drive = DriveConfig{
		BroadcastDelays: parseDurationList(v.GetString("DRIVE_BROADCAST_DELAYS"),
			[]time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second, 30 * time.Second}),
	}

	cfg.Gmail = GmailConfig{
		AutoCloseDelay: parseDuration(v.GetString("GMAIL_AUTO_CLOSE_DELAY"), 2*time.Second),
	}

	cfg.Exports = ExportsConfig{
		Enabled:           v.GetBool("ENABLE_EXPORTS"),
		StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORTS_WORKER_RETRIES"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("BACKEND_BASE_URL", "http://127.0.0.1:8001")
	v.SetDefault("BACKEND_REQUEST_TIMEOUT", "30s")

	v.SetDefault("SESSION_STORE_PATH", "./twin-session.db")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "1m")

	v.SetDefault("COORDINATOR_REFRESH_INTERVAL", "5m")
	v.SetDefault("COORDINATOR_POST_SYNC_REFRESHES", "3s,8s")
	v.SetDefault("COORDINATOR_SYNCING_FLOOR", "5s")

	v.SetDefault("DRIVE_BROADCAST_DELAYS", "5s,10s,20s,30s")
	v.SetDefault("GMAIL_AUTO_CLOSE_DELAY", "2s")

	v.SetDefault("ENABLE_EXPORTS", false)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func parseDurationList(raw string, fallback []time.Duration) []time.Duration {
	parts := splitAndTrim(raw)
	if len(parts) == 0 {
		return fallback
	}

	result := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		d, err := time.ParseDuration(part)
		if err != nil {
			return fallback
		}
		result = append(result, d)
	}

	return result
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
