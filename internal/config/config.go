package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Remote RemoteConfig `mapstructure:"remote"`
	Sync   SyncConfig   `mapstructure:"sync"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Cron   CronConfig   `mapstructure:"cron"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr  string `mapstructure:"http_addr"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// StoreConfig selects the local mirror backend. The sqlite path is the
// embedded default; a postgres DSN switches both sqlx and gorm over.
type StoreConfig struct {
	Backend     string `mapstructure:"backend"` // "sqlite" or "postgres"
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type RemoteConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Token          string        `mapstructure:"token"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
	Burst          int           `mapstructure:"burst"`
}

type SyncConfig struct {
	PageSize          int           `mapstructure:"page_size"`
	BatchSize         int           `mapstructure:"batch_size"`
	MaxRetries        int           `mapstructure:"max_retries"`
	ResourcePause     time.Duration `mapstructure:"resource_pause"`
	StalenessMaxAge   time.Duration `mapstructure:"staleness_max_age"`
	FirstDeltaWindow  time.Duration `mapstructure:"first_delta_window"`
	BaseDelay         time.Duration `mapstructure:"base_delay"`
	MaxDelay          time.Duration `mapstructure:"max_delay"`
	BackoffFactor     float64       `mapstructure:"backoff_factor"`
	OrphanedJobCutoff time.Duration `mapstructure:"orphaned_job_cutoff"`
	StatusCacheTTL    time.Duration `mapstructure:"status_cache_ttl"`
}

type CacheConfig struct {
	Backend       string `mapstructure:"backend"` // "memory" or "redis"
	RedisHost     string `mapstructure:"redis_host"`
	RedisPort     string `mapstructure:"redis_port"`
	RedisPassword string `mapstructure:"redis_password"`
}

type CronConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// Load reads configuration from an optional yaml file plus FM_-prefixed
// environment variables. A missing file is not an error; env vars alone
// are enough to run.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.env", "development")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("store.backend", "sqlite")
	v.SetDefault("store.sqlite_path", "data/app.db")
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("remote.base_url", "")
	v.SetDefault("remote.token", "")
	v.SetDefault("remote.timeout", "30s")
	v.SetDefault("remote.requests_per_sec", 5.0)
	v.SetDefault("remote.burst", 2)
	v.SetDefault("sync.page_size", 100)
	v.SetDefault("sync.batch_size", 500)
	v.SetDefault("sync.max_retries", 5)
	v.SetDefault("sync.resource_pause", "2s")
	v.SetDefault("sync.staleness_max_age", "2h")
	v.SetDefault("sync.first_delta_window", "24h")
	v.SetDefault("sync.base_delay", "100ms")
	v.SetDefault("sync.max_delay", "10s")
	v.SetDefault("sync.backoff_factor", 2.0)
	v.SetDefault("sync.orphaned_job_cutoff", "1h")
	v.SetDefault("sync.status_cache_ttl", "15s")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_host", "localhost")
	v.SetDefault("cache.redis_port", "6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.schedule", "@every 15m")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
