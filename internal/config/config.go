package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store and cache backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	CacheREST  = "rest"
	CacheRedis = "redis"
	CacheLocal = "local"
	CacheNone  = "none"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	StoreBackend   string        `mapstructure:"STORE_BACKEND"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	MigrationsDir  string        `mapstructure:"MIGRATIONS_DIR"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	CacheBackend     string        `mapstructure:"CACHE_BACKEND"`
	CacheRESTURL     string        `mapstructure:"CACHE_REST_URL"`
	CacheRESTToken   string        `mapstructure:"CACHE_REST_TOKEN"`
	RedisURL         string        `mapstructure:"REDIS_URL"`
	CacheTimeout     time.Duration `mapstructure:"CACHE_TIMEOUT"`
	CacheFastTimeout time.Duration `mapstructure:"CACHE_FAST_TIMEOUT"`
	CacheRetries     int           `mapstructure:"CACHE_RETRIES"`
	CacheRetryDelay  time.Duration `mapstructure:"CACHE_RETRY_DELAY"`
	CacheCooldown    time.Duration `mapstructure:"CACHE_COOLDOWN"`
	MemoryCacheSize  int           `mapstructure:"MEMORY_CACHE_SIZE"`
	PageMemoryTTL    time.Duration `mapstructure:"PAGE_MEMORY_TTL"`
	PageRemoteTTL    time.Duration `mapstructure:"PAGE_REMOTE_TTL"`
	SearchMemoryTTL  time.Duration `mapstructure:"SEARCH_MEMORY_TTL"`
	SearchRemoteTTL  time.Duration `mapstructure:"SEARCH_REMOTE_TTL"`
}

var defaults = map[string]interface{}{
	"PORT":               "8000",
	"ENV":                "development",
	"LOG_LEVEL":          "info",
	"STORE_BACKEND":      StorePostgres,
	"DB_MAX_CONNS":       20,
	"DB_MIN_CONNS":       2,
	"MIGRATIONS_DIR":     "./migrations",
	"CORS_ORIGINS":       "http://localhost:5173",
	"RATE_LIMIT_RPS":     100,
	"RATE_LIMIT_BURST":   200,
	"REQUEST_TIMEOUT":    30 * time.Second,
	"CACHE_BACKEND":      CacheNone,
	"CACHE_TIMEOUT":      time.Second,
	"CACHE_FAST_TIMEOUT": 5 * time.Millisecond,
	"CACHE_RETRIES":      2,
	"CACHE_RETRY_DELAY":  50 * time.Millisecond,
	"CACHE_COOLDOWN":     30 * time.Second,
	"MEMORY_CACHE_SIZE":  1000,
	"PAGE_MEMORY_TTL":    30 * time.Second,
	"PAGE_REMOTE_TTL":    120 * time.Second,
	"SEARCH_MEMORY_TTL":  10 * time.Second,
	"SEARCH_REMOTE_TTL":  60 * time.Second,
}

var envOnly = []string{"DATABASE_URL", "CACHE_REST_URL", "CACHE_REST_TOKEN", "REDIS_URL"}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
		v.BindEnv(key)
	}
	for _, key := range envOnly {
		v.BindEnv(key)
	}

	// A missing .env file is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}
	cfg.StoreBackend = strings.ToLower(cfg.StoreBackend)
	cfg.CacheBackend = strings.ToLower(cfg.CacheBackend)

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is %q", StorePostgres)
		}
	case StoreMemory:
		if c.IsProduction() {
			return fmt.Errorf("STORE_BACKEND=%q is not allowed in production", StoreMemory)
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StorePostgres, StoreMemory, c.StoreBackend)
	}

	switch c.CacheBackend {
	case CacheREST:
		if c.CacheRESTURL == "" {
			return fmt.Errorf("CACHE_REST_URL is required when CACHE_BACKEND is %q", CacheREST)
		}
	case CacheRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CACHE_BACKEND is %q", CacheRedis)
		}
	case CacheLocal:
		if c.IsProduction() {
			return fmt.Errorf("CACHE_BACKEND=%q is not allowed in production", CacheLocal)
		}
	case CacheNone:
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of %s, got %q",
			strings.Join([]string{CacheREST, CacheRedis, CacheLocal, CacheNone}, ", "), c.CacheBackend)
	}

	if c.MemoryCacheSize <= 0 {
		return fmt.Errorf("MEMORY_CACHE_SIZE must be positive, got %d", c.MemoryCacheSize)
	}
	if c.CacheRetries < 0 {
		return fmt.Errorf("CACHE_RETRIES must not be negative, got %d", c.CacheRetries)
	}
	if c.CacheTimeout <= 0 {
		return fmt.Errorf("CACHE_TIMEOUT must be positive, got %s", c.CacheTimeout)
	}
	return nil
}
