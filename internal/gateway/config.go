package gateway

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces the gateway service environment, e.g. FRAMESURF_GATEWAY_ADDR.
const EnvPrefix = "FRAMESURF_GATEWAY"

// Config holds the gateway service configuration.
type Config struct {
	Addr      string        `envconfig:"ADDR" default:":8090"`
	UserAgent string        `envconfig:"USER_AGENT" default:"framesurf/0.1 (terminal browser; +https://github.com/vidyasagar/framesurf)"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"15s"`
	RetryMax  int           `envconfig:"RETRY_MAX" default:"2"`

	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"30s"`
	Sanitize bool          `envconfig:"SANITIZE" default:"false"`

	RateLimitEnabled bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RateLimitRPS     int           `envconfig:"RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst   int           `envconfig:"RATE_LIMIT_BURST" default:"40"`
	// RateLimitIdle is how long an idle client's limiter is kept.
	RateLimitIdle    time.Duration `envconfig:"RATE_LIMIT_IDLE" default:"10m"`

	AllowOrigins []string `envconfig:"ALLOW_ORIGINS" default:"*"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev   bool   `envconfig:"LOG_DEV" default:"false"`
}

// LoadConfig loads configuration from FRAMESURF_GATEWAY_* variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load gateway config: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns the configuration used when no environment is set.
func DefaultConfig() Config {
	return Config{
		Addr:             ":8090",
		UserAgent:        DefaultUserAgent,
		Timeout:          defaultTimeout,
		RetryMax:         2,
		CacheTTL:         30 * time.Second,
		RateLimitEnabled: true,
		RateLimitRPS:     20,
		RateLimitBurst:   40,
		RateLimitIdle:    10 * time.Minute,
		AllowOrigins:     []string{"*"},
		LogLevel:         "info",
	}
}

// FetchOptions derives fetcher options from the service configuration.
func (c Config) FetchOptions() Options {
	return Options{
		UserAgent: c.UserAgent,
		Timeout:   c.Timeout,
		RetryMax:  c.RetryMax,
	}
}
