package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Screening sources.
const (
	SourcePostgres = "postgres"
	SourceHTTP     = "http"
	SourceDemo     = "demo"
)

// MaxFetchLimit is the most records a single fetch may request.
const MaxFetchLimit = 100

type Config struct {
	Port             string        `mapstructure:"PORT"`
	Env              string        `mapstructure:"ENV"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	ScreeningSource  string        `mapstructure:"SCREENING_SOURCE"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	DBMaxConns       int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns       int32         `mapstructure:"DB_MIN_CONNS"`
	ScreeningsAPIURL string        `mapstructure:"SCREENINGS_API_URL"`
	ScreeningsToken  string        `mapstructure:"SCREENINGS_API_TOKEN"`
	FetchLimit       int           `mapstructure:"FETCH_LIMIT"`
	FetchTimeout     time.Duration `mapstructure:"FETCH_TIMEOUT"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	RedisURL         string        `mapstructure:"REDIS_URL"`
	CacheTTL         time.Duration `mapstructure:"CACHE_TTL"`
	DisplayTimezone  string        `mapstructure:"DISPLAY_TIMEZONE"`
	CORSOrigins      []string      `mapstructure:"CORS_ORIGINS"`
	CSRFKey          string        `mapstructure:"CSRF_KEY"`
	RefreshRateLimit float64       `mapstructure:"REFRESH_RATE_LIMIT"`
	RefreshRateBurst int           `mapstructure:"REFRESH_RATE_BURST"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "SCREENING_SOURCE", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"SCREENINGS_API_URL", "SCREENINGS_API_TOKEN", "FETCH_LIMIT", "FETCH_TIMEOUT", "REQUEST_TIMEOUT",
	"REDIS_URL", "CACHE_TTL", "DISPLAY_TIMEZONE", "CORS_ORIGINS", "CSRF_KEY",
	"REFRESH_RATE_LIMIT", "REFRESH_RATE_BURST",
}

// Load reads .env (if present) and the environment. It does not validate;
// call Validate before serving.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SCREENING_SOURCE", SourcePostgres)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("FETCH_LIMIT", MaxFetchLimit)
	v.SetDefault("FETCH_TIMEOUT", "15s")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("CACHE_TTL", "30s")
	v.SetDefault("DISPLAY_TIMEZONE", "America/Sao_Paulo")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("REFRESH_RATE_LIMIT", 1)
	v.SetDefault("REFRESH_RATE_BURST", 5)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	origins := v.GetString("CORS_ORIGINS")
	if len(cfg.CORSOrigins) <= 1 && origins != "" {
		cfg.CORSOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}
	cfg.ScreeningSource = strings.ToLower(strings.TrimSpace(cfg.ScreeningSource))

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the selected source is fully configured and that
// the CSRF key is usable. Production refuses to start without a CSRF key.
func (c *Config) Validate() error {
	switch c.ScreeningSource {
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SCREENING_SOURCE is %q", SourcePostgres)
		}
	case SourceHTTP:
		if c.ScreeningsAPIURL == "" {
			return fmt.Errorf("SCREENINGS_API_URL is required when SCREENING_SOURCE is %q", SourceHTTP)
		}
		u, err := url.Parse(c.ScreeningsAPIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("SCREENINGS_API_URL must be an absolute http(s) URL, got %q", c.ScreeningsAPIURL)
		}
	case SourceDemo:
		if c.IsProduction() {
			return fmt.Errorf("SCREENING_SOURCE %q is not allowed in production", SourceDemo)
		}
	default:
		return fmt.Errorf("SCREENING_SOURCE must be %q, %q or %q, got %q", SourcePostgres, SourceHTTP, SourceDemo, c.ScreeningSource)
	}

	if c.FetchLimit < 1 || c.FetchLimit > MaxFetchLimit {
		return fmt.Errorf("FETCH_LIMIT must be between 1 and %d, got %d", MaxFetchLimit, c.FetchLimit)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative, got %s", c.CacheTTL)
	}
	if _, err := time.LoadLocation(c.DisplayTimezone); err != nil {
		return fmt.Errorf("DISPLAY_TIMEZONE %q: %w", c.DisplayTimezone, err)
	}

	if c.IsProduction() && c.CSRFKey == "" {
		return fmt.Errorf("CSRF_KEY is required in production")
	}
	if c.CSRFKey != "" {
		if _, err := c.CSRFKeyBytes(); err != nil {
			return err
		}
	}
	return nil
}

// CSRFKeyBytes decodes CSRF_KEY, which must be 64 hex characters.
func (c *Config) CSRFKeyBytes() ([]byte, error) {
	key, err := hex.DecodeString(c.CSRFKey)
	if err != nil {
		return nil, fmt.Errorf("CSRF_KEY is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("CSRF_KEY must be 32 bytes (64 hex chars), got %d bytes", len(key))
	}
	return key, nil
}
