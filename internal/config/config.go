// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP API listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address the gRPC health server listens on; empty disables it.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN. Required.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// SessionSecret signs session credentials (HS256). Required.
	SessionSecret string `mapstructure:"SESSION_SECRET"`
	// SessionIssuer is the iss claim written into and required on session credentials.
	SessionIssuer string `mapstructure:"SESSION_ISSUER"`
	// SessionTTLRaw is the single validity window for both the credential and its cookie (e.g. "168h").
	SessionTTLRaw string `mapstructure:"SESSION_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	CookieName     string `mapstructure:"COOKIE_NAME"`
	CookieDomain   string `mapstructure:"COOKIE_DOMAIN"`
	CookieSecure   bool   `mapstructure:"COOKIE_SECURE"`
	CookieHTTPOnly bool   `mapstructure:"COOKIE_HTTP_ONLY"`
	// CookieSameSite is one of lax, strict, none.
	CookieSameSite string `mapstructure:"COOKIE_SAME_SITE"`

	// LoginPath is the unauthenticated landing page; HomePath is where signed-in users land.
	LoginPath string `mapstructure:"LOGIN_PATH"`
	HomePath  string `mapstructure:"HOME_PATH"`
	// ProtectedPrefixes is a comma-separated list of page prefixes that require a session.
	ProtectedPrefixes string `mapstructure:"PROTECTED_PREFIXES"`

	// RequestTimeoutRaw bounds each API request's storage work (e.g. "5s").
	RequestTimeoutRaw string `mapstructure:"REQUEST_TIMEOUT"`
	// LoginRateRPS and LoginRateBurst throttle POST /api/login per client IP.
	LoginRateRPS   float64 `mapstructure:"LOGIN_RATE_RPS"`
	LoginRateBurst int     `mapstructure:"LOGIN_RATE_BURST"`
	// CORSAllowedOrigins is a comma-separated origin list; empty disables CORS headers.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// OTel (optional). When OTLPEndpoint is set, traces and metrics are exported via OTLP gRPC.
	OTLPEndpoint    string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure    bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OTelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_ISSUER", "dm-backend")
	v.SetDefault("SESSION_TTL", "168h") // 7d
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("COOKIE_NAME", "token")
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("COOKIE_HTTP_ONLY", true)
	v.SetDefault("COOKIE_SAME_SITE", "lax")
	v.SetDefault("LOGIN_PATH", "/login")
	v.SetDefault("HOME_PATH", "/dashboard")
	v.SetDefault("PROTECTED_PREFIXES", "/dashboard")
	v.SetDefault("REQUEST_TIMEOUT", "5s")
	v.SetDefault("LOGIN_RATE_RPS", 5)
	v.SetDefault("LOGIN_RATE_BURST", 10)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "dm-backend")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("config: DATABASE_URL must be set")
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("config: SESSION_SECRET must be set")
	}
	if !cfg.CookieSecure && cfg.Env == "production" {
		return nil, errors.New("config: COOKIE_SECURE must not be false when APP_ENV=production")
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if _, ok := parseSameSite(cfg.CookieSameSite); !ok {
		return nil, errors.New("config: COOKIE_SAME_SITE must be one of lax, strict, none")
	}
	if strings.EqualFold(cfg.CookieSameSite, "none") && !cfg.CookieSecure {
		return nil, errors.New("config: COOKIE_SAME_SITE=none requires COOKIE_SECURE=true")
	}
	if !strings.HasPrefix(cfg.LoginPath, "/") || !strings.HasPrefix(cfg.HomePath, "/") {
		return nil, errors.New("config: LOGIN_PATH and HOME_PATH must start with /")
	}

	return &cfg, nil
}

// SessionTTL parses SessionTTLRaw as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.SessionTTLRaw)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// RequestTimeout parses RequestTimeoutRaw. Returns 5s if unset or invalid.
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeoutRaw)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// SameSite maps CookieSameSite to the net/http constant; unknown values map to Lax.
func (c *Config) SameSite() http.SameSite {
	s, _ := parseSameSite(c.CookieSameSite)
	return s
}

// ProtectedPrefixList returns the page prefixes from the comma-separated config.
func (c *Config) ProtectedPrefixList() []string {
	return splitList(c.ProtectedPrefixes)
}

// CORSOrigins returns the allowed CORS origins.
func (c *Config) CORSOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

func parseSameSite(s string) (http.SameSite, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lax":
		return http.SameSiteLaxMode, true
	case "strict":
		return http.SameSiteStrictMode, true
	case "none":
		return http.SameSiteNoneMode, true
	default:
		return http.SameSiteLaxMode, false
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
