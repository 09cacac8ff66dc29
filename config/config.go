package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultTargetURL is the public participation portal scraped on every run.
const DefaultTargetURL = "https://participacao-social.ana.gov.br/"

// DefaultLogFile is the browser log file name, resolved against the cwd.
const DefaultLogFile = "selenium.log"

// Config holds all application configuration. It is built once by Load and
// treated as read-only afterwards.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// CacheConfig controls the last-result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached results.
	MaxEntries int // default: 16
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Chromium process launched for each run.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in containers).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary lookup.
	BrowserBin string

	// WindowSize is the fixed window geometry, "width,height".
	WindowSize string // default: "1920,1080"

	// Stealth masks automation fingerprints on the page.
	Stealth bool // default: false

	// LogPath is the absolute path of the browser log file.
	LogPath string
}

// ScraperConfig controls scraping behavior.
type ScraperConfig struct {
	// TargetURL is the page holding the results table.
	TargetURL string

	// TableSelector locates the results table.
	TableSelector string // default: "table#tableContent"

	// FetchMode is "browser" (default) or "http".
	FetchMode string

	// RunTimeout bounds a whole run.
	RunTimeout time.Duration // default: 90s

	// NavigationTimeout is the max time for page.Navigate alone.
	NavigationTimeout time.Duration // default: 30s

	// WaitTimeout bounds the wait for the table to appear.
	WaitTimeout time.Duration // default: 20s

	// AcceptLanguage is sent with every browser request.
	AcceptLanguage string // default: "pt-BR,pt;q=0.9,en;q=0.8"

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication on /api/v1.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per API key.
	Burst int // default: 3
}

// WebhookConfig controls run notifications.
type WebhookConfig struct {
	// URL receives a POST after every run; empty disables notifications.
	URL string

	// Secret signs the body with HMAC-SHA256 when set.
	Secret string

	// Timeout bounds one delivery.
	Timeout time.Duration // default: 10s
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("PARTICIPA_HOST", "0.0.0.0"),
			Port: envIntOr("PARTICIPA_PORT", 8080),
			Mode: envOr("PARTICIPA_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("PARTICIPA_HEADLESS", true),
			NoSandbox:  envBoolOr("PARTICIPA_NO_SANDBOX", true),
			BrowserBin: os.Getenv("PARTICIPA_BROWSER_BIN"),
			WindowSize: envOr("PARTICIPA_WINDOW_SIZE", "1920,1080"),
			Stealth:    envBoolOr("PARTICIPA_STEALTH", false),
			LogPath:    ResolveLogPath(envOr("PARTICIPA_LOG_FILE", DefaultLogFile)),
		},
		Scraper: ScraperConfig{
			TargetURL:         envOr("PARTICIPA_TARGET_URL", DefaultTargetURL),
			TableSelector:     envOr("PARTICIPA_TABLE_SELECTOR", "table#tableContent"),
			FetchMode:         envOr("PARTICIPA_FETCH_MODE", "browser"),
			RunTimeout:        envDurationOr("PARTICIPA_RUN_TIMEOUT", 90*time.Second),
			NavigationTimeout: envDurationOr("PARTICIPA_NAV_TIMEOUT", 30*time.Second),
			WaitTimeout:       envDurationOr("PARTICIPA_WAIT_TIMEOUT", 20*time.Second),
			AcceptLanguage:    envOr("PARTICIPA_ACCEPT_LANGUAGE", "pt-BR,pt;q=0.9,en;q=0.8"),
			BlockedResourceTypes: envSliceOr("PARTICIPA_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("PARTICIPA_AUTH_ENABLED", false),
			APIKeys: envSliceOr("PARTICIPA_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PARTICIPA_RATE_RPS", 1.0),
			Burst:             envIntOr("PARTICIPA_RATE_BURST", 3),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("PARTICIPA_CACHE_MAX_ENTRIES", 16),
		},
		Webhook: WebhookConfig{
			URL:     os.Getenv("PARTICIPA_WEBHOOK_URL"),
			Secret:  os.Getenv("PARTICIPA_WEBHOOK_SECRET"),
			Timeout: envDurationOr("PARTICIPA_WEBHOOK_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  envOr("PARTICIPA_LOG_LEVEL", "info"),
			Format: envOr("PARTICIPA_LOG_FORMAT", "json"),
		},
	}
}

// ResolveLogPath returns the absolute log file path for name. Relative names
// are joined to the current working directory.
func ResolveLogPath(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	p := filepath.Join(cwd, name)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
