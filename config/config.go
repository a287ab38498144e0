package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Site    SiteConfig
	Browser BrowserConfig
	Scrape  ScrapeConfig
	Store   StoreConfig
	DB      DBConfig
	Log     LogConfig
}

// SiteConfig identifies the target site and the account credentials.
type SiteConfig struct {
	// BaseURL is the landing page the session starts from.
	BaseURL string // default: "https://www.cub.com"

	// Username and Password are the account credentials. Both are
	// required before a scrape run can start.
	Username string
	Password string
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ScrapeConfig controls extraction behavior.
type ScrapeConfig struct {
	// MaxOrders caps how many order detail pages one run visits.
	MaxOrders int // default: 3

	// LocatorTimeout is the per-strategy wait when resolving an element.
	LocatorTimeout time.Duration // default: 10s

	// NavRatePerSecond throttles page navigations (politeness).
	NavRatePerSecond float64 // default: 0.5
}

// StoreConfig is the logical identity recorded as the origin of all
// extracted orders.
type StoreConfig struct {
	Name      string // default: "Cub"
	StoreType string // default: "Grocery"
}

// DBConfig controls the embedded SQLite store.
type DBConfig struct {
	// Path is the database file. ":memory:" gives an ephemeral store.
	Path string // default: "cub_orders.db"
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:  envOr("CUB_BASE_URL", "https://www.cub.com"),
			Username: os.Getenv("CUB_USERNAME"),
			Password: os.Getenv("CUB_PASSWORD"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("CUB_HEADLESS", true),
			NoSandbox:  envBoolOr("CUB_NO_SANDBOX", false),
			BrowserBin: os.Getenv("CUB_BROWSER_BIN"),
		},
		Scrape: ScrapeConfig{
			MaxOrders:        envIntOr("CUB_MAX_ORDERS", 3),
			LocatorTimeout:   envDurationOr("CUB_LOCATOR_TIMEOUT", 10*time.Second),
			NavRatePerSecond: envFloatOr("CUB_NAV_RPS", 0.5),
		},
		Store: StoreConfig{
			Name:      envOr("CUB_STORE_NAME", "Cub"),
			StoreType: envOr("CUB_STORE_TYPE", "Grocery"),
		},
		DB: DBConfig{
			Path: envOr("CUB_DB_PATH", "cub_orders.db"),
		},
		Log: LogConfig{
			Level:  envOr("CUB_LOG_LEVEL", "info"),
			Format: envOr("CUB_LOG_FORMAT", "text"),
		},
	}
}

// ValidateCredentials checks that the required secrets are present.
// The browser is never launched without them.
func (c *Config) ValidateCredentials() error {
	if c.Site.Username == "" {
		return errors.New("CUB_USERNAME is not set")
	}
	if c.Site.Password == "" {
		return errors.New("CUB_PASSWORD is not set")
	}
	return nil
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
