package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	TelegramToken string  `env:"TELEGRAM_TOKEN,required"`
	TelegramDebug bool    `env:"TELEGRAM_DEBUG" envDefault:"false"`
	AdminIDs      []int64 `env:"ADMIN_IDS" envSeparator:","`
	ReportViewers []int64 `env:"REPORT_VIEWER_IDS" envSeparator:","`
	SupportGroups []int64 `env:"SUPPORT_GROUP_IDS" envSeparator:","`

	DBDriver          string        `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN             string        `env:"DB_DSN" envDefault:"file:shrot.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	DBConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"5m"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	StateTTL      time.Duration `env:"STATE_TTL" envDefault:"24h"`
	EphemeralTTL  time.Duration `env:"EPHEMERAL_TTL" envDefault:"72h"`

	MediaGroupDebounce time.Duration `env:"MEDIA_GROUP_DEBOUNCE" envDefault:"1200ms"`
	SupportRateLimit   int64         `env:"SUPPORT_RATE_LIMIT" envDefault:"5"`
	SupportRateWindow  time.Duration `env:"SUPPORT_RATE_WINDOW" envDefault:"10m"`
	MinOrderTons       float64       `env:"MIN_ORDER_TONS" envDefault:"2"`
	UpdateWorkers      int           `env:"UPDATE_WORKERS" envDefault:"8"`
	Timezone           string        `env:"TIMEZONE" envDefault:"Asia/Tashkent"`

	GeocoderURL       string        `env:"GEOCODER_URL" envDefault:"https://nominatim.openstreetmap.org/reverse"`
	GeocoderUserAgent string        `env:"GEOCODER_USER_AGENT" envDefault:"shrot-bot/1.0"`
	GeocoderTimeout   time.Duration `env:"GEOCODER_TIMEOUT" envDefault:"10s"`

	HTTPAddr       string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return Parse()
}

// Parse builds the config from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if len(cfg.AdminIDs) == 0 {
		return nil, fmt.Errorf("at least one admin ID is required")
	}
	if cfg.DBDriver != DriverSQLite && cfg.DBDriver != DriverPostgres {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.UpdateWorkers < 1 {
		cfg.UpdateWorkers = 1
	}

	return &cfg, nil
}

func (c *Config) IsAdmin(userID int64) bool {
	return slices.Contains(c.AdminIDs, userID)
}

func (c *Config) CanViewReports(userID int64) bool {
	return slices.Contains(c.ReportViewers, userID)
}

func (c *Config) IsSupportGroup(chatID int64) bool {
	return slices.Contains(c.SupportGroups, chatID)
}

// Location resolves the display timezone, falling back to a fixed UTC+5 zone when the
// tz database is unavailable.
func (c *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	return time.FixedZone("UTC+5", 5*60*60)
}
