package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/salon-scheduler/internal/scheduler"
)

// Storage backends selectable through SALON_STORAGE_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

const envPrefix = "SALON_"

// Config captures environment driven configuration values for the salon service.
type Config struct {
	HTTPPort       int
	StorageBackend string
	SQLiteDSN      string
	MongoURI       string
	MongoDatabase  string

	RedisAddr     string
	RedisPassword string
	RedisChannel  string

	Location         *time.Location
	BusinessHours    scheduler.BusinessHours
	Layout           scheduler.LayoutOptions
	SeedDefaultStaff bool

	LogLevel    string
	LogFormat   string
	CORSOrigins []string
}

// Load reads an optional .env file from the working directory and then parses
// configuration values from the process environment. Variables already set in
// the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}
	return FromEnvironment()
}

// FromEnvironment parses configuration values from the current process
// environment. Missing and invalid keys are reported together.
func FromEnvironment() (Config, error) {
	layout := scheduler.DefaultLayoutOptions()
	cfg := Config{
		HTTPPort:         8080,
		StorageBackend:   BackendSQLite,
		SQLiteDSN:        "file:salon.db?_pragma=foreign_keys(1)",
		MongoDatabase:    "salon",
		RedisChannel:     "salon:events",
		Location:         time.Local,
		BusinessHours:    scheduler.DefaultBusinessHours(),
		Layout:           layout,
		SeedDefaultStaff: true,
		LogLevel:         "info",
		LogFormat:        "json",
		CORSOrigins:      []string{"*"},
	}

	p := parser{}

	p.positiveInt("HTTP_PORT", &cfg.HTTPPort)

	if backend := p.string("STORAGE_BACKEND"); backend != "" {
		switch strings.ToLower(backend) {
		case BackendSQLite, BackendMongo, BackendMemory:
			cfg.StorageBackend = strings.ToLower(backend)
		default:
			p.invalid = append(p.invalid, envPrefix+"STORAGE_BACKEND")
		}
	}

	if dsn := p.string("SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	cfg.MongoURI = p.string("MONGO_URI")
	if cfg.StorageBackend == BackendMongo && cfg.MongoURI == "" {
		p.missing = append(p.missing, envPrefix+"MONGO_URI")
	}
	if name := p.string("MONGO_DATABASE"); name != "" {
		cfg.MongoDatabase = name
	}

	cfg.RedisAddr = p.string("REDIS_ADDR")
	cfg.RedisPassword = p.string("REDIS_PASSWORD")
	if channel := p.string("REDIS_CHANNEL"); channel != "" {
		cfg.RedisChannel = channel
	}

	if zone := p.string("TIMEZONE"); zone != "" {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			p.invalid = append(p.invalid, envPrefix+"TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	p.int("BUSINESS_START_HOUR", &cfg.BusinessHours.StartHour)
	p.int("BUSINESS_END_HOUR", &cfg.BusinessHours.EndHour)
	p.positiveInt("SLOT_INTERVAL_MINUTES", &cfg.BusinessHours.IntervalMinutes)
	if err := cfg.BusinessHours.Validate(); err != nil {
		p.invalidOnce(envPrefix+"BUSINESS_START_HOUR", envPrefix+"BUSINESS_END_HOUR", envPrefix+"SLOT_INTERVAL_MINUTES")
	}
	cfg.Layout.SlotMinutes = cfg.BusinessHours.IntervalMinutes

	p.positiveFloat("SLOT_HEIGHT", &cfg.Layout.SlotHeight)
	p.positiveFloat("BAND_WIDTH", &cfg.Layout.BandWidth)
	p.nonNegativeFloat("BAND_OFFSET", &cfg.Layout.BandOffset)

	if value := p.string("GROUPING"); value != "" {
		grouping, err := scheduler.ParseGrouping(value)
		if err != nil {
			p.invalid = append(p.invalid, envPrefix+"GROUPING")
		} else {
			cfg.Layout.Grouping = grouping
		}
	}

	if value := p.string("SEED_DEFAULT_STAFF"); value != "" {
		seed, err := strconv.ParseBool(value)
		if err != nil {
			p.invalid = append(p.invalid, envPrefix+"SEED_DEFAULT_STAFF")
		} else {
			cfg.SeedDefaultStaff = seed
		}
	}

	if level := p.string("LOG_LEVEL"); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	if format := p.string("LOG_FORMAT"); format != "" {
		switch strings.ToLower(format) {
		case "json", "text":
			cfg.LogFormat = strings.ToLower(format)
		default:
			p.invalid = append(p.invalid, envPrefix+"LOG_FORMAT")
		}
	}

	if origins := p.string("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	if len(p.missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(p.missing, ", "))
	}
	if len(p.invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(p.invalid, ", "))
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

type parser struct {
	missing []string
	invalid []string
}

// invalidOnce records keys not already reported.
func (p *parser) invalidOnce(keys ...string) {
	for _, key := range keys {
		if !slices.Contains(p.invalid, key) {
			p.invalid = append(p.invalid, key)
		}
	}
}

func (p *parser) string(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}

func (p *parser) int(key string, dst *int) {
	value := p.string(key)
	if value == "" {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		p.invalid = append(p.invalid, envPrefix+key)
		return
	}
	*dst = n
}

func (p *parser) positiveInt(key string, dst *int) {
	value := p.string(key)
	if value == "" {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		p.invalid = append(p.invalid, envPrefix+key)
		return
	}
	*dst = n
}

func (p *parser) positiveFloat(key string, dst *float64) {
	p.float(key, dst, func(f float64) bool { return f > 0 })
}

func (p *parser) nonNegativeFloat(key string, dst *float64) {
	p.float(key, dst, func(f float64) bool { return f >= 0 })
}

func (p *parser) float(key string, dst *float64, ok func(float64) bool) {
	value := p.string(key)
	if value == "" {
		return
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || !ok(f) {
		p.invalid = append(p.invalid, envPrefix+key)
		return
	}
	*dst = f
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
