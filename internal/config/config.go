package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"courtbook/internal/booking"
)

type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Backup     BackupConfig     `yaml:"backup"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Booking    BookingConfig    `yaml:"booking"`
	Sweeper    SweeperConfig    `yaml:"sweeper"`
	Courts     []CourtConfig    `yaml:"courts"`
	Staff      []StaffConfig    `yaml:"staff"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// RedisConfig configures the court catalogue cache. An empty address
// disables the cache.
type RedisConfig struct {
	Address         string `yaml:"address"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

type MonitoringConfig struct {
	HealthCheckPort   int  `yaml:"health_check_port"`
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// BookingConfig holds the facility admission rules. Business hours use
// "HH:MM"; business_hours_close may be "24:00".
type BookingConfig struct {
	MinDurationMinutes      int    `yaml:"min_duration_minutes"`
	MaxDurationHours        int    `yaml:"max_duration_hours"`
	BusinessHoursOpen       string `yaml:"business_hours_open"`
	BusinessHoursClose      string `yaml:"business_hours_close"`
	BufferMinutes           int    `yaml:"buffer_minutes"`
	MaxAdvanceDays          int    `yaml:"max_advance_days"`
	MinAdvanceMinutes       int    `yaml:"min_advance_minutes"`
	CancellationCutoffHours *int   `yaml:"cancellation_cutoff_hours"`
	CompletionGraceHours    *int   `yaml:"completion_grace_hours"`
	RequiresApproval        bool   `yaml:"requires_approval"`
	Timezone                string `yaml:"timezone"`
}

type SweeperConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalMinutes int  `yaml:"interval_minutes"`
}

type CourtConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// StaffConfig lists operators allowed to act on any reservation.
type StaffConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Load reads the YAML config at path. Variables from a .env file in the
// working directory are loaded first so ${VAR} placeholders can use them.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML, expands environment placeholders, applies defaults
// and validates the result.
func Parse(data []byte) (*Config, error) {
	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "data/courtbook.db"
	}
	if c.Backup.IntervalHours <= 0 {
		c.Backup.IntervalHours = 24
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "data/backups"
	}
	if c.Redis.CacheTTLSeconds <= 0 {
		c.Redis.CacheTTLSeconds = 300
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8080
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Sweeper.IntervalMinutes <= 0 {
		c.Sweeper.IntervalMinutes = 15
	}

	b := &c.Booking
	if b.MinDurationMinutes <= 0 {
		b.MinDurationMinutes = 30
	}
	if b.MaxDurationHours <= 0 {
		b.MaxDurationHours = 2
	}
	if b.BusinessHoursOpen == "" {
		b.BusinessHoursOpen = "08:00"
	}
	if b.BusinessHoursClose == "" {
		b.BusinessHoursClose = "22:00"
	}
	if b.MaxAdvanceDays <= 0 {
		b.MaxAdvanceDays = 30
	}
	if b.CancellationCutoffHours == nil {
		b.CancellationCutoffHours = intPtr(2)
	}
	if b.CompletionGraceHours == nil {
		b.CompletionGraceHours = intPtr(1)
	}
	if b.Timezone == "" {
		b.Timezone = "UTC"
	}
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("booking: %w", err)
	}
	if c.Backup.RetentionDays < 0 {
		return fmt.Errorf("backup: retention_days must not be negative")
	}
	seen := make(map[string]bool, len(c.Courts))
	for i, court := range c.Courts {
		if court.ID == "" {
			return fmt.Errorf("courts[%d]: id is required", i)
		}
		if seen[court.ID] {
			return fmt.Errorf("courts[%d]: duplicate id %q", i, court.ID)
		}
		seen[court.ID] = true
	}
	for i, s := range c.Staff {
		if s.ID == "" {
			return fmt.Errorf("staff[%d]: id is required", i)
		}
	}
	return nil
}

// Policy converts the booking section into engine rules.
func (c *Config) Policy() (booking.Policy, error) {
	b := c.Booking

	opens, err := parseClock(b.BusinessHoursOpen)
	if err != nil {
		return booking.Policy{}, fmt.Errorf("business_hours_open: %w", err)
	}
	closes, err := parseClock(b.BusinessHoursClose)
	if err != nil {
		return booking.Policy{}, fmt.Errorf("business_hours_close: %w", err)
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return booking.Policy{}, fmt.Errorf("timezone: %w", err)
	}

	p := booking.Policy{
		MinDuration:      time.Duration(b.MinDurationMinutes) * time.Minute,
		MaxDuration:      time.Duration(b.MaxDurationHours) * time.Hour,
		OpensAt:          opens,
		ClosesAt:         closes,
		Buffer:           time.Duration(b.BufferMinutes) * time.Minute,
		MinAdvance:       time.Duration(b.MinAdvanceMinutes) * time.Minute,
		MaxAdvanceDays:   b.MaxAdvanceDays,
		RequiresApproval: b.RequiresApproval,
		Location:         loc,
	}
	if b.CancellationCutoffHours != nil {
		p.CancellationCutoff = time.Duration(*b.CancellationCutoffHours) * time.Hour
	}
	if b.CompletionGraceHours != nil {
		p.CompletionGrace = time.Duration(*b.CompletionGraceHours) * time.Hour
	}
	if err := p.Validate(); err != nil {
		return booking.Policy{}, err
	}
	return p, nil
}

func (c *Config) BackupInterval() time.Duration {
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Sweeper.IntervalMinutes) * time.Minute
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

// StaffIDs returns the ids of configured staff.
func (c *Config) StaffIDs() []string {
	ids := make([]string, 0, len(c.Staff))
	for _, s := range c.Staff {
		ids = append(ids, s.ID)
	}
	return ids
}

func parseClock(s string) (time.Duration, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

func intPtr(v int) *int {
	return &v
}
