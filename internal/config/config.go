package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Viewings ViewingsConfig `yaml:"viewings"`
	Feedback FeedbackConfig `yaml:"feedback"`

	Compatibility CompatibilityConfig `yaml:"compatibility"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// StorageConfig holds the on-device snapshot database configuration
type StorageConfig struct {
	Path       string `yaml:"path"`
	InMemory   bool   `yaml:"in_memory"`
	SyncWrites bool   `yaml:"sync_writes"`
}

// AuthConfig holds local API token configuration
type AuthConfig struct {
	Secret       string `yaml:"secret"`
	TokenTTLDays int    `yaml:"token_ttl_days"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// CatalogConfig holds the apartment seed catalog configuration
type CatalogConfig struct {
	Path     string `yaml:"path"`
	PageSize int    `yaml:"page_size"`
}

// DayHours is an opening window in "HH:MM" form
type DayHours struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// BusinessHoursConfig mirrors the weekly viewing schedule
type BusinessHoursConfig struct {
	MondayToThursday DayHours `yaml:"monday_to_thursday"`
	Friday           DayHours `yaml:"friday"`
	Weekend          bool     `yaml:"weekend"`
}

// ViewingsConfig holds viewing scheduling rules
type ViewingsConfig struct {
	BusinessHours BusinessHoursConfig `yaml:"business_hours"`
	SlotMinutes   int                 `yaml:"slot_minutes"`
}

// FeedbackConfig holds post-viewing feedback rules
type FeedbackConfig struct {
	DueAfterHours int `yaml:"due_after_hours"`
}

// WeightsConfig holds the scoring factor weights. Unset weights take their default;
// an explicit 0 turns a factor off.
type WeightsConfig struct {
	Budget    *float64 `yaml:"budget"`
	Size      *float64 `yaml:"size"`
	Amenities *float64 `yaml:"amenities"`
	Location  *float64 `yaml:"location"`
	Roommates *float64 `yaml:"roommates"`
}

// CompatibilityConfig holds compatibility scoring settings
type CompatibilityConfig struct {
	Weights WeightsConfig `yaml:"weights"`
}

// Default returns a configuration with every field set to its default value
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Compatibility.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Addr returns the listen address of the HTTP server
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Storage.Path == "" && !c.Storage.InMemory {
		c.Storage.Path = "data/renthunt"
	}
	if c.Auth.TokenTTLDays <= 0 {
		c.Auth.TokenTTLDays = 365
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Catalog.PageSize <= 0 {
		c.Catalog.PageSize = 20
	}

	bh := &c.Viewings.BusinessHours
	if bh.MondayToThursday.Start == "" {
		bh.MondayToThursday.Start = "10:00"
	}
	if bh.MondayToThursday.End == "" {
		bh.MondayToThursday.End = "19:00"
	}
	if bh.Friday.Start == "" {
		bh.Friday.Start = "10:00"
	}
	if bh.Friday.End == "" {
		bh.Friday.End = "17:00"
	}
	if c.Viewings.SlotMinutes <= 0 {
		c.Viewings.SlotMinutes = 30
	}

	if c.Feedback.DueAfterHours <= 0 {
		c.Feedback.DueAfterHours = 24
	}

	w := &c.Compatibility.Weights
	defaultWeight(&w.Budget, 1.0)
	defaultWeight(&w.Size, 0.8)
	defaultWeight(&w.Amenities, 0.7)
	defaultWeight(&w.Location, 0.9)
	defaultWeight(&w.Roommates, 1.0)
}

func defaultWeight(w **float64, v float64) {
	if *w == nil {
		*w = &v
	}
}

// Validate reports settings that cannot be used
func (c *WeightsConfig) Validate() error {
	for name, w := range map[string]*float64{
		"budget": c.Budget, "size": c.Size, "amenities": c.Amenities,
		"location": c.Location, "roommates": c.Roommates,
	} {
		if w != nil && *w < 0 {
			return fmt.Errorf("compatibility weight %s must not be negative", name)
		}
	}
	return nil
}
