// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type BookingConfig struct {
	// HoldMinutes is the pending-payment grace period for a new claim.
	HoldMinutes int `yaml:"hold_minutes"`
	// SweepCron drives the hold expiry sweeper.
	SweepCron string `yaml:"sweep_cron"`
}

type PaymentsConfig struct {
	GatewayURL    string `yaml:"gateway_url,omitempty"`
	APIKey        string `yaml:"-"` // Loaded from environment
	WebhookSecret string `yaml:"-"` // Loaded from environment
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`
	Booking  BookingConfig  `yaml:"booking"`
	Payments PaymentsConfig `yaml:"payments"`

	Features struct {
		EnableMetrics bool `yaml:"enable_metrics"`
		EnableDebug   bool `yaml:"enable_debug"`
	} `yaml:"features"`
}

// HoldDuration returns the pending-payment grace period.
func (c *Config) HoldDuration() time.Duration {
	return time.Duration(c.Booking.HoldMinutes) * time.Minute
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	// Read and parse YAML config
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.applyDefaults()

	// Load sensitive values from environment
	cfg.Payments.APIKey = os.Getenv("PAYMENT_API_KEY")
	cfg.Payments.WebhookSecret = os.Getenv("PAYMENT_WEBHOOK_SECRET")

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Booking.HoldMinutes == 0 {
		c.Booking.HoldMinutes = 15
	}
	if c.Booking.SweepCron == "" {
		c.Booking.SweepCron = "*/5 * * * *"
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}
	if c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.Filename == "" {
		return fmt.Errorf("database filename is required for sqlite")
	}
	if c.Booking.HoldMinutes < 1 {
		return fmt.Errorf("booking hold_minutes must be at least 1")
	}
	if c.Payments.GatewayURL != "" && c.Payments.APIKey == "" {
		return fmt.Errorf("payment API key is required when a gateway URL is configured")
	}
	return nil
}
