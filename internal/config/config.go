package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultListingURL     = "https://web.sas.upenn.edu/upennidb/albums/"
	DefaultLanes          = 5
	MaxLanes              = 255
	DefaultRequestTimeout = 30 * time.Minute
	DefaultLogLevel       = "info"

	EnvPrefix = "ALBUMGRAB"
)

// Keys used with viper.
const (
	KeyOutputDir      = "output_dir"
	KeyLanes          = "lanes"
	KeyListingURL     = "listing_url"
	KeyRequestTimeout = "request_timeout"
	KeyLogLevel       = "log_level"
	KeyNoProgress     = "no_progress"
)

// Config holds the settings of one run.
type Config struct {
	OutputDir      string
	Lanes          int
	ListingURL     string
	RequestTimeout time.Duration
	LogLevel       string
	NoProgress     bool
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyLanes, DefaultLanes)
	v.SetDefault(KeyListingURL, DefaultListingURL)
	v.SetDefault(KeyRequestTimeout, DefaultRequestTimeout)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
}

// Load reads the configuration out of v. Environment variables are looked up
// with the ALBUMGRAB_ prefix.
func Load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	cfg := &Config{
		OutputDir:      v.GetString(KeyOutputDir),
		Lanes:          v.GetInt(KeyLanes),
		ListingURL:     v.GetString(KeyListingURL),
		RequestTimeout: v.GetDuration(KeyRequestTimeout),
		LogLevel:       v.GetString(KeyLogLevel),
		NoProgress:     v.GetBool(KeyNoProgress),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.OutputDir) == "" {
		return errors.New("output dir is required")
	}
	if c.Lanes < 1 || c.Lanes > MaxLanes {
		return fmt.Errorf("lanes must be between 1 and %d, got %d", MaxLanes, c.Lanes)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative, got %s", c.RequestTimeout)
	}

	u, err := url.Parse(c.ListingURL)
	if err != nil {
		return fmt.Errorf("invalid listing url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported listing url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("listing url is missing a host")
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", name)
	}
	return level, nil
}
