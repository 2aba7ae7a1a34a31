// Package config loads the monitor configuration from environment
// variables. All knobs the cycles depend on are explicit values here; no
// package reads ambient environment state at run time.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Run modes.
const (
	ModeMonitor = "monitor"
	ModeReport  = "report"
	ModeDaemon  = "daemon"
)

// Config holds the monitor configuration.
type Config struct {
	// Feed
	FeedURL         string `env:"FEED_URL" envDefault:"https://www.anp.org.ma/_vti_bin/WS/Service.svc/mvmnv/all"`
	FetchTimeoutSec int    `env:"FETCH_TIMEOUT_SEC" envDefault:"30"`
	FetchMaxRetries int    `env:"FETCH_MAX_RETRIES" envDefault:"4"`

	// Monitored ports (Jorf Lasfar, Safi, Nador by default)
	AllowedPorts []string `env:"ALLOWED_PORTS" envSeparator:"," envDefault:"07,03,06"`

	// Mode
	RunMode string `env:"RUN_MODE" envDefault:"monitor"`

	// State
	StateFile        string `env:"STATE_FILE" envDefault:"state.json"`
	StateFallbackEnv string `env:"STATE_FALLBACK_ENV" envDefault:"STATE_FALLBACK"`
	ArchiveFile      string `env:"ARCHIVE_FILE" envDefault:"history_archive.json"`
	StaleAfterHours  int    `env:"STALE_AFTER_HOURS" envDefault:"72"`

	// Mail
	EmailEnabled bool   `env:"EMAIL_ENABLED" envDefault:"true"`
	EmailUser    string `env:"EMAIL_USER"`
	EmailPass    string `env:"EMAIL_PASS"`
	EmailTo      string `env:"EMAIL_TO"`
	SMTPHost     string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`

	// Snapshot cache (disabled when REDIS_URL is empty)
	RedisURL      string `env:"REDIS_URL"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTLSec   int    `env:"CACHE_TTL_SEC" envDefault:"900"`

	// Daemon mode
	PollIntervalSec int `env:"POLL_INTERVAL_SEC" envDefault:"600"`
	ReportHour      int `env:"REPORT_HOUR" envDefault:"18"`
	HTTPPort        int `env:"HTTP_PORT" envDefault:"8080"`

	// Observability
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Computed durations (not from env)
	FetchTimeout time.Duration `env:"-"`
	StaleAfter   time.Duration `env:"-"`
	CacheTTL     time.Duration `env:"-"`
	PollInterval time.Duration `env:"-"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}
	opts := env.Options{
		Prefix: "",
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	// Trim whitespace from port codes
	for i := range cfg.AllowedPorts {
		cfg.AllowedPorts[i] = strings.TrimSpace(cfg.AllowedPorts[i])
	}

	// Convert scalar env values to time.Duration
	cfg.FetchTimeout = time.Duration(cfg.FetchTimeoutSec) * time.Second
	cfg.StaleAfter = time.Duration(cfg.StaleAfterHours) * time.Hour
	cfg.CacheTTL = time.Duration(cfg.CacheTTLSec) * time.Second
	cfg.PollInterval = time.Duration(cfg.PollIntervalSec) * time.Second

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validModes := map[string]bool{ModeMonitor: true, ModeReport: true, ModeDaemon: true}
	if !validModes[c.RunMode] {
		return fmt.Errorf("invalid run mode: %s", c.RunMode)
	}

	if len(c.AllowedPorts) == 0 {
		return fmt.Errorf("at least one port must be configured")
	}
	for _, port := range c.AllowedPorts {
		if port == "" {
			return fmt.Errorf("empty port code in ALLOWED_PORTS")
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	if c.FetchTimeout < time.Second {
		return fmt.Errorf("fetch timeout must be at least 1 second")
	}
	if c.FetchMaxRetries < 0 {
		return fmt.Errorf("fetch max retries must be non-negative")
	}
	if c.StaleAfter < time.Hour {
		return fmt.Errorf("stale cutoff must be at least 1 hour")
	}

	if c.StateFile == "" {
		return fmt.Errorf("state file path must not be empty")
	}
	if c.ArchiveFile == "" {
		return fmt.Errorf("archive file path must not be empty")
	}

	if c.MailActive() && c.EmailTo == "" {
		return fmt.Errorf("EMAIL_TO is required when mail is enabled")
	}

	if c.RunMode == ModeDaemon {
		if c.PollInterval < time.Second {
			return fmt.Errorf("poll interval must be at least 1 second")
		}
		if c.ReportHour < 0 || c.ReportHour > 23 {
			return fmt.Errorf("report hour must be in [0, 23]")
		}
		if c.HTTPPort < 1 || c.HTTPPort > 65535 {
			return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
		}
	}

	return nil
}

// MailActive reports whether SMTP delivery is configured and enabled.
// Mirrors the historical behaviour: a missing EMAIL_USER disables mail
// without failing the run.
func (c *Config) MailActive() bool {
	return c.EmailEnabled && c.EmailUser != ""
}

// CacheActive reports whether the Redis snapshot cache is configured.
func (c *Config) CacheActive() bool {
	return c.RedisURL != ""
}

// AllowedPortSet returns the allowed ports as a lookup set.
func (c *Config) AllowedPortSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.AllowedPorts))
	for _, port := range c.AllowedPorts {
		set[port] = struct{}{}
	}
	return set
}
