package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/intellisat/internal/bootstore"
	"github.com/specialistvlad/intellisat/internal/telemetry"
	"github.com/specialistvlad/intellisat/internal/ticker"
)

// Config holds the process-level settings for an App instance. Values left
// at zero keep what the kernel configuration file says.
type Config struct {
	ConfigPaths []string // hcl files or directories

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	Ticks         uint64
	Seed          uint64
	SkipStartup   bool
	BootStatePath string
	TickInterval  time.Duration

	// Ticker, BootStore and Sink replace the built-in ones. They exist for
	// tests and for embedding the kernel in a larger simulator.
	Ticker    ticker.Source
	BootStore bootstore.Store
	Sink      telemetry.Sink
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	var errs []error
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format must be text or json, got %q", cfg.LogFormat))
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		errs = append(errs, fmt.Errorf("healthcheck port out of range: %d", cfg.HealthcheckPort))
	}
	if cfg.TickInterval < 0 {
		errs = append(errs, fmt.Errorf("tick interval must not be negative, got %s", cfg.TickInterval))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
