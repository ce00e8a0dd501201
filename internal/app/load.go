package app

import (
	"context"
	"fmt"
	"os"

	"github.com/specialistvlad/intellisat/internal/config"
	"github.com/specialistvlad/intellisat/internal/ctxlog"
	"github.com/specialistvlad/intellisat/internal/telemetry"
)

// Environment variables read on top of the kernel configuration file.
const (
	envSocketIOURL    = "INTELLISAT_TELEMETRY_SOCKETIO_URL"
	envKafkaBrokers   = "INTELLISAT_KAFKA_BROKERS"
	envKafkaTopic     = "INTELLISAT_KAFKA_TOPIC"
	envDynamoTable    = "INTELLISAT_DYNAMO_TABLE"
	envDynamoEndpoint = "INTELLISAT_DYNAMO_ENDPOINT"
	envAWSRegion      = "INTELLISAT_AWS_REGION"
)

// loadModel reads the configuration files, then applies the environment and
// finally the process-level overrides from cfg, and validates the result.
func loadModel(ctx context.Context, cfg *Config, loader config.Loader, lookupEnv func(string) (string, bool)) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading kernel configuration...", "paths", cfg.ConfigPaths)

	model, err := loader.Load(ctx, cfg.ConfigPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	applyEnv(model, lookupEnv)
	applyOverrides(model, cfg)

	if err := model.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("Configuration loaded.", "store", model.Boot.Store, "policy", model.Power.Policy, "max_ticks", model.Kernel.MaxTicks)
	return model, nil
}

func applyEnv(m *config.Model, lookup func(string) (string, bool)) {
	if v, ok := lookup(envSocketIOURL); ok {
		m.Telemetry.SocketIOURL = v
	}
	if v, ok := lookup(envKafkaBrokers); ok {
		m.Telemetry.KafkaBrokers = telemetry.SplitBrokers(v)
	}
	if v, ok := lookup(envKafkaTopic); ok && v != "" {
		m.Telemetry.KafkaTopic = v
	}
	if v, ok := lookup(envDynamoTable); ok && v != "" {
		m.Boot.Store = config.StoreDynamo
		m.Boot.Table = v
	}
	if v, ok := lookup(envDynamoEndpoint); ok {
		m.Boot.Endpoint = v
	}
	if v, ok := lookup(envAWSRegion); ok && v != "" {
		m.Boot.Region = v
	}
}

func applyOverrides(m *config.Model, cfg *Config) {
	if cfg.Ticks > 0 {
		m.Kernel.MaxTicks = cfg.Ticks
	}
	if cfg.Seed > 0 {
		m.Kernel.Seed = cfg.Seed
	}
	if cfg.TickInterval > 0 {
		m.Kernel.TickInterval = cfg.TickInterval
	}
	if cfg.SkipStartup {
		m.Boot.SkipStartup = true
	}
	if cfg.BootStatePath != "" {
		m.Boot.Store = config.StoreFile
		m.Boot.Path = cfg.BootStatePath
	}
	if cfg.HealthcheckPort > 0 {
		m.Health.Port = cfg.HealthcheckPort
	}
}
