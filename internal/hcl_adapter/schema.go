package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Kernel    *kernelBlock    `hcl:"kernel,block"`
	Scheduler *schedulerBlock `hcl:"scheduler,block"`
	Boot      *bootBlock      `hcl:"boot,block"`
	Power     *powerBlock     `hcl:"power,block"`
	Tasks     []*taskBlock    `hcl:"task,block"`
	Telemetry *telemetryBlock `hcl:"telemetry,block"`
	Health    *healthBlock    `hcl:"health,block"`
}

type kernelBlock struct {
	TickInterval hcl.Expression `hcl:"tick_interval,optional"`
	Seed         hcl.Expression `hcl:"seed,optional"`
	MaxTicks     hcl.Expression `hcl:"max_ticks,optional"`
}

type schedulerBlock struct {
	CleanupOnAbort   hcl.Expression `hcl:"cleanup_on_abort,optional"`
	RepollLimit      hcl.Expression `hcl:"repoll_limit,optional"`
	RepollBackoff    hcl.Expression `hcl:"repoll_backoff,optional"`
	ConfigureFailure hcl.Expression `hcl:"configure_failure,optional"`
	ConfigureRetries hcl.Expression `hcl:"configure_retries,optional"`
}

type bootBlock struct {
	DeploymentWait     hcl.Expression `hcl:"deployment_wait,optional"`
	BackupRestoreDelay hcl.Expression `hcl:"backup_restore_delay,optional"`
	SkipStartup        hcl.Expression `hcl:"skip_startup,optional"`
	Store              hcl.Expression `hcl:"store,optional"`
	Path               hcl.Expression `hcl:"path,optional"`
	Table              hcl.Expression `hcl:"table,optional"`
	Endpoint           hcl.Expression `hcl:"endpoint,optional"`
	Region             hcl.Expression `hcl:"region,optional"`
	SatelliteID        hcl.Expression `hcl:"satellite_id,optional"`
}

type powerBlock struct {
	Policy          hcl.Expression `hcl:"policy,optional"`
	Probability     hcl.Expression `hcl:"probability,optional"`
	Critical        hcl.Expression `hcl:"critical,optional"`
	Capacity        hcl.Expression `hcl:"capacity,optional"`
	Initial         hcl.Expression `hcl:"initial,optional"`
	DrainPerSecond  hcl.Expression `hcl:"drain_per_second,optional"`
	ChargePerSecond hcl.Expression `hcl:"charge_per_second,optional"`
}

type taskBlock struct {
	Name        string         `hcl:"name,label"`
	Probability hcl.Expression `hcl:"probability,optional"`
	Ready       hcl.Expression `hcl:"ready,optional"`
	RunMin      hcl.Expression `hcl:"run_min,optional"`
	RunMax      hcl.Expression `hcl:"run_max,optional"`
	Quantum     hcl.Expression `hcl:"quantum,optional"`
	Load        hcl.Expression `hcl:"load,optional"`
}

type telemetryBlock struct {
	SocketIOURL  hcl.Expression `hcl:"socketio_url,optional"`
	Namespace    hcl.Expression `hcl:"namespace,optional"`
	KafkaBrokers hcl.Expression `hcl:"kafka_brokers,optional"`
	KafkaTopic   hcl.Expression `hcl:"kafka_topic,optional"`
	Every        hcl.Expression `hcl:"every,optional"`
	Buffer       hcl.Expression `hcl:"buffer,optional"`
}

type healthBlock struct {
	Port hcl.Expression `hcl:"port,optional"`
}
