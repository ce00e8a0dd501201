// Package power models the satellite's battery so that the power-critical
// policy can be a real threshold on a live value instead of a coin flip.
package power

import (
	"sync"
	"time"

	"github.com/zclconf/go-cty/cty"
)

// BatteryConfig sets the simulated cell's behaviour. Voltage is expressed
// on the same scale as Capacity.
type BatteryConfig struct {
	Capacity        float64
	Initial         float64
	DrainPerSecond  float64
	ChargePerSecond float64
}

// DefaultBatteryConfig keeps the battery above the reference threshold of 20
// for long stretches of ordinary duty, so charging stays rare.
var DefaultBatteryConfig = BatteryConfig{
	Capacity:        100,
	Initial:         80,
	DrainPerSecond:  1.5,
	ChargePerSecond: 6,
}

// Battery is a simulated cell. Duties drain it while they run and the
// charging duty refills it.
type Battery struct {
	mu       sync.Mutex
	cfg      BatteryConfig
	level    float64
	charging bool
}

// NewBattery returns a battery at cfg.Initial, clamped to capacity.
func NewBattery(cfg BatteryConfig) *Battery {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultBatteryConfig.Capacity
	}
	b := &Battery{cfg: cfg}
	b.level = clamp(cfg.Initial, cfg.Capacity)
	return b
}

func clamp(v, capacity float64) float64 {
	return max(0, min(v, capacity))
}

// Voltage returns the current level.
func (b *Battery) Voltage() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.level
}

// Drain discharges the battery for d of ordinary load.
func (b *Battery) Drain(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.charging = false
	b.level = clamp(b.level-b.cfg.DrainPerSecond*d.Seconds(), b.cfg.Capacity)
}

// Charge refills the battery for d of charging.
func (b *Battery) Charge(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.charging = true
	b.level = clamp(b.level+b.cfg.ChargePerSecond*d.Seconds(), b.cfg.Capacity)
}

// Set forces the level, for tests and ground overrides.
func (b *Battery) Set(level float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.level = clamp(level, b.cfg.Capacity)
}

// Vars exposes the battery to policy expressions as the `battery` object.
func (b *Battery) Vars() map[string]cty.Value {
	b.mu.Lock()
	defer b.mu.Unlock()
	return map[string]cty.Value{
		"battery": cty.ObjectVal(map[string]cty.Value{
			"voltage":  cty.NumberFloatVal(b.level),
			"capacity": cty.NumberFloatVal(b.cfg.Capacity),
			"percent":  cty.NumberFloatVal(100 * b.level / b.cfg.Capacity),
			"charging": cty.BoolVal(b.charging),
		}),
	}
}
