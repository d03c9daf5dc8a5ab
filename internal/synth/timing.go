package synth

import (
	"math"

	"github.com/roach88/trigconf/internal/ir"
)

// Params are the per-invocation inputs of a synthesis.
type Params struct {
	ProducerCount  int
	SlowdownFactor float64
	RunNumber      int64
	TriggerRateHz  float64
	Toggles        Toggles
}

// DefaultParams returns the stock invocation with the given profile's
// toggle defaults.
func DefaultParams(p Profile) Params {
	return Params{
		ProducerCount:  2,
		SlowdownFactor: 10,
		RunNumber:      333,
		TriggerRateHz:  1.0,
		Toggles:        p.ResolveToggles(nil, nil),
	}
}

// Validate rejects parameters outside their domain. A zero slowdown factor
// is reported as a division error rather than an invalid parameter.
func (p Params) Validate(s Settings) error {
	if p.ProducerCount < 0 {
		return invalidParameter("producer_count", "must not be negative, got %d", p.ProducerCount)
	}
	if int64(p.ProducerCount) > s.MaxProducers {
		return invalidParameter("producer_count", "must not exceed %d, got %d", s.MaxProducers, p.ProducerCount)
	}
	if !finite(p.TriggerRateHz) || p.TriggerRateHz <= 0 {
		return invalidParameter("trigger_rate_hz", "must be a positive number, got %v", p.TriggerRateHz)
	}
	if !finite(p.SlowdownFactor) || p.SlowdownFactor < 0 {
		return invalidParameter("slowdown_factor", "must be a positive number, got %v", p.SlowdownFactor)
	}
	if p.SlowdownFactor == 0 {
		return divisionByZero("slowdown_factor")
	}
	return nil
}

// Fields renders the parameters for hashing and the generation ledger.
func (p Params) Fields() ir.IRObject {
	return ir.NewIRObject(
		ir.O("producer_count", ir.IRInt(p.ProducerCount)),
		ir.O("slowdown_factor", ir.IRFloat(p.SlowdownFactor)),
		ir.O("run_number", ir.IRInt(p.RunNumber)),
		ir.O("trigger_rate_hz", ir.IRFloat(p.TriggerRateHz)),
		ir.O("inhibits", ir.IRBool(p.Toggles.Inhibits)),
		ir.O("tokens", ir.IRBool(p.Toggles.Tokens)),
	)
}

// Derived holds the timing values computed from Params and Settings.
type Derived struct {
	TriggerIntervalTicks int64   `json:"trigger_interval_ticks"`
	TriggerDelayTicks    int64   `json:"trigger_delay_ticks"`
	EffectiveClockHz     float64 `json:"effective_clock_hz"`
	TokenIntervalMs      int64   `json:"token_interval_ms"`
	TokenSigmaMs         int64   `json:"token_sigma_ms"`
}

// Derive computes the timing values. Triggers stay one per wall-clock
// 1/rate seconds when the hardware clock is slowed down, so tick counts are
// divided by the slowdown factor. Results are floored, never rounded.
func Derive(p Params, s Settings) (Derived, error) {
	if err := p.Validate(s); err != nil {
		return Derived{}, err
	}

	var d Derived
	var err error
	if d.TriggerIntervalTicks, err = TriggerIntervalTicks(p.TriggerRateHz, s.ClockHz, p.SlowdownFactor); err != nil {
		return Derived{}, err
	}
	if d.TriggerDelayTicks, err = TriggerDelayTicks(s.TriggerDelaySeconds, s.ClockHz, p.SlowdownFactor); err != nil {
		return Derived{}, err
	}
	if d.EffectiveClockHz, err = EffectiveClockHz(s.ClockHz, p.SlowdownFactor); err != nil {
		return Derived{}, err
	}
	if d.TokenIntervalMs, err = floorInt("token_interval_ms", 1000/p.TriggerRateHz); err != nil {
		return Derived{}, err
	}
	if d.TokenSigmaMs, err = floorInt("token_sigma_ms", 1/p.TriggerRateHz); err != nil {
		return Derived{}, err
	}
	return d, nil
}

// TriggerIntervalTicks returns floor((1 / rate) * clock / slowdown).
func TriggerIntervalTicks(rateHz, clockHz, slowdown float64) (int64, error) {
	if !finite(rateHz) || rateHz <= 0 {
		return 0, invalidParameter("trigger_rate_hz", "must be a positive number, got %v", rateHz)
	}
	if slowdown == 0 {
		return 0, divisionByZero("slowdown_factor")
	}
	return floorInt("trigger_interval_ticks", (1/rateHz)*clockHz/slowdown)
}

// TriggerDelayTicks returns floor(delay * clock / slowdown).
func TriggerDelayTicks(delaySeconds, clockHz, slowdown float64) (int64, error) {
	if slowdown == 0 {
		return 0, divisionByZero("slowdown_factor")
	}
	return floorInt("trigger_delay_ticks", delaySeconds*clockHz/slowdown)
}

// EffectiveClockHz returns clock / slowdown, unfloored.
func EffectiveClockHz(clockHz, slowdown float64) (float64, error) {
	if slowdown == 0 {
		return 0, divisionByZero("slowdown_factor")
	}
	hz := clockHz / slowdown
	if !finite(hz) {
		return 0, overflow("clock_frequency_hz", hz)
	}
	return hz, nil
}

// 2^63 is exactly representable; every float64 below it fits in an int64.
const maxTick = 1 << 63

func floorInt(param string, v float64) (int64, error) {
	f := math.Floor(v)
	if !finite(f) || f >= maxTick || f < -maxTick {
		return 0, overflow(param, v)
	}
	return int64(f), nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
