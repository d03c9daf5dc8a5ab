package synth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trigconf/internal/ir"
)

func TestDeriveDefaults(t *testing.T) {
	d, err := Derive(DefaultParams(ProfileFakeApp), DefaultSettings())
	require.NoError(t, err)

	assert.Equal(t, int64(5000000), d.TriggerIntervalTicks)
	assert.Equal(t, int64(10000000), d.TriggerDelayTicks)
	assert.Equal(t, 5e6, d.EffectiveClockHz)
	assert.Equal(t, int64(1000), d.TokenIntervalMs)
	assert.Equal(t, int64(1), d.TokenSigmaMs)
}

func TestDeriveFloorsInsteadOfRounding(t *testing.T) {
	tests := []struct {
		name     string
		rate     float64
		slowdown float64
		want     Derived
	}{
		{
			name:     "third of a hertz is not a whole tick count",
			rate:     3,
			slowdown: 1,
			want: Derived{
				TriggerIntervalTicks: 16666666,
				TriggerDelayTicks:    100000000,
				EffectiveClockHz:     5e7,
				TokenIntervalMs:      333,
				TokenSigmaMs:         0,
			},
		},
		{
			name:     "slow rate",
			rate:     0.5,
			slowdown: 10,
			want: Derived{
				TriggerIntervalTicks: 10000000,
				TriggerDelayTicks:    10000000,
				EffectiveClockHz:     5e6,
				TokenIntervalMs:      2000,
				TokenSigmaMs:         2,
			},
		},
		{
			name:     "fractional slowdown",
			rate:     1,
			slowdown: 3,
			want: Derived{
				TriggerIntervalTicks: 16666666,
				TriggerDelayTicks:    33333333,
				EffectiveClockHz:     50000000.0 / 3,
				TokenIntervalMs:      1000,
				TokenSigmaMs:         1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams(ProfileFakeApp)
			p.TriggerRateHz = tt.rate
			p.SlowdownFactor = tt.slowdown

			d, err := Derive(p, DefaultSettings())
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestDeriveErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		check  func(error) bool
	}{
		{"zero rate", func(p *Params) { p.TriggerRateHz = 0 }, IsInvalidParameter},
		{"negative rate", func(p *Params) { p.TriggerRateHz = -1 }, IsInvalidParameter},
		{"NaN rate", func(p *Params) { p.TriggerRateHz = math.NaN() }, IsInvalidParameter},
		{"infinite rate", func(p *Params) { p.TriggerRateHz = math.Inf(1) }, IsInvalidParameter},
		{"negative producers", func(p *Params) { p.ProducerCount = -1 }, IsInvalidParameter},
		{"too many producers", func(p *Params) { p.ProducerCount = 1 << 50 }, IsInvalidParameter},
		{"negative slowdown", func(p *Params) { p.SlowdownFactor = -10 }, IsInvalidParameter},
		{"zero slowdown", func(p *Params) { p.SlowdownFactor = 0 }, IsDivisionByZero},
		{"tick count overflow", func(p *Params) { p.TriggerRateHz = 1e-300 }, IsArithmetic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams(ProfileFakeApp)
			tt.mutate(&p)

			_, err := Derive(p, DefaultSettings())
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)
		})
	}
}

func TestProducerCeiling(t *testing.T) {
	s := DefaultSettings()
	s.MaxProducers = 8

	p := DefaultParams(ProfileFakeApp)
	p.ProducerCount = 8
	res, err := Synthesize(ProfileFakeApp, p, s)
	require.NoError(t, err)
	conf, _ := res.Document.Command(ir.CmdConf)
	payload, ok := conf.PayloadFor(ModEmulator)
	require.True(t, ok)
	assert.Len(t, payload.(ir.DecisionEmulatorConf).Links, 8)

	p.ProducerCount = 9
	_, err = Synthesize(ProfileFakeApp, p, s)
	require.Error(t, err)
	assert.True(t, IsInvalidParameter(err))
	assert.Contains(t, err.Error(), "producer_count")

	p.ProducerCount = 1 << 50
	assert.NotPanics(t, func() {
		_, err = Synthesize(ProfileFakeApp, p, DefaultSettings())
	})
	assert.True(t, IsInvalidParameter(err))
}

func TestZeroSlowdownIsArithmeticNotParameter(t *testing.T) {
	p := DefaultParams(ProfileFakeApp)
	p.SlowdownFactor = 0

	_, err := Derive(p, DefaultSettings())
	require.Error(t, err)
	assert.True(t, IsArithmetic(err))
	assert.False(t, IsInvalidParameter(err))
	assert.Contains(t, err.Error(), "slowdown_factor")
}

func TestOverflowIsNotDivision(t *testing.T) {
	_, err := TriggerIntervalTicks(1e-300, 5e7, 1)
	require.Error(t, err)
	assert.True(t, IsArithmetic(err))
	assert.False(t, IsDivisionByZero(err))
}

func TestTimingHelpers(t *testing.T) {
	ticks, err := TriggerIntervalTicks(1, 5e7, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5000000), ticks)

	delay, err := TriggerDelayTicks(2, 5e7, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10000000), delay)

	hz, err := EffectiveClockHz(5e7, 10)
	require.NoError(t, err)
	assert.Equal(t, 5e6, hz)

	_, err = TriggerDelayTicks(2, 5e7, 0)
	assert.True(t, IsDivisionByZero(err))
	_, err = EffectiveClockHz(5e7, 0)
	assert.True(t, IsDivisionByZero(err))
}

func TestParamsFields(t *testing.T) {
	f := DefaultParams(ProfileFakeApp).Fields()
	assert.Len(t, f, 6)
	v, ok := f.Lookup("run_number")
	require.True(t, ok)
	assert.EqualValues(t, 333, v)
}
