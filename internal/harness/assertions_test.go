package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trigconf/internal/config"
	"github.com/roach88/trigconf/internal/ir"
	"github.com/roach88/trigconf/internal/synth"
	"github.com/roach88/trigconf/internal/testutil"
)

func defaultResult(t *testing.T) *synth.Result {
	t.Helper()
	return testutil.Synthesize(t, synth.ProfileFakeApp, nil)
}

func intPtr(n int) *int { return &n }

func TestAssertModules(t *testing.T) {
	res := defaultResult(t)

	errs := EvaluateAssertions(res, []Assertion{
		{Type: AssertModules, Expect: []string{"ftss", "frr", "ftg", "tde"}},
	})
	assert.Empty(t, errs)

	errs = EvaluateAssertions(res, []Assertion{
		{Type: AssertModules, Expect: []string{"frr", "ftss", "ftg", "tde"}},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Assertion failed: modules")
	assert.Contains(t, errs[0], "Actual: modules [ftss frr ftg tde]")
}

func TestAssertQueues_SortedOrder(t *testing.T) {
	res := defaultResult(t)

	errs := EvaluateAssertions(res, []Assertion{
		{Type: AssertQueues, Expect: []string{"time_sync_q", "token_q", "trigger_decision_q"}},
	})
	assert.Empty(t, errs)
}

func TestAssertInputs(t *testing.T) {
	res := defaultResult(t)

	tests := []struct {
		name    string
		a       Assertion
		wantErr string
	}{
		{
			name: "emulator inputs",
			a:    Assertion{Type: AssertInputs, Module: "tde", Expect: []string{"time_sync_source", "token_source"}},
		},
		{
			name: "no inputs matches empty expect",
			a:    Assertion{Type: AssertInputs, Module: "ftss"},
		},
		{
			name:    "wrong inputs",
			a:       Assertion{Type: AssertInputs, Module: "tde", Expect: []string{"time_sync_source"}},
			wantErr: "tde inputs [time_sync_source token_source]",
		},
		{
			name:    "missing module",
			a:       Assertion{Type: AssertInputs, Module: "fig"},
			wantErr: "module not in topology",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(res, []Assertion{tt.a})
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestAssertCommandOrder(t *testing.T) {
	res := defaultResult(t)

	errs := EvaluateAssertions(res, []Assertion{
		{Type: AssertCommandOrder, Expect: []string{"init", "conf", "start", "stop", "pause", "resume", "scrap"}},
	})
	assert.Empty(t, errs)

	errs = EvaluateAssertions(res, []Assertion{
		{Type: AssertCommandOrder, Expect: []string{"init", "conf", "start", "pause", "resume", "stop", "scrap"}},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "command_order")
}

func TestAssertTargets(t *testing.T) {
	res := defaultResult(t)

	errs := EvaluateAssertions(res, []Assertion{
		{Type: AssertTargets, Command: "resume", Expect: []string{"tde"}},
		{Type: AssertTargets, Command: "pause", Expect: []string{""}},
		{Type: AssertTargets, Command: "stop", Expect: []string{"ftss", "frr", "ftg", "tde"}},
	})
	assert.Empty(t, errs)

	errs = EvaluateAssertions(res, []Assertion{
		{Type: AssertTargets, Command: "init", Expect: []string{"tde"}},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "init targets []")
}

func TestAssertPayload(t *testing.T) {
	res := defaultResult(t)

	tests := []struct {
		name    string
		a       Assertion
		wantErr string
	}{
		{
			name: "integer matches float field",
			a: Assertion{Type: AssertPayload, Command: "conf", Module: "tde", Fields: map[string]any{
				"clock_frequency_hz":     5000000,
				"trigger_interval_ticks": 5000000,
				"links":                  []any{0, 1},
			}},
		},
		{
			name: "float matches float field",
			a: Assertion{Type: AssertPayload, Command: "conf", Module: "tde", Fields: map[string]any{
				"clock_frequency_hz": 5e6,
			}},
		},
		{
			name: "whole command data",
			a: Assertion{Type: AssertPayload, Command: "init", Fields: map[string]any{
				"queues": []any{
					map[string]any{"inst": "time_sync_q", "kind": "FollyMPMCQueue", "capacity": 100},
					map[string]any{"inst": "token_q", "kind": "FollySPSCQueue", "capacity": 20},
					map[string]any{"inst": "trigger_decision_q", "kind": "FollySPSCQueue", "capacity": 20},
				},
			}},
		},
		{
			name: "value mismatch",
			a: Assertion{Type: AssertPayload, Command: "start", Module: "frr", Fields: map[string]any{
				"run": 334,
			}},
			wantErr: "Actual: start[frr].run = 333",
		},
		{
			name: "missing field",
			a: Assertion{Type: AssertPayload, Command: "start", Module: "tde", Fields: map[string]any{
				"trigger_interval_ticks": 5000000,
			}},
			wantErr: "field missing",
		},
		{
			name: "module not addressed",
			a: Assertion{Type: AssertPayload, Command: "resume", Module: "ftg", Fields: map[string]any{
				"trigger_interval_ticks": 5000000,
			}},
			wantErr: "no payload for module",
		},
		{
			name: "type mismatch",
			a: Assertion{Type: AssertPayload, Command: "conf", Module: "tde", Fields: map[string]any{
				"links": "0,1",
			}},
			wantErr: `Expected: conf[tde].links = "0,1"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(res, []Assertion{tt.a})
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestAssertUnchangedExcept_ProducerCountIsolation(t *testing.T) {
	res := defaultResult(t)

	errs := EvaluateAssertions(res, []Assertion{{
		Type:   AssertUnchangedExcept,
		Vary:   config.ParamSpec{NumberOfDataProducers: intPtr(7)},
		Module: "tde",
		Allow:  []string{"links", "min_links_in_request", "max_links_in_request"},
	}})
	assert.Empty(t, errs)
}

func TestAssertUnchangedExcept_ReportsFirstChange(t *testing.T) {
	res := defaultResult(t)

	errs := EvaluateAssertions(res, []Assertion{{
		Type:   AssertUnchangedExcept,
		Vary:   config.ParamSpec{NumberOfDataProducers: intPtr(7)},
		Module: "tde",
		Allow:  []string{"links"},
	}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "conf[tde].max_links_in_request changed")
}

func TestAssertUnchangedExcept_TopologyChange(t *testing.T) {
	res := defaultResult(t)
	off := false

	errs := EvaluateAssertions(res, []Assertion{{
		Type: AssertUnchangedExcept,
		Vary: config.ParamSpec{TokensEnabled: &off},
	}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "init.")
}

func TestAssertUnchangedExcept_VariedSynthesisFails(t *testing.T) {
	res := defaultResult(t)
	zero := 0.0

	errs := EvaluateAssertions(res, []Assertion{{
		Type: AssertUnchangedExcept,
		Vary: config.ParamSpec{DataRateSlowdownFactor: &zero},
	}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "DIVISION_BY_ZERO")
}

func TestEvaluateAssertions_SomeFail(t *testing.T) {
	res := defaultResult(t)

	errs := EvaluateAssertions(res, []Assertion{
		{Type: AssertModules, Expect: []string{"ftss", "frr", "ftg", "tde"}},
		{Type: AssertTargets, Command: "resume", Expect: []string{"ftg"}},
		{Type: AssertInputs, Module: "frr", Expect: []string{"trigger_decision_source"}},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "targets")
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	res := defaultResult(t)

	errs := EvaluateAssertions(res, []Assertion{{Type: "final_state"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "final_state"`)
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     "targets",
		Expected: "resume targets [ftg]",
		Actual:   "resume targets [tde]",
		Commands: []string{"init", "resume -> [tde]"},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: targets")
	assert.Contains(t, msg, "  Expected: resume targets [ftg]")
	assert.Contains(t, msg, "  Actual: resume targets [tde]")
	assert.Contains(t, msg, "Command sequence:")
	assert.Contains(t, msg, "  [2] resume -> [tde]")
}

func TestIREqual(t *testing.T) {
	tests := []struct {
		name string
		a, b ir.IRValue
		want bool
	}{
		{"int and float", ir.IRInt(3), ir.IRFloat(3), true},
		{"different numbers", ir.IRInt(3), ir.IRFloat(3.5), false},
		{"number and string", ir.IRInt(3), ir.IRString("3"), false},
		{"strings", ir.IRString("tde"), ir.IRString("tde"), true},
		{"bools", ir.IRBool(true), ir.IRBool(false), false},
		{"nulls", ir.IRNull{}, ir.IRNull{}, true},
		{"arrays", ir.IRArray{ir.IRInt(0)}, ir.IRArray{ir.IRFloat(0)}, true},
		{"array length", ir.IRArray{}, ir.IRArray{ir.IRInt(0)}, false},
		{"empty objects", ir.IRObject{}, ir.IRObject{}, true},
		{"object keys", ir.IRObject{"a": ir.IRInt(1)}, ir.IRObject{"b": ir.IRInt(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, irEqual(tt.a, tt.b))
			assert.Equal(t, tt.want, irEqual(tt.b, tt.a))
		})
	}
}

func TestFromYAML_Unsupported(t *testing.T) {
	_, err := fromYAML(struct{}{})
	require.Error(t, err)

	_, err = fromYAML([]any{map[string]any{"k": []int{1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `[0]: ["k"]`)
}
