package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trigconf/internal/ir"
)

// TestScenarios runs every scenario in testdata/scenarios and compares its
// snapshot with the golden file next to it.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -run TestScenarios -update
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join(scenariosDir, "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario, filepath.Join(scenariosDir, "golden"))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors:\n%s", strings.Join(result.Errors, "\n"))
		})
	}
}

func TestAssertGolden_FromResult(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(scenariosDir, "zero_slowdown.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	require.NoError(t, AssertGolden(t, filepath.Join(scenariosDir, "golden"), "zero_slowdown", result))
}

func TestSnapshot_Document(t *testing.T) {
	scenario := mustParse(t, `
name: snap
description: d
assertions: [{type: command_order, expect: [init, conf, start, stop, pause, resume, scrap]}]
`)
	result, err := Run(scenario)
	require.NoError(t, err)

	snap, err := Snapshot("snap", result)
	require.NoError(t, err)

	v, err := ir.UnmarshalIRValue(snap)
	require.NoError(t, err)
	obj, ok := v.(ir.IRObject)
	require.True(t, ok)
	assert.Equal(t, ir.IRString("snap"), obj["scenario_name"])
	assert.NotContains(t, obj, "error")

	doc, ok := obj["document"].(ir.IRArray)
	require.True(t, ok)
	assert.Len(t, doc, 7)

	canonical, err := result.Synth.Canonical()
	require.NoError(t, err)
	assert.Contains(t, string(snap), `"document":`+string(canonical))
}

func TestSnapshot_Error(t *testing.T) {
	result := NewResult()
	result.ErrorCode = "DIVISION_BY_ZERO"

	snap, err := Snapshot("zero", result)
	require.NoError(t, err)
	assert.Equal(t, `{"error":"DIVISION_BY_ZERO","scenario_name":"zero"}`, string(snap))
}
