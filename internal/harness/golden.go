package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/trigconf/internal/ir"
)

// GoldenDir is where RunWithGolden looks for golden files, relative to the
// package under test.
const GoldenDir = "testdata/golden"

// Snapshot renders the canonical golden form of a scenario result: the
// scenario name plus either the document or the error code.
func Snapshot(name string, result *Result) ([]byte, error) {
	snap := ir.NewIRObject(ir.O("scenario_name", ir.IRString(name)))
	if result.ErrorCode != "" {
		snap["error"] = ir.IRString(result.ErrorCode)
	}
	if doc := result.Document(); doc != nil {
		snap["document"] = doc.Fields()
	}
	return ir.MarshalCanonical(snap)
}

// RunWithGolden executes a scenario and compares its snapshot against
// dir/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario, dir string) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, dir, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, dir, scenarioName string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(dir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapshot)

	return nil
}
