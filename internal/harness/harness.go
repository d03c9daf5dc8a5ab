package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/trigconf/internal/ir"
	"github.com/roach88/trigconf/internal/schema"
	"github.com/roach88/trigconf/internal/store"
	"github.com/roach88/trigconf/internal/synth"
	"github.com/roach88/trigconf/internal/testutil"
)

// Harness is the test execution engine for one scenario.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh in-memory ledger with sequential
// record ids, so repeated runs are reproducible.
//
// Execution flow:
// 1. Resolve profile, params and settings
// 2. Synthesize (or check the expected error)
// 3. Validate the document against the schema
// 4. Record it in the ledger and verify the stored copy
// 5. Evaluate assertions
//
// A returned error means the scenario could not be executed; failed checks
// are reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	profile, params, settings, err := scenario.Inputs()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve inputs: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()
	st.SetIDGenerator(testutil.NewSequentialIDGenerator(scenario.Name))

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	result := NewResult()
	res, err := synth.Synthesize(profile, params, settings)
	if err != nil {
		h.checkError(scenario, err, result)
		return result, nil
	}
	if scenario.ExpectError != "" {
		result.AddError(fmt.Sprintf("expected error %s, synthesis succeeded", scenario.ExpectError))
		return result, nil
	}
	result.Synth = res

	hash, err := res.Hash()
	if err != nil {
		return nil, fmt.Errorf("failed to hash document: %w", err)
	}
	result.DocumentHash = hash

	for _, verr := range schema.ValidateDocument(res.Document) {
		result.AddError(verr.Error())
	}

	if err := h.record(context.Background(), res, hash, result); err != nil {
		return nil, err
	}

	for _, errMsg := range EvaluateAssertions(res, scenario.Assertions) {
		result.AddError(errMsg)
	}

	h.logger.Debug("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"hash", hash)

	return result, nil
}

// checkError compares a synthesis failure with the scenario's expectation.
func (h *Harness) checkError(scenario *Scenario, err error, result *Result) {
	var se *synth.Error
	if !errors.As(err, &se) {
		result.AddError(fmt.Sprintf("synthesis failed: %v", err))
		return
	}
	result.ErrorCode = string(se.Code)
	h.logger.Debug("synthesis failed", "scenario", scenario.Name, "code", se.Code, "error", err)

	switch {
	case scenario.ExpectError == "":
		result.AddError(fmt.Sprintf("synthesis failed: %v", err))
	case scenario.ExpectError != result.ErrorCode:
		result.AddError(fmt.Sprintf("expected error %s, got %v", scenario.ExpectError, err))
	}
}

// record writes the document to the ledger, then reloads it and checks the
// stored copy against the hash.
func (h *Harness) record(ctx context.Context, res *synth.Result, hash string, result *Result) error {
	gen, created, err := h.store.RecordGeneration(ctx, store.GenerationInput{
		Profile:   res.Profile.Name,
		RunNumber: res.Params.RunNumber,
		Params:    res.Params.Fields(),
		Document:  res.Document,
	})
	if err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	if !created || gen.DocumentHash != hash {
		result.AddError(fmt.Sprintf("ledger: recorded hash %s, want %s", gen.DocumentHash, hash))
		return nil
	}

	v, err := h.store.VerifyGeneration(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to verify generation: %w", err)
	}
	if !v.OK() {
		result.AddError(fmt.Sprintf("ledger: stored document hashes to %s with %d command rows, want %s with %d",
			v.Recomputed, v.Commands, hash, len(ir.CommandOrder)))
	}
	return nil
}
