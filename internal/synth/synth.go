package synth

import (
	"fmt"
	"log/slog"

	"github.com/roach88/trigconf/internal/ir"
	"github.com/roach88/trigconf/internal/lifecycle"
)

// Result is the outcome of one synthesis.
type Result struct {
	Profile  Profile
	Params   Params
	Settings Settings
	Derived  Derived
	Topology ir.Topology
	Document ir.Document

	// Warnings are topology findings the runtime tolerates.
	Warnings []ValidationError
}

// Synthesize validates the inputs, builds the topology and the command
// sequence, and checks the result. It is a pure function of its arguments.
func Synthesize(profile Profile, params Params, settings Settings) (*Result, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	derived, err := Derive(params, settings)
	if err != nil {
		return nil, err
	}

	topo := BuildTopology(params.ProducerCount, params.Toggles, profile, settings)
	errs, warnings := ValidateTopology(topo)
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid topology: %w", errs[0])
	}
	for _, w := range warnings {
		slog.Warn("topology warning", "code", w.Code, "field", w.Field, "message", w.Message)
	}

	doc, err := buildSequence(topo, params, derived, profile, settings)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckSequence(doc.IDs()); err != nil {
		return nil, fmt.Errorf("command sequence: %w", err)
	}

	slog.Info("synthesized",
		"profile", profile.Name,
		"modules", len(topo.Modules),
		"queues", len(topo.Queues),
		"run", params.RunNumber)

	return &Result{
		Profile:  profile,
		Params:   params,
		Settings: settings,
		Derived:  derived,
		Topology: topo,
		Document: doc,
		Warnings: warnings,
	}, nil
}

// Canonical returns the canonical JSON of the document.
func (r *Result) Canonical() ([]byte, error) {
	return r.Document.Canonical()
}

// Hash returns the domain-separated hash of the document.
func (r *Result) Hash() (string, error) {
	return ir.DocumentHash(r.Document)
}
