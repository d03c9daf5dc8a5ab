package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/trigconf/internal/ir"
)

// Generation is one recorded document.
type Generation struct {
	ID               string `json:"id"`
	Seq              int64  `json:"seq"`
	DocumentHash     string `json:"document_hash"`
	ParamsHash       string `json:"params_hash"`
	Profile          string `json:"profile"`
	RunNumber        int64  `json:"run_number"`
	Params           string `json:"params"`
	Document         string `json:"document"`
	GeneratorVersion string `json:"generator_version"`
	SchemaVersion    string `json:"schema_version"`
}

// CommandRow is the summary of one command of a recorded document.
type CommandRow struct {
	Position  int      `json:"position"`
	CommandID string   `json:"command_id"`
	Targets   []string `json:"targets"`
}

// GenerationInput is what the caller knows about a document before it is
// recorded. The store fills in ids, hashes and versions.
type GenerationInput struct {
	Profile   string
	RunNumber int64
	Params    ir.IRObject
	Document  ir.Document
}

// newGeneration serializes in to canonical JSON and computes its hashes.
func newGeneration(id string, in GenerationInput) (Generation, []CommandRow, error) {
	doc, err := in.Document.Canonical()
	if err != nil {
		return Generation{}, nil, fmt.Errorf("marshal document: %w", err)
	}
	params, err := ir.MarshalCanonical(in.Params)
	if err != nil {
		return Generation{}, nil, fmt.Errorf("marshal params: %w", err)
	}
	paramsHash, err := ir.ParamsHash(in.Params)
	if err != nil {
		return Generation{}, nil, err
	}

	rows := make([]CommandRow, len(in.Document))
	for i, c := range in.Document {
		targets := c.Targets()
		if targets == nil {
			targets = []string{}
		}
		rows[i] = CommandRow{Position: i, CommandID: string(c.ID), Targets: targets}
	}

	return Generation{
		ID:               id,
		DocumentHash:     ir.CanonicalHash(doc),
		ParamsHash:       paramsHash,
		Profile:          in.Profile,
		RunNumber:        in.RunNumber,
		Params:           string(params),
		Document:         string(doc),
		GeneratorVersion: ir.GeneratorVersion,
		SchemaVersion:    ir.SchemaVersion,
	}, rows, nil
}

// marshalTargets converts a target list to JSON TEXT for storage.
// Target names are plain identifiers, so encoding/json output is canonical.
func marshalTargets(targets []string) (string, error) {
	data, err := json.Marshal(targets)
	if err != nil {
		return "", fmt.Errorf("marshal targets: %w", err)
	}
	return string(data), nil
}

// unmarshalTargets parses JSON TEXT back to a target list.
func unmarshalTargets(data string) ([]string, error) {
	targets := []string{}
	if err := json.Unmarshal([]byte(data), &targets); err != nil {
		return nil, fmt.Errorf("unmarshal targets: %w", err)
	}
	return targets, nil
}
