package harness

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/roach88/trigconf/internal/config"
	"github.com/roach88/trigconf/internal/ir"
	"github.com/roach88/trigconf/internal/synth"
)

// Scenario defines a conformance test scenario: one synthesis request and
// the properties its output must have.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Profile selects the generator variant. Empty means the default profile.
	Profile string `yaml:"profile,omitempty"`

	// Params are the generation parameters. Unset fields take the profile's
	// stock values.
	Params config.ParamSpec `yaml:"params,omitempty"`

	// Settings overrides synth.DefaultSettings field by field.
	Settings yaml.Node `yaml:"settings,omitempty"`

	// ExpectError is the synth.ErrorCode the request must fail with.
	// When set, assertions are not allowed.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions validate the generated topology and command sequence.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Assertion validates one property of the generated document.
type Assertion struct {
	// Type specifies the assertion type:
	// - "modules": module instances, in declaration order
	// - "queues": queue instances, in init order
	// - "inputs": input endpoint names of Module
	// - "command_order": command ids
	// - "targets": modules addressed by Command
	// - "payload": subset match of Fields against Command's payload
	// - "unchanged_except": rerun with Vary; only Module's Allow fields may differ
	Type string `yaml:"type"`

	// Module is a module instance name (inputs, payload, unchanged_except).
	Module string `yaml:"module,omitempty"`

	// Command is a command id (targets, payload).
	Command string `yaml:"command,omitempty"`

	// Expect is the expected list of names (modules, queues, inputs,
	// command_order, targets).
	Expect []string `yaml:"expect,omitempty"`

	// Fields are expected payload values keyed by dotted path (payload).
	// Subset match - only specified fields are validated.
	Fields map[string]any `yaml:"fields,omitempty"`

	// Vary is merged over the scenario params for the second run
	// (unchanged_except).
	Vary config.ParamSpec `yaml:"vary,omitempty"`

	// Allow lists the fields of Module's payloads that may differ
	// (unchanged_except).
	Allow []string `yaml:"allow,omitempty"`
}

// Assertion type constants.
const (
	AssertModules         = "modules"
	AssertQueues          = "queues"
	AssertInputs          = "inputs"
	AssertCommandOrder    = "command_order"
	AssertTargets         = "targets"
	AssertPayload         = "payload"
	AssertUnchangedExcept = "unchanged_except"
)

// validName keeps scenario names usable as golden file names.
var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

var expectableErrors = map[string]bool{
	string(synth.ErrCodeInvalidParameter): true,
	string(synth.ErrCodeDivisionByZero):   true,
	string(synth.ErrCodeOverflow):         true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// Inputs resolves the scenario's profile, params and settings.
func (s *Scenario) Inputs() (synth.Profile, synth.Params, synth.Settings, error) {
	f := config.File{Profile: s.Profile, Params: s.Params, Settings: s.Settings}
	return f.Resolve("", config.ParamSpec{})
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !validName.MatchString(s.Name) {
		return fmt.Errorf("name %q must be letters, digits, '_' or '-'", s.Name)
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.ExpectError != "" {
		if !expectableErrors[s.ExpectError] {
			return fmt.Errorf("expect_error: unknown error code %q", s.ExpectError)
		}
		if len(s.Assertions) > 0 {
			return fmt.Errorf("assertions cannot be combined with expect_error")
		}
		return nil
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertModules, AssertQueues:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect list is required for %s", index, a.Type)
		}
	case AssertInputs:
		if a.Module == "" {
			return fmt.Errorf("assertions[%d]: module is required for inputs", index)
		}
	case AssertCommandOrder:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect list is required for command_order", index)
		}
	case AssertTargets:
		if err := validateCommand(index, a); err != nil {
			return err
		}
	case AssertPayload:
		if err := validateCommand(index, a); err != nil {
			return err
		}
		if len(a.Fields) == 0 {
			return fmt.Errorf("assertions[%d]: fields are required for payload", index)
		}
	case AssertUnchangedExcept:
		if a.Vary.IsZero() {
			return fmt.Errorf("assertions[%d]: vary is required for unchanged_except", index)
		}
		if len(a.Allow) > 0 && a.Module == "" {
			return fmt.Errorf("assertions[%d]: allow requires module", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func validateCommand(index int, a *Assertion) error {
	if a.Command == "" {
		return fmt.Errorf("assertions[%d]: command is required for %s", index, a.Type)
	}
	for _, id := range ir.CommandOrder {
		if string(id) == a.Command {
			return nil
		}
	}
	return fmt.Errorf("assertions[%d]: unknown command %q", index, a.Command)
}
