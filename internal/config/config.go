// Package config reads generation requests from YAML.
//
// The same request shape backs the --config file of the CLI and the
// profile/params/settings blocks of harness scenarios. Unknown fields are
// rejected so that typos fail loudly.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/trigconf/internal/synth"
)

// ParamSpec is a partial set of generation parameters. Nil fields fall
// back to the next source (flag > file > profile default).
type ParamSpec struct {
	NumberOfDataProducers  *int     `yaml:"number_of_data_producers,omitempty"`
	DataRateSlowdownFactor *float64 `yaml:"data_rate_slowdown_factor,omitempty"`
	RunNumber              *int64   `yaml:"run_number,omitempty"`
	TriggerRateHz          *float64 `yaml:"trigger_rate_hz,omitempty"`
	InhibitsEnabled        *bool    `yaml:"inhibits_enabled,omitempty"`
	TokensEnabled          *bool    `yaml:"tokens_enabled,omitempty"`
}

// Merge returns s with every field that is set in over replaced.
func (s ParamSpec) Merge(over ParamSpec) ParamSpec {
	if over.NumberOfDataProducers != nil {
		s.NumberOfDataProducers = over.NumberOfDataProducers
	}
	if over.DataRateSlowdownFactor != nil {
		s.DataRateSlowdownFactor = over.DataRateSlowdownFactor
	}
	if over.RunNumber != nil {
		s.RunNumber = over.RunNumber
	}
	if over.TriggerRateHz != nil {
		s.TriggerRateHz = over.TriggerRateHz
	}
	if over.InhibitsEnabled != nil {
		s.InhibitsEnabled = over.InhibitsEnabled
	}
	if over.TokensEnabled != nil {
		s.TokensEnabled = over.TokensEnabled
	}
	return s
}

// Resolve fills unset fields from the profile's stock parameters.
func (s ParamSpec) Resolve(profile synth.Profile) synth.Params {
	p := synth.DefaultParams(profile)
	if s.NumberOfDataProducers != nil {
		p.ProducerCount = *s.NumberOfDataProducers
	}
	if s.DataRateSlowdownFactor != nil {
		p.SlowdownFactor = *s.DataRateSlowdownFactor
	}
	if s.RunNumber != nil {
		p.RunNumber = *s.RunNumber
	}
	if s.TriggerRateHz != nil {
		p.TriggerRateHz = *s.TriggerRateHz
	}
	p.Toggles = profile.ResolveToggles(s.InhibitsEnabled, s.TokensEnabled)
	return p
}

// File is a generation request on disk.
//
//	profile: lifecycle
//	params:
//	  number_of_data_producers: 4
//	  trigger_rate_hz: 2.0
//	settings:
//	  queue_capacity: 64
type File struct {
	Profile  string    `yaml:"profile,omitempty"`
	Params   ParamSpec `yaml:"params,omitempty"`
	Settings yaml.Node `yaml:"settings,omitempty"`
}

// Load reads and strictly decodes a request file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var f File
	if err := decodeStrict(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &f, nil
}

// ResolveSettings applies the overrides in node to DefaultSettings.
// A zero node yields the defaults.
func ResolveSettings(node *yaml.Node) (synth.Settings, error) {
	s := synth.DefaultSettings()
	if node == nil || node.Kind == 0 {
		return s, nil
	}
	if node.Kind != yaml.MappingNode {
		return s, fmt.Errorf("settings: expected a mapping, got %s", kindName(node.Kind))
	}

	// Node.Decode cannot reject unknown fields; round-trip through a strict
	// decoder instead.
	data, err := yaml.Marshal(node)
	if err != nil {
		return s, fmt.Errorf("settings: %w", err)
	}
	if err := decodeStrict(data, &s); err != nil {
		return s, fmt.Errorf("settings: %w", err)
	}
	return s, nil
}

// Resolve turns the file into synthesis inputs. flags override the file's
// params; an empty profileFlag keeps the file's profile.
func (f *File) Resolve(profileFlag string, flags ParamSpec) (synth.Profile, synth.Params, synth.Settings, error) {
	name := f.Profile
	if profileFlag != "" {
		name = profileFlag
	}
	profile, err := synth.LookupProfile(name)
	if err != nil {
		return synth.Profile{}, synth.Params{}, synth.Settings{}, err
	}
	settings, err := ResolveSettings(&f.Settings)
	if err != nil {
		return synth.Profile{}, synth.Params{}, synth.Settings{}, err
	}
	return profile, f.Params.Merge(flags).Resolve(profile), settings, nil
}

func decodeStrict(data []byte, v any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}

// SpecFromParams returns a spec with every field set from p.
func SpecFromParams(p synth.Params) ParamSpec {
	producers := p.ProducerCount
	slowdown := p.SlowdownFactor
	run := p.RunNumber
	rate := p.TriggerRateHz
	inhibits := p.Toggles.Inhibits
	tokens := p.Toggles.Tokens
	return ParamSpec{
		NumberOfDataProducers:  &producers,
		DataRateSlowdownFactor: &slowdown,
		RunNumber:              &run,
		TriggerRateHz:          &rate,
		InhibitsEnabled:        &inhibits,
		TokensEnabled:          &tokens,
	}
}

// IsZero reports whether no field is set.
func (s ParamSpec) IsZero() bool {
	return s == ParamSpec{}
}
