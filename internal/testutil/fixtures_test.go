package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/trigconf/internal/synth"
)

func TestSynthesizeAppliesMutation(t *testing.T) {
	res := Synthesize(t, synth.ProfileFakeApp, func(p *synth.Params) {
		p.RunNumber = 7
	})
	assert.Equal(t, int64(7), res.Params.RunNumber)
	assert.Contains(t, string(Canonical(t, res)), `"run":7`)
}

func TestSynthesizeDefaults(t *testing.T) {
	res := Synthesize(t, synth.ProfileStandalone, nil)
	assert.Equal(t, []string{"ftss", "frr", "tde"}, res.Topology.ModuleNames())
}
