package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/trigconf/internal/synth"
)

// Synthesize runs a synthesis with the stock parameters of profile after
// applying mutate (which may be nil) and fails the test on error.
func Synthesize(t *testing.T, profile synth.Profile, mutate func(*synth.Params)) *synth.Result {
	t.Helper()
	p := synth.DefaultParams(profile)
	if mutate != nil {
		mutate(&p)
	}
	res, err := synth.Synthesize(profile, p, synth.DefaultSettings())
	require.NoError(t, err)
	return res
}

// Canonical returns the canonical JSON of a synthesized document.
func Canonical(t *testing.T, res *synth.Result) []byte {
	t.Helper()
	b, err := res.Canonical()
	require.NoError(t, err)
	return b
}
