package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trigconf/internal/synth"
	"github.com/roach88/trigconf/internal/testutil"
)

func TestVerifyGeneration(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	res := testutil.Synthesize(t, synth.ProfileFakeApp, func(p *synth.Params) {
		p.SlowdownFactor = 3
	})

	gen, _, err := s.RecordGeneration(ctx, inputFor(res))
	require.NoError(t, err)

	v, err := s.VerifyGeneration(ctx, gen.DocumentHash)
	require.NoError(t, err)
	assert.True(t, v.OK())
	assert.Equal(t, 7, v.Commands)
}

func TestVerifyGeneration_DetectsTampering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	res := testutil.Synthesize(t, synth.ProfileFakeApp, nil)

	gen, _, err := s.RecordGeneration(ctx, inputFor(res))
	require.NoError(t, err)

	_, err = s.DB().Exec(`UPDATE generations SET document = replace(document, '"run":333', '"run":334') WHERE id = ?`, gen.ID)
	require.NoError(t, err)

	v, err := s.VerifyGeneration(ctx, gen.DocumentHash)
	require.NoError(t, err)
	assert.False(t, v.OK())
	assert.NotEqual(t, gen.DocumentHash, v.Recomputed)
}

func TestVerifyGeneration_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.VerifyGeneration(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
