package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trigconf/internal/synth"
	"github.com/roach88/trigconf/internal/testutil"
)

func seedGenerations(t *testing.T, s *Store) []Generation {
	t.Helper()
	ctx := context.Background()
	var gens []Generation
	for _, run := range []int64{10, 11, 10} {
		producers := len(gens) + 1
		res := testutil.Synthesize(t, synth.ProfileFakeApp, func(p *synth.Params) {
			p.RunNumber = run
			p.ProducerCount = producers
		})
		gen, inserted, err := s.RecordGeneration(ctx, inputFor(res))
		require.NoError(t, err)
		require.True(t, inserted)
		gens = append(gens, gen)
	}
	return gens
}

func TestListGenerations_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	gens, err := s.ListGenerations(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, gens)
	assert.Empty(t, gens)
}

func TestListGenerations_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	s.SetIDGenerator(testutil.NewSequentialIDGenerator("z"))
	seeded := seedGenerations(t, s)

	gens, err := s.ListGenerations(context.Background())
	require.NoError(t, err)
	require.Len(t, gens, 3)
	for i, g := range gens {
		assert.Equal(t, int64(i+1), g.Seq)
		assert.Equal(t, seeded[i], g)
	}
}

func TestListGenerationsByRun(t *testing.T) {
	s := createTestStore(t)
	seeded := seedGenerations(t, s)

	gens, err := s.ListGenerationsByRun(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []Generation{seeded[0], seeded[2]}, gens)

	gens, err = s.ListGenerationsByRun(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, gens)
}

func TestListGenerationsByParams(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	fake := testutil.Synthesize(t, synth.ProfileFakeApp, nil)
	lc := testutil.Synthesize(t, synth.ProfileLifecycle, nil)
	a, _, err := s.RecordGeneration(ctx, inputFor(fake))
	require.NoError(t, err)
	b, _, err := s.RecordGeneration(ctx, inputFor(lc))
	require.NoError(t, err)

	require.Equal(t, a.ParamsHash, b.ParamsHash, "same parameters, different profile")
	require.NotEqual(t, a.DocumentHash, b.DocumentHash)

	gens, err := s.ListGenerationsByParams(ctx, a.ParamsHash)
	require.NoError(t, err)
	assert.Equal(t, []Generation{a, b}, gens)
}

func TestGetGenerationByHash(t *testing.T) {
	s := createTestStore(t)
	seeded := seedGenerations(t, s)

	gen, err := s.GetGenerationByHash(context.Background(), seeded[1].DocumentHash)
	require.NoError(t, err)
	assert.Equal(t, seeded[1], gen)

	_, err = s.GetGenerationByHash(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListCommands_UnknownGeneration(t *testing.T) {
	s := createTestStore(t)

	cmds, err := s.ListCommands(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, cmds)
}
