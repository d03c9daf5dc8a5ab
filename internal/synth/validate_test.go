package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trigconf/internal/ir"
)

func codes(vs []ValidationError) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Code
	}
	return out
}

func TestValidateTopologyErrors(t *testing.T) {
	topo := ir.Topology{
		Queues: []ir.QueueSpec{
			{Inst: "a_q", Kind: ir.QueueKindSPSC, Capacity: 20},
			{Inst: "a_q", Kind: "RingBuffer", Capacity: 0},
		},
		Modules: []ir.ModSpec{
			{Inst: "m", Plugin: ir.PluginTokenGenerator, QInfos: []ir.QueueInfo{
				{Name: "out", Inst: "a_q", Dir: ir.DirOutput},
				{Name: "out", Inst: "missing_q", Dir: "sideways"},
			}},
			{Inst: "m", Plugin: "FakeReadout", QInfos: []ir.QueueInfo{
				{Name: "in", Inst: "a_q", Dir: ir.DirInput},
			}},
		},
	}

	errs, _ := ValidateTopology(topo)
	assert.ElementsMatch(t, []string{
		ErrDuplicateQueue,
		ErrInvalidQueueKind,
		ErrInvalidCapacity,
		ErrDuplicateEndpoint,
		ErrUndefinedQueue,
		ErrInvalidDirection,
		ErrDuplicateModule,
		ErrInvalidPlugin,
	}, codes(errs))
}

func TestValidateTopologyWarnings(t *testing.T) {
	topo := ir.Topology{
		Queues: []ir.QueueSpec{
			{Inst: "fan_q", Kind: ir.QueueKindSPSC, Capacity: 20},
			{Inst: "idle_q", Kind: ir.QueueKindMPMC, Capacity: 100},
		},
		Modules: []ir.ModSpec{
			{Inst: "a", Plugin: ir.PluginTimeSyncSource, QInfos: []ir.QueueInfo{{Name: "sink", Inst: "fan_q", Dir: ir.DirOutput}}},
			{Inst: "b", Plugin: ir.PluginTimeSyncSource, QInfos: []ir.QueueInfo{{Name: "sink", Inst: "fan_q", Dir: ir.DirOutput}}},
			{Inst: "c", Plugin: ir.PluginRequestReceiver, QInfos: []ir.QueueInfo{{Name: "source", Inst: "fan_q", Dir: ir.DirInput}}},
		},
	}

	errs, warnings := ValidateTopology(topo)
	require.Empty(t, errs)
	assert.Equal(t, []string{WarnSPSCFanInOut, WarnNoProducer, WarnNoConsumer}, codes(warnings))
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Field: "queues[0].capacity", Message: "capacity must be positive, got 0", Code: ErrInvalidCapacity}
	assert.Equal(t, "[E226] queues[0].capacity: capacity must be positive, got 0", e.Error())
}
