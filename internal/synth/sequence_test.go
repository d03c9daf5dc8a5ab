package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trigconf/internal/ir"
)

func buildDefault(t *testing.T, profile Profile, toggles Toggles) (ir.Topology, ir.Document) {
	t.Helper()
	p := DefaultParams(profile)
	p.Toggles = toggles
	topo := BuildTopology(p.ProducerCount, toggles, profile, DefaultSettings())
	doc, err := BuildCommandSequence(topo, p, profile, DefaultSettings())
	require.NoError(t, err)
	return topo, doc
}

func TestSequenceOrder(t *testing.T) {
	_, doc := buildDefault(t, ProfileFakeApp, Toggles{Tokens: true})
	assert.Equal(t, ir.CommandOrder, doc.IDs())
}

func TestSequenceTargets(t *testing.T) {
	_, doc := buildDefault(t, ProfileFakeApp, Toggles{Inhibits: true, Tokens: true})
	all := []string{"ftss", "frr", "fig", "ftg", "tde"}

	want := map[ir.CmdID][]string{
		ir.CmdInit:   nil,
		ir.CmdConf:   all,
		ir.CmdStart:  all,
		ir.CmdStop:   all,
		ir.CmdPause:  {""},
		ir.CmdResume: {"tde"},
		ir.CmdScrap:  {""},
	}
	for id, targets := range want {
		c, ok := doc.Command(id)
		require.True(t, ok, id)
		assert.Equal(t, targets, c.Targets(), id)
	}
}

func TestInitCarriesTopology(t *testing.T) {
	topo, doc := buildDefault(t, ProfileFakeApp, Toggles{Tokens: true})
	c, _ := doc.Command(ir.CmdInit)
	ip, ok := c.Data.(ir.InitParams)
	require.True(t, ok)
	assert.Equal(t, topo, ip.Topology)
}

func TestConfPayloads(t *testing.T) {
	_, doc := buildDefault(t, ProfileFakeApp, Toggles{Inhibits: true, Tokens: true})
	conf, _ := doc.Command(ir.CmdConf)

	p, ok := conf.PayloadFor("tde")
	require.True(t, ok)
	assert.Equal(t, ir.DecisionEmulatorConf{
		Links:                 []int64{0, 1},
		MinLinksInRequest:     2,
		MaxLinksInRequest:     2,
		MinReadoutWindowTicks: 1200,
		MaxReadoutWindowTicks: 1200,
		TriggerWindowOffset:   1000,
		TriggerDelayTicks:     10000000,
		TriggerIntervalTicks:  5000000,
		ClockFrequencyHz:      5e6,
	}, p)

	p, _ = conf.PayloadFor("ftss")
	assert.Equal(t, ir.TimeSyncConf{SyncIntervalTicks: 64000000}, p)
	p, _ = conf.PayloadFor("fig")
	assert.Equal(t, ir.InhibitConf{InhibitIntervalMs: 5000}, p)
	p, _ = conf.PayloadFor("ftg")
	assert.Equal(t, ir.TokenConf{TokenIntervalMs: 1000, TokenSigmaMs: 1, InitialTokens: 10}, p)
	p, _ = conf.PayloadFor("frr")
	assert.Equal(t, ir.EmptyParams{}, p)
}

func TestZeroProducersHaveNoLinks(t *testing.T) {
	p := DefaultParams(ProfileFakeApp)
	p.ProducerCount = 0
	topo := BuildTopology(0, p.Toggles, ProfileFakeApp, DefaultSettings())
	doc, err := BuildCommandSequence(topo, p, ProfileFakeApp, DefaultSettings())
	require.NoError(t, err)

	conf, _ := doc.Command(ir.CmdConf)
	tde, _ := conf.PayloadFor("tde")
	assert.Empty(t, tde.(ir.DecisionEmulatorConf).Links)
	assert.Equal(t, `[]`, mustCanonical(t, tde.Fields()["links"]))
}

func TestStartPayloadByProfile(t *testing.T) {
	_, doc := buildDefault(t, ProfileFakeApp, Toggles{Tokens: true})
	start, _ := doc.Command(ir.CmdStart)
	p, _ := start.PayloadFor("ftss")
	assert.Equal(t, ir.StartParams{Run: 333}, p)

	_, doc = buildDefault(t, ProfileLifecycle, Toggles{Tokens: true})
	start, _ = doc.Command(ir.CmdStart)
	p, _ = start.PayloadFor("ftss")
	sp := p.(ir.StartParams)
	require.NotNil(t, sp.TriggerIntervalTicks)
	assert.Equal(t, int64(5000000), *sp.TriggerIntervalTicks)
}

func TestResumeWithoutEmulator(t *testing.T) {
	_, doc := buildDefault(t, ProfileFakeApp, Toggles{})
	resume, _ := doc.Command(ir.CmdResume)
	assert.Empty(t, resume.Targets())
	assert.Equal(t, `{"modules":[]}`, mustCanonical(t, resume.Data.Fields()))
}

func TestResumeCarriesInterval(t *testing.T) {
	_, doc := buildDefault(t, ProfileStandalone, Toggles{})
	resume, _ := doc.Command(ir.CmdResume)
	p, ok := resume.PayloadFor("tde")
	require.True(t, ok)
	assert.Equal(t, ir.ResumeParams{TriggerIntervalTicks: 5000000}, p)
}

func TestStateLabels(t *testing.T) {
	_, doc := buildDefault(t, ProfileFakeApp, Toggles{Tokens: true})
	for _, c := range doc {
		assert.Empty(t, c.EntryState, c.ID)
		assert.Empty(t, c.ExitState, c.ID)
	}

	_, doc = buildDefault(t, ProfileLifecycle, Toggles{Tokens: true})
	want := map[ir.CmdID][2]ir.State{
		ir.CmdInit:   {ir.StateNone, ir.StateInitial},
		ir.CmdConf:   {ir.StateInitial, ir.StateConfigured},
		ir.CmdStart:  {ir.StateConfigured, ir.StateRunning},
		ir.CmdStop:   {ir.StateRunning, ir.StateConfigured},
		ir.CmdPause:  {ir.StateRunning, ir.StateRunning},
		ir.CmdResume: {ir.StateRunning, ir.StateRunning},
		ir.CmdScrap:  {ir.StateConfigured, ir.StateInitial},
	}
	for _, c := range doc {
		assert.Equal(t, want[c.ID], [2]ir.State{c.EntryState, c.ExitState}, c.ID)
	}
}

func TestBuildCommandSequenceRejectsBadParams(t *testing.T) {
	topo := BuildTopology(2, Toggles{Tokens: true}, ProfileFakeApp, DefaultSettings())
	p := DefaultParams(ProfileFakeApp)
	p.TriggerRateHz = 0

	doc, err := BuildCommandSequence(topo, p, ProfileFakeApp, DefaultSettings())
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, IsInvalidParameter(err))
}

func TestBuildCommandSequenceUnknownPlugin(t *testing.T) {
	topo := ir.Topology{
		Queues:  []ir.QueueSpec{},
		Modules: []ir.ModSpec{{Inst: "ro", Plugin: "FakeReadout", QInfos: []ir.QueueInfo{}}},
	}
	_, err := BuildCommandSequence(topo, DefaultParams(ProfileFakeApp), ProfileFakeApp, DefaultSettings())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FakeReadout")
}

func mustCanonical(t *testing.T, v ir.IRValue) string {
	t.Helper()
	b, err := ir.MarshalCanonical(v)
	require.NoError(t, err)
	return string(b)
}
