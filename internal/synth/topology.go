package synth

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/roach88/trigconf/internal/ir"
)

// Module instance names.
const (
	ModTimeSync        = "ftss"
	ModRequestReceiver = "frr"
	ModInhibit         = "fig"
	ModToken           = "ftg"
	ModEmulator        = "tde"
)

// Queue instance names.
const (
	QueueTimeSync        = "time_sync_q"
	QueueTriggerDecision = "trigger_decision_q"
	QueueTriggerInhibit  = "trigger_inhibit_q"
	QueueToken           = "token_q"
)

// condition decides whether a rule applies.
type condition func(Toggles, Profile) bool

func always(Toggles, Profile) bool       { return true }
func inhibits(t Toggles, _ Profile) bool { return t.Inhibits }
func tokens(t Toggles, _ Profile) bool   { return t.Tokens }

func emulatorPresent(t Toggles, p Profile) bool {
	return t.Inhibits || t.Tokens || !p.EmulatorNeedsInput
}

type queueRule struct {
	inst     string
	kind     ir.QueueKind
	capacity func(Settings) int64
	when     condition
}

type endpointRule struct {
	name  string
	queue string
	dir   ir.Direction
	when  condition
}

type moduleRule struct {
	inst      string
	plugin    ir.Plugin
	when      condition
	endpoints []endpointRule
}

var queueRules = []queueRule{
	{QueueTimeSync, ir.QueueKindMPMC, func(s Settings) int64 { return s.TimeSyncQueueCapacity }, always},
	{QueueTriggerDecision, ir.QueueKindSPSC, func(s Settings) int64 { return s.QueueCapacity }, always},
	{QueueTriggerInhibit, ir.QueueKindSPSC, func(s Settings) int64 { return s.QueueCapacity }, inhibits},
	{QueueToken, ir.QueueKindSPSC, func(s Settings) int64 { return s.QueueCapacity }, always},
}

// moduleRules is in declaration order; every module command addresses
// modules in this order.
var moduleRules = []moduleRule{
	{ModTimeSync, ir.PluginTimeSyncSource, always, []endpointRule{
		{"time_sync_sink", QueueTimeSync, ir.DirOutput, always},
	}},
	{ModRequestReceiver, ir.PluginRequestReceiver, always, []endpointRule{
		{"trigger_decision_source", QueueTriggerDecision, ir.DirInput, always},
	}},
	{ModInhibit, ir.PluginInhibitGenerator, inhibits, []endpointRule{
		{"trigger_inhibit_sink", QueueTriggerInhibit, ir.DirOutput, always},
	}},
	{ModToken, ir.PluginTokenGenerator, tokens, []endpointRule{
		{"token_sink", QueueToken, ir.DirOutput, always},
	}},
	{ModEmulator, ir.PluginDecisionEmulator, emulatorPresent, []endpointRule{
		{"time_sync_source", QueueTimeSync, ir.DirInput, always},
		{"trigger_inhibit_source", QueueTriggerInhibit, ir.DirInput, inhibits},
		{"token_source", QueueToken, ir.DirInput, tokens},
		{"trigger_decision_sink", QueueTriggerDecision, ir.DirOutput, always},
	}},
}

// BuildTopology evaluates the rule tables for the given toggles. Queues are
// sorted by instance name; modules keep declaration order. Every toggle
// combination yields a valid topology, so there is no error path.
func BuildTopology(producers int, toggles Toggles, profile Profile, settings Settings) ir.Topology {
	topo := ir.Topology{
		Queues:  []ir.QueueSpec{},
		Modules: []ir.ModSpec{},
	}

	for _, r := range queueRules {
		if !r.when(toggles, profile) {
			continue
		}
		topo.Queues = append(topo.Queues, ir.QueueSpec{
			Inst:     r.inst,
			Kind:     r.kind,
			Capacity: r.capacity(settings),
		})
	}
	slices.SortFunc(topo.Queues, func(a, b ir.QueueSpec) int {
		return cmp.Compare(a.Inst, b.Inst)
	})

	for _, r := range moduleRules {
		if !r.when(toggles, profile) {
			continue
		}
		mod := ir.ModSpec{Inst: r.inst, Plugin: r.plugin, QInfos: []ir.QueueInfo{}}
		for _, e := range r.endpoints {
			if !e.when(toggles, profile) {
				continue
			}
			mod.QInfos = append(mod.QInfos, ir.QueueInfo{Name: e.name, Inst: e.queue, Dir: e.dir})
		}
		topo.Modules = append(topo.Modules, mod)
	}

	slog.Debug("topology built",
		"profile", profile.Name,
		"toggles", toggles.String(),
		"producers", producers,
		"queues", len(topo.Queues),
		"modules", len(topo.Modules))

	return topo
}
