package synth

import (
	"fmt"
	"log/slog"

	"github.com/roach88/trigconf/internal/ir"
	"github.com/roach88/trigconf/internal/lifecycle"
)

// confBuilders maps each module type to its conf payload.
var confBuilders = map[ir.Plugin]func(Params, Derived, Settings) ir.Payload{
	ir.PluginDecisionEmulator: func(p Params, d Derived, s Settings) ir.Payload {
		links := make([]int64, p.ProducerCount)
		for i := range links {
			links[i] = int64(i)
		}
		return ir.DecisionEmulatorConf{
			Links:                 links,
			MinLinksInRequest:     int64(p.ProducerCount),
			MaxLinksInRequest:     int64(p.ProducerCount),
			MinReadoutWindowTicks: s.MinReadoutWindowTicks,
			MaxReadoutWindowTicks: s.MaxReadoutWindowTicks,
			TriggerWindowOffset:   s.TriggerWindowOffset,
			TriggerDelayTicks:     d.TriggerDelayTicks,
			TriggerIntervalTicks:  d.TriggerIntervalTicks,
			ClockFrequencyHz:      d.EffectiveClockHz,
		}
	},
	ir.PluginTimeSyncSource: func(_ Params, _ Derived, s Settings) ir.Payload {
		return ir.TimeSyncConf{SyncIntervalTicks: s.SyncIntervalTicks}
	},
	ir.PluginInhibitGenerator: func(_ Params, _ Derived, s Settings) ir.Payload {
		return ir.InhibitConf{InhibitIntervalMs: s.InhibitIntervalMs}
	},
	ir.PluginTokenGenerator: func(_ Params, d Derived, s Settings) ir.Payload {
		return ir.TokenConf{
			TokenIntervalMs: d.TokenIntervalMs,
			TokenSigmaMs:    d.TokenSigmaMs,
			InitialTokens:   s.InitialTokens,
		}
	},
	ir.PluginRequestReceiver: func(Params, Derived, Settings) ir.Payload {
		return ir.EmptyParams{}
	},
}

// BuildCommandSequence builds the seven lifecycle commands for topo.
// Parameters are validated before any value is derived.
func BuildCommandSequence(topo ir.Topology, params Params, profile Profile, settings Settings) (ir.Document, error) {
	derived, err := Derive(params, settings)
	if err != nil {
		return nil, err
	}
	return buildSequence(topo, params, derived, profile, settings)
}

func buildSequence(topo ir.Topology, params Params, derived Derived, profile Profile, settings Settings) (ir.Document, error) {
	conf := make([]ir.AddressedCmd, 0, len(topo.Modules))
	for _, m := range topo.Modules {
		build, ok := confBuilders[m.Plugin]
		if !ok {
			return nil, fmt.Errorf("module %q: no conf payload for plugin %q", m.Inst, m.Plugin)
		}
		conf = append(conf, ir.AddressedCmd{Match: m.Inst, Data: build(params, derived, settings)})
	}

	startParams := ir.StartParams{Run: params.RunNumber}
	if profile.StartCarriesInterval {
		interval := derived.TriggerIntervalTicks
		startParams.TriggerIntervalTicks = &interval
	}

	resume := []ir.AddressedCmd{}
	if _, ok := topo.Module(ModEmulator); ok {
		resume = append(resume, ir.AddressedCmd{
			Match: ModEmulator,
			Data:  ir.ResumeParams{TriggerIntervalTicks: derived.TriggerIntervalTicks},
		})
	}

	payloads := map[ir.CmdID]ir.Payload{
		ir.CmdInit:   ir.InitParams{Topology: topo},
		ir.CmdConf:   ir.ModuleCommands{Modules: conf},
		ir.CmdStart:  ir.ModuleCommands{Modules: addressEach(topo, startParams)},
		ir.CmdStop:   ir.ModuleCommands{Modules: addressEach(topo, ir.EmptyParams{})},
		ir.CmdPause:  broadcast(),
		ir.CmdResume: ir.ModuleCommands{Modules: resume},
		ir.CmdScrap:  broadcast(),
	}

	doc := make(ir.Document, 0, len(ir.CommandOrder))
	for _, id := range ir.CommandOrder {
		c := ir.Command{ID: id, Data: payloads[id]}
		if profile.LabelStates {
			t, ok := lifecycle.Lookup(id)
			if !ok {
				return nil, fmt.Errorf("command %q has no lifecycle transition", id)
			}
			c.EntryState, c.ExitState = t.Entry, t.Exit
		}
		doc = append(doc, c)
	}

	slog.Debug("command sequence built",
		"profile", profile.Name,
		"run", params.RunNumber,
		"commands", len(doc),
		"trigger_interval_ticks", derived.TriggerIntervalTicks)

	return doc, nil
}

// addressEach gives every module the same payload, in declaration order.
func addressEach(topo ir.Topology, p ir.Payload) []ir.AddressedCmd {
	cmds := make([]ir.AddressedCmd, len(topo.Modules))
	for i, m := range topo.Modules {
		cmds[i] = ir.AddressedCmd{Match: m.Inst, Data: p}
	}
	return cmds
}

func broadcast() ir.ModuleCommands {
	return ir.ModuleCommands{Modules: []ir.AddressedCmd{{Match: ir.Broadcast, Data: ir.EmptyParams{}}}}
}
