package ir

// Payload is the sealed set of command payload records. Each transition and
// module type pair has exactly one payload shape.
type Payload interface {
	// Fields renders the payload in document form.
	Fields() IRObject
	payload()
}

// InitParams is the init payload: the complete topology.
type InitParams struct {
	Topology Topology
}

func (InitParams) payload() {}

// Fields implements Payload.
func (p InitParams) Fields() IRObject {
	queues := make(IRArray, len(p.Topology.Queues))
	for i, q := range p.Topology.Queues {
		queues[i] = NewIRObject(
			O("inst", IRString(q.Inst)),
			O("kind", IRString(q.Kind)),
			O("capacity", IRInt(q.Capacity)),
		)
	}

	modules := make(IRArray, len(p.Topology.Modules))
	for i, m := range p.Topology.Modules {
		qinfos := make(IRArray, len(m.QInfos))
		for j, qi := range m.QInfos {
			qinfos[j] = NewIRObject(
				O("name", IRString(qi.Name)),
				O("inst", IRString(qi.Inst)),
				O("dir", IRString(qi.Dir)),
			)
		}
		modules[i] = NewIRObject(
			O("inst", IRString(m.Inst)),
			O("plugin", IRString(m.Plugin)),
			O("data", NewIRObject(O("qinfos", qinfos))),
		)
	}

	return NewIRObject(O("queues", queues), O("modules", modules))
}

// ModuleCommands is the payload of every command other than init: an ordered
// list of per-module payloads.
type ModuleCommands struct {
	Modules []AddressedCmd
}

func (ModuleCommands) payload() {}

// Fields implements Payload.
func (p ModuleCommands) Fields() IRObject {
	modules := make(IRArray, len(p.Modules))
	for i, ac := range p.Modules {
		modules[i] = NewIRObject(
			O("match", IRString(ac.Match)),
			O("data", ac.Data.Fields()),
		)
	}
	return NewIRObject(O("modules", modules))
}

// DecisionEmulatorConf configures the trigger decision emulator.
type DecisionEmulatorConf struct {
	Links                 []int64
	MinLinksInRequest     int64
	MaxLinksInRequest     int64
	MinReadoutWindowTicks int64
	MaxReadoutWindowTicks int64
	TriggerWindowOffset   int64
	TriggerDelayTicks     int64
	TriggerIntervalTicks  int64
	ClockFrequencyHz      float64
}

func (DecisionEmulatorConf) payload() {}

// Fields implements Payload.
func (p DecisionEmulatorConf) Fields() IRObject {
	links := make(IRArray, len(p.Links))
	for i, l := range p.Links {
		links[i] = IRInt(l)
	}
	return NewIRObject(
		O("links", links),
		O("min_links_in_request", IRInt(p.MinLinksInRequest)),
		O("max_links_in_request", IRInt(p.MaxLinksInRequest)),
		O("min_readout_window_ticks", IRInt(p.MinReadoutWindowTicks)),
		O("max_readout_window_ticks", IRInt(p.MaxReadoutWindowTicks)),
		O("trigger_window_offset", IRInt(p.TriggerWindowOffset)),
		O("trigger_delay_ticks", IRInt(p.TriggerDelayTicks)),
		O("trigger_interval_ticks", IRInt(p.TriggerIntervalTicks)),
		O("clock_frequency_hz", IRFloat(p.ClockFrequencyHz)),
	)
}

// TimeSyncConf configures the fake time sync source.
type TimeSyncConf struct {
	SyncIntervalTicks int64
}

func (TimeSyncConf) payload() {}

// Fields implements Payload.
func (p TimeSyncConf) Fields() IRObject {
	return NewIRObject(O("sync_interval_ticks", IRInt(p.SyncIntervalTicks)))
}

// InhibitConf configures the fake inhibit generator.
type InhibitConf struct {
	InhibitIntervalMs int64
}

func (InhibitConf) payload() {}

// Fields implements Payload.
func (p InhibitConf) Fields() IRObject {
	return NewIRObject(O("inhibit_interval_ms", IRInt(p.InhibitIntervalMs)))
}

// TokenConf configures the fake token generator.
type TokenConf struct {
	TokenIntervalMs int64
	TokenSigmaMs    int64
	InitialTokens   int64
}

func (TokenConf) payload() {}

// Fields implements Payload.
func (p TokenConf) Fields() IRObject {
	return NewIRObject(
		O("token_interval_ms", IRInt(p.TokenIntervalMs)),
		O("token_sigma_ms", IRInt(p.TokenSigmaMs)),
		O("initial_tokens", IRInt(p.InitialTokens)),
	)
}

// StartParams carries the run number, and the trigger interval when the
// profile forwards it at start.
type StartParams struct {
	Run                  int64
	TriggerIntervalTicks *int64
}

func (StartParams) payload() {}

// Fields implements Payload.
func (p StartParams) Fields() IRObject {
	obj := NewIRObject(O("run", IRInt(p.Run)))
	if p.TriggerIntervalTicks != nil {
		obj["trigger_interval_ticks"] = IRInt(*p.TriggerIntervalTicks)
	}
	return obj
}

// ResumeParams lets the trigger rate change across a pause/resume cycle.
type ResumeParams struct {
	TriggerIntervalTicks int64
}

func (ResumeParams) payload() {}

// Fields implements Payload.
func (p ResumeParams) Fields() IRObject {
	return NewIRObject(O("trigger_interval_ticks", IRInt(p.TriggerIntervalTicks)))
}

// EmptyParams is the payload of transitions that carry no parameters.
type EmptyParams struct{}

func (EmptyParams) payload() {}

// Fields implements Payload.
func (EmptyParams) Fields() IRObject {
	return IRObject{}
}
