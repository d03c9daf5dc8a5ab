package ir

// QueueKind is the queue implementation the runtime instantiates.
type QueueKind string

const (
	// QueueKindMPMC is a multi-producer, multi-consumer queue.
	QueueKindMPMC QueueKind = "FollyMPMCQueue"
	// QueueKindSPSC is a single-producer, single-consumer queue.
	QueueKindSPSC QueueKind = "FollySPSCQueue"
)

// ValidQueueKinds defines allowed queue kinds.
var ValidQueueKinds = map[QueueKind]bool{
	QueueKindMPMC: true,
	QueueKindSPSC: true,
}

// Direction is the data flow of an endpoint relative to its module.
type Direction string

const (
	DirInput  Direction = "input"
	DirOutput Direction = "output"
)

// Plugin is the module type tag.
type Plugin string

const (
	PluginTimeSyncSource   Plugin = "FakeTimeSyncSource"
	PluginInhibitGenerator Plugin = "FakeInhibitGenerator"
	PluginTokenGenerator   Plugin = "FakeTokenGenerator"
	PluginDecisionEmulator Plugin = "TriggerDecisionEmulator"
	PluginRequestReceiver  Plugin = "FakeRequestReceiver"
)

// ValidPlugins defines the fixed set of module types.
var ValidPlugins = map[Plugin]bool{
	PluginTimeSyncSource:   true,
	PluginInhibitGenerator: true,
	PluginTokenGenerator:   true,
	PluginDecisionEmulator: true,
	PluginRequestReceiver:  true,
}

// QueueSpec declares a bounded queue instance.
type QueueSpec struct {
	Inst     string    `json:"inst" yaml:"inst"`
	Kind     QueueKind `json:"kind" yaml:"kind"`
	Capacity int64     `json:"capacity" yaml:"capacity"`
}

// QueueInfo binds a module-local endpoint name to a queue instance.
type QueueInfo struct {
	Name string    `json:"name" yaml:"name"`
	Inst string    `json:"inst" yaml:"inst"`
	Dir  Direction `json:"dir" yaml:"dir"`
}

// ModSpec declares a module instance and its endpoints, in declaration order.
type ModSpec struct {
	Inst   string      `json:"inst" yaml:"inst"`
	Plugin Plugin      `json:"plugin" yaml:"plugin"`
	QInfos []QueueInfo `json:"qinfos" yaml:"qinfos"`
}

// Inputs returns the names of the module's input endpoints in order.
func (m ModSpec) Inputs() []string {
	return m.endpoints(DirInput)
}

// Outputs returns the names of the module's output endpoints in order.
func (m ModSpec) Outputs() []string {
	return m.endpoints(DirOutput)
}

func (m ModSpec) endpoints(dir Direction) []string {
	names := []string{}
	for _, qi := range m.QInfos {
		if qi.Dir == dir {
			names = append(names, qi.Name)
		}
	}
	return names
}

// Topology is the queue set plus the module set.
// Queues are sorted by Inst; modules keep declaration order.
type Topology struct {
	Queues  []QueueSpec `json:"queues" yaml:"queues"`
	Modules []ModSpec   `json:"modules" yaml:"modules"`
}

// Module returns the module with the given instance name.
func (t Topology) Module(inst string) (ModSpec, bool) {
	for _, m := range t.Modules {
		if m.Inst == inst {
			return m, true
		}
	}
	return ModSpec{}, false
}

// Queue returns the queue with the given instance name.
func (t Topology) Queue(inst string) (QueueSpec, bool) {
	for _, q := range t.Queues {
		if q.Inst == inst {
			return q, true
		}
	}
	return QueueSpec{}, false
}

// ModuleNames returns module instance names in declaration order.
func (t Topology) ModuleNames() []string {
	names := make([]string, len(t.Modules))
	for i, m := range t.Modules {
		names[i] = m.Inst
	}
	return names
}

// QueueNames returns queue instance names in list order.
func (t Topology) QueueNames() []string {
	names := make([]string, len(t.Queues))
	for i, q := range t.Queues {
		names[i] = q.Inst
	}
	return names
}

// CmdID names a lifecycle transition.
type CmdID string

const (
	CmdInit   CmdID = "init"
	CmdConf   CmdID = "conf"
	CmdStart  CmdID = "start"
	CmdStop   CmdID = "stop"
	CmdPause  CmdID = "pause"
	CmdResume CmdID = "resume"
	CmdScrap  CmdID = "scrap"
)

// CommandOrder is the fixed order of a command sequence.
var CommandOrder = []CmdID{CmdInit, CmdConf, CmdStart, CmdStop, CmdPause, CmdResume, CmdScrap}

// State is a label of the shared module lifecycle.
type State string

const (
	StateNone       State = "NONE"
	StateInitial    State = "INITIAL"
	StateConfigured State = "CONFIGURED"
	StateRunning    State = "RUNNING"
)

// Broadcast is the module reference that addresses every module.
const Broadcast = ""

// AddressedCmd is a payload addressed to one module, or to all of them when
// Match is Broadcast.
type AddressedCmd struct {
	Match string
	Data  Payload
}

// Command is one lifecycle transition with its payload.
// EntryState and ExitState are empty unless the profile labels commands.
type Command struct {
	ID         CmdID
	EntryState State
	ExitState  State
	Data       Payload
}

// Targets returns the module references addressed by a module command.
// It returns nil for init, which is addressed to the runtime.
func (c Command) Targets() []string {
	mc, ok := c.Data.(ModuleCommands)
	if !ok {
		return nil
	}
	targets := make([]string, len(mc.Modules))
	for i, ac := range mc.Modules {
		targets[i] = ac.Match
	}
	return targets
}

// PayloadFor returns the payload addressed to match, if any.
func (c Command) PayloadFor(match string) (Payload, bool) {
	mc, ok := c.Data.(ModuleCommands)
	if !ok {
		return nil, false
	}
	for _, ac := range mc.Modules {
		if ac.Match == match {
			return ac.Data, true
		}
	}
	return nil, false
}

// Fields renders the command in its document form.
func (c Command) Fields() IRObject {
	obj := NewIRObject(
		O("id", IRString(c.ID)),
		O("data", c.Data.Fields()),
	)
	if c.EntryState != "" {
		obj["entry_state"] = IRString(c.EntryState)
	}
	if c.ExitState != "" {
		obj["exit_state"] = IRString(c.ExitState)
	}
	return obj
}

// Document is the ordered command sequence handed to the runtime.
type Document []Command

// Fields renders the document as an array of command objects.
func (d Document) Fields() IRArray {
	arr := make(IRArray, len(d))
	for i, c := range d {
		arr[i] = c.Fields()
	}
	return arr
}

// Command returns the command with the given id.
func (d Document) Command(id CmdID) (Command, bool) {
	for _, c := range d {
		if c.ID == id {
			return c, true
		}
	}
	return Command{}, false
}

// IDs returns command ids in order.
func (d Document) IDs() []CmdID {
	ids := make([]CmdID, len(d))
	for i, c := range d {
		ids[i] = c.ID
	}
	return ids
}

// Canonical returns the RFC 8785 canonical JSON of the document.
func (d Document) Canonical() ([]byte, error) {
	return MarshalCanonical(d.Fields())
}
