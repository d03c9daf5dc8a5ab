// Package lifecycle models the operational state machine every module
// traverses in lockstep: NONE -> INITIAL -> CONFIGURED -> RUNNING.
//
// pause and resume are self-loops on RUNNING; stop returns to CONFIGURED and
// scrap to INITIAL. The command document lists transitions in the fixed order
// init, conf, start, stop, pause, resume, scrap; a runtime executes them along
// a path such as the one returned by ExecutionPath.
package lifecycle

import (
	"fmt"
	"slices"

	"github.com/roach88/trigconf/internal/ir"
)

// Transition is the entry and exit state of a lifecycle command.
type Transition struct {
	Command ir.CmdID
	Entry   ir.State
	Exit    ir.State
}

var transitions = map[ir.CmdID]Transition{
	ir.CmdInit:   {ir.CmdInit, ir.StateNone, ir.StateInitial},
	ir.CmdConf:   {ir.CmdConf, ir.StateInitial, ir.StateConfigured},
	ir.CmdStart:  {ir.CmdStart, ir.StateConfigured, ir.StateRunning},
	ir.CmdStop:   {ir.CmdStop, ir.StateRunning, ir.StateConfigured},
	ir.CmdPause:  {ir.CmdPause, ir.StateRunning, ir.StateRunning},
	ir.CmdResume: {ir.CmdResume, ir.StateRunning, ir.StateRunning},
	ir.CmdScrap:  {ir.CmdScrap, ir.StateConfigured, ir.StateInitial},
}

// Lookup returns the transition for a command id.
func Lookup(id ir.CmdID) (Transition, bool) {
	t, ok := transitions[id]
	return t, ok
}

// ExecutionPath returns a walk from NONE that exercises every command once
// and ends back in INITIAL.
func ExecutionPath() []ir.CmdID {
	return []ir.CmdID{ir.CmdInit, ir.CmdConf, ir.CmdStart, ir.CmdPause, ir.CmdResume, ir.CmdStop, ir.CmdScrap}
}

// TransitionError reports a command applied in the wrong state.
type TransitionError struct {
	Command ir.CmdID
	From    ir.State
	Want    ir.State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("command %q requires state %s, machine is in %s", e.Command, e.Want, e.From)
}

// Machine tracks the current lifecycle state.
type Machine struct {
	state ir.State
}

// NewMachine creates a machine in state NONE.
func NewMachine() *Machine {
	return &Machine{state: ir.StateNone}
}

// State returns the current state.
func (m *Machine) State() ir.State {
	return m.state
}

// Apply moves the machine through the transition for id.
func (m *Machine) Apply(id ir.CmdID) error {
	t, ok := Lookup(id)
	if !ok {
		return fmt.Errorf("unknown command %q", id)
	}
	if t.Entry != m.state {
		return &TransitionError{Command: id, From: m.state, Want: t.Entry}
	}
	m.state = t.Exit
	return nil
}

// Walk replays ids from NONE and returns the final state.
func Walk(ids []ir.CmdID) (ir.State, error) {
	m := NewMachine()
	for i, id := range ids {
		if err := m.Apply(id); err != nil {
			return m.State(), fmt.Errorf("step %d: %w", i, err)
		}
	}
	return m.State(), nil
}

// CheckSequence verifies that ids is exactly the fixed command order.
func CheckSequence(ids []ir.CmdID) error {
	for i, id := range ids {
		if _, ok := Lookup(id); !ok {
			return fmt.Errorf("command[%d]: unknown command %q", i, id)
		}
	}
	if !slices.Equal(ids, ir.CommandOrder) {
		return fmt.Errorf("command order %v, want %v", ids, ir.CommandOrder)
	}
	return nil
}

// CheckLabels verifies that a labelled command carries the states of its
// transition. Unlabelled commands pass.
func CheckLabels(id ir.CmdID, entry, exit ir.State) error {
	if entry == "" && exit == "" {
		return nil
	}
	t, ok := Lookup(id)
	if !ok {
		return fmt.Errorf("unknown command %q", id)
	}
	if entry != t.Entry || exit != t.Exit {
		return fmt.Errorf("command %q labelled %s->%s, want %s->%s", id, entry, exit, t.Entry, t.Exit)
	}
	return nil
}
