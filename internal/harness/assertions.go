package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/trigconf/internal/config"
	"github.com/roach88/trigconf/internal/ir"
	"github.com/roach88/trigconf/internal/synth"
)

// AssertionError is returned when an assertion fails.
// It includes the command sequence to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Commands []string // One line per command: id and targets
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Commands) > 0 {
		fmt.Fprintf(&buf, "\nCommand sequence:\n")
		for i, line := range e.Commands {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, line)
		}
	}

	return buf.String()
}

// summarize renders one line per command for AssertionError.
func summarize(doc ir.Document) []string {
	lines := make([]string, len(doc))
	for i, c := range doc {
		if targets := c.Targets(); targets != nil {
			lines[i] = fmt.Sprintf("%s -> %v", c.ID, targets)
		} else {
			lines[i] = string(c.ID)
		}
	}
	return lines
}

func fail(res *synth.Result, a Assertion, expected, actual string) error {
	return &AssertionError{
		Type:     a.Type,
		Expected: expected,
		Actual:   actual,
		Commands: summarize(res.Document),
	}
}

func assertNames(res *synth.Result, a Assertion, what string, actual []string) error {
	if slices.Equal(actual, a.Expect) {
		return nil
	}
	return fail(res, a, fmt.Sprintf("%s %v", what, a.Expect), fmt.Sprintf("%s %v", what, actual))
}

func assertInputs(res *synth.Result, a Assertion) error {
	m, ok := res.Topology.Module(a.Module)
	if !ok {
		return fail(res, a, fmt.Sprintf("module %s", a.Module), "module not in topology")
	}
	return assertNames(res, a, a.Module+" inputs", m.Inputs())
}

func assertCommandOrder(res *synth.Result, a Assertion) error {
	ids := make([]string, len(res.Document))
	for i, id := range res.Document.IDs() {
		ids[i] = string(id)
	}
	return assertNames(res, a, "commands", ids)
}

func assertTargets(res *synth.Result, a Assertion) error {
	c, ok := res.Document.Command(ir.CmdID(a.Command))
	if !ok {
		return fail(res, a, fmt.Sprintf("command %s", a.Command), "command not in document")
	}
	return assertNames(res, a, a.Command+" targets", c.Targets())
}

// assertPayload checks the fields of the payload addressed to Module by
// Command. Without a module the whole command data is matched.
func assertPayload(res *synth.Result, a Assertion) error {
	c, ok := res.Document.Command(ir.CmdID(a.Command))
	if !ok {
		return fail(res, a, fmt.Sprintf("command %s", a.Command), "command not in document")
	}

	data := c.Data.Fields()
	where := a.Command
	if a.Module != "" {
		p, ok := c.PayloadFor(a.Module)
		if !ok {
			return fail(res, a, fmt.Sprintf("%s addressed to %s", a.Command, a.Module), "no payload for module")
		}
		data = p.Fields()
		where = fmt.Sprintf("%s[%s]", a.Command, a.Module)
	}

	keys := make([]string, 0, len(a.Fields))
	for k := range a.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		want, err := fromYAML(a.Fields[key])
		if err != nil {
			return fmt.Errorf("payload %s.%s: %w", where, key, err)
		}
		got, ok := data.Lookup(key)
		if !ok {
			return fail(res, a, fmt.Sprintf("%s.%s = %s", where, key, render(want)), "field missing")
		}
		if !irEqual(got, want) {
			return fail(res, a,
				fmt.Sprintf("%s.%s = %s", where, key, render(want)),
				fmt.Sprintf("%s.%s = %s", where, key, render(got)))
		}
	}
	return nil
}

// assertUnchangedExcept reruns synthesis with Vary applied and compares the
// two documents command by command.
func assertUnchangedExcept(res *synth.Result, a Assertion) error {
	params := config.SpecFromParams(res.Params).Merge(a.Vary).Resolve(res.Profile)
	other, err := synth.Synthesize(res.Profile, params, res.Settings)
	if err != nil {
		return fail(res, a, "varied synthesis to succeed", err.Error())
	}

	if !slices.Equal(res.Document.IDs(), other.Document.IDs()) {
		return fail(res, a,
			fmt.Sprintf("commands %v", res.Document.IDs()),
			fmt.Sprintf("commands %v", other.Document.IDs()))
	}

	for i, c := range res.Document {
		oc := other.Document[i]
		if !slices.Equal(c.Targets(), oc.Targets()) {
			return fail(res, a,
				fmt.Sprintf("%s targets %v", c.ID, c.Targets()),
				fmt.Sprintf("%s targets %v", c.ID, oc.Targets()))
		}

		mc, ok := c.Data.(ir.ModuleCommands)
		if !ok {
			if diff := firstDiff(c.Data.Fields(), oc.Data.Fields(), nil); diff != "" {
				return fail(res, a, fmt.Sprintf("%s unchanged", c.ID), fmt.Sprintf("%s.%s changed", c.ID, diff))
			}
			continue
		}
		omc := oc.Data.(ir.ModuleCommands)
		for j, ac := range mc.Modules {
			var allow []string
			if ac.Match == a.Module {
				allow = a.Allow
			}
			if diff := firstDiff(ac.Data.Fields(), omc.Modules[j].Data.Fields(), allow); diff != "" {
				return fail(res, a,
					fmt.Sprintf("only %s%v to change", a.Module, a.Allow),
					fmt.Sprintf("%s[%s].%s changed", c.ID, ac.Match, diff))
			}
		}
	}
	return nil
}

// firstDiff returns the first key, in canonical order, whose value differs
// between a and b, ignoring keys in allow.
func firstDiff(a, b ir.IRObject, allow []string) string {
	keys := a.SortedKeys()
	for _, k := range b.SortedKeys() {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	for _, k := range keys {
		if slices.Contains(allow, k) {
			continue
		}
		av, aok := a[k]
		bv, bok := b[k]
		if aok != bok || !irEqual(av, bv) {
			return k
		}
	}
	return ""
}

// EvaluateAssertions evaluates all assertions against a synthesis result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(res *synth.Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertModules:
			err = assertNames(res, assertion, "modules", res.Topology.ModuleNames())
		case AssertQueues:
			err = assertNames(res, assertion, "queues", res.Topology.QueueNames())
		case AssertInputs:
			err = assertInputs(res, assertion)
		case AssertCommandOrder:
			err = assertCommandOrder(res, assertion)
		case AssertTargets:
			err = assertTargets(res, assertion)
		case AssertPayload:
			err = assertPayload(res, assertion)
		case AssertUnchangedExcept:
			err = assertUnchangedExcept(res, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
