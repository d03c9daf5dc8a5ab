package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/trigconf/internal/ir"
	"github.com/roach88/trigconf/internal/synth"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	ParamOptions
}

// CommandSummary lists the modules a command addresses.
type CommandSummary struct {
	ID         ir.CmdID `json:"id"`
	EntryState ir.State `json:"entry_state,omitempty"`
	ExitState  ir.State `json:"exit_state,omitempty"`
	Targets    []string `json:"targets"`
}

// InspectResult is everything a generation would produce, without the
// document itself.
type InspectResult struct {
	Profile      string                  `json:"profile"`
	Params       map[string]any          `json:"params"`
	Settings     synth.Settings          `json:"settings"`
	Derived      synth.Derived           `json:"derived"`
	Topology     ir.Topology             `json:"topology"`
	Commands     []CommandSummary        `json:"commands"`
	DocumentHash string                  `json:"document_hash"`
	Warnings     []synth.ValidationError `json:"warnings,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show derived timing, topology and command targets",
		Long: `Run the generator without writing a document and show what it would
contain: derived timing values, queues, modules and their endpoints, and the
modules each lifecycle command addresses.

Accepts the same parameter flags as generate.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, cmd)
		},
	}

	addParamFlags(cmd, &opts.ParamOptions)

	return cmd
}

func runInspect(opts *InspectOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	profile, params, settings, err := opts.resolve(cmd, formatter)
	if err != nil {
		return err
	}
	res, err := synthesize(formatter, profile, params, settings)
	if err != nil {
		return err
	}

	hash, err := res.Hash()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	result := InspectResult{
		Profile:      profile.Name,
		Params:       ir.ToNative(params.Fields()).(map[string]any),
		Settings:     settings,
		Derived:      res.Derived,
		Topology:     res.Topology,
		Commands:     summarizeCommands(res.Document),
		DocumentHash: hash,
		Warnings:     res.Warnings,
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return outputInspectText(formatter, result, params)
}

func summarizeCommands(doc ir.Document) []CommandSummary {
	out := make([]CommandSummary, len(doc))
	for i, c := range doc {
		targets := c.Targets()
		if targets == nil {
			targets = []string{}
		}
		out[i] = CommandSummary{ID: c.ID, EntryState: c.EntryState, ExitState: c.ExitState, Targets: targets}
	}
	return out
}

func outputInspectText(formatter *OutputFormatter, r InspectResult, params synth.Params) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Profile: %s (%s)\n", r.Profile, params.Toggles)
	fmt.Fprintf(w, "Parameters: producers=%d slowdown=%v run=%d rate=%v Hz\n\n",
		params.ProducerCount, params.SlowdownFactor, params.RunNumber, params.TriggerRateHz)

	fmt.Fprintln(w, "Timing:")
	fmt.Fprintf(w, "  trigger_interval_ticks: %d\n", r.Derived.TriggerIntervalTicks)
	fmt.Fprintf(w, "  trigger_delay_ticks:    %d\n", r.Derived.TriggerDelayTicks)
	fmt.Fprintf(w, "  clock_frequency_hz:     %s\n", strconv.FormatFloat(r.Derived.EffectiveClockHz, 'f', -1, 64))
	fmt.Fprintf(w, "  token_interval_ms:      %d\n", r.Derived.TokenIntervalMs)
	fmt.Fprintf(w, "  token_sigma_ms:         %d\n", r.Derived.TokenSigmaMs)
	fmt.Fprintf(w, "  queue_pop_wait_ms:      %d\n\n", r.Settings.QueuePopWaitMs)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Queues:")
	for _, q := range r.Topology.Queues {
		fmt.Fprintf(tw, "  %s\t%s\t%d\n", q.Inst, q.Kind, q.Capacity)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "Modules:")
	for _, m := range r.Topology.Modules {
		endpoints := make([]string, len(m.QInfos))
		for i, qi := range m.QInfos {
			arrow := "<-"
			if qi.Dir == ir.DirOutput {
				arrow = "->"
			}
			endpoints[i] = fmt.Sprintf("%s %s %s", qi.Name, arrow, qi.Inst)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", m.Inst, m.Plugin, strings.Join(endpoints, ", "))
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "Commands:")
	for _, c := range r.Commands {
		targets := "(runtime)"
		if c.ID != ir.CmdInit {
			targets = formatTargets(c.Targets)
		}
		labels := ""
		if c.EntryState != "" {
			labels = fmt.Sprintf("%s -> %s", c.EntryState, c.ExitState)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", c.ID, targets, labels)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nDocument hash: %s\n", r.DocumentHash)
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "warning %s\n", warn.Error())
	}
	return nil
}

func formatTargets(targets []string) string {
	if len(targets) == 0 {
		return "(none)"
	}
	names := make([]string, len(targets))
	for i, t := range targets {
		if t == ir.Broadcast {
			t = "*"
		}
		names[i] = t
	}
	return strings.Join(names, " ")
}
