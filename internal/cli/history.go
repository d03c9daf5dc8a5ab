package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/trigconf/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DBPath string
	Run    int64
	Params string
	Verify bool
}

// HistoryEntry is one listed generation.
type HistoryEntry struct {
	Seq          int64  `json:"seq"`
	ID           string `json:"id"`
	DocumentHash string `json:"document_hash"`
	ParamsHash   string `json:"params_hash"`
	Profile      string `json:"profile"`
	RunNumber    int64  `json:"run_number"`
	Verified     *bool  `json:"verified,omitempty"`
}

// HistoryResult lists the generations in a ledger.
type HistoryResult struct {
	Generations []HistoryEntry `json:"generations"`
	Failed      int            `json:"failed,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded generations",
		Long: `List the documents recorded with "generate --record", oldest first.

With --verify every listed document is decoded, re-encoded and re-hashed;
any mismatch fails the command.

Examples:
  trigconf history --db ledger.db
  trigconf history --db ledger.db --run 333 --verify
  trigconf history --db ledger.db --params <params_hash>`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to the SQLite ledger (required)")
	cmd.Flags().Int64Var(&opts.Run, "run", 0, "only list generations for this run number")
	cmd.Flags().StringVar(&opts.Params, "params", "", "only list generations made from the parameters with this hash")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "re-hash every listed document")
	_ = cmd.MarkFlagRequired("db")
	cmd.MarkFlagsMutuallyExclusive("run", "params")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	// Opening a missing path would create an empty ledger.
	if _, err := os.Stat(opts.DBPath); errors.Is(err, os.ErrNotExist) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "database not found: "+opts.DBPath, nil)
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}
	defer st.Close()

	ctx := cmd.Context()
	var gens []store.Generation
	switch {
	case cmd.Flags().Changed("run"):
		gens, err = st.ListGenerationsByRun(ctx, opts.Run)
	case opts.Params != "":
		gens, err = st.ListGenerationsByParams(ctx, opts.Params)
	default:
		gens, err = st.ListGenerations(ctx)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}
	formatter.VerboseLog("Found %d generation(s) in %s", len(gens), opts.DBPath)

	result := HistoryResult{Generations: make([]HistoryEntry, 0, len(gens))}
	for _, g := range gens {
		entry := HistoryEntry{
			Seq:          g.Seq,
			ID:           g.ID,
			DocumentHash: g.DocumentHash,
			ParamsHash:   g.ParamsHash,
			Profile:      g.Profile,
			RunNumber:    g.RunNumber,
		}
		if opts.Verify {
			v, err := st.VerifyGeneration(ctx, g.DocumentHash)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
			}
			ok := v.OK()
			entry.Verified = &ok
			if !ok {
				result.Failed++
				formatter.VerboseLog("generation %s: stored document hashes to %s", g.ID, v.Recomputed)
			}
		}
		result.Generations = append(result.Generations, entry)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else if err := outputHistoryText(formatter, result); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d generation(s) failed verification", result.Failed))
	}
	return nil
}

func outputHistoryText(formatter *OutputFormatter, result HistoryResult) error {
	w := formatter.Writer
	if len(result.Generations) == 0 {
		fmt.Fprintln(w, "No generations recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tHASH\tPROFILE\tRUN\tVERIFIED")
	for _, g := range result.Generations {
		verified := "-"
		if g.Verified != nil {
			verified = "✓"
			if !*g.Verified {
				verified = "✗"
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", g.Seq, g.ID, shortHash(g.DocumentHash), g.Profile, g.RunNumber, verified)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if result.Failed > 0 {
		fmt.Fprintf(w, "\n✗ %d generation(s) failed verification\n", result.Failed)
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
