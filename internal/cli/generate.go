package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/trigconf/internal/ir"
	"github.com/roach88/trigconf/internal/schema"
	"github.com/roach88/trigconf/internal/store"
	"github.com/roach88/trigconf/internal/synth"
)

// DefaultOutputFile is where generate writes when no path is given.
const DefaultOutputFile = "trigemu-fake-app.json"

// Stdout selects standard output as the destination.
const Stdout = "-"

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	ParamOptions
	Encoding string // "json" | "yaml"
	Record   string // ledger path, empty to skip
}

// GenerateResult summarizes a generation.
type GenerateResult struct {
	Output       string   `json:"output"`
	Profile      string   `json:"profile"`
	DocumentHash string   `json:"document_hash"`
	Modules      []string `json:"modules"`
	Queues       []string `json:"queues"`
	RecordID     string   `json:"record_id,omitempty"`
	Recorded     bool     `json:"recorded,omitempty"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate [output]",
		Short: "Generate the command sequence document",
		Long: `Generate the topology and lifecycle command sequence for the fake trigger
modules and write it as an indented JSON (or YAML) document.

Parameters come from flags, then the --config file, then the profile
defaults. Use "-" as output to write the document to stdout.

Examples:
  trigconf generate
  trigconf generate run42.json -r 42 --inhibits-enabled
  trigconf generate - --profile lifecycle --encoding yaml
  trigconf generate --config params.yaml --record ledger.db`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := DefaultOutputFile
			if len(args) == 1 {
				output = args[0]
			}
			return runGenerate(opts, output, cmd)
		},
	}

	addParamFlags(cmd, &opts.ParamOptions)
	cmd.Flags().StringVar(&opts.Encoding, "encoding", "json", "document encoding (json|yaml)")
	cmd.Flags().StringVar(&opts.Record, "record", "", "record the document in this SQLite ledger")

	return cmd
}

func runGenerate(opts *GenerateOptions, output string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if opts.Encoding != "json" && opts.Encoding != "yaml" {
		return formatter.Fail(ExitCommandError, ErrCodeBadFlag,
			fmt.Sprintf("invalid encoding %q: must be json or yaml", opts.Encoding), nil)
	}

	profile, params, settings, err := opts.resolve(cmd, formatter)
	if err != nil {
		return err
	}
	res, err := synthesize(formatter, profile, params, settings)
	if err != nil {
		return err
	}

	if verrs := schema.ValidateDocument(res.Document); len(verrs) > 0 {
		return formatter.Fail(ExitCommandError, ErrCodeSchemaViolation, verrs[0].Error(), verrs)
	}

	data, err := encodeDocument(res.Document, opts.Encoding)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	hash, err := res.Hash()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	result := GenerateResult{
		Output:       output,
		Profile:      profile.Name,
		DocumentHash: hash,
		Modules:      res.Topology.ModuleNames(),
		Queues:       res.Topology.QueueNames(),
	}

	if opts.Record != "" {
		gen, created, err := recordGeneration(cmd, opts.Record, res)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
		}
		result.RecordID = gen.ID
		result.Recorded = created
		formatter.VerboseLog("Ledger %s: generation %s (seq %d, new=%t)", opts.Record, gen.ID, gen.Seq, created)
	}

	if output == Stdout {
		// The document is the output; a summary would corrupt it.
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.WriteFile(output, data, 0644); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
	}

	return outputGenerateSuccess(formatter, result)
}

// encodeDocument renders the document with canonical key order.
func encodeDocument(doc ir.Document, encoding string) ([]byte, error) {
	canonical, err := doc.Canonical()
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	if encoding == "yaml" {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(ir.ToNative(doc.Fields())); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, canonical, "", "    "); err != nil {
		return nil, fmt.Errorf("indent document: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// recordGeneration appends the document to the ledger at path.
func recordGeneration(cmd *cobra.Command, path string, res *synth.Result) (store.Generation, bool, error) {
	st, err := store.Open(path)
	if err != nil {
		return store.Generation{}, false, err
	}
	defer st.Close()

	return st.RecordGeneration(cmd.Context(), store.GenerationInput{
		Profile:   res.Profile.Name,
		RunNumber: res.Params.RunNumber,
		Params:    res.Params.Fields(),
		Document:  res.Document,
	})
}

func outputGenerateSuccess(formatter *OutputFormatter, result GenerateResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Wrote %s (%s)\n", result.Output, result.Profile)
	fmt.Fprintf(w, "  modules: %v\n", result.Modules)
	fmt.Fprintf(w, "  queues:  %v\n", result.Queues)
	fmt.Fprintf(w, "  hash:    %s\n", result.DocumentHash)
	if result.RecordID != "" {
		state := "already recorded"
		if result.Recorded {
			state = "recorded"
		}
		fmt.Fprintf(w, "  ledger:  %s %s\n", state, result.RecordID)
	}
	return nil
}
