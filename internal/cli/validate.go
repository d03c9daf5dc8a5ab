package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/trigconf/internal/ir"
	"github.com/roach88/trigconf/internal/lifecycle"
	"github.com/roach88/trigconf/internal/schema"
	"github.com/roach88/trigconf/internal/synth"
)

// Issue is one finding about a command document.
type Issue struct {
	Code    string `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool    `json:"valid"`
	Commands int     `json:"commands"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Validate a command sequence document",
		Long: `Validate a generated (or hand-edited) command sequence document.

Checks, in order:
  1. the document matches the schema (E210, E211)
  2. commands appear in the fixed lifecycle order with correct state labels (E240)
  3. the init topology is internally referential (E220-E228)
  4. every addressed module is declared by init (E241)

Topology warnings (E230-E232) are reported but do not fail validation.
Documents ending in .yaml or .yml are read as YAML. Use "-" for stdin.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	data, err := readDocument(cmd, path)
	if errors.Is(err, os.ErrNotExist) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "document not found: "+path, nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, err.Error(), nil)
	}
	formatter.VerboseLog("Read %d bytes from %s", len(data), path)

	result := ValidateDocumentBytes(data)
	for _, w := range result.Warnings {
		formatter.VerboseLog("warning: [%s] %s: %s", w.Code, w.Path, w.Message)
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// readDocument reads a JSON or YAML document and returns it as JSON.
func readDocument(cmd *cobra.Command, path string) ([]byte, error) {
	var data []byte
	var err error
	if path == Stdout {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			// Let the schema report it as malformed.
			return data, nil
		}
		return json.Marshal(v)
	default:
		return data, nil
	}
}

// ValidateDocumentBytes runs every document check on JSON data. Later
// checks only run when the schema accepts the document.
func ValidateDocumentBytes(data []byte) ValidationResult {
	result := ValidationResult{Valid: true}

	if verrs := schema.Validate(data); len(verrs) > 0 {
		for _, ve := range verrs {
			result.Errors = append(result.Errors, Issue{Code: ve.Code, Path: ve.Path, Message: ve.Message, Line: ve.Line})
		}
		result.Valid = false
		return result
	}

	doc, err := ir.UnmarshalDocument(data)
	if err != nil {
		result.Errors = append(result.Errors, Issue{Code: ErrCodeMalformed, Path: "document", Message: err.Error()})
		result.Valid = false
		return result
	}
	result.Commands = len(doc)

	result.Errors = append(result.Errors, checkLifecycle(doc)...)

	topo := decodeTopology(doc)
	errs, warnings := synth.ValidateTopology(topo)
	for _, e := range errs {
		result.Errors = append(result.Errors, Issue{Code: e.Code, Path: "init.data." + e.Field, Message: e.Message})
	}
	for _, w := range warnings {
		result.Warnings = append(result.Warnings, Issue{Code: w.Code, Path: "init.data." + w.Field, Message: w.Message})
	}

	result.Errors = append(result.Errors, checkReferences(doc, topo)...)

	result.Valid = len(result.Errors) == 0
	return result
}

func checkLifecycle(doc ir.IRArray) []Issue {
	var issues []Issue
	ids := make([]ir.CmdID, len(doc))
	for i, v := range doc {
		c := asObject(v)
		ids[i] = ir.CmdID(stringField(c, "id"))
		entry := ir.State(stringField(c, "entry_state"))
		exit := ir.State(stringField(c, "exit_state"))
		if err := lifecycle.CheckLabels(ids[i], entry, exit); err != nil {
			issues = append(issues, Issue{Code: ErrCodeLifecycle, Path: fmt.Sprintf("%d", i), Message: err.Error()})
		}
	}
	if err := lifecycle.CheckSequence(ids); err != nil {
		issues = append(issues, Issue{Code: ErrCodeLifecycle, Path: "document", Message: err.Error()})
	}
	return issues
}

// checkReferences reports module commands addressed to modules that the
// topology does not declare.
func checkReferences(doc ir.IRArray, topo ir.Topology) []Issue {
	var issues []Issue
	for i, v := range doc {
		c := asObject(v)
		if stringField(c, "id") == string(ir.CmdInit) {
			continue
		}
		modules, _ := c.Lookup("data.modules")
		arr, _ := modules.(ir.IRArray)
		for j, m := range arr {
			match := stringField(asObject(m), "match")
			if match == ir.Broadcast {
				continue
			}
			if _, ok := topo.Module(match); !ok {
				issues = append(issues, Issue{
					Code:    ErrCodeUndefinedModule,
					Path:    fmt.Sprintf("%d.data.modules.%d.match", i, j),
					Message: fmt.Sprintf("%s addresses module %q, which init does not declare", stringField(c, "id"), match),
				})
			}
		}
	}
	return issues
}

// decodeTopology rebuilds the topology from the init command of a document
// that passed the schema.
func decodeTopology(doc ir.IRArray) ir.Topology {
	topo := ir.Topology{Queues: []ir.QueueSpec{}, Modules: []ir.ModSpec{}}
	for _, v := range doc {
		c := asObject(v)
		if stringField(c, "id") != string(ir.CmdInit) {
			continue
		}
		queues, _ := c.Lookup("data.queues")
		for _, q := range asArray(queues) {
			qo := asObject(q)
			capacity, _ := qo["capacity"].(ir.IRInt)
			topo.Queues = append(topo.Queues, ir.QueueSpec{
				Inst:     stringField(qo, "inst"),
				Kind:     ir.QueueKind(stringField(qo, "kind")),
				Capacity: int64(capacity),
			})
		}
		modules, _ := c.Lookup("data.modules")
		for _, m := range asArray(modules) {
			mo := asObject(m)
			mod := ir.ModSpec{
				Inst:   stringField(mo, "inst"),
				Plugin: ir.Plugin(stringField(mo, "plugin")),
				QInfos: []ir.QueueInfo{},
			}
			qinfos, _ := mo.Lookup("data.qinfos")
			for _, qi := range asArray(qinfos) {
				qio := asObject(qi)
				mod.QInfos = append(mod.QInfos, ir.QueueInfo{
					Name: stringField(qio, "name"),
					Inst: stringField(qio, "inst"),
					Dir:  ir.Direction(stringField(qio, "dir")),
				})
			}
			topo.Modules = append(topo.Modules, mod)
		}
		break
	}
	return topo
}

func asObject(v ir.IRValue) ir.IRObject {
	obj, _ := v.(ir.IRObject)
	return obj
}

func asArray(v ir.IRValue) ir.IRArray {
	arr, _ := v.(ir.IRArray)
	return arr
}

func stringField(obj ir.IRObject, key string) string {
	s, _ := obj[key].(ir.IRString)
	return string(s)
}

func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Document valid (%d commands)\n", result.Commands)
	for _, w := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "  warning %s: %s: %s\n", w.Code, w.Path, w.Message)
	}
	return nil
}

// outputValidationErrors outputs every finding.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    result.Errors[0].Code,
				Message: result.Errors[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range result.Errors {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", issue.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", issue.Code, issue.Path, issue.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
