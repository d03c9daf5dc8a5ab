// Package schema checks command documents against the embedded CUE schema.
//
// The schema closes every record, so unknown fields are rejected along with
// wrong types, unknown enum values and missing fields.
package schema

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/trigconf/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

// Validation error codes.
const (
	ErrMalformed       = "E211" // input is not JSON
	ErrSchemaViolation = "E210" // JSON does not satisfy #Document
)

// DocumentFile is the file name reported in positions of validated input.
const DocumentFile = "document.json"

// ValidationError is one schema finding.
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Path, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
}

// A cue.Context is not safe for concurrent use; validations serialize on mu.
var (
	mu       sync.Mutex
	cueCtx   *cue.Context
	document cue.Value
	loadErr  error
	loadOnce sync.Once
)

func load() error {
	loadOnce.Do(func() {
		cueCtx = cuecontext.New()
		v := cueCtx.CompileString(schemaCUE, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			loadErr = fmt.Errorf("compile schema: %w", err)
			return
		}
		document = v.LookupPath(cue.ParsePath("#Document"))
		if !document.Exists() {
			loadErr = fmt.Errorf("schema has no #Document definition")
		}
	})
	return loadErr
}

// Validate checks JSON data against #Document and returns every finding.
// An empty result means the document is valid.
func Validate(data []byte) []ValidationError {
	if err := load(); err != nil {
		return []ValidationError{{Path: "schema", Message: err.Error(), Code: ErrSchemaViolation}}
	}

	expr, err := cuejson.Extract(DocumentFile, data)
	if err != nil {
		return []ValidationError{{Path: "document", Message: err.Error(), Code: ErrMalformed}}
	}

	mu.Lock()
	defer mu.Unlock()

	v := cueCtx.BuildExpr(expr, cue.Filename(DocumentFile))
	if err := v.Err(); err != nil {
		return convert(err)
	}
	unified := document.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return convert(err)
	}
	return nil
}

// ValidateDocument checks a document built in memory.
func ValidateDocument(doc ir.Document) []ValidationError {
	canonical, err := doc.Canonical()
	if err != nil {
		return []ValidationError{{Path: "document", Message: err.Error(), Code: ErrMalformed}}
	}
	return Validate(canonical)
}

func convert(err error) []ValidationError {
	var out []ValidationError
	seen := map[string]bool{}
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		ve := ValidationError{
			Path:    strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
			Code:    ErrSchemaViolation,
			Line:    documentLine(cueerrors.Positions(e)),
		}
		if ve.Path == "" {
			ve.Path = "document"
		}
		key := ve.Error()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ve)
	}
	if len(out) == 0 {
		out = append(out, ValidationError{Path: "document", Message: err.Error(), Code: ErrSchemaViolation})
	}
	return out
}

// documentLine returns the first line that points into the validated input
// rather than into the schema.
func documentLine(positions []token.Pos) int {
	for _, p := range positions {
		if p.IsValid() && p.Filename() == DocumentFile {
			return p.Line()
		}
	}
	return 0
}
