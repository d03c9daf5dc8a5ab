package harness

import (
	"github.com/roach88/trigconf/internal/ir"
	"github.com/roach88/trigconf/internal/synth"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// ErrorCode is the synthesis error category, set when synthesis failed.
	ErrorCode string `json:"error_code,omitempty"`

	// DocumentHash is the hash of the generated document.
	DocumentHash string `json:"document_hash,omitempty"`

	// Synth is the full synthesis result. Nil when synthesis failed.
	Synth *synth.Result `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Document returns the generated document, or nil when synthesis failed.
func (r *Result) Document() ir.Document {
	if r.Synth == nil {
		return nil
	}
	return r.Synth.Document
}
