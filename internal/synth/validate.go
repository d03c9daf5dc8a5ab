package synth

import (
	"fmt"

	"github.com/roach88/trigconf/internal/ir"
)

// Topology validation codes (E220-E239). Codes at E230 and above are
// warnings: the runtime accepts them.
const (
	ErrDuplicateQueue    = "E220" // queue inst declared twice
	ErrDuplicateModule   = "E221" // module inst declared twice
	ErrDuplicateEndpoint = "E222" // endpoint name repeated within a module
	ErrUndefinedQueue    = "E223" // endpoint references a missing queue
	ErrInvalidQueueKind  = "E224" // unknown queue kind
	ErrInvalidPlugin     = "E225" // unknown module type
	ErrInvalidCapacity   = "E226" // capacity must be positive
	ErrInvalidDirection  = "E227" // direction must be input or output
	ErrEmptyName         = "E228" // inst or endpoint name is empty

	WarnNoProducer   = "E230" // queue has no output endpoint
	WarnNoConsumer   = "E231" // queue has no input endpoint
	WarnSPSCFanInOut = "E232" // SPSC queue with several producers or consumers
)

// ValidationError is a single topology finding.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateTopology checks that topo is internally referential. It returns
// every error and every warning found (does not fail-fast).
func ValidateTopology(topo ir.Topology) (errs, warnings []ValidationError) {
	queues := make(map[string]ir.QueueSpec, len(topo.Queues))
	for i, q := range topo.Queues {
		field := fmt.Sprintf("queues[%d]", i)
		if q.Inst == "" {
			errs = append(errs, ValidationError{Field: field + ".inst", Message: "queue inst is empty", Code: ErrEmptyName})
		}
		if _, dup := queues[q.Inst]; dup {
			errs = append(errs, ValidationError{
				Field:   field + ".inst",
				Message: fmt.Sprintf("queue %q declared more than once", q.Inst),
				Code:    ErrDuplicateQueue,
			})
		}
		if !ir.ValidQueueKinds[q.Kind] {
			errs = append(errs, ValidationError{
				Field:   field + ".kind",
				Message: fmt.Sprintf("unknown queue kind %q", q.Kind),
				Code:    ErrInvalidQueueKind,
			})
		}
		if q.Capacity <= 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".capacity",
				Message: fmt.Sprintf("capacity must be positive, got %d", q.Capacity),
				Code:    ErrInvalidCapacity,
			})
		}
		queues[q.Inst] = q
	}

	producers := map[string]int{}
	consumers := map[string]int{}
	modules := map[string]bool{}
	for i, m := range topo.Modules {
		field := fmt.Sprintf("modules[%d]", i)
		if m.Inst == "" {
			errs = append(errs, ValidationError{Field: field + ".inst", Message: "module inst is empty", Code: ErrEmptyName})
		}
		if modules[m.Inst] {
			errs = append(errs, ValidationError{
				Field:   field + ".inst",
				Message: fmt.Sprintf("module %q declared more than once", m.Inst),
				Code:    ErrDuplicateModule,
			})
		}
		modules[m.Inst] = true
		if !ir.ValidPlugins[m.Plugin] {
			errs = append(errs, ValidationError{
				Field:   field + ".plugin",
				Message: fmt.Sprintf("unknown plugin %q", m.Plugin),
				Code:    ErrInvalidPlugin,
			})
		}

		names := map[string]bool{}
		for j, qi := range m.QInfos {
			qfield := fmt.Sprintf("%s.qinfos[%d]", field, j)
			if qi.Name == "" {
				errs = append(errs, ValidationError{Field: qfield + ".name", Message: "endpoint name is empty", Code: ErrEmptyName})
			}
			if names[qi.Name] {
				errs = append(errs, ValidationError{
					Field:   qfield + ".name",
					Message: fmt.Sprintf("endpoint %q repeated in module %q", qi.Name, m.Inst),
					Code:    ErrDuplicateEndpoint,
				})
			}
			names[qi.Name] = true
			if _, ok := queues[qi.Inst]; !ok {
				errs = append(errs, ValidationError{
					Field:   qfield + ".inst",
					Message: fmt.Sprintf("queue %q is not declared", qi.Inst),
					Code:    ErrUndefinedQueue,
				})
			}
			switch qi.Dir {
			case ir.DirOutput:
				producers[qi.Inst]++
			case ir.DirInput:
				consumers[qi.Inst]++
			default:
				errs = append(errs, ValidationError{
					Field:   qfield + ".dir",
					Message: fmt.Sprintf("direction must be input or output, got %q", qi.Dir),
					Code:    ErrInvalidDirection,
				})
			}
		}
	}

	for i, q := range topo.Queues {
		field := fmt.Sprintf("queues[%d]", i)
		if producers[q.Inst] == 0 {
			warnings = append(warnings, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("queue %q has no producer", q.Inst),
				Code:    WarnNoProducer,
			})
		}
		if consumers[q.Inst] == 0 {
			warnings = append(warnings, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("queue %q has no consumer", q.Inst),
				Code:    WarnNoConsumer,
			})
		}
		if q.Kind == ir.QueueKindSPSC && (producers[q.Inst] > 1 || consumers[q.Inst] > 1) {
			warnings = append(warnings, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("single-producer queue %q has %d producers and %d consumers", q.Inst, producers[q.Inst], consumers[q.Inst]),
				Code:    WarnSPSCFanInOut,
			})
		}
	}

	return errs, warnings
}
