package quote

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingColumn      = errors.New("missing required column")
	ErrUnknownRule        = errors.New("unsupported quantity rule")
	ErrUnknownUnit        = errors.New("unsupported unit")
	ErrDuplicateRule      = errors.New("duplicate BOM row")
	ErrInvalidValue       = errors.New("invalid value")
	ErrMalformedParameter = errors.New("malformed rule parameter")
	ErrUnknownDesign      = errors.New("unknown design")
	ErrInvalidSelection   = errors.New("invalid selection")
)

// LoadError reports a reference table that cannot be used. Row is the
// 1-based sheet row, zero when the problem is the header.
type LoadError struct {
	Table    string
	Row      int
	Column   string
	Design   string
	Material string
	Err      error
}

func (e *LoadError) Error() string {
	parts := []string{"load " + e.Table}
	if e.Row > 0 {
		parts = append(parts, fmt.Sprintf("row=%d", e.Row))
	}
	if e.Column != "" {
		parts = append(parts, "column="+e.Column)
	}
	if e.Design != "" {
		parts = append(parts, "design="+e.Design)
	}
	if e.Material != "" {
		parts = append(parts, "material="+e.Material)
	}
	return strings.Join(parts, " ") + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }

type Phase string

const (
	PhaseValidating Phase = "validating"
	PhaseEvaluating Phase = "evaluating"
	PhaseLabor      Phase = "labor"
	PhaseTotaling   Phase = "totaling"
)

// ComputeError aborts one Compute call. Nothing from the failed call is
// returned.
type ComputeError struct {
	Phase    Phase
	Design   string
	Material string
	Err      error
}

func (e *ComputeError) Error() string {
	msg := fmt.Sprintf("compute %s design=%q", e.Phase, e.Design)
	if e.Material != "" {
		msg += fmt.Sprintf(" material=%q", e.Material)
	}
	return msg + ": " + e.Err.Error()
}

func (e *ComputeError) Unwrap() error { return e.Err }
