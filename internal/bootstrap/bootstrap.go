// Package bootstrap brings the process from "just started" to "application
// server listening": report diagnostics, warm the sentinel caches when they
// are missing, then hand control to the long-running server.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Status values used in Result and PhaseResult.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Policy selects how the runner reacts to a phase failure.
type Policy int

const (
	// Continue logs the failure and proceeds to the next phase (fail-open).
	Continue Policy = iota
	// Abort stops the run and propagates the failure (fail-closed).
	Abort
)

func (p Policy) String() string {
	if p == Abort {
		return "abort"
	}
	return "continue"
}

// ErrSkipped can be wrapped by a phase to record that it did no work.
// It is not treated as a failure.
type skipError struct{ reason string }

func (e *skipError) Error() string { return e.reason }

// Skip returns an error value that marks the phase as skipped rather than
// failed.
func Skip(reason string) error { return &skipError{reason: reason} }

// Phase is a single startup step with an explicit failure policy.
type Phase struct {
	Name   string
	Policy Policy
	Run    func(ctx context.Context) error
}

// PhaseResult is the recorded outcome of one phase.
type PhaseResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Result is the aggregate outcome of a startup run.
type Result struct {
	Status string        `json:"status"`
	Phases []PhaseResult `json:"phases"`
}

// Runner executes phases strictly in order. No phase is ever revisited and
// nothing is retried.
type Runner struct {
	phases []Phase
}

// NewRunner constructs a Runner over the given phases.
func NewRunner(phases ...Phase) *Runner {
	return &Runner{phases: phases}
}

// Run executes every phase in order. A failing Continue phase logs a warning
// and the run proceeds; a failing Abort phase stops the run and its error is
// returned along with the partial result.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		Status: StatusOK,
		Phases: make([]PhaseResult, 0, len(r.phases)),
	}

	for _, phase := range r.phases {
		err := phase.Run(ctx)

		switch {
		case err == nil:
			result.Phases = append(result.Phases, PhaseResult{Name: phase.Name, Status: StatusOK})
			slog.InfoContext(ctx, "startup phase ok", "phase", phase.Name)

		case isSkip(err):
			result.Phases = append(result.Phases, PhaseResult{Name: phase.Name, Status: StatusSkipped})
			slog.InfoContext(ctx, "startup phase skipped", "phase", phase.Name, "reason", err.Error())

		case phase.Policy == Continue:
			result.Phases = append(result.Phases, PhaseResult{Name: phase.Name, Status: StatusError, Error: err.Error()})
			result.Status = StatusError
			slog.WarnContext(ctx, "startup phase failed — continuing", "phase", phase.Name, "error", err)

		default: // Abort
			result.Phases = append(result.Phases, PhaseResult{Name: phase.Name, Status: StatusError, Error: err.Error()})
			result.Status = StatusError
			return result, fmt.Errorf("startup phase %s: %w", phase.Name, err)
		}
	}

	return result, nil
}

func isSkip(err error) bool {
	var s *skipError
	return errors.As(err, &s)
}
