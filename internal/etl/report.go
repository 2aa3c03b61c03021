package etl

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// StepResult is the outcome of one pipeline step: the rows it reconciled, or
// why it failed. A failed step never prevents later steps from running.
type StepResult struct {
	Name string
	Rows int
	Err  error
}

func (r StepResult) Failed() bool {
	return r.Err != nil
}

// Report aggregates a full pipeline pass.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Steps      []StepResult
}

// Err combines every step failure into one error, or nil when the whole run
// succeeded.
func (r *Report) Err() error {
	var combined error
	for _, step := range r.Steps {
		if step.Err != nil {
			combined = multierr.Append(combined, fmt.Errorf("%s: %w", step.Name, step.Err))
		}
	}
	return combined
}

// TotalRows sums the reconciled row counts across steps.
func (r *Report) TotalRows() int {
	total := 0
	for _, step := range r.Steps {
		total += step.Rows
	}
	return total
}

// Summary renders a one-line human-readable completion message.
func (r *Report) Summary() string {
	var failed []string
	for _, step := range r.Steps {
		if step.Failed() {
			failed = append(failed, step.Name)
		}
	}

	elapsed := r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond)
	if len(failed) == 0 {
		return fmt.Sprintf("all %d steps completed, %d rows reconciled in %s",
			len(r.Steps), r.TotalRows(), elapsed)
	}
	return fmt.Sprintf("%d of %d steps failed (%s), %d rows reconciled in %s",
		len(failed), len(r.Steps), strings.Join(failed, ", "), r.TotalRows(), elapsed)
}
