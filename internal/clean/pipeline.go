// Package clean implements the fixed data-cleaning pipeline:
// impute -> deduplicate -> clip outliers -> scale -> one-hot encode.
package clean

import (
	"fmt"

	"github.com/CleanSheetLabs/cleansheet/internal/table"
)

// Step is one pipeline stage. Apply mutates the table in place and reports
// what it changed.
type Step interface {
	Name() string
	Apply(t *table.Table) (StepReport, error)
}

// StepReport records the effect of a single step.
type StepReport struct {
	Step string `json:"step"`
	// RowsRemoved is set by the deduplicate step.
	RowsRemoved int `json:"rows_removed,omitempty"`
	// CellsChanged counts modified cells per column (imputed or clipped).
	CellsChanged map[string]int `json:"cells_changed,omitempty"`
	// Columns lists columns the step touched (scaled, encoded or added).
	Columns []string `json:"columns,omitempty"`
	// Notes carries human-readable caveats, e.g. all-missing columns.
	Notes []string `json:"notes,omitempty"`
}

// Report aggregates the whole pipeline run.
type Report struct {
	Steps      []StepReport `json:"steps"`
	RowsBefore int          `json:"rows_before"`
	RowsAfter  int          `json:"rows_after"`
	ColsBefore int          `json:"cols_before"`
	ColsAfter  int          `json:"cols_after"`
}

// Options tunes individual steps without changing the step order.
type Options struct {
	// IQRFactor is the whisker multiplier for outlier bounds (default 1.5).
	IQRFactor float64
}

// DefaultOptions returns the standard pipeline tuning.
func DefaultOptions() Options {
	return Options{IQRFactor: 1.5}
}

// Pipeline is an ordered list of steps.
type Pipeline struct {
	steps []Step
}

// NewPipeline builds the standard pipeline in its fixed order.
func NewPipeline(opt Options) *Pipeline {
	if opt.IQRFactor <= 0 {
		opt.IQRFactor = 1.5
	}
	return &Pipeline{steps: []Step{
		imputeStep{},
		dedupeStep{},
		clipOutliersStep{factor: opt.IQRFactor},
		scaleStep{},
		encodeStep{},
		restoreIntegersStep{},
	}}
}

// Run applies every step in order. The input table is mutated.
func (p *Pipeline) Run(t *table.Table) (*Report, error) {
	rep := &Report{}
	rep.RowsBefore, rep.ColsBefore = t.Shape()
	for _, s := range p.steps {
		sr, err := s.Apply(t)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", s.Name(), err)
		}
		sr.Step = s.Name()
		rep.Steps = append(rep.Steps, sr)
	}
	rep.RowsAfter, rep.ColsAfter = t.Shape()
	return rep, nil
}
