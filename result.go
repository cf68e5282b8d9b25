package dietmatrix

import (
	"fmt"
	"time"

	"github.com/pelagiclab/dietmatrix/pkg/matrix"
	"github.com/pelagiclab/dietmatrix/pkg/reconcile"
	"github.com/pelagiclab/dietmatrix/pkg/tables"
)

// Result is the outcome of one pipeline run: the assembled matrix plus
// everything collected for external review. Warnings never abort a run;
// integrity errors do and produce no Result at all.
type Result struct {
	// Matrix is the final reconciled dataset, one row per specimen.
	Matrix *tables.Table

	// JoinWarnings lists joins whose output exceeded both inputs.
	JoinWarnings []reconcile.CardinalityWarning

	// Audit holds the row-level QA findings over the final matrix.
	Audit matrix.AuditReport

	// Metadata describes the run itself.
	Metadata Metadata
}

// Metadata describes one pipeline run.
type Metadata struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Stats     Statistics
}

// Statistics summarizes the run's shape.
type Statistics struct {
	Sources       int
	Rows          int
	Columns       int
	CellsMasked   int
	SumMismatches int
}

// Clean reports whether the run produced nothing needing review.
func (r *Result) Clean() bool {
	return len(r.JoinWarnings) == 0 && r.Audit.Clean()
}

// Summary returns a human-readable description of the run.
func (r *Result) Summary() string {
	s := fmt.Sprintf("Reconciled %d sources into %d rows x %d columns in %s",
		r.Metadata.Stats.Sources, r.Metadata.Stats.Rows,
		r.Metadata.Stats.Columns, r.Metadata.Duration.Round(time.Millisecond))
	if r.Clean() {
		return s + ". No warnings."
	}
	return fmt.Sprintf("%s. %d join warnings, %d sum mismatches, %d empty-gut violations for review.",
		s, len(r.JoinWarnings), len(r.Audit.SumMismatches), len(r.Audit.EmptyGuts))
}
