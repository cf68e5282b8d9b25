// Package dietmatrix reconciles heterogeneous survey datasets from two
// independent research programs into one canonical tabular dataset. Per
// program, a diet log and an empties table form the primary record set;
// a presence/absence categorization contributes secondary partial rows.
// The pipeline outer-joins the two sides per program, resolves the
// duplicate rows the join produces, unions the reconciled programs into
// the final matrix, and applies temporal validity windows so that counts
// outside a category's tracked span read as unknown rather than zero.
//
// Stage order is a hard contract: join, duplicate resolution, zero
// defaulting, flag conversion, then masking. Reordering changes the
// meaning of nulls versus zeros in the output.
package dietmatrix

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pelagiclab/dietmatrix/pkg/errors"
	"github.com/pelagiclab/dietmatrix/pkg/logging"
	"github.com/pelagiclab/dietmatrix/pkg/mask"
	"github.com/pelagiclab/dietmatrix/pkg/matrix"
	"github.com/pelagiclab/dietmatrix/pkg/reconcile"
	"github.com/pelagiclab/dietmatrix/pkg/tables"
)

// originColumn is the internal flag naming which side of the join a row
// came from. It exists only between join and resolution and never
// reaches the output matrix.
const originColumn = "_origin"

// originDiet marks rows from the diet/empties side, originPresence rows
// from the presence/absence side.
const (
	originDiet     = "diet"
	originPresence = "presence"
)

// Source bundles one research program's raw tables. Diet is required;
// Empties and Presence may be nil when the program has no such table.
type Source struct {
	// Study is the program identifier stamped on every record.
	Study string

	// Diet holds one record per specimen with stomach contents.
	Diet *tables.Table

	// Empties holds one record per specimen with an empty stomach.
	Empties *tables.Table

	// Presence holds the presence/absence categorization rows, keyed by
	// the same study-scoped log numbers.
	Presence *tables.Table
}

// Pipeline reconciles the configured sources into the final matrix.
type Pipeline interface {
	// Run executes the full reconciliation and returns the assembled
	// matrix with collected warnings. Integrity violations abort the
	// run; there is no partial output.
	Run(ctx context.Context) (*Result, error)
}

// pipeline is the default Pipeline implementation.
type pipeline struct {
	config *config
}

// New creates a Pipeline with the given options. At least one source
// must be configured.
func New(opts ...Option) (Pipeline, error) {
	config, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	if len(config.sources) == 0 {
		return nil, errors.NewValidationError("sources", nil, "at least one source required")
	}
	return &pipeline{config: config}, nil
}

// Run executes the fixed stage sequence over all configured sources.
func (p *pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	log := logging.FromContext(ctx)

	result := &Result{
		Metadata: Metadata{StartTime: start},
	}

	reconciled := make([]*tables.Table, 0, len(p.config.sources))
	for _, src := range p.config.sources {
		t, warnings, err := p.reconcileSource(ctx, src)
		if err != nil {
			return nil, err
		}
		result.JoinWarnings = append(result.JoinWarnings, warnings...)
		reconciled = append(reconciled, t)
	}

	assembler, err := matrix.NewAssembler(p.config.matrix)
	if err != nil {
		return nil, err
	}
	m, err := assembler.Assemble(reconciled...)
	if err != nil {
		return nil, err
	}

	// Masking runs strictly after defaulting: a masked cell means "never
	// counted" and must not be refilled with zero.
	masked, err := mask.Apply(m, p.config.windows)
	if err != nil {
		return nil, err
	}

	result.Matrix = m
	result.Audit = matrix.Audit(m, p.config.audit)
	result.Metadata.EndTime = time.Now()
	result.Metadata.Duration = result.Metadata.EndTime.Sub(start)
	result.Metadata.Stats = Statistics{
		Sources:       len(p.config.sources),
		Rows:          m.Len(),
		Columns:       len(m.Schema.Columns()),
		CellsMasked:   masked,
		SumMismatches: len(result.Audit.SumMismatches),
	}

	log.Info().
		Int("rows", m.Len()).
		Int("cells_masked", masked).
		Int("join_warnings", len(result.JoinWarnings)).
		Int("sum_mismatches", len(result.Audit.SumMismatches)).
		Dur("duration", result.Metadata.Duration).
		Msg("Reconciliation complete")

	return result, nil
}

// reconcileSource joins one program's diet/empties side with its
// presence side and resolves the duplicate rows the join produced.
func (p *pipeline) reconcileSource(ctx context.Context, src Source) (*tables.Table, []reconcile.CardinalityWarning, error) {
	log := logging.FromContext(ctx)

	primary, err := p.primarySide(src)
	if err != nil {
		return nil, nil, err
	}

	if src.Presence == nil {
		stripOrigin(primary)
		return primary, nil, nil
	}

	secondary := stamp(src.Presence, src.Study, originPresence)
	if err := secondary.ValidateIdentity(); err != nil {
		return nil, nil, err
	}
	p.warnInputDuplicates(log, secondary)

	joined, warning := reconcile.Join(primary, secondary, reconcile.JoinOptions{
		Name: src.Study + "_reconciled",
		Fill: p.config.fill,
	})
	var warnings []reconcile.CardinalityWarning
	if warning != nil {
		warnings = append(warnings, *warning)
	}

	resolver := reconcile.NewResolver(reconcile.FromTable(originColumn, originDiet))
	resolved, err := resolver.Resolve(joined)
	if err != nil {
		return nil, nil, err
	}

	stripOrigin(resolved)
	return resolved, warnings, nil
}

// primarySide concatenates the diet and empties tables into the primary
// record set for one program.
func (p *pipeline) primarySide(src Source) (*tables.Table, error) {
	if src.Diet == nil {
		return nil, errors.NewValidationError("diet", nil, "source "+src.Study+" has no diet table")
	}

	primary := stamp(src.Diet, src.Study, originDiet)
	if src.Empties != nil {
		empties := stamp(src.Empties, src.Study, originDiet)
		primary.Schema = primary.Schema.Union(empties.Schema)
		primary.Append(empties.Records...)
	}

	if err := primary.ValidateIdentity(); err != nil {
		return nil, err
	}
	p.warnInputDuplicates(logging.Default(), primary)
	return primary, nil
}

// warnInputDuplicates reports repeated keys inside a single input.
// Joining such a table inflates cardinality, which the join itself then
// surfaces as a warning.
func (p *pipeline) warnInputDuplicates(log *zerolog.Logger, t *tables.Table) {
	if dups := t.DuplicateKeys(); len(dups) > 0 {
		log.Warn().
			Str("table", t.Name).
			Int("duplicate_keys", len(dups)).
			Str("first", dups[0].UniqueID()).
			Msg("Input table has duplicate identity keys")
	}
}

// stamp clones a table, sets the study on every record, zero-pads log
// numbers to the configured width, and marks each row's join origin.
func stamp(t *tables.Table, study, origin string) *tables.Table {
	out := t.Clone()
	for _, r := range out.Records {
		r.Set(tables.ColStudy, study)
		r.Set(tables.ColLogNumber, tables.PadLogNumber(tables.Str(r.Get(tables.ColLogNumber)), logNumberWidth))
		r.Set(originColumn, origin)
	}
	return out
}

// stripOrigin removes the internal origin flag after resolution.
func stripOrigin(t *tables.Table) {
	for _, r := range t.Records {
		delete(r, originColumn)
	}
}

// logNumberWidth is the fixed width log numbers are zero-padded to.
const logNumberWidth = 4
