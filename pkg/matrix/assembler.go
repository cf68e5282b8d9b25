// Package matrix assembles reconciled per-source tables into the final
// canonical dataset: one row per specimen across both programs, with
// null-to-zero defaulting for measurement columns, symbolic
// presence/absence flags, and a globally unique identifier per row.
package matrix

import (
	"github.com/pelagiclab/dietmatrix/pkg/errors"
	"github.com/pelagiclab/dietmatrix/pkg/logging"
	"github.com/pelagiclab/dietmatrix/pkg/tables"
)

// Config describes the shape of the final matrix.
type Config struct {
	// Name of the output table.
	Name string

	// Identity is the fixed output order of identity/metadata columns.
	// Every source table's identity columns must appear here.
	Identity []string

	// Flags lists the presence/absence indicator columns converted from
	// their raw binary numeric domain to {present, absent}. Null reads
	// as absent.
	Flags []string

	// Summary lists the summary numeric columns (total prey count, gut
	// fullness, total prey weight). They default null to 0 with an
	// explicit "missing counts as zero" meaning: an empty stomach that
	// was never weighed still contributes a zero total, which is what
	// the sum invariant over measurement columns relies on.
	Summary []string
}

// Assembler unions reconciled source tables into the final matrix.
type Assembler struct {
	config Config
}

// NewAssembler creates an assembler for the given matrix shape.
func NewAssembler(config Config) (*Assembler, error) {
	if len(config.Identity) == 0 {
		return nil, errors.NewValidationError("identity", config.Identity, "cannot be empty")
	}
	if config.Name == "" {
		config.Name = "matrix"
	}
	return &Assembler{config: config}, nil
}

// Assemble row-concatenates the reconciled source tables, applies the
// defaulting and flag conversion rules, derives the unique identifier
// column, and orders columns as [identity, fixed order] followed by
// [measurements, lexicographic].
//
// Stage order inside Assemble is a contract, not an implementation
// detail: measurement and summary defaulting run before flag
// conversion, and temporal masking (a separate, later pipeline stage)
// must run after Assemble so that a masked null is never re-defaulted
// to zero.
func (a *Assembler) Assemble(sources ...*tables.Table) (*tables.Table, error) {
	if len(sources) == 0 {
		return nil, errors.NewValidationError("sources", nil, "at least one source table required")
	}

	schema, err := a.unionSchema(sources)
	if err != nil {
		return nil, err
	}

	out := tables.New(a.config.Name, schema)
	for _, src := range sources {
		for _, r := range src.Records {
			out.Append(r.Clone())
		}
	}

	a.defaultMeasurements(out)
	a.defaultSummary(out)
	a.convertFlags(out)

	if err := a.assignUniqueIDs(out); err != nil {
		return nil, err
	}

	logging.Info().
		Str("table", out.Name).
		Int("rows", out.Len()).
		Int("columns", len(schema.Columns())).
		Int("sources", len(sources)).
		Msg("Assembled matrix")

	return out, nil
}

// unionSchema builds the final schema: the configured identity order
// plus the union of every source's measurement columns. A source
// carrying an identity column outside the configured set cannot be
// aligned and is a schema mismatch.
func (a *Assembler) unionSchema(sources []*tables.Table) (tables.Schema, error) {
	final := tables.NewSchema(a.config.Identity, nil)
	for _, src := range sources {
		var missing []string
		for _, column := range src.Schema.Identity {
			if !final.HasColumn(column) {
				missing = append(missing, column)
			}
		}
		if len(missing) > 0 {
			return tables.Schema{}, errors.NewSchemaMismatchError(src.Name, missing...)
		}
		final = final.Union(tables.NewSchema(nil, src.Schema.Measurements))
	}
	return final, nil
}

// defaultMeasurements applies the table-wide null-to-zero rule for
// measurement columns. A specimen absent from a source contributed zero
// counts, and per-source columns another program never recorded read as
// zero until temporal masking says otherwise.
func (a *Assembler) defaultMeasurements(t *tables.Table) {
	for _, r := range t.Records {
		for _, column := range t.Schema.Measurements {
			if r.Null(column) {
				r.Set(column, 0.0)
			}
		}
	}
}

// defaultSummary zero-fills the summary numeric columns.
func (a *Assembler) defaultSummary(t *tables.Table) {
	for _, r := range t.Records {
		for _, column := range a.config.Summary {
			if r.Null(column) {
				r.Set(column, 0.0)
			}
		}
	}
}

// convertFlags rewrites each flag column from its binary numeric domain
// to the symbolic {present, absent} domain. Null reads as absent, as
// does zero; any other numeric value reads as present. Values already
// converted pass through, so conversion is idempotent.
func (a *Assembler) convertFlags(t *tables.Table) {
	for _, r := range t.Records {
		for _, column := range a.config.Flags {
			v := r.Get(column)
			switch {
			case tables.IsNull(v):
				r.Set(column, tables.FlagAbsent)
			case v == tables.FlagPresent || v == tables.FlagAbsent:
				// already symbolic
			default:
				if n, ok := tables.Num(v); ok && n != 0 {
					r.Set(column, tables.FlagPresent)
				} else {
					r.Set(column, tables.FlagAbsent)
				}
			}
		}
	}
}

// assignUniqueIDs derives study_logNumber for every row and verifies it
// is injective over the matrix. A collision after reconciliation means
// duplicate resolution failed upstream and the run must abort.
func (a *Assembler) assignUniqueIDs(t *tables.Table) error {
	seen := make(map[string]bool, t.Len())
	var dups []string
	for _, r := range t.Records {
		id := r.Key().UniqueID()
		r.Set(tables.ColUniqueID, id)
		if seen[id] {
			dups = append(dups, id)
		}
		seen[id] = true
	}
	if len(dups) > 0 {
		return errors.NewDuplicateIdentityError(t.Name, dups)
	}
	return nil
}
