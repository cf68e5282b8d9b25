// Package reconcile implements the record reconciliation engine: a full
// outer join over two source tables keyed by sampling identity, followed
// by duplicate resolution that collapses partial rows sharing a key into
// one record per specimen.
package reconcile

import (
	"fmt"

	"github.com/pelagiclab/dietmatrix/pkg/logging"
	"github.com/pelagiclab/dietmatrix/pkg/tables"
)

// JoinOptions configures an outer join.
type JoinOptions struct {
	// Name is the name given to the joined table. Defaults to
	// "primary+secondary" when empty.
	Name string

	// Fill is assigned to measurement columns that exist only in the
	// other side's schema on rows with no match there. A zero Fill
	// encodes "specimen not in this source, so it contributed zero
	// counts", which is distinct from null ("value not measured").
	// Leave nil to keep unmatched columns null.
	Fill any
}

// CardinalityWarning reports a join whose output has more rows than
// either input. Legitimate partial overlaps produce this shape, so it is
// surfaced for manual inspection rather than raised as an error.
type CardinalityWarning struct {
	Table     string
	Primary   int
	Secondary int
	Output    int
}

// String returns a human-readable description of the warning.
func (w CardinalityWarning) String() string {
	return fmt.Sprintf("join %s produced %d rows from %d primary and %d secondary rows",
		w.Table, w.Output, w.Primary, w.Secondary)
}

// Join performs a full outer join of primary and secondary on the
// sampling identity key. Matching rows merge field-wise with the primary
// side's non-null values preferred; unmatched rows from either side pass
// through projected to the union of both schemas. No row from either
// input is ever dropped.
//
// Callers are expected to validate key uniqueness per input first; when
// a key repeats on one side every pairing is emitted, and the resulting
// row growth is reported as a CardinalityWarning.
func Join(primary, secondary *tables.Table, opts JoinOptions) (*tables.Table, *CardinalityWarning) {
	name := opts.Name
	if name == "" {
		name = primary.Name + "+" + secondary.Name
	}

	schema := primary.Schema.Union(secondary.Schema)
	out := tables.New(name, schema)

	// Index the secondary side by key, preserving row order per key.
	byKey := make(map[tables.Key][]tables.Record, secondary.Len())
	for _, r := range secondary.Records {
		k := r.Key()
		byKey[k] = append(byKey[k], r)
	}

	matched := make(map[tables.Key]bool, secondary.Len())
	for _, p := range primary.Records {
		k := p.Key()
		partners, ok := byKey[k]
		if !ok {
			out.Append(project(p, primary.Schema, secondary.Schema, opts.Fill))
			continue
		}
		matched[k] = true
		for _, s := range partners {
			merged := p.Clone()
			merged.Fill(s)
			out.Append(merged)
		}
	}

	// Unmatched secondary rows, in input order.
	for _, s := range secondary.Records {
		if !matched[s.Key()] {
			out.Append(project(s, secondary.Schema, primary.Schema, opts.Fill))
		}
	}

	var warning *CardinalityWarning
	if out.Len() > primary.Len() && out.Len() > secondary.Len() {
		warning = &CardinalityWarning{
			Table:     name,
			Primary:   primary.Len(),
			Secondary: secondary.Len(),
			Output:    out.Len(),
		}
		logging.Warn().
			Str("table", name).
			Int("primary_rows", primary.Len()).
			Int("secondary_rows", secondary.Len()).
			Int("output_rows", out.Len()).
			Msg("Join produced more rows than either input")
	}

	return out, warning
}

// project clones an unmatched row and fills measurement columns that
// exist only in the other side's schema with the configured default.
// Identity and metadata columns from the other schema stay null:
// absence of a specimen from a source says nothing about its station or
// morphometrics, and the row's own null measurements stay null too.
func project(r tables.Record, own, other tables.Schema, fill any) tables.Record {
	out := r.Clone()
	if fill == nil {
		return out
	}
	for _, column := range other.Measurements {
		if !own.HasMeasurement(column) && out.Null(column) {
			out.Set(column, fill)
		}
	}
	return out
}
