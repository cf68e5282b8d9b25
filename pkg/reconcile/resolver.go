package reconcile

import (
	"github.com/pelagiclab/dietmatrix/pkg/errors"
	"github.com/pelagiclab/dietmatrix/pkg/logging"
	"github.com/pelagiclab/dietmatrix/pkg/tables"
)

// Discriminator selects the primary row among duplicates sharing an
// identity key. It returns true for the row that should survive, e.g.
// "this row came from the diet/empties side of the join".
type Discriminator func(tables.Record) bool

// FromTable returns a discriminator matching rows whose origin flag
// column equals the given table name. The loader stamps every source
// record with its origin under the flag column.
func FromTable(flagColumn, name string) Discriminator {
	return func(r tables.Record) bool {
		return tables.Str(r.Get(flagColumn)) == name
	}
}

// NonNull returns a discriminator matching rows with a non-null value in
// the given column. Useful when the primary side is recognizable by a
// field only it records, such as total prey count.
func NonNull(column string) Discriminator {
	return func(r tables.Record) bool {
		return !r.Null(column)
	}
}

// Resolver collapses rows sharing an identity key into one surviving
// record per key by transferring non-null donor values into the
// primary's null fields.
type Resolver struct {
	primary Discriminator
}

// NewResolver creates a resolver using the given discriminator to pick
// the primary row among duplicates.
func NewResolver(primary Discriminator) *Resolver {
	return &Resolver{primary: primary}
}

// Resolve returns a new table with exactly one record per identity key.
//
// Keys with a single row pass through unchanged. For a key with
// multiple rows, the first row the discriminator accepts becomes the
// primary; every other row is a donor. Donors are folded into a clone
// of the primary in input order, and each donor fills only fields still
// null on the accumulating record. With several donors supplying
// non-null values for the same field, the earliest donor in input order
// wins; later donors never overwrite. Donor rows are discarded.
//
// If no discriminator matches any row for a key, or duplicates remain
// for any other reason, Resolve reports a DuplicateIdentityError naming
// the offending keys. Resolving an already-resolved table is a no-op.
func (rv *Resolver) Resolve(t *tables.Table) (*tables.Table, error) {
	groups := make(map[tables.Key][]tables.Record, t.Len())
	order := make([]tables.Key, 0, t.Len())
	for _, r := range t.Records {
		k := r.Key()
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	out := tables.New(t.Name, t.Schema)
	var unresolved []string
	merged := 0

	for _, k := range order {
		rows := groups[k]
		if len(rows) == 1 {
			out.Append(rows[0].Clone())
			continue
		}

		primary, donors := rv.split(rows)
		if primary == nil {
			unresolved = append(unresolved, k.UniqueID())
			// Keep the rows so the caller sees the failure shape.
			for _, r := range rows {
				out.Append(r.Clone())
			}
			continue
		}

		survivor := primary.Clone()
		for _, donor := range donors {
			survivor.Fill(donor)
		}
		out.Append(survivor)
		merged += len(donors)
	}

	if len(unresolved) > 0 {
		return out, errors.NewDuplicateIdentityError(t.Name, unresolved)
	}

	if merged > 0 {
		logging.Info().
			Str("table", t.Name).
			Int("input_rows", t.Len()).
			Int("output_rows", out.Len()).
			Int("donors_merged", merged).
			Msg("Resolved duplicate identity keys")
	}

	return out, nil
}

// split partitions a duplicate group into the primary row and its
// donors, preserving input order among the donors.
func (rv *Resolver) split(rows []tables.Record) (tables.Record, []tables.Record) {
	primaryIdx := -1
	for i, r := range rows {
		if rv.primary(r) {
			primaryIdx = i
			break
		}
	}
	if primaryIdx < 0 {
		return nil, nil
	}

	donors := make([]tables.Record, 0, len(rows)-1)
	for i, r := range rows {
		if i != primaryIdx {
			donors = append(donors, r)
		}
	}
	return rows[primaryIdx], donors
}
