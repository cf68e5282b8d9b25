package tables

import (
	"slices"
	"sort"
)

// Schema is the explicit ordered column structure of a table. Identity
// and metadata columns keep their configured order; measurement columns
// are kept sorted lexicographically. The final matrix column order is
// always identity columns followed by measurement columns.
type Schema struct {
	// Identity holds the fixed enumerated identity/metadata columns
	// (study, log number, date, station, morphometrics, summary counts)
	// in their canonical output order.
	Identity []string

	// Measurements holds the open-ended per-prey-category count and
	// weight columns, sorted lexicographically.
	Measurements []string
}

// NewSchema builds a schema, sorting the measurement columns.
func NewSchema(identity, measurements []string) Schema {
	s := Schema{
		Identity:     slices.Clone(identity),
		Measurements: slices.Clone(measurements),
	}
	sort.Strings(s.Measurements)
	return s
}

// Columns returns all column names in output order.
func (s Schema) Columns() []string {
	out := make([]string, 0, len(s.Identity)+len(s.Measurements))
	out = append(out, s.Identity...)
	out = append(out, s.Measurements...)
	return out
}

// HasColumn reports whether the column appears anywhere in the schema.
func (s Schema) HasColumn(column string) bool {
	return slices.Contains(s.Identity, column) || slices.Contains(s.Measurements, column)
}

// HasMeasurement reports whether the column is a measurement column.
func (s Schema) HasMeasurement(column string) bool {
	return slices.Contains(s.Measurements, column)
}

// Union merges another schema into this one. Identity columns keep the
// receiver's order with unseen columns from other appended; measurement
// columns are re-sorted. Union is order-insensitive over measurements:
// Union(a, b) and Union(b, a) produce the same measurement list.
func (s Schema) Union(other Schema) Schema {
	identity := slices.Clone(s.Identity)
	for _, column := range other.Identity {
		if !slices.Contains(identity, column) {
			identity = append(identity, column)
		}
	}

	measurements := slices.Clone(s.Measurements)
	for _, column := range other.Measurements {
		if !slices.Contains(measurements, column) {
			measurements = append(measurements, column)
		}
	}
	sort.Strings(measurements)

	return Schema{Identity: identity, Measurements: measurements}
}
