package tables

import (
	"github.com/pelagiclab/dietmatrix/pkg/errors"
)

// Table is a named, ordered collection of records from one research
// program. Source tables are read-only inputs to the pipeline; derived
// tables are built fresh each run.
type Table struct {
	Name    string
	Schema  Schema
	Records []Record
}

// New creates an empty table with the given name and schema.
func New(name string, schema Schema) *Table {
	return &Table{Name: name, Schema: schema}
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Records)
}

// Append adds records to the table.
func (t *Table) Append(records ...Record) {
	t.Records = append(t.Records, records...)
}

// Keys returns the identity key of every record, in row order.
func (t *Table) Keys() []Key {
	keys := make([]Key, len(t.Records))
	for i, r := range t.Records {
		keys[i] = r.Key()
	}
	return keys
}

// DuplicateKeys returns identity keys that appear on more than one
// record, in first-seen order.
func (t *Table) DuplicateKeys() []Key {
	seen := make(map[Key]int, len(t.Records))
	var dups []Key
	for _, r := range t.Records {
		k := r.Key()
		seen[k]++
		if seen[k] == 2 {
			dups = append(dups, k)
		}
	}
	return dups
}

// ValidateIdentity checks that every record carries a non-null study and
// log number. A table that fails this check cannot be joined.
func (t *Table) ValidateIdentity() error {
	for _, r := range t.Records {
		var missing []string
		if r.Null(ColStudy) {
			missing = append(missing, ColStudy)
		}
		if r.Null(ColLogNumber) {
			missing = append(missing, ColLogNumber)
		}
		if len(missing) > 0 {
			return errors.NewSchemaMismatchError(t.Name, missing...)
		}
	}
	return nil
}

// Clone returns a deep copy of the table. The pipeline clones its inputs
// so source tables stay untouched across a run.
func (t *Table) Clone() *Table {
	out := &Table{
		Name:    t.Name,
		Schema:  NewSchema(t.Schema.Identity, t.Schema.Measurements),
		Records: make([]Record, len(t.Records)),
	}
	for i, r := range t.Records {
		out.Records[i] = r.Clone()
	}
	return out
}
