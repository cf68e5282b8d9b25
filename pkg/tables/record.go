package tables

// Canonical identity column names. Source-specific log number columns are
// renamed to ColLogNumber by the loader before the core ever sees them.
const (
	ColStudy     = "study"
	ColLogNumber = "log_number"
	ColUniqueID  = "unique_id"
)

// Key is the identity of one sampling event: a study plus the
// study-scoped log number. Log numbers are unique within a study but
// not globally.
type Key struct {
	Study     string
	LogNumber string
}

// UniqueID derives the globally unique identifier for this key.
func (k Key) UniqueID() string {
	return k.Study + "_" + k.LogNumber
}

// String returns the same form as UniqueID for log and error output.
func (k Key) String() string {
	return k.UniqueID()
}

// Record is one row of a source or reconciled table. A missing entry and
// an entry holding nil both read as null.
type Record map[string]any

// NewRecord creates a record with its identity fields set.
func NewRecord(study, logNumber string) Record {
	return Record{
		ColStudy:     study,
		ColLogNumber: logNumber,
	}
}

// Key returns the record's identity key.
func (r Record) Key() Key {
	return Key{Study: Str(r[ColStudy]), LogNumber: Str(r[ColLogNumber])}
}

// Get returns the value for a column, nil when absent.
func (r Record) Get(column string) any {
	return r[column]
}

// Set assigns a column value.
func (r Record) Set(column string, v any) {
	r[column] = v
}

// Null reports whether the column is null or absent on this record.
func (r Record) Null(column string) bool {
	return IsNull(r[column])
}

// Clone returns an independent copy of the record. Donor transfer during
// duplicate resolution always works on clones so that no two surviving
// rows alias the same map.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for column, v := range r {
		out[column] = v
	}
	return out
}

// Fill copies every non-null donor value into this record's null
// columns. Non-null values on the receiver are never overwritten, so a
// donor can only complete a partial row, not change it.
func (r Record) Fill(donor Record) {
	for column, v := range donor {
		if IsNull(v) {
			continue
		}
		if r.Null(column) {
			r[column] = v
		}
	}
}
