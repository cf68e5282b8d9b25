// Package csvio is the collaborator-owned glue around the reconciliation
// core: it parses source spreadsheets exported as CSV into tables,
// normalizes column names, renames each study's log-number column to the
// canonical name, and writes the final matrix back out. The core itself
// never touches files.
package csvio

import (
	"encoding/csv"
	"os"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pelagiclab/dietmatrix/pkg/errors"
	"github.com/pelagiclab/dietmatrix/pkg/logging"
	"github.com/pelagiclab/dietmatrix/pkg/tables"
)

// naStrings are cell values that read as null in source spreadsheets.
var naStrings = map[string]bool{"": true, "na": true, "n/a": true, "null": true}

// lower folds header text to lower case.
var lower = cases.Lower(language.English)

// ReadOptions configures how one source CSV becomes a table.
type ReadOptions struct {
	// Name is the table name used in logs and errors. Defaults to the
	// file path.
	Name string

	// LogColumn is the study-specific log-number column name, renamed
	// to the canonical log_number during the read. Already-canonical
	// files may leave it empty.
	LogColumn string

	// Required lists columns (after renaming) that must be present.
	// Missing columns are a SchemaMismatchError.
	Required []string

	// Identity lists the columns classified as identity/metadata when
	// present. Columns outside this set become measurement columns.
	Identity []string
}

// ReadTable parses a source CSV into a table. Headers are normalized to
// lower_snake_case, the study-specific log column is renamed, numeric
// cells become float64, and NA-style cells become null.
func ReadTable(path string, opts ReadOptions) (*tables.Table, error) {
	name := opts.Name
	if name == "" {
		name = path
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WrapIO("parse", path, err)
	}
	if len(rows) == 0 {
		return nil, errors.NewSchemaMismatchError(name, "header row")
	}

	columns := normalizeHeader(rows[0], opts.LogColumn)

	var missing []string
	for _, column := range opts.Required {
		if !slices.Contains(columns, column) {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewSchemaMismatchError(name, missing...)
	}

	var identity, measurements []string
	for _, column := range columns {
		if slices.Contains(opts.Identity, column) {
			identity = append(identity, column)
		} else {
			measurements = append(measurements, column)
		}
	}

	t := tables.New(name, tables.NewSchema(identity, measurements))
	for _, row := range rows[1:] {
		r := make(tables.Record, len(columns))
		for i, column := range columns {
			if i >= len(row) {
				break
			}
			r.Set(column, parseCell(row[i]))
		}
		t.Append(r)
	}

	logging.Debug().
		Str("path", path).
		Str("table", name).
		Int("rows", t.Len()).
		Int("columns", len(columns)).
		Msg("Read source table")

	return t, nil
}

// normalizeHeader folds headers to lower_snake_case and renames the
// study-specific log column to the canonical name.
func normalizeHeader(header []string, logColumn string) []string {
	canonical := normalizeName(logColumn)
	out := make([]string, len(header))
	for i, h := range header {
		n := normalizeName(h)
		if canonical != "" && n == canonical {
			n = tables.ColLogNumber
		}
		out[i] = n
	}
	return out
}

// normalizeName folds one column name to lower_snake_case.
func normalizeName(name string) string {
	n := lower.String(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, " ", "_")
	n = strings.ReplaceAll(n, "-", "_")
	n = strings.ReplaceAll(n, ".", "_")
	return n
}

// parseCell converts one CSV cell to its typed value: null for NA-style
// cells, float64 for numerics, string otherwise.
func parseCell(cell string) any {
	trimmed := strings.TrimSpace(cell)
	if naStrings[strings.ToLower(trimmed)] {
		return nil
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return trimmed
}
