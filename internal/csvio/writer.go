package csvio

import (
	"encoding/csv"
	"os"
	"slices"

	"github.com/pelagiclab/dietmatrix/pkg/errors"
	"github.com/pelagiclab/dietmatrix/pkg/logging"
	"github.com/pelagiclab/dietmatrix/pkg/tables"
)

// naOut is what null cells become in output files.
const naOut = "NA"

// WriteMatrix writes the table to a CSV file in schema column order.
// Null cells are written as NA to keep the null-versus-zero distinction
// visible downstream.
func WriteMatrix(path string, t *tables.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	columns := t.Schema.Columns()
	if err := w.Write(columns); err != nil {
		return errors.WrapIO("write", path, err)
	}

	row := make([]string, len(columns))
	for _, r := range t.Records {
		for i, column := range columns {
			if r.Null(column) {
				row[i] = naOut
			} else {
				row[i] = tables.Str(r.Get(column))
			}
		}
		if err := w.Write(row); err != nil {
			return errors.WrapIO("write", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.WrapIO("flush", path, err)
	}

	logging.Info().
		Str("path", path).
		Int("rows", t.Len()).
		Int("columns", len(columns)).
		Msg("Wrote matrix")

	return nil
}

// FilterByUniqueID copies the rows of a CSV whose id column value is in
// keep, preserving column order. Used to restrict the prey-lengths table
// to specimens present in the final matrix.
func FilterByUniqueID(inPath, outPath, idColumn string, keep map[string]bool) (int, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return 0, errors.WrapIO("open", inPath, err)
	}
	defer in.Close()

	rows, err := csv.NewReader(in).ReadAll()
	if err != nil {
		return 0, errors.WrapIO("parse", inPath, err)
	}
	if len(rows) == 0 {
		return 0, errors.NewSchemaMismatchError(inPath, "header row")
	}

	header := normalizeHeader(rows[0], "")
	idIdx := slices.Index(header, normalizeName(idColumn))
	if idIdx < 0 {
		return 0, errors.NewSchemaMismatchError(inPath, idColumn)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return 0, errors.WrapIO("create", outPath, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(rows[0]); err != nil {
		return 0, errors.WrapIO("write", outPath, err)
	}

	kept := 0
	for _, row := range rows[1:] {
		if idIdx < len(row) && keep[row[idIdx]] {
			if err := w.Write(row); err != nil {
				return 0, errors.WrapIO("write", outPath, err)
			}
			kept++
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, errors.WrapIO("flush", outPath, err)
	}

	logging.Info().
		Str("path", outPath).
		Int("kept", kept).
		Int("dropped", len(rows)-1-kept).
		Msg("Filtered prey lengths")

	return kept, nil
}
