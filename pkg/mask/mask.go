// Package mask applies temporal validity windows to the reconciled
// matrix. A window records the span of log numbers during which a prey
// category was actively tracked for a study; outside that span the
// category's value is unknown, so it is set to null even when a prior
// pipeline stage defaulted it to zero. Masking must therefore run after
// zero-filling, never before.
package mask

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/pelagiclab/dietmatrix/pkg/errors"
	"github.com/pelagiclab/dietmatrix/pkg/logging"
	"github.com/pelagiclab/dietmatrix/pkg/tables"
)

// Window is the span of log numbers for which a prey category was
// actually recorded in one study. A nil bound is open: the category was
// tracked from the start, or through the end, of the program.
type Window struct {
	Study    string `yaml:"study"`
	Category string `yaml:"category"`
	Start    *int   `yaml:"start,omitempty"`
	End      *int   `yaml:"end,omitempty"`
}

// Contains reports whether the numeric log number falls inside the
// window's closed range.
func (w Window) Contains(logNumber int) bool {
	if w.Start != nil && logNumber < *w.Start {
		return false
	}
	if w.End != nil && logNumber > *w.End {
		return false
	}
	return true
}

// String describes the window for logs and reports.
func (w Window) String() string {
	start, end := "open", "open"
	if w.Start != nil {
		start = fmt.Sprintf("%d", *w.Start)
	}
	if w.End != nil {
		end = fmt.Sprintf("%d", *w.End)
	}
	return fmt.Sprintf("%s/%s [%s, %s]", w.Study, w.Category, start, end)
}

// Validate checks that the window names a study and category and that a
// closed range is not inverted.
func (w Window) Validate() error {
	if w.Study == "" {
		return errors.NewValidationError("study", w.Study, "cannot be empty")
	}
	if w.Category == "" {
		return errors.NewValidationError("category", w.Category, "cannot be empty")
	}
	if w.Start != nil && w.End != nil && *w.Start > *w.End {
		return errors.NewValidationError("start", *w.Start,
			fmt.Sprintf("exceeds end %d for %s/%s", *w.End, w.Study, w.Category))
	}
	return nil
}

// Apply nulls out each window's category on every record whose study
// matches and whose log number falls outside the window. Windows naming
// categories that are not columns of the table are ignored; they exist
// for related tables outside this matrix. Records with non-numeric log
// numbers cannot be range-checked and are left alone.
//
// Apply mutates the table in place and returns the number of cells
// masked. Re-applying the same windows is a no-op: a masked cell is
// already null.
func Apply(t *tables.Table, windows []Window) (int, error) {
	for _, w := range windows {
		if err := w.Validate(); err != nil {
			return 0, err
		}
	}

	masked := 0
	for _, w := range windows {
		if !t.Schema.HasMeasurement(w.Category) {
			logging.Debug().
				Str("window", w.String()).
				Msg("Window category not in matrix, skipping")
			continue
		}
		for _, r := range t.Records {
			k := r.Key()
			if k.Study != w.Study {
				continue
			}
			n, err := tables.LogNumberValue(k.LogNumber)
			if err != nil {
				logging.Debug().
					Str("unique_id", k.UniqueID()).
					Msg("Non-numeric log number, cannot range-check window")
				continue
			}
			if w.Contains(n) {
				continue
			}
			if !r.Null(w.Category) {
				r.Set(w.Category, nil)
				masked++
			}
		}
	}

	if masked > 0 {
		logging.Info().
			Str("table", t.Name).
			Int("cells_masked", masked).
			Int("windows", len(windows)).
			Msg("Applied validity windows")
	}

	return masked, nil
}

// windowsFile is the on-disk YAML shape of the validity window side
// table.
type windowsFile struct {
	Windows []Window `yaml:"windows"`
}

// Load reads validity windows from a YAML side file.
func Load(path string) ([]Window, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	var f windowsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.WrapIO("parse", path, err)
	}
	for _, w := range f.Windows {
		if err := w.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Windows, nil
}
