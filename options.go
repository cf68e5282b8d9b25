package dietmatrix

import (
	"github.com/pelagiclab/dietmatrix/pkg/errors"
	"github.com/pelagiclab/dietmatrix/pkg/mask"
	"github.com/pelagiclab/dietmatrix/pkg/matrix"
	"github.com/pelagiclab/dietmatrix/pkg/tables"
)

// config holds pipeline configuration assembled from options.
type config struct {
	sources []Source
	windows []mask.Window
	matrix  matrix.Config
	audit   matrix.AuditConfig
	fill    any
}

// defaultConfig returns the canonical matrix shape: the fixed identity
// column order shared by both programs, the gut-contents flag, and the
// three summary numeric columns.
func defaultConfig() *config {
	return &config{
		matrix: matrix.Config{
			Name: "matrix",
			Identity: []string{
				tables.ColUniqueID, tables.ColStudy, tables.ColLogNumber,
				"sample_date", "station",
				"fork_length_mm", "weight_g",
				"gut_contents", "gut_fullness",
				"total_prey_n", "total_prey_wt_g",
			},
			Flags:   []string{"gut_contents"},
			Summary: []string{"total_prey_n", "gut_fullness", "total_prey_wt_g"},
		},
		audit: matrix.AuditConfig{
			GutContents: "gut_contents",
			Total:       "total_prey_n",
			Tolerance:   0.001,
		},
		fill: 0.0,
	}
}

// Option is a function that configures a Pipeline.
type Option func(*config) error

// newConfig returns pipeline configuration with defaults applied.
func newConfig(opts ...Option) (*config, error) {
	c := defaultConfig()
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// WithSource adds one research program's tables to the pipeline.
func WithSource(src Source) Option {
	return func(c *config) error {
		if src.Study == "" {
			return errors.NewValidationError("study", src.Study, "cannot be empty")
		}
		if src.Diet == nil {
			return errors.NewValidationError("diet", nil, "source "+src.Study+" requires a diet table")
		}
		c.sources = append(c.sources, src)
		return nil
	}
}

// WithWindows sets the temporal validity windows applied after
// defaulting.
func WithWindows(windows []mask.Window) Option {
	return func(c *config) error {
		for _, w := range windows {
			if err := w.Validate(); err != nil {
				return err
			}
		}
		c.windows = windows
		return nil
	}
}

// WithMatrixConfig replaces the default matrix shape.
func WithMatrixConfig(mc matrix.Config) Option {
	return func(c *config) error {
		if len(mc.Identity) == 0 {
			return errors.NewValidationError("identity", mc.Identity, "cannot be empty")
		}
		c.matrix = mc
		return nil
	}
}

// WithAuditConfig replaces the default row-level QA configuration.
func WithAuditConfig(ac matrix.AuditConfig) Option {
	return func(c *config) error {
		c.audit = ac
		return nil
	}
}

// WithFill sets the value assigned to cross-schema measurement gaps on
// unmatched join rows. Defaults to 0; nil keeps them null.
func WithFill(fill any) Option {
	return func(c *config) error {
		c.fill = fill
		return nil
	}
}
