package dietmatrix

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pelagiclab/dietmatrix/pkg/errors"
	"github.com/pelagiclab/dietmatrix/pkg/mask"
	"github.com/pelagiclab/dietmatrix/pkg/matrix"
	"github.com/pelagiclab/dietmatrix/pkg/tables"
)

func intp(n int) *int { return &n }

func record(log string, fields map[string]any) tables.Record {
	r := tables.Record{tables.ColLogNumber: log}
	for column, v := range fields {
		r.Set(column, v)
	}
	return r
}

// northSource has diet, empties and presence tables with overlapping
// and presence-only specimens.
func northSource() Source {
	diet := tables.New("north_diet", tables.NewSchema(
		[]string{tables.ColStudy, tables.ColLogNumber, "gut_contents", "total_prey_n"},
		[]string{"herring_n", "amphipod_n"},
	))
	diet.Append(
		record("1", map[string]any{"gut_contents": 1.0, "total_prey_n": 5.0, "herring_n": 3.0, "amphipod_n": 2.0}),
		record("3", map[string]any{"gut_contents": 1.0, "total_prey_n": 2.0, "herring_n": 2.0, "amphipod_n": 0.0}),
	)

	empties := tables.New("north_empties", tables.NewSchema(
		[]string{tables.ColStudy, tables.ColLogNumber, "gut_contents", "total_prey_n"},
		nil,
	))
	empties.Append(record("2", map[string]any{"gut_contents": 0.0}))

	presence := tables.New("north_presence", tables.NewSchema(
		[]string{tables.ColStudy, tables.ColLogNumber},
		[]string{"kelp_pa"},
	))
	presence.Append(
		record("1", map[string]any{"kelp_pa": 0.0}),
		record("3", map[string]any{"kelp_pa": 1.0}),
		record("99", map[string]any{"kelp_pa": 0.0}),
	)

	return Source{Study: "north", Diet: diet, Empties: empties, Presence: presence}
}

// southSource has only a diet table with its own measurement columns.
func southSource() Source {
	diet := tables.New("south_diet", tables.NewSchema(
		[]string{tables.ColStudy, tables.ColLogNumber, "gut_contents", "total_prey_n"},
		[]string{"copepod_n", "sculpin_n"},
	))
	diet.Append(
		record("50", map[string]any{"gut_contents": 1.0, "total_prey_n": 2.0, "copepod_n": 2.0, "sculpin_n": 0.0}),
		record("200", map[string]any{"gut_contents": 1.0, "total_prey_n": 1.0, "copepod_n": 0.0, "sculpin_n": 1.0}),
	)
	return Source{Study: "south", Diet: diet}
}

func runPipeline(t *testing.T) *Result {
	t.Helper()

	p, err := New(
		WithSource(northSource()),
		WithSource(southSource()),
		WithWindows([]mask.Window{
			{Study: "south", Category: "copepod_n", Start: intp(1), End: intp(100)},
		}),
		WithAuditConfig(matrix.AuditConfig{
			GutContents:  "gut_contents",
			Total:        "total_prey_n",
			PresenceOnly: []string{"kelp_pa"},
			Tolerance:    0.001,
		}),
	)
	require.NoError(t, err)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	return result
}

func rowByID(t *testing.T, m *tables.Table, id string) tables.Record {
	t.Helper()
	for _, r := range m.Records {
		if r.Get(tables.ColUniqueID) == id {
			return r
		}
	}
	t.Fatalf("row %s not found", id)
	return nil
}

func TestRunOneRowPerSpecimen(t *testing.T) {
	result := runPipeline(t)

	// Every distinct (study, log_number) across all inputs, no loss, no
	// duplication.
	ids := make([]string, 0, result.Matrix.Len())
	for _, r := range result.Matrix.Records {
		ids = append(ids, tables.Str(r.Get(tables.ColUniqueID)))
	}
	assert.ElementsMatch(t, []string{
		"north_0001", "north_0002", "north_0003", "north_0099",
		"south_0050", "south_0200",
	}, ids)
	assert.Empty(t, result.Matrix.DuplicateKeys())
}

func TestRunEmptyGutRowsAllZero(t *testing.T) {
	result := runPipeline(t)

	for _, id := range []string{"north_0002", "north_0099"} {
		row := rowByID(t, result.Matrix, id)
		assert.Equal(t, tables.FlagAbsent, row.Get("gut_contents"), id)
		for _, column := range result.Matrix.Schema.Measurements {
			assert.Equal(t, 0.0, row.Get(column), "%s column %s", id, column)
		}
	}
	assert.Empty(t, result.Audit.EmptyGuts)
}

func TestRunSumInvariant(t *testing.T) {
	result := runPipeline(t)

	// north_0003 carries a presence-only kelp mark, so its mismatch is
	// enumerated but tolerated; everything else sums cleanly.
	require.Len(t, result.Audit.SumMismatches, 1)
	mm := result.Audit.SumMismatches[0]
	assert.Equal(t, "north_0003", mm.Key.UniqueID())
	assert.True(t, mm.Tolerated)
}

func TestRunMasksOutsideWindow(t *testing.T) {
	result := runPipeline(t)

	outside := rowByID(t, result.Matrix, "south_0200")
	assert.True(t, outside.Null("copepod_n"), "masked cell must be null, not zero")

	inside := rowByID(t, result.Matrix, "south_0050")
	assert.Equal(t, 2.0, inside.Get("copepod_n"))

	assert.Equal(t, 1, result.Metadata.Stats.CellsMasked)
}

func TestRunCrossSourceColumnsDefaultToZero(t *testing.T) {
	result := runPipeline(t)

	// south never recorded herring; north never recorded sculpin.
	assert.Equal(t, 0.0, rowByID(t, result.Matrix, "south_0050").Get("herring_n"))
	assert.Equal(t, 0.0, rowByID(t, result.Matrix, "north_0001").Get("sculpin_n"))
}

func TestRunColumnOrder(t *testing.T) {
	result := runPipeline(t)

	columns := result.Matrix.Schema.Columns()
	// identity columns first, in the configured fixed order
	assert.Equal(t, tables.ColUniqueID, columns[0])
	assert.Equal(t, tables.ColStudy, columns[1])
	// measurement columns last, lexicographic
	measurements := result.Matrix.Schema.Measurements
	assert.Equal(t, []string{"amphipod_n", "copepod_n", "herring_n", "kelp_pa", "sculpin_n"}, measurements)
}

func TestRunOriginColumnNeverEscapes(t *testing.T) {
	result := runPipeline(t)

	for _, r := range result.Matrix.Records {
		_, present := r["_origin"]
		assert.False(t, present)
	}
}

func TestRunSummary(t *testing.T) {
	result := runPipeline(t)

	assert.Contains(t, result.Summary(), "6 rows")
	assert.False(t, result.Clean())
	assert.Contains(t, result.Summary(), "1 sum mismatches")
}

func TestRunSourcesUntouched(t *testing.T) {
	src := northSource()
	p, err := New(WithSource(src), WithSource(southSource()))
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.NoError(t, err)

	// inputs still carry raw, unpadded log numbers and no study stamp
	assert.Equal(t, "1", src.Diet.Records[0].Get(tables.ColLogNumber))
	assert.True(t, src.Diet.Records[0].Null(tables.ColStudy))
}

func TestNewRequiresSources(t *testing.T) {
	_, err := New()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestNewRejectsSourceWithoutDiet(t *testing.T) {
	_, err := New(WithSource(Source{Study: "north"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}
