package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pelagiclab/dietmatrix/pkg/errors"
	"github.com/pelagiclab/dietmatrix/pkg/tables"
)

var testConfig = Config{
	Name: "matrix",
	Identity: []string{
		tables.ColUniqueID, tables.ColStudy, tables.ColLogNumber,
		"gut_contents", "total_prey_n",
	},
	Flags:   []string{"gut_contents"},
	Summary: []string{"total_prey_n"},
}

func northTable(rows ...tables.Record) *tables.Table {
	t := tables.New("north_reconciled", tables.NewSchema(
		[]string{tables.ColStudy, tables.ColLogNumber, "gut_contents", "total_prey_n"},
		[]string{"herring_n", "amphipod_n"},
	))
	t.Append(rows...)
	return t
}

func southTable(rows ...tables.Record) *tables.Table {
	t := tables.New("south_reconciled", tables.NewSchema(
		[]string{tables.ColStudy, tables.ColLogNumber, "gut_contents", "total_prey_n"},
		[]string{"copepod_n"},
	))
	t.Append(rows...)
	return t
}

func sample(study, log string, fields map[string]any) tables.Record {
	r := tables.NewRecord(study, log)
	for column, v := range fields {
		r.Set(column, v)
	}
	return r
}

func TestAssembleUnionsSourcesAndColumns(t *testing.T) {
	north := northTable(sample("north", "0001", map[string]any{
		"gut_contents": 1.0, "total_prey_n": 4.0, "herring_n": 4.0,
	}))
	south := southTable(sample("south", "0001", map[string]any{
		"gut_contents": 1.0, "total_prey_n": 2.0, "copepod_n": 2.0,
	}))

	asm, err := NewAssembler(testConfig)
	require.NoError(t, err)

	m, err := asm.Assemble(north, south)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	// measurement union, lexicographic
	assert.Equal(t, []string{"amphipod_n", "copepod_n", "herring_n"}, m.Schema.Measurements)
	// identity order fixed by config
	assert.Equal(t, testConfig.Identity, m.Schema.Identity)
}

func TestAssembleDefaultsMissingMeasurementsToZero(t *testing.T) {
	north := northTable(sample("north", "0001", map[string]any{
		"gut_contents": 1.0, "total_prey_n": 4.0, "herring_n": 4.0,
	}))
	south := southTable(sample("south", "0001", map[string]any{
		"gut_contents": 0.0, "total_prey_n": nil,
	}))

	asm, err := NewAssembler(testConfig)
	require.NoError(t, err)

	m, err := asm.Assemble(north, south)
	require.NoError(t, err)

	for _, r := range m.Records {
		for _, column := range m.Schema.Measurements {
			assert.False(t, r.Null(column), "row %s column %s", r.Key(), column)
		}
	}
	// summary defaulting: missing total counts as zero
	southRow := m.Records[1]
	assert.Equal(t, 0.0, southRow.Get("total_prey_n"))
}

func TestAssembleConvertsFlags(t *testing.T) {
	north := northTable(
		sample("north", "0001", map[string]any{"gut_contents": 1.0}),
		sample("north", "0002", map[string]any{"gut_contents": 0.0}),
		sample("north", "0003", map[string]any{"gut_contents": nil}),
	)

	asm, err := NewAssembler(testConfig)
	require.NoError(t, err)

	m, err := asm.Assemble(north)
	require.NoError(t, err)

	assert.Equal(t, tables.FlagPresent, m.Records[0].Get("gut_contents"))
	assert.Equal(t, tables.FlagAbsent, m.Records[1].Get("gut_contents"))
	assert.Equal(t, tables.FlagAbsent, m.Records[2].Get("gut_contents"))
}

func TestAssembleAssignsInjectiveUniqueIDs(t *testing.T) {
	north := northTable(sample("north", "0001", map[string]any{"gut_contents": 1.0}))
	south := southTable(sample("south", "0001", map[string]any{"gut_contents": 1.0}))

	asm, err := NewAssembler(testConfig)
	require.NoError(t, err)

	m, err := asm.Assemble(north, south)
	require.NoError(t, err)

	assert.Equal(t, "north_0001", m.Records[0].Get(tables.ColUniqueID))
	assert.Equal(t, "south_0001", m.Records[1].Get(tables.ColUniqueID))
}

func TestAssembleRejectsDuplicateUniqueIDs(t *testing.T) {
	north := northTable(
		sample("north", "0001", map[string]any{"gut_contents": 1.0}),
		sample("north", "0001", map[string]any{"gut_contents": 0.0}),
	)

	asm, err := NewAssembler(testConfig)
	require.NoError(t, err)

	_, err = asm.Assemble(north)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDuplicateIdentity)

	var dup *errors.DuplicateIdentityError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, []string{"north_0001"}, dup.Keys)
}

func TestAssembleRejectsMisalignedIdentity(t *testing.T) {
	odd := tables.New("odd", tables.NewSchema(
		[]string{tables.ColStudy, tables.ColLogNumber, "vessel_code"},
		nil,
	))
	odd.Append(sample("north", "0001", nil))

	asm, err := NewAssembler(testConfig)
	require.NoError(t, err)

	_, err = asm.Assemble(odd)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSchemaMismatch)
}

func TestAssembleLeavesSourcesUntouched(t *testing.T) {
	north := northTable(sample("north", "0001", map[string]any{"gut_contents": 1.0}))

	asm, err := NewAssembler(testConfig)
	require.NoError(t, err)

	_, err = asm.Assemble(north)
	require.NoError(t, err)

	// defaulting and flag conversion worked on clones
	assert.True(t, north.Records[0].Null("herring_n"))
	assert.Equal(t, 1.0, north.Records[0].Get("gut_contents"))
}

func TestNewAssemblerRequiresIdentity(t *testing.T) {
	_, err := NewAssembler(Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}
