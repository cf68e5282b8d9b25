package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pelagiclab/dietmatrix/pkg/tables"
)

var auditConfig = AuditConfig{
	GutContents:  "gut_contents",
	Total:        "total_prey_n",
	PresenceOnly: []string{"kelp_frag_n"},
	Tolerance:    0.001,
}

func auditMatrix(rows ...tables.Record) *tables.Table {
	t := tables.New("matrix", tables.NewSchema(
		[]string{tables.ColUniqueID, tables.ColStudy, tables.ColLogNumber, "gut_contents", "total_prey_n"},
		[]string{"herring_n", "amphipod_n", "kelp_frag_n"},
	))
	t.Append(rows...)
	return t
}

func auditRow(log string, gut string, total float64, herring, amphipod, kelp any) tables.Record {
	r := tables.NewRecord("north", log)
	r.Set("gut_contents", gut)
	r.Set("total_prey_n", total)
	r.Set("herring_n", herring)
	r.Set("amphipod_n", amphipod)
	r.Set("kelp_frag_n", kelp)
	return r
}

func TestAuditCleanMatrix(t *testing.T) {
	m := auditMatrix(
		auditRow("0001", tables.FlagPresent, 5, 3.0, 2.0, 0.0),
		auditRow("0002", tables.FlagAbsent, 0, 0.0, 0.0, 0.0),
	)

	report := Audit(m, auditConfig)

	assert.True(t, report.Clean())
}

func TestAuditSumMismatch(t *testing.T) {
	m := auditMatrix(auditRow("0001", tables.FlagPresent, 5, 3.0, 1.0, 0.0))

	report := Audit(m, auditConfig)

	require.Len(t, report.SumMismatches, 1)
	mm := report.SumMismatches[0]
	assert.Equal(t, "north_0001", mm.Key.UniqueID())
	assert.Equal(t, 5.0, mm.Total)
	assert.Equal(t, 4.0, mm.Sum)
	assert.False(t, mm.Tolerated)
	assert.Contains(t, mm.String(), "north_0001")
}

func TestAuditPresenceOnlyTolerated(t *testing.T) {
	// kelp fragments are recorded as presence marks, not counts, so the
	// mismatch is enumerated but flagged tolerated.
	m := auditMatrix(auditRow("0001", tables.FlagPresent, 5, 3.0, 2.0, 1.0))

	report := Audit(m, auditConfig)

	require.Len(t, report.SumMismatches, 1)
	assert.True(t, report.SumMismatches[0].Tolerated)
	assert.Contains(t, report.SumMismatches[0].String(), "tolerated")
}

func TestAuditSkipsMaskedRows(t *testing.T) {
	// A validity window nulled amphipod_n, so the sum is undefined and
	// the row is skipped.
	m := auditMatrix(auditRow("0001", tables.FlagPresent, 5, 3.0, nil, 0.0))

	report := Audit(m, auditConfig)

	assert.Empty(t, report.SumMismatches)
}

func TestAuditEmptyGutViolation(t *testing.T) {
	m := auditMatrix(auditRow("0001", tables.FlagAbsent, 0, 2.0, 0.0, 0.0))

	report := Audit(m, auditConfig)

	require.Len(t, report.EmptyGuts, 1)
	v := report.EmptyGuts[0]
	assert.Equal(t, "herring_n", v.Column)
	assert.Equal(t, 2.0, v.Value)
	assert.Contains(t, v.String(), "empty gut")
	assert.False(t, report.Clean())
}

func TestAuditDoesNotMutate(t *testing.T) {
	m := auditMatrix(auditRow("0001", tables.FlagPresent, 5, 3.0, 1.0, 0.0))

	_ = Audit(m, auditConfig)

	assert.Equal(t, 3.0, m.Records[0].Get("herring_n"))
	assert.Equal(t, 5.0, m.Records[0].Get("total_prey_n"))
}
