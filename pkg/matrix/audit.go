package matrix

import (
	"fmt"
	"math"

	"github.com/pelagiclab/dietmatrix/pkg/tables"
)

// AuditConfig names the columns the row-level QA invariants are checked
// against.
type AuditConfig struct {
	// GutContents is the symbolic gut-contents flag column.
	GutContents string

	// Total is the recorded total-prey-count column.
	Total string

	// PresenceOnly lists measurement columns recorded as
	// presence/absence indicators rather than counts. Rows where such a
	// column contributed are a documented exception to the sum
	// invariant and their mismatches are flagged as tolerated.
	PresenceOnly []string

	// Tolerance is the largest absolute difference between the
	// measurement sum and the recorded total that still counts as
	// agreement.
	Tolerance float64
}

// SumMismatch reports one row whose measurement sum disagrees with its
// recorded total prey count. Mismatches are surfaced for review, never
// corrected: a silent fix would hide true data-entry inconsistencies in
// the source records.
type SumMismatch struct {
	Key       tables.Key
	Total     float64
	Sum       float64
	Tolerated bool
}

// String describes the mismatch for review listings.
func (m SumMismatch) String() string {
	suffix := ""
	if m.Tolerated {
		suffix = " (presence-only contribution, tolerated)"
	}
	return fmt.Sprintf("%s: measurement sum %.3f != recorded total %.3f%s",
		m.Key.UniqueID(), m.Sum, m.Total, suffix)
}

// EmptyGutViolation reports a row flagged as having no gut contents
// that still carries a non-zero measurement.
type EmptyGutViolation struct {
	Key    tables.Key
	Column string
	Value  float64
}

// String describes the violation for review listings.
func (v EmptyGutViolation) String() string {
	return fmt.Sprintf("%s: empty gut but %s = %.3f", v.Key.UniqueID(), v.Column, v.Value)
}

// AuditReport collects the row-level findings over one matrix.
type AuditReport struct {
	SumMismatches []SumMismatch
	EmptyGuts     []EmptyGutViolation
}

// Clean reports whether the audit found nothing to review.
func (r AuditReport) Clean() bool {
	return len(r.SumMismatches) == 0 && len(r.EmptyGuts) == 0
}

// Audit checks the assembled (and masked) matrix against the row-level
// invariants. Rows with any null measurement are skipped for the sum
// check: a validity window nulled part of the row, so the sum is not
// defined. Audit never mutates the matrix.
func Audit(t *tables.Table, config AuditConfig) AuditReport {
	var report AuditReport

	presenceOnly := make(map[string]bool, len(config.PresenceOnly))
	for _, column := range config.PresenceOnly {
		presenceOnly[column] = true
	}

	for _, r := range t.Records {
		empty := tables.Str(r.Get(config.GutContents)) == tables.FlagAbsent

		sum := 0.0
		masked := false
		tolerated := false
		for _, column := range t.Schema.Measurements {
			v := r.Get(column)
			if tables.IsNull(v) {
				masked = true
				continue
			}
			n, ok := tables.Num(v)
			if !ok {
				continue
			}
			if empty && n != 0 {
				report.EmptyGuts = append(report.EmptyGuts, EmptyGutViolation{
					Key:    r.Key(),
					Column: column,
					Value:  n,
				})
			}
			sum += n
			if presenceOnly[column] && n != 0 {
				tolerated = true
			}
		}

		if empty || masked {
			continue
		}

		total, ok := tables.Num(r.Get(config.Total))
		if !ok {
			continue
		}
		if math.Abs(sum-total) > config.Tolerance {
			report.SumMismatches = append(report.SumMismatches, SumMismatch{
				Key:       r.Key(),
				Total:     total,
				Sum:       sum,
				Tolerated: tolerated,
			})
		}
	}

	return report
}
