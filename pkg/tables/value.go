// Package tables provides the in-memory record and table model used by the
// dietmatrix reconciliation pipeline. A Table is a named, ordered collection
// of Records from one research program; a Record maps column names to values
// with explicit null semantics: a nil value means "not measured" (NA), which
// is distinct from a zero count.
package tables

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Flag values for presence/absence indicator columns after conversion
// from their raw binary numeric domain.
const (
	FlagPresent = "present"
	FlagAbsent  = "absent"
)

// IsNull reports whether a value represents a missing measurement.
// Both untyped nil and empty strings read from sparse CSV cells count
// as null.
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// Num converts a value to float64. The second return is false when the
// value is null or not numeric.
func Num(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Str converts a value to its string form. Null values become the
// empty string.
func Str(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case time.Time:
		return s.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", s)
	}
}

// PadLogNumber normalizes a log number to its zero-padded fixed-width
// canonical form. Non-numeric log numbers are returned unchanged.
func PadLogNumber(raw string, width int) string {
	trimmed := strings.TrimSpace(raw)
	if _, err := strconv.Atoi(trimmed); err != nil {
		return trimmed
	}
	if len(trimmed) >= width {
		return trimmed
	}
	return strings.Repeat("0", width-len(trimmed)) + trimmed
}

// LogNumberValue parses the numeric value of a zero-padded log number
// for range comparisons against validity windows.
func LogNumberValue(logNumber string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(logNumber))
	if err != nil {
		return 0, fmt.Errorf("log number %q is not numeric: %w", logNumber, err)
	}
	return n, nil
}
