// Package coerce implements best-effort conversion of loosely typed column
// values (as returned by the hosted data store) into Go scalars.
//
// The policy is deliberately forgiving: numeric columns in the source tables
// are frequently stored as text ("$1,234.50", "12 hrs", "N/A"). Float and Int
// strip every character that cannot be part of a decimal number and parse
// what remains; anything unparsable becomes zero instead of an error.
package coerce

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// float64Valuer is implemented by pgtype.Numeric and friends.
type float64Valuer interface {
	Float64Value() (pgtype.Float8, error)
}

// Float converts v to a float64. nil, NaN, Inf and unparsable values yield 0.
func Float(v any) float64 {
	f, ok := parse(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Int converts v to an int64 using Float semantics and truncating toward zero.
// Values outside the int64 range yield 0.
func Int(v any) int64 {
	f := Float(v)
	if !inInt64Range(f) {
		return 0
	}
	return int64(f)
}

// ID converts v to an identifier. Unlike Float it reports whether a usable
// value was present: nil, empty, non-numeric or out-of-range input returns
// (0, false).
func ID(v any) (int64, bool) {
	f, ok := parse(v)
	if !ok || !inInt64Range(f) {
		return 0, false
	}
	return int64(f), true
}

// inInt64Range reports whether truncating f yields a representable int64.
// NaN and the infinities are out of range.
func inInt64Range(f float64) bool {
	return f >= math.MinInt64 && f < -math.MinInt64
}

// String converts v to a trimmed string. nil yields "".
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Round rounds f to the given number of decimal places, half away from zero.
func Round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}

func parse(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case json.Number:
		return parseText(t.String())
	case string:
		return parseText(t)
	case []byte:
		return parseText(string(t))
	case float64Valuer:
		f8, err := t.Float64Value()
		if err != nil || !f8.Valid {
			return 0, false
		}
		return f8.Float64, true
	default:
		return parseText(fmt.Sprint(t))
	}
}

// parseText keeps digits, the first decimal point and a leading minus sign.
// "(1,200.00)" style accounting negatives are treated as positive.
func parseText(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}

	var b strings.Builder
	b.Grow(len(s))
	seenDot := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !seenDot:
			seenDot = true
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "-" || cleaned == "." || cleaned == "-." {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
