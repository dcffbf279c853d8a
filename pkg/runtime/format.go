package runtime

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Format renders v the way print writes it.
func Format(v Value) string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindFloat:
		return FormatFloat(v.Float)
	case KindPointer:
		return fmt.Sprintf("ptr<%s>(#%d+%d)", v.Ptr.Elem, v.Ptr.Alloc, v.Ptr.Offset)
	default:
		return "<unbound>"
	}
}

// FormatFloat prints seventeen fractional digits, switching to exponent form
// for very large or very small magnitudes.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if f != 0 && (abs >= 1e10 || abs <= 1e-10) {
		return fmt.Sprintf("%.17e", f)
	}
	return fmt.Sprintf("%.17f", f)
}

// FormatLine joins values with single spaces, as print does.
func FormatLine(values []Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = Format(v)
	}
	return strings.Join(parts, " ")
}
