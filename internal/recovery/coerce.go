package recovery

// coerce.go provides fix-time value coercion per declared field kind.
//
// User-supplied corrections arrive as arbitrary scalars; before they are
// merged into a record, each one is narrowed to the kind its field
// declares. Coercion is total: invalid input narrows to a safe default
// (0 for numeric fields, false-y handling for flags, string form
// otherwise) instead of failing. The validation rules never coerce;
// they only inspect.

import (
	"regexp"
	"strconv"
	"strings"
)

// numericPattern validates a cleaned string before parsing.
// Matches integers, decimals, and scientific notation.
var numericPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// FieldCoercion identifies how fix values for a field are narrowed.
type FieldCoercion int

const (
	CoerceString FieldCoercion = iota
	CoerceNumber
	CoerceStock
	CoerceFlag
)

// numericFieldNames lists fields narrowed to plain numbers. Monetary and
// dimensional fields belong here.
var numericFieldNames = map[string]bool{
	"price":  true,
	"cost":   true,
	"amount": true,
	"weight": true,
	"length": true,
	"width":  true,
	"height": true,
}

// stockFieldNames lists count-like fields. They narrow to numbers and
// additionally floor at zero: a negative inventory count is meaningless.
var stockFieldNames = map[string]bool{
	"stock":     true,
	"quantity":  true,
	"inventory": true,
}

// flagFieldNames lists boolean flags, narrowed by truthiness.
var flagFieldNames = map[string]bool{
	"active":   true,
	"enabled":  true,
	"featured": true,
	"visible":  true,
}

// CoercionForField returns the coercion applied to fixes of the named
// field. Unknown fields coerce to string.
func CoercionForField(field string) FieldCoercion {
	name := strings.ToLower(strings.TrimSpace(field))
	switch {
	case stockFieldNames[name]:
		return CoerceStock
	case numericFieldNames[name]:
		return CoerceNumber
	case flagFieldNames[name]:
		return CoerceFlag
	default:
		return CoerceString
	}
}

// CoerceForField narrows a raw fix value to the kind declared for the
// field. Never fails; invalid input resolves to the kind's default.
func CoerceForField(field string, raw Value) Value {
	switch CoercionForField(field) {
	case CoerceNumber:
		n, ok := raw.AsNumber()
		if !ok {
			return NumberValue(0)
		}
		return NumberValue(n)
	case CoerceStock:
		n, ok := raw.AsNumber()
		if !ok || n < 0 {
			return NumberValue(0)
		}
		return NumberValue(n)
	case CoerceFlag:
		return BoolValue(raw.Truthy())
	default:
		return StringValue(raw.AsString())
	}
}

// parseNumber parses a string as a number after cleaning up common
// import artifacts: currency symbols, thousands separators, and the
// accounting negative format "(123.45)".
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	// Remove common currency symbols and thousands separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericPattern.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}

	return f, true
}
