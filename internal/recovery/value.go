package recovery

// value.go defines the scalar container for record fields.
//
// Imported data is loosely typed: a price may arrive as 29.99, "29.99",
// or "invalid_price" depending on the source format. Rather than passing
// interface{} values around, every field holds a Value with a closed kind
// tag. The zero Value is absent, so looking up a missing field yields a
// well-defined result.

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the scalar type carried by a Value.
type Kind int

const (
	KindAbsent Kind = iota
	KindString
	KindNumber
	KindBool
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "absent"
	}
}

// Value is a loosely-typed scalar field value. Exactly one payload field
// is meaningful, selected by Kind. The zero Value is absent.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
}

// StringValue returns a string-kind Value.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// NumberValue returns a number-kind Value.
func NumberValue(f float64) Value {
	return Value{Kind: KindNumber, Num: f}
}

// BoolValue returns a bool-kind Value.
func BoolValue(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// AbsentValue returns the absent Value.
func AbsentValue() Value {
	return Value{}
}

// IsAbsent reports whether the value is missing entirely.
func (v Value) IsAbsent() bool {
	return v.Kind == KindAbsent
}

// IsBlank reports whether the value is absent, or a string that is empty
// after trimming. Numbers and booleans are never blank.
func (v Value) IsBlank() bool {
	if v.Kind == KindAbsent {
		return true
	}
	return v.Kind == KindString && strings.TrimSpace(v.Str) == ""
}

// AsString renders the value in its string form. Absent renders as "".
func (v Value) AsString() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return formatNumber(v.Num)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

// AsNumber attempts numeric interpretation of the value.
// Strings are parsed with the same cleanup rules as imported cells
// (currency symbols, thousands separators, accounting negatives).
// Returns false when no numeric reading exists.
func (v Value) AsNumber() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindString:
		return parseNumber(v.Str)
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Truthy reports the boolean interpretation of the value. Recognized
// false-y strings ("false", "no", "n", "f", "0", "off", empty) map to
// false; any other non-empty string is true. Absent is false.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindNumber:
		return v.Num != 0
	case KindString:
		switch strings.TrimSpace(strings.ToLower(v.Str)) {
		case "", "false", "f", "no", "n", "0", "off":
			return false
		default:
			return true
		}
	default:
		return false
	}
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == other.Str
	case KindNumber:
		return v.Num == other.Num
	case KindBool:
		return v.Bool == other.Bool
	default:
		return true
	}
}

// String implements fmt.Stringer for log and message formatting.
func (v Value) String() string {
	if v.Kind == KindAbsent {
		return "<absent>"
	}
	return v.AsString()
}

// MarshalJSON encodes the value as its natural JSON scalar:
// null, string, number, or boolean.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON scalar into a Value. JSON null becomes
// absent. Non-scalar JSON (objects, arrays) is preserved as its raw text
// in string form rather than rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*v = Value{}
		return nil
	case trimmed == "true" || trimmed == "false":
		*v = BoolValue(trimmed == "true")
		return nil
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode string value: %w", err)
		}
		*v = StringValue(s)
		return nil
	case strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "["):
		*v = StringValue(trimmed)
		return nil
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("decode numeric value: %w", err)
		}
		*v = NumberValue(f)
		return nil
	}
}

// formatNumber renders a float without trailing zeros: 15.5 stays
// "15.5", 150 stays "150".
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
