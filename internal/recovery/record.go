package recovery

// record.go defines the ordered field container for one imported row.
//
// Field order matters: the corrected dataset must render fields in the
// same order the source file declared them, and JSON object key order is
// the only place that order survives. Record therefore keeps an explicit
// field list alongside the value map, and its JSON codec walks tokens
// instead of relying on map iteration.

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is an ordered mapping from field name to Value. A record's
// identity is its position in the original sequence; the struct itself
// carries no index. Use Clone before mutating a shared record.
type Record struct {
	fields []string
	values map[string]Value
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{
		values: make(map[string]Value),
	}
}

// Set assigns a field value, appending the field to the order if new.
func (r *Record) Set(field string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[field]; !ok {
		r.fields = append(r.fields, field)
	}
	r.values[field] = v
}

// Get returns the value for a field, or the absent Value if the record
// has no such field.
func (r *Record) Get(field string) Value {
	return r.values[field]
}

// Has reports whether the field exists in the record, regardless of its
// value kind.
func (r *Record) Has(field string) bool {
	_, ok := r.values[field]
	return ok
}

// Fields returns the field names in declaration order.
func (r *Record) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.fields)
}

// Clone returns a deep copy sharing no state with the receiver.
func (r *Record) Clone() *Record {
	clone := &Record{
		fields: make([]string, len(r.fields)),
		values: make(map[string]Value, len(r.values)),
	}
	copy(clone.fields, r.fields)
	for k, v := range r.values {
		clone.values[k] = v
	}
	return clone
}

// Equal reports whether two records have identical fields, order, and
// values.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	if len(r.fields) != len(other.fields) {
		return false
	}
	for i, f := range r.fields {
		if other.fields[i] != f {
			return false
		}
		if !r.values[f].Equal(other.values[f]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the record as a JSON object with fields in
// declaration order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field)
		if err != nil {
			return nil, fmt.Errorf("encode field name %q: %w", field, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[field])
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", field, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object preserving its key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode record: expected object, got %v", tok)
	}

	r.fields = nil
	r.values = make(map[string]Value)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode record key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("decode record: non-string key %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode record field %q: %w", key, err)
		}

		var v Value
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decode record field %q: %w", key, err)
		}
		r.Set(key, v)
	}

	// Consume the closing brace
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}

	return nil
}
