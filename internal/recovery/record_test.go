package recovery

import (
	"encoding/json"
	"testing"
)

func TestRecordFieldOrder(t *testing.T) {
	rec := NewRecord()
	rec.Set("zeta", StringValue("z"))
	rec.Set("alpha", StringValue("a"))
	rec.Set("mid", StringValue("m"))

	want := []string{"zeta", "alpha", "mid"}
	got := rec.Fields()
	if len(got) != len(want) {
		t.Fatalf("Fields() length = %d, want %d", len(got), len(want))
	}
	for i, f := range want {
		if got[i] != f {
			t.Errorf("Fields()[%d] = %q, want %q", i, got[i], f)
		}
	}

	// Overwriting keeps the original position
	rec.Set("zeta", StringValue("z2"))
	got = rec.Fields()
	if got[0] != "zeta" || len(got) != 3 {
		t.Errorf("Fields() after overwrite = %v, want zeta first and length 3", got)
	}
	if rec.Get("zeta").Str != "z2" {
		t.Errorf("Get(zeta) = %q, want %q", rec.Get("zeta").Str, "z2")
	}
}

func TestRecordGetMissing(t *testing.T) {
	rec := NewRecord()
	rec.Set("name", StringValue("x"))

	if v := rec.Get("nope"); !v.IsAbsent() {
		t.Errorf("Get of missing field = %+v, want absent", v)
	}
	if rec.Has("nope") {
		t.Error("Has(nope) = true, want false")
	}

	// An explicitly absent field still exists
	rec.Set("email", AbsentValue())
	if !rec.Has("email") {
		t.Error("Has(email) = false after Set, want true")
	}
}

func TestRecordClone(t *testing.T) {
	rec := NewRecord()
	rec.Set("name", StringValue("original"))
	rec.Set("price", NumberValue(10))

	clone := rec.Clone()
	clone.Set("name", StringValue("changed"))
	clone.Set("extra", BoolValue(true))

	if rec.Get("name").Str != "original" {
		t.Errorf("original record mutated through clone: name = %q", rec.Get("name").Str)
	}
	if rec.Has("extra") {
		t.Error("original record gained a field added to the clone")
	}
	if rec.Len() != 2 || clone.Len() != 3 {
		t.Errorf("Len() = %d/%d, want 2/3", rec.Len(), clone.Len())
	}
}

func TestRecordEqual(t *testing.T) {
	base := NewRecord()
	base.Set("a", NumberValue(1))
	base.Set("b", StringValue("x"))

	same := NewRecord()
	same.Set("a", NumberValue(1))
	same.Set("b", StringValue("x"))

	reordered := NewRecord()
	reordered.Set("b", StringValue("x"))
	reordered.Set("a", NumberValue(1))

	differentValue := NewRecord()
	differentValue.Set("a", NumberValue(2))
	differentValue.Set("b", StringValue("x"))

	tests := []struct {
		name  string
		other *Record
		want  bool
	}{
		{name: "identical", other: same, want: true},
		{name: "order matters", other: reordered, want: false},
		{name: "different value", other: differentValue, want: false},
		{name: "nil", other: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Equal(tt.other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecordJSONPreservesOrder(t *testing.T) {
	rec := NewRecord()
	rec.Set("sku", StringValue("WM-1001"))
	rec.Set("name", StringValue("Wireless Mouse"))
	rec.Set("price", NumberValue(29.99))
	rec.Set("notes", AbsentValue())

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	want := `{"sku":"WM-1001","name":"Wireless Mouse","price":29.99,"notes":null}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var decoded Record
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if !rec.Equal(&decoded) {
		t.Errorf("round trip changed the record:\n got %v\nwant %v",
			decoded.Fields(), rec.Fields())
	}
}

func TestRecordUnmarshalRejectsNonObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "array", input: `[1,2]`},
		{name: "scalar", input: `"text"`},
		{name: "garbage", input: `{{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec Record
			if err := json.Unmarshal([]byte(tt.input), &rec); err == nil {
				t.Errorf("Unmarshal(%s) should error", tt.input)
			}
		})
	}
}
