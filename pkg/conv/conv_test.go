package conv

import (
	"reflect"
	"testing"
)

func TestToFloat64(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{3.14, 3.14, true},
		{float32(2), 2, true},
		{7, 7, true},
		{int64(8), 8, true},
		{true, 1, true},
		{false, 0, true},
		{"nope", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := ToFloat64(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ToFloat64(%v) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSliceAnyToString(t *testing.T) {
	got := SliceAnyToString([]any{"m1", 42, 3.0, true, struct{}{}})
	// Numbers format as integer ids; bool counts as numeric; structs drop.
	want := []string{"m1", "42", "3", "1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SliceAnyToString() = %v, want %v", got, want)
	}
	if SliceAnyToString(nil) != nil {
		t.Error("nil input should stay nil")
	}
	if SliceAnyToString("not a slice") != nil {
		t.Error("non-slice input should stay nil")
	}
}

func TestConfigGet(t *testing.T) {
	m := map[string]any{"name": "fanout", "dedup": true}
	if got := ConfigGet(m, "name", "x"); got != "fanout" {
		t.Errorf("ConfigGet(name) = %q", got)
	}
	if got := ConfigGet(m, "missing", "fallback"); got != "fallback" {
		t.Errorf("ConfigGet(missing) = %q", got)
	}
	if got := ConfigGet(m, "name", 5); got != 5 {
		t.Errorf("ConfigGet with type mismatch = %v, want default", got)
	}
}

func TestConfigGetInt64(t *testing.T) {
	m := map[string]any{"a": 5, "b": 6.0, "c": "x"}
	if got := ConfigGetInt64(m, "a", 0); got != 5 {
		t.Errorf("int value = %d", got)
	}
	// YAML/JSON numbers often arrive as float64.
	if got := ConfigGetInt64(m, "b", 0); got != 6 {
		t.Errorf("float value = %d", got)
	}
	if got := ConfigGetInt64(m, "c", 9); got != 9 {
		t.Errorf("mismatched value = %d, want default", got)
	}
}

func TestConfigGetFloat64(t *testing.T) {
	m := map[string]any{"w": 0.6, "n": 2}
	if got := ConfigGetFloat64(m, "w", 0); got != 0.6 {
		t.Errorf("float value = %v", got)
	}
	if got := ConfigGetFloat64(m, "n", 0); got != 2 {
		t.Errorf("int value = %v", got)
	}
	if got := ConfigGetFloat64(nil, "w", 0.4); got != 0.4 {
		t.Errorf("nil map = %v, want default", got)
	}
}

func TestMapToFloat64(t *testing.T) {
	got := MapToFloat64(map[string]any{"a": 1, "b": 2.5, "c": "skip"})
	want := map[string]float64{"a": 1, "b": 2.5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MapToFloat64() = %v, want %v", got, want)
	}
}
