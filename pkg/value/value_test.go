package value

import "testing"

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    Value
	}{
		{"null", Null()},
		{"bool", Bool(true)},
		{"integer", Integer(42)},
		{"negative integer", Integer(-7)},
		{"float", Float(3.5)},
		{"string", String("postgres")},
		{"list", List([]Value{Integer(1), String("two"), Bool(false)})},
		{"map", Map(map[string]Value{"host": String("postgres"), "port": Integer(5432)})},
		{"nested", Map(map[string]Value{
			"items": List([]Value{
				Map(map[string]Value{"id": Integer(1)}),
				Map(map[string]Value{"id": Integer(2)}),
			}),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := Encode(tt.v)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			decoded, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode(%q): %v", encoded, err)
			}
			if !Equal(tt.v, decoded) {
				t.Fatalf("round trip mismatch: got %#v, want %#v (json=%s)", decoded, tt.v, encoded)
			}
		})
	}
}

func TestDecodePreservesIntegerVsFloat(t *testing.T) {
	v, err := Decode(`42`)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v.Kind() != KindInteger {
		t.Fatalf("expected Integer for bare 42, got %s", v.Kind())
	}

	v, err = Decode(`42.0`)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v.Kind() != KindFloat {
		t.Fatalf("expected Float for 42.0, got %s", v.Kind())
	}

	v, err = Decode(`true`)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if b, ok := v.AsBool(); !ok || !b {
		t.Fatalf("expected Bool(true), got %#v", v)
	}
}

func TestCanonicalEncodingSortsMapKeys(t *testing.T) {
	v := Map(map[string]Value{"b": Integer(2), "a": Integer(1), "c": Integer(3)})
	encoded, err := Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"a":1,"b":2,"c":3}`
	if encoded != want {
		t.Fatalf("got %s, want %s", encoded, want)
	}
}

func TestFromNativeCollapsesWholeFloats(t *testing.T) {
	v := FromNative(float64(42))
	if v.Kind() != KindInteger {
		t.Fatalf("expected Integer for whole-number float64, got %s", v.Kind())
	}
	i, _ := v.AsInteger()
	if i != 42 {
		t.Fatalf("got %d, want 42", i)
	}

	v = FromNative(float64(42.5))
	if v.Kind() != KindFloat {
		t.Fatalf("expected Float for 42.5, got %s", v.Kind())
	}
}

func TestStringNaturalForm(t *testing.T) {
	if got := Integer(42).String(); got != "42" {
		t.Fatalf("got %q", got)
	}
	if got := Bool(true).String(); got != "true" {
		t.Fatalf("got %q", got)
	}
	if got := Null().String(); got != "" {
		t.Fatalf("got %q, want empty string for null", got)
	}
	if !List(nil).IsComposite() {
		t.Fatalf("list should be composite")
	}
	if !Map(nil).IsComposite() {
		t.Fatalf("map should be composite")
	}
}

func TestFieldAccess(t *testing.T) {
	m := Map(map[string]Value{"host": String("postgres")})
	v, ok := m.Field("host")
	if !ok {
		t.Fatalf("expected host field present")
	}
	if s, _ := v.AsString(); s != "postgres" {
		t.Fatalf("got %q", s)
	}
	if _, ok := m.Field("missing"); ok {
		t.Fatalf("expected missing field to report ok=false")
	}
	if _, ok := Integer(1).Field("x"); ok {
		t.Fatalf("Field on non-map should report ok=false")
	}
}
