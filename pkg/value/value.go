// Package value defines the tagged-union Value type that flows between
// manifests, adapters, and application code, along with the canonical JSON
// codec used to carry it across the primitive-string KVS boundary.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which variant of Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInteger
	KindFloat
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a tagged union over the shapes a manifest-authored leaf, or an
// adapter-returned result, can take. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	m    map[string]Value
}

func Null() Value                { return Value{kind: KindNull} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Integer(i int64) Value      { return Value{kind: KindInteger, i: i} }
func Float(f float64) Value      { return Value{kind: KindFloat, f: f} }
func String(s string) Value      { return Value{kind: KindString, s: s} }
func List(items []Value) Value   { return Value{kind: KindList, list: items} }
func Map(m map[string]Value) Value {
	return Value{kind: KindMap, m: m}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool)       { return v.b, v.kind == KindBool }
func (v Value) AsInteger() (int64, bool)   { return v.i, v.kind == KindInteger }
func (v Value) AsFloat() (float64, bool)   { return v.f, v.kind == KindFloat }
func (v Value) AsString() (string, bool)   { return v.s, v.kind == KindString }
func (v Value) AsList() ([]Value, bool)    { return v.list, v.kind == KindList }
func (v Value) AsMap() (map[string]Value, bool) {
	return v.m, v.kind == KindMap
}

// Field returns the value of a map key, or Null with ok=false if v is not a
// map or the key is absent.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindMap {
		return Null(), false
	}
	child, ok := v.m[key]
	return child, ok
}

// Native converts Value into a plain Go value (nil, bool, int64, float64,
// string, []interface{}, map[string]interface{}) for interop with YAML
// decoders and callers that want to range/type-switch directly.
func (v Value) Native() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]interface{}, len(v.list))
		for i, e := range v.list {
			out[i] = e.Native()
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.m))
		for k, e := range v.m {
			out[k] = e.Native()
		}
		return out
	default:
		return nil
	}
}

// FromNative builds a Value from a plain Go value of the shapes produced by
// gopkg.in/yaml.v3 decoding into interface{} (map[string]interface{} or
// map[interface{}]interface{}, []interface{}, string, bool, int, int64,
// float64, nil) or by encoding/json decoding (float64, string, bool, nil,
// []interface{}, map[string]interface{}).
func FromNative(n interface{}) Value {
	switch t := n.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case int:
		return Integer(int64(t))
	case int64:
		return Integer(t)
	case float32:
		return floatOrInteger(float64(t))
	case float64:
		return floatOrInteger(t)
	case string:
		return String(t)
	case []interface{}:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = FromNative(e)
		}
		return List(out)
	case []Value:
		return List(t)
	case map[string]interface{}:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			out[k] = FromNative(e)
		}
		return Map(out)
	case map[interface{}]interface{}:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			out[fmt.Sprintf("%v", k)] = FromNative(e)
		}
		return Map(out)
	case map[string]Value:
		return Map(t)
	case Value:
		return t
	default:
		return String(fmt.Sprintf("%v", t))
	}
}

// floatOrInteger recovers the Integer/Float distinction for a float64 that
// may actually have arrived as a whole number (the common case when a YAML
// or JSON decoder hands back numbers as float64).
func floatOrInteger(f float64) Value {
	if f == float64(int64(f)) {
		return Integer(int64(f))
	}
	return Float(f)
}

// String renders the value's natural scalar string form: used by
// PlaceholderScanner when stringifying a resolved value into a
// multi-placeholder template. Composite values have no natural string form.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	default:
		return fmt.Sprintf("<%s>", v.kind)
	}
}

// IsComposite reports whether the value is a List or Map, i.e. has no
// natural scalar string form.
func (v Value) IsComposite() bool {
	return v.kind == KindList || v.kind == KindMap
}

// Equal reports deep structural equality between two Values.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInteger:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.m) != len(b.m) {
			return false
		}
		for k, av := range a.m {
			bv, ok := b.m[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Encode serialises the Value to its canonical JSON form, used for the KVS
// string round-trip. Canonical meaning: object keys are sorted, so two
// structurally equal Values always encode to the same bytes.
func Encode(v Value) (string, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func encode(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInteger:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEIN") {
			s += ".0" // a whole-number Float must not decode as an Integer
		}
		buf.WriteString(s)
	case KindString:
		buf.WriteString(strconv.Quote(v.s))
	case KindList:
		buf.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.Quote(k))
			buf.WriteByte(':')
			if err := encode(buf, v.m[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("value: unknown kind %d", v.kind)
	}
	return nil
}

// Decode parses a JSON string produced by Encode (or any conforming JSON
// document) back into a Value. encoding/json's ordinary decode-to-
// interface{} path collapses every number to float64, which would turn 42
// into Float(42) instead of Integer(42); UseNumber defers that decision so
// fromJSONNumber can recover the Integer/Float distinction from the source
// token instead.
func Decode(s string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return Null(), fmt.Errorf("value: %w", err)
	}
	if dec.More() {
		return Null(), fmt.Errorf("value: trailing data after JSON value")
	}
	return fromJSON(raw), nil
}

func fromJSON(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Integer(i)
		}
		f, _ := t.Float64()
		return Float(f)
	case string:
		return String(t)
	case []interface{}:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = fromJSON(e)
		}
		return List(out)
	case map[string]interface{}:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			out[k] = fromJSON(e)
		}
		return Map(out)
	default:
		return Null()
	}
}
