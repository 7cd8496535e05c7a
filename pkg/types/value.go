package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

// Value kinds, in the order used when sorting mixed-kind values.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

var kindNames = [...]string{"null", "bool", "number", "string", "array", "object"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a JSON-shaped tagged union: null, boolean, number, string,
// sequence, or nested Record. Numbers keep the literal they were decoded
// from so that re-encoding a record does not change its wire form.
// The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	arr  []Value
	obj  *Record
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int wraps an integer.
func Int(n int64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatInt(n, 10))}
}

// Float wraps a float. Non-finite floats have no JSON form and become null.
func Float(f float64) Value {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return Null()
	}
	return Value{kind: KindNumber, num: json.Number(strconv.FormatFloat(f, 'f', -1, 64))}
}

// Number wraps a JSON number literal.
func Number(n json.Number) Value { return Value{kind: KindNumber, num: n} }

// Array wraps a sequence of values.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// Object wraps a nested record. A nil record is stored as an empty one.
func Object(r *Record) Value {
	if r == nil {
		r = NewRecord()
	}
	return Value{kind: KindObject, obj: r}
}

// ValueOf converts a plain Go value into a Value. It understands the shapes
// produced by encoding/json (with or without UseNumber), Go numeric types,
// slices, string-keyed maps (keys sorted), Records and Values.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case *Value:
		if x == nil {
			return Null()
		}
		return *x
	case *Record:
		if x == nil {
			return Null()
		}
		return Object(x)
	case Record:
		return Object(&x)
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case json.Number:
		return Number(x)
	case int:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case float32:
		return Float(float64(x))
	case float64:
		return Float(x)
	case []Value:
		return Array(x...)
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = ValueOf(item)
		}
		return Array(items...)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		r := NewRecord()
		for _, k := range keys {
			r.Set(k, ValueOf(x[k]))
		}
		return Object(r)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(json.Number(fmt.Sprint(v)))
	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			items[i] = ValueOf(rv.Index(i).Interface())
		}
		return Array(items...)
	}
	return String(fmt.Sprint(v))
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// BoolValue returns the boolean held by v.
func (v Value) BoolValue() (bool, bool) { return v.b, v.kind == KindBool }

// StringValue returns the string held by v.
func (v Value) StringValue() (string, bool) { return v.str, v.kind == KindString }

// NumberValue returns the number literal held by v.
func (v Value) NumberValue() (json.Number, bool) { return v.num, v.kind == KindNumber }

// Items returns the elements of an array value, or nil.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Record returns the nested record of an object value, or nil.
func (v Value) Record() *Record {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// Float64 converts v to a number the way a lenient numeric cast does:
// numbers convert directly, numeric text is parsed, booleans become 1 or
// 0, and a single-element array converts through its element's text.
// Everything else, including text that is not a plain decimal, hex, octal
// or binary literal, is 0. NaN is 0.
func (v Value) Float64() float64 {
	var f float64
	switch v.kind {
	case KindNumber:
		f, _ = strconv.ParseFloat(string(v.num), 64)
	case KindString:
		f = parseNumeric(v.str)
	case KindArray:
		// Several elements join with commas and never parse.
		f = parseNumeric(v.String())
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	default:
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	return f
}

// parseNumeric reads numeric text. Blank text is 0. Infinity is accepted
// only as "Infinity" with an optional sign; other spellings, digit
// separators and hex floats are not numbers.
func parseNumeric(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			// Malformed digits give 0; overflow saturates.
			n, _ := strconv.ParseUint(s[2:], base, 64)
			return float64(n)
		}
	}
	if strings.Trim(s, "0123456789+-.eE") != "" {
		return 0
	}
	// Malformed text gives 0; overflow gives ±Inf.
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// String renders v as text. Scalars render as their literal (null as
// "null"), arrays join their elements with commas, and objects render as
// compact JSON.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return string(v.num)
	case KindString:
		return v.str
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, item := range v.arr {
			if item.IsNull() {
				continue
			}
			parts[i] = item.String()
		}
		return strings.Join(parts, ",")
	case KindObject:
		data, err := json.Marshal(v.obj)
		if err != nil {
			return ""
		}
		return string(data)
	}
	return ""
}

// Equal reports whether v and o hold the same kind and the same content.
// Numbers compare by numeric value, so 1 and 1.0 are equal while 1 and "1"
// are not.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		if v.num == o.num {
			return true
		}
		return v.Float64() == o.Float64()
	case KindString:
		return v.str == o.str
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return v.obj.Equal(o.obj)
	}
	return false
}

// Compare orders values: first by kind (null < bool < number < string <
// array < object), then by content within a kind. It returns -1, 0 or +1.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	switch a.kind {
	case KindBool:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		}
		return 1
	case KindNumber:
		x, y := a.Float64(), b.Float64()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case KindString:
		return strings.Compare(a.str, b.str)
	case KindArray, KindObject:
		return strings.Compare(a.String(), b.String())
	}
	return 0
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return strconv.AppendBool(nil, v.b), nil
	case KindNumber:
		if v.num == "" {
			return []byte("0"), nil
		}
		return []byte(v.num), nil
	case KindString:
		return json.Marshal(v.str)
	case KindArray:
		if v.arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.arr)
	case KindObject:
		return json.Marshal(v.obj)
	}
	return nil, fmt.Errorf("marshal value: unknown kind %d", v.kind)
}

// UnmarshalJSON implements json.Unmarshaler. Object keys keep their
// document order.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	parsed, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// decodeValue reads one complete JSON value from dec.
func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Array(items...), nil
		case '{':
			r, err := decodeRecordBody(dec)
			if err != nil {
				return Value{}, err
			}
			return Object(r), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected JSON token %v", tok)
}

// decodeRecordBody reads object members after the opening brace has been
// consumed, through the closing brace.
func decodeRecordBody(dec *json.Decoder) (*Record, error) {
	r := NewRecord()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		r.Set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return r, nil
}
