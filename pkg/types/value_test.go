package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueFloat64(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want float64
	}{
		{name: "integer", in: Int(42), want: 42},
		{name: "decimal literal", in: Number("2.5"), want: 2.5},
		{name: "numeric string", in: String(" 3.25 "), want: 3.25},
		{name: "non numeric string", in: String("abc"), want: 0},
		{name: "empty string", in: String(""), want: 0},
		{name: "true", in: Bool(true), want: 1},
		{name: "false", in: Bool(false), want: 0},
		{name: "null", in: Null(), want: 0},
		{name: "single element array", in: Array(Int(5)), want: 5},
		{name: "single numeric string element", in: Array(String("7")), want: 7},
		{name: "nested single element", in: Array(Array(Int(3))), want: 3},
		{name: "empty array", in: Array(), want: 0},
		{name: "several elements", in: Array(Int(1), Int(2)), want: 0},
		{name: "single bool element", in: Array(Bool(true)), want: 0},
		{name: "object", in: Object(RecordOf("a", 1)), want: 0},
		{name: "nan string", in: String("NaN"), want: 0},
		{name: "lowercase inf", in: String("inf"), want: 0},
		{name: "signed inf", in: String("+inf"), want: 0},
		{name: "lowercase infinity", in: String("infinity"), want: 0},
		{name: "digit separators", in: String("1_000"), want: 0},
		{name: "hex float", in: String("0x1p4"), want: 0},
		{name: "signed hex", in: String("-0x10"), want: 0},
		{name: "exponent", in: String("1e3"), want: 1000},
		{name: "leading dot", in: String(".5"), want: 0.5},
		{name: "hex integer", in: String("0x1A"), want: 26},
		{name: "binary integer", in: String("0b101"), want: 5},
		{name: "octal integer", in: String("0o17"), want: 15},
		{name: "Infinity", in: String("Infinity"), want: math.Inf(1)},
		{name: "negative Infinity", in: String(" -Infinity "), want: math.Inf(-1)},
		{name: "overflow", in: String("1e400"), want: math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Float64())
		})
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{name: "null", in: Null(), want: "null"},
		{name: "bool", in: Bool(true), want: "true"},
		{name: "number keeps literal", in: Number("1.50"), want: "1.50"},
		{name: "string", in: String("hi"), want: "hi"},
		{name: "array joins with commas", in: Array(String("a"), Null(), Int(3)), want: "a,,3"},
		{name: "object as json", in: Object(RecordOf("b", 1, "a", "x")), want: `{"b":1,"a":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.String())
		})
	}
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{name: "number and numeric string differ", a: Int(1), b: String("1"), want: false},
		{name: "numbers compare numerically", a: Number("1"), b: Number("1.0"), want: true},
		{name: "null equals null", a: Null(), b: Null(), want: true},
		{name: "arrays elementwise", a: Array(Int(1), String("x")), b: Array(Int(1), String("x")), want: true},
		{name: "arrays of different length", a: Array(Int(1)), b: Array(Int(1), Int(2)), want: false},
		{name: "objects ignore order", a: Object(RecordOf("a", 1, "b", 2)), b: Object(RecordOf("b", 2, "a", 1)), want: true},
		{name: "bools", a: Bool(true), b: Bool(false), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

func TestCompareOrdersKindsFirst(t *testing.T) {
	ordered := []Value{Null(), Bool(false), Bool(true), Int(-1), Int(10), String("10"), String("b"), Array(), Object(nil)}
	for i := 0; i < len(ordered)-1; i++ {
		assert.Equal(t, -1, Compare(ordered[i], ordered[i+1]), "%v < %v", ordered[i], ordered[i+1])
		assert.Equal(t, 1, Compare(ordered[i+1], ordered[i]))
	}
	assert.Equal(t, 0, Compare(Int(2), Number("2.0")))
}

func TestFloatRejectsNonFinite(t *testing.T) {
	assert.True(t, Float(math.Inf(1)).IsNull())
	assert.True(t, Float(math.NaN()).IsNull())
	assert.Equal(t, "0.5", Float(0.5).String())
}

func TestValueJSONRoundTripPreservesOrderAndLiterals(t *testing.T) {
	in := `{"z":1.50,"a":[true,null,"s",{"y":2,"x":1}],"m":{}}`

	var v Value
	require.NoError(t, json.Unmarshal([]byte(in), &v))
	require.Equal(t, KindObject, v.Kind())
	assert.Equal(t, []string{"z", "a", "m"}, v.Record().Keys())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, in, string(out))
}

func TestValueOf(t *testing.T) {
	assert.True(t, ValueOf(nil).IsNull())
	assert.True(t, ValueOf(3).Equal(Int(3)))
	assert.True(t, ValueOf(uint8(7)).Equal(Int(7)))
	assert.True(t, ValueOf([]string{"a", "b"}).Equal(Array(String("a"), String("b"))))

	obj := ValueOf(map[string]any{"b": 1.0, "a": "x"})
	require.Equal(t, KindObject, obj.Kind())
	assert.Equal(t, []string{"a", "b"}, obj.Record().Keys())
}
