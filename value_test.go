package rexx

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/go-cmp/cmp"
	"github.com/modopayments/go-modo/v8"
	"github.com/modopayments/go-modo/v8/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	type point struct{ X, Y int }
	testCases := []struct {
		name     string
		value    any
		expected string
	}{
		{"nil", nil, "null"},
		{"bool", true, "true"},
		{"string", "x", `"x"`},
		{"int", 42, "42"},
		{"uint64", uint64(math.MaxUint64), "18446744073709551615"},
		{"float", 1.5, "1.5"},
		{"json number", json.Number("1e3"), "1E+3"},
		{"big int", new(big.Int).Lsh(big.NewInt(1), 70), "1180591620717411303424"},
		{"slice", []any{1, "a", nil}, `[1,"a",null]`},
		{"typed slice", []string{"b", "a"}, `["b","a"]`},
		{"map", map[string]any{"b": 1, "a": []any{true}}, `{"a":[true],"b":1}`},
		{"pointer", func() any { s := "p"; return &s }(), `"p"`},
		{"nil pointer", (*int)(nil), "null"},
		{"uuid", uuid.FromStringOrNil("41008FEC-6E03-41D0-BA8D-5F3FA07C7BFA"), `"41008fec-6e03-41d0-ba8d-5f3fa07c7bfa"`},
		{"null uuid", uuid.NullUUID{UUID: uuid.FromStringOrNil("41008FEC-6E03-41D0-BA8D-5F3FA07C7BFA"), Valid: true}, `"41008fec-6e03-41d0-ba8d-5f3fa07c7bfa"`},
		{"invalid null uuid", uuid.NullUUID{}, "null"},
		{"time", time.Unix(100, 10), "100"},
		{"timestamp", modo.Timestamp{Time: time.Unix(100, 10)}, "100"},
		{"timestamp in map", map[string]any{"at": modo.Timestamp{Time: time.Unix(7, 0)}}, `{"at":7}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Normalize(tc.value)
			require.NoError(t, err)
			b, err := Marshal(v)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, string(b))
		})
	}
	for _, v := range []any{math.NaN(), math.Inf(1), point{1, 2}, []any{func() {}}} {
		_, err := Normalize(v)
		assert.Error(t, err, "%T", v)
	}
}

func TestExport(t *testing.T) {
	o := NewObject()
	o.Set("n", apd.New(25, -1))
	o.Set("list", NewArray("a", true, nil))
	o.Set("inner", NewObject())
	expected := map[string]any{
		"n":     json.Number("2.5"),
		"list":  []any{"a", true, nil},
		"inner": map[string]any{},
	}
	if diff := cmp.Diff(expected, Export(o)); diff != "" {
		t.Errorf("Export mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshal(t *testing.T) {
	o := NewObject()
	o.Set("z", "<tag> & \"q\"\n")
	o.Set("a", NewArray(apd.New(100, -2), NewArray()))
	o.Set("e", NewObject())
	b, err := Marshal(o)
	require.NoError(t, err)
	assert.Equal(t, `{"z":"<tag> & \"q\"\n","a":[1.00,[]],"e":{}}`, string(b))
	assert.Equal(t, "{\n  \"z\": \"<tag> & \\\"q\\\"\\n\",\n  \"a\": [\n    1.00,\n    []\n  ],\n  \"e\": {}\n}",
		jsonMarshalIndent(o, "  "))
}

func TestParseJSON(t *testing.T) {
	v, err := parseJSON(`{"b": [1, 2.50, {"c": null}], "a": "x", "t": false}`)
	require.NoError(t, err)
	o, ok := v.(*Object)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a", "t"}, o.Keys())
	assert.Equal(t, `{"b":[1,2.50,{"c":null}],"a":"x","t":false}`, jsonMarshal(v))

	v, err = parseJSON(`"plain"`)
	require.NoError(t, err)
	assert.Equal(t, "plain", v)

	_, err = parseJSON(`{"a":`)
	assert.Error(t, err)
}

func TestTypeOf(t *testing.T) {
	for v, expected := range map[any]string{
		nil:          "null",
		false:        "boolean",
		"s":          "string",
		newNumber(1): "number",
	} {
		assert.Equal(t, expected, TypeOf(v))
	}
	assert.Equal(t, "array", TypeOf(NewArray()))
	assert.Equal(t, "object", TypeOf(NewObject()))
	assert.Panics(t, func() { TypeOf(1) })
}

func TestArray(t *testing.T) {
	a := NewArray("x")
	a.Set(3, "y")
	assert.Equal(t, []any{"x", nil, nil, "y"}, a.Items)
	assert.Nil(t, a.Get(-1))
	assert.Nil(t, a.Get(9))
	v, ok := a.Pop()
	assert.True(t, ok)
	assert.Equal(t, "y", v)
	a.Push("z")
	assert.Equal(t, 4, a.Len())
	_, ok = NewArray().Pop()
	assert.False(t, ok)
}

func TestObjectLookup(t *testing.T) {
	o := NewObject()
	o.Set("Name", "Ada")
	k, v, ok := o.lookup("NAME")
	assert.True(t, ok)
	assert.Equal(t, "Name", k)
	assert.Equal(t, "Ada", v)
	assert.Equal(t, "Ada", member(o, "name"))
	assert.Nil(t, member(o, "missing"))
	a := NewArray("p", "q")
	assert.Equal(t, "q", member(a, "1"))
	assert.Equal(t, "2", toString(member(a, "length"), DefaultNumeric()))
	assert.Nil(t, member("scalar", "x"))
}

func TestClone(t *testing.T) {
	inner := NewArray("x")
	o := NewObject()
	o.Set("list", inner)
	c := clone(o).(*Object)
	inner.Push("y")
	v, _ := c.Get("list")
	assert.Equal(t, []any{"x"}, v.(*Array).Items)
}
