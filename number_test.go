package rexx

import (
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	sci := DefaultNumeric()
	eng := NumericSettings{Digits: DefaultDigits, Form: FormEngineering}
	testCases := []struct {
		d        *apd.Decimal
		n        NumericSettings
		expected string
	}{
		{apd.New(0, 0), sci, "0"},
		{apd.New(0, -2), sci, "0"},
		{apd.New(100, 0), sci, "100"},
		{apd.New(-15, -1), sci, "-1.5"},
		{apd.New(1, -3), sci, "0.001"},
		{apd.New(123, 4), sci, "1230000"},
		{apd.New(1, 12), sci, "1E+12"},
		{apd.New(1, -20), sci, "1E-20"},
		{apd.New(12345678901, 0), sci, "1.2345678901E+10"},
		{apd.New(12345678901, 0), eng, "12.345678901E+9"},
		{apd.New(-1, 12), eng, "-1E+12"},
	}
	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, formatNumber(tc.d, tc.n))
		})
	}
}

func TestParseNumber(t *testing.T) {
	testCases := []struct {
		src      string
		expected string
	}{
		{"42", "42"},
		{" 42 ", "42"},
		{"- 7", "-7"},
		{"+3.50", "3.50"},
		{"1e3", "1E+3"},
		{"1.5E-2", "0.015"},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			d, ok := parseNumber(tc.src)
			if assert.True(t, ok) {
				assert.Equal(t, tc.expected, d.String())
			}
		})
	}
	for _, src := range []string{"", "abc", "1.2.3", "1e", "e5", "--1", "1 2", "."} {
		_, ok := parseNumber(src)
		assert.False(t, ok, src)
	}
}

func TestToInt(t *testing.T) {
	for v, expected := range map[string]int{"3": 3, "3.0": 3, "-12": -12, "1E2": 100} {
		i, ok := toInt(v)
		assert.True(t, ok, v)
		assert.Equal(t, expected, i, v)
	}
	for _, v := range []any{"3.5", "x", nil, []any{}} {
		_, ok := toInt(v)
		assert.False(t, ok, "%v", v)
	}
}
