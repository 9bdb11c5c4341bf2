package rexx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest(t *testing.T) {
	testCases := []struct {
		name       string
		candidates []string
		expected   string
	}{
		{"lenght", []string{"LENGTH", "LEFT"}, " (did you mean LENGTH?)"},
		{"gret", []string{"greet", "main"}, " (did you mean greet?)"},
		{"KW", []string{"KV", "SYSTEM"}, " (did you mean KV?)"},
		{"length", []string{"LENGTH"}, ""},
		{"zzz", []string{"LENGTH"}, ""},
		{"x", nil, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, suggest(tc.name, tc.candidates))
		})
	}
}

func TestSplitPath(t *testing.T) {
	testCases := []struct {
		name     string
		expected []string
	}{
		{"name", []string{"name"}},
		{"user.address.city", []string{"user", "address", "city"}},
		{"items[0].name", []string{"items", "0", "name"}},
		{"grid[1][2]", []string{"grid", "1", "2"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, splitPath(tc.name))
		})
	}
}

func TestInterpolate(t *testing.T) {
	vars := map[string]string{"name": "Ada", "user.city": "London"}
	resolve := func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
	testCases := []struct {
		src      string
		pattern  string
		expected string
	}{
		{"plain", "HANDLEBARS", "plain"},
		{"hi {{name}}!", "HANDLEBARS", "hi Ada!"},
		{"hi {{ name }} from {{user.city}}", "HANDLEBARS", "hi Ada from London"},
		{"{{missing}} {{name}}", "HANDLEBARS", "{{missing}} Ada"},
		{"{{name", "HANDLEBARS", "{{name"},
		{"${name} {{name}}", "SHELL", "Ada {{name}}"},
		{"%name%-%name%", "BATCH", "Ada-Ada"},
		{"$$name$$", "DOUBLE_DOLLAR", "Ada"},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			pat, ok := builtinPatterns[tc.pattern]
			require.True(t, ok)
			assert.Equal(t, tc.expected, interpolate(tc.src, pat, resolve))
		})
	}
}
