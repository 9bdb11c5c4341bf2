package rexx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSyntaxErrors(t *testing.T) {
	testCases := []struct {
		src     string
		line    int
		column  int
		message string
	}{
		{"do i = 1 to 3\n  say i\n", 3, 0, "missing END"},
		{"select\n", 1, 1, "missing END for SELECT"},
		{"select\n  say 1\nend", 2, 3, "expected WHEN, OTHERWISE or END in SELECT"},
		{"say 1\nend", 2, 1, "unexpected END"},
		{"iterate", 1, 1, "ITERATE outside of a loop"},
		{"do i = 1 to 2\n  leave j\nend", 2, 3, "LEAVE j: no active loop named j"},
		{"do i = 1 to 2\nend j", 2, 5, "END j does not match DO i"},
		{"signal on halt", 1, 11, "unsupported condition: halt"},
		{"if 1 say 2", 1, 0, "expected THEN"},
		{"numeric form fancy", 1, 14, "expected SCIENTIFIC or ENGINEERING"},
		{"numeric precision 3", 1, 9, "expected DIGITS, FUZZ or FORM after NUMERIC"},
		{"trace loudly", 1, 7, "unknown TRACE setting: loudly"},
		{"interpolation missing", 1, 15, "interpolation pattern not defined: missing"},
		{"interpolation pattern p \"\" \">\"", 1, 25, "interpolation delimiters must not be empty"},
		{"interpret 'x' with shared", 1, 20, "expected FULL or ISOLATED after WITH"},
		{"say 'abc", 1, 5, ""},
		{"say 1 /* open", 1, 7, "unterminated comment"},
		{"ADDRESS KV <<EOT\nbody\n", 1, 12, "unmatched HEREDOC delimiter: EOT"},
		{"ab.c:", 1, 1, "invalid label name: ab.c"},
		{"parse value 'x' y", 1, 0, "expected WITH in PARSE VALUE"},
		{"x = 1\n  y = 2 /* open\n", 2, 9, "unterminated comment"},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			_, err := Parse(tc.src)
			require.Error(t, err)
			se, ok := err.(*SyntaxError)
			require.True(t, ok, "%T", err)
			assert.Equal(t, tc.line, se.Line)
			if tc.column > 0 {
				assert.Equal(t, tc.column, se.Column)
			}
			if tc.message != "" {
				assert.Equal(t, tc.message, se.Message)
			}
		})
	}
}

func TestParseLabels(t *testing.T) {
	prog, err := Parse("call later\nexit\nLater:\n  return\nlater:\n  nop\nother: nop")
	require.NoError(t, err)
	assert.Equal(t, []string{"Later", "other"}, prog.LabelNames())
	pc, ok := prog.Label("LATER")
	assert.True(t, ok)
	assert.Equal(t, oplabel, prog.Statements[pc].Op)
	assert.Equal(t, 3, prog.Statements[pc].Line)
}

func TestParseStatementKinds(t *testing.T) {
	testCases := []struct {
		src string
		op  opcode
	}{
		{"x = 1", opassign},
		{"let say = 1", opassign},
		{"say = 2", opassign},
		{"'ls -l'", opcommand},
		{"f(1)", opexpr},
		{"put key='a'", opmethod},
		{"no-interpret", opnointerpret},
		{"address", opaddress},
		{"interpret 'say 1' with isolated (a b) export (c)", opinterpret},
		{"arg a b", opparse},
		{"pull line", opparse},
		{"require 'lib'", oprequire},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			prog, err := Parse(tc.src)
			require.NoError(t, err)
			require.NotEmpty(t, prog.Statements)
			assert.Equal(t, tc.op, prog.Statements[0].Op)
		})
	}
}

func TestParseInterpretClause(t *testing.T) {
	prog, err := Parse("interpret code with isolated import (a, b) export (c)")
	require.NoError(t, err)
	ic := prog.Statements[0].V.(*interpretClause)
	assert.Equal(t, PolicyIsolatedIO, ic.Policy)
	assert.Equal(t, []string{"a", "b"}, ic.Imports)
	assert.Equal(t, []string{"c"}, ic.Exports)

	prog, err = Parse("interpret code with isolated")
	require.NoError(t, err)
	assert.Equal(t, PolicyIsolated, prog.Statements[0].V.(*interpretClause).Policy)
}

func TestParseExprString(t *testing.T) {
	testCases := []struct {
		src      string
		expected string
	}{
		{"x = a + b * 2", "a + b * 2"},
		{"x = (a + b) * 2", "a + b * 2"},
		{"x = 'a' || b", "'a' || b"},
		{"x = 'a' b", "'a' b"},
		{"x = f(1, k=2)", "f(1, k=2)"},
		{"x = o.name[0]", "o.name[0]"},
		{`x = {a: 1}`, `{"a": 1}`},
		{"x = -y", "-y"},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			prog, err := Parse(tc.src)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, prog.Statements[0].Expr.String())
		})
	}
}
