package cli

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type testFlags struct {
	Expr    string            `short:"e" long:"expr"`
	Count   *int              `short:"n" long:"count"`
	Paths   []string          `short:"L" long:"path"`
	Vars    map[string]string `long:"var"`
	Verbose bool              `short:"V" long:"verbose"`
	Quiet   bool              `short:"q" long:"quiet"`
	Help    bool              `short:"h" long:"help"`
}

func TestParseFlags(t *testing.T) {
	three := 3
	testCases := []struct {
		name     string
		args     []string
		expected testFlags
		rest     []string
		err      string
	}{
		{
			name: "long and short",
			args: []string{"--expr", "say 1", "-n", "3", "file.rexx", "a"},
			expected: testFlags{
				Expr: "say 1", Count: &three,
			},
			rest: []string{"file.rexx", "a"},
		},
		{
			name:     "inline values",
			args:     []string{"--expr=say 1", "-n3", "-Ldir"},
			expected: testFlags{Expr: "say 1", Count: &three, Paths: []string{"dir"}},
			rest:     []string{},
		},
		{
			name:     "clustered booleans",
			args:     []string{"-Vq", "x"},
			expected: testFlags{Verbose: true, Quiet: true},
			rest:     []string{"x"},
		},
		{
			name:     "clustered boolean and value",
			args:     []string{"-Ve", "nop"},
			expected: testFlags{Verbose: true, Expr: "nop"},
			rest:     []string{},
		},
		{
			name:     "repeated slice and map",
			args:     []string{"-L", "a", "--path", "b", "--var", "x", "1", "--var", "y", "2"},
			expected: testFlags{Paths: []string{"a", "b"}, Vars: map[string]string{"x": "1", "y": "2"}},
			rest:     []string{},
		},
		{
			name:     "negative number and dash stay positional",
			args:     []string{"-", "-5", "-V"},
			expected: testFlags{Verbose: true},
			rest:     []string{"-", "-5"},
		},
		{
			name:     "double dash ends flags",
			args:     []string{"-q", "--", "-V", "--expr"},
			expected: testFlags{Quiet: true},
			rest:     []string{"-V", "--expr"},
		},
		{
			name: "unknown long flag",
			args: []string{"--nope"},
			err:  "unknown flag `--nope'",
		},
		{
			name: "unknown short flag in cluster",
			args: []string{"-Vz"},
			err:  "unknown flag `-z'",
		},
		{
			name: "boolean with argument",
			args: []string{"--verbose=1"},
			err:  "boolean flag `--verbose' cannot have an argument",
		},
		{
			name: "missing argument",
			args: []string{"--expr"},
			err:  "expected argument for flag `--expr'",
		},
		{
			name: "missing map value",
			args: []string{"--var", "x"},
			err:  "expected 2 arguments for flag `--var'",
		},
		{
			name: "invalid number",
			args: []string{"--count", "x"},
			err:  "invalid argument for flag `--count': strconv.Atoi: parsing \"x\": invalid syntax",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var opts testFlags
			rest, err := parseFlags(tc.args, &opts)
			if tc.err != "" {
				if err == nil || err.Error() != tc.err {
					t.Fatalf("error: got %v, expected %q", err, tc.err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.expected, opts); diff != "" {
				t.Error("flags:\n" + diff)
			}
			if diff := cmp.Diff(tc.rest, rest); diff != "" {
				t.Error("rest:\n" + diff)
			}
		})
	}
}
