package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ExampleConfig() {
	var stdout, stderr bytes.Buffer
	stdin := strings.NewReader("do w = 1 to words(arg(1))\n  say word(arg(1), w)\nend\n")
	code := (&Config{
		Stdin:  stdin,
		Stdout: &stdout,
		Stderr: &stderr,
	}).Run([]string{"--", "-", "foo bar", "baz"})

	if code != 0 {
		log.Fatalf("exit code: got %v, expected: 0", code)
	}

	if stderr.Len() > 0 {
		log.Fatalf("stderr: got %q, expected empty", stderr.String())
	}

	fmt.Print(stdout.String())

	// Output:
	// foo
	// bar
	// baz
}

func TestConfigStdin(t *testing.T) {
	testCases := []struct {
		name   string
		stdin  io.Reader
		output string
	}{
		{
			name:   "set",
			stdin:  strings.NewReader("say 'read from stdin'"),
			output: "read from stdin\n",
		},
		{
			name:   "unset",
			stdin:  nil,
			output: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			code := (&Config{
				Stdin:  tc.stdin,
				Stdout: &out,
			}).Run(nil)

			if code != 0 {
				t.Errorf("exit code: got %v, expected: 0", code)
			}

			if diff := cmp.Diff(tc.output, out.String()); diff != "" {
				t.Error("standard output:\n" + diff)
			}
		})
	}
}

func TestConfigStreamsUnset(t *testing.T) {
	testCases := []struct {
		name string
		file **os.File
		args []string
		src  string
	}{
		{"stdout", &os.Stdout, nil, "say 'discarded'"},
		{"stderr", &os.Stderr, []string{"--not-a-real-flag"}, ""},
		{"trace", &os.Stderr, []string{"--trace", "R"}, "x = 1 + 2"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Swap the process stream for a file that must stay empty.
			defer func(f *os.File) { *tc.file = f }(*tc.file)
			f, err := os.CreateTemp(t.TempDir(), tc.name)
			require.NoError(t, err)
			*tc.file = f

			(&Config{Stdin: strings.NewReader(tc.src)}).Run(tc.args)

			require.NoError(t, f.Close())
			out, err := os.ReadFile(f.Name())
			require.NoError(t, err)
			assert.Empty(t, string(out))
		})
	}
}

func TestConfigContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var stdout, stderr bytes.Buffer
	code := (&Config{
		Stdout:  &stdout,
		Stderr:  &stderr,
		Context: ctx,
	}).Run([]string{"-e", "do forever; say 'tick'; end"})

	assert.Equal(t, exitCodeDefaultErr, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "context canceled")
}

func TestConfigModulePaths(t *testing.T) {
	dir := t.TempDir()
	lib := "exit\ntwice:\n  return arg(1) * 2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "math.rexx"), []byte(lib), 0o600))

	var stdout, stderr bytes.Buffer
	code := (&Config{
		Stdout:      &stdout,
		Stderr:      &stderr,
		ModulePaths: []string{dir},
	}).Run([]string{"-e", "require 'math'; say twice(21)"})

	assert.Equal(t, exitCodeOK, code, stderr.String())
	if diff := cmp.Diff("42\n", stdout.String()); diff != "" {
		t.Error("standard output:\n" + diff)
	}
}
