package cli

import (
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func init() {
	os.Setenv("NO_COLOR", "")
	os.Setenv("REXX_COLORS", "")
	os.Setenv("REXX_DEBUG", "")
}

func TestCliRun(t *testing.T) {
	f, err := os.Open("test.yaml")
	require.NoError(t, err)
	defer f.Close()
	errorReplacer := strings.NewReplacer(
		name+": ", "",
		"testdata\\", "testdata/",
	)

	var testCases []struct {
		Name     string
		Args     []string
		Input    string
		Env      []string
		Expected string
		Error    string
		ExitCode int `yaml:"exit_code"`
	}
	require.NoError(t, yaml.NewDecoder(f).Decode(&testCases))

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			defer func() { assert.Nil(t, recover()) }()
			var outStream, errStream strings.Builder
			cli := cli{
				inStream:  strings.NewReader(tc.Input),
				outStream: &outStream,
				errStream: &errStream,
			}
			for _, env := range tc.Env {
				k, v, _ := strings.Cut(env, "=")
				defer func(v string) { os.Setenv(k, v) }(os.Getenv(k))
				if k == "REXX_COLORS" {
					defer func(colors []*color.Color) {
						nullColor, boolColor, numberColor, stringColor, objectKeyColor =
							colors[0], colors[1], colors[2], colors[3], colors[4]
					}([]*color.Color{
						nullColor, boolColor, numberColor, stringColor, objectKeyColor,
					})
				}
				os.Setenv(k, v)
			}
			code := cli.run(tc.Args)
			if tc.Error == "" {
				assert.Equal(t, tc.ExitCode, code)
				assert.Equal(t, tc.Expected, outStream.String())
				assert.Equal(t, "", errStream.String())
			} else {
				errStr := errStream.String()
				if tc.ExitCode != 0 {
					assert.Equal(t, tc.ExitCode, code)
				} else {
					assert.Equal(t, exitCodeDefaultErr, code)
				}
				assert.Equal(t, tc.Expected, outStream.String())
				assert.Contains(t, errorReplacer.Replace(errStr), strings.TrimSpace(tc.Error))
				assert.Equal(t, true, strings.HasSuffix(errStr, "\n"), errStr)
				assert.Equal(t, false, strings.HasSuffix(errStr, "\n\n"), errStr)
			}
		})
	}
}

func TestCliHelp(t *testing.T) {
	var outStream strings.Builder
	cli := cli{
		inStream:  strings.NewReader(""),
		outStream: &outStream,
		errStream: &outStream,
	}
	assert.Equal(t, exitCodeOK, cli.run([]string{"--help"}))
	out := outStream.String()
	assert.Contains(t, out, "Command Options:")
	assert.Contains(t, out, "-e, --expression=")
	assert.Contains(t, out, "--var name value")
	assert.Contains(t, out, "Help Option:\n  -h, --help")
}

func TestCliReplSyntaxError(t *testing.T) {
	var outStream, errStream strings.Builder
	cli := cli{
		inStream:  strings.NewReader("say )\nsay 'ok'\n:quit\nsay 'after quit'\n"),
		outStream: &outStream,
		errStream: &errStream,
	}
	assert.Equal(t, exitCodeOK, cli.run([]string{"-i"}))
	assert.Equal(t, "ok\n", outStream.String())
	assert.Contains(t, errStream.String(), "syntax error: <repl>:1")
}

func TestCliTrace(t *testing.T) {
	var outStream, errStream strings.Builder
	cli := cli{
		inStream:  strings.NewReader(""),
		outStream: &outStream,
		errStream: &errStream,
	}
	assert.Equal(t, exitCodeOK, cli.run([]string{"--trace", "R", "-e", "x = 1 + 2"}))
	assert.Equal(t, "", outStream.String())
	assert.Contains(t, errStream.String(), "R:ASSIGN")
}

func TestCliInvalidTrace(t *testing.T) {
	var errStream strings.Builder
	cli := cli{
		inStream:  strings.NewReader(""),
		outStream: &errStream,
		errStream: &errStream,
	}
	assert.Equal(t, exitCodeFlagParseErr, cli.run([]string{"--trace", "loud", "-e", "nop"}))
	assert.Contains(t, errStream.String(), `invalid TRACE setting: "loud"`)
}

func TestSetColors(t *testing.T) {
	defer func(colors []*color.Color) {
		nullColor, boolColor, numberColor, stringColor, objectKeyColor =
			colors[0], colors[1], colors[2], colors[3], colors[4]
	}([]*color.Color{nullColor, boolColor, numberColor, stringColor, objectKeyColor})

	require.NoError(t, setColors("1;30:0;31"))
	assert.True(t, nullColor.Equals(color.New(color.Bold, color.FgBlack)))
	assert.True(t, boolColor.Equals(color.New(color.Reset, color.FgRed)))
	assert.True(t, numberColor.Equals(color.New()))

	assert.EqualError(t, setColors("1;;2"), `invalid color: "1;;2"`)
	assert.EqualError(t, setColors("red"), `invalid color: "red"`)
}
