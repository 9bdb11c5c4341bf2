package rexx_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/paul-hammant/RexxJS-sub005"
)

func TestRun(t *testing.T) {
	f, err := os.Open("testdata/run.yaml")
	require.NoError(t, err)
	defer f.Close()

	var testCases []struct {
		Name     string
		Src      string
		Args     []string
		Input    string
		Expected string
		Error    string
		ExitCode int `yaml:"exit_code"`
	}
	require.NoError(t, yaml.NewDecoder(f).Decode(&testCases))

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			prog, err := rexx.Parse(tc.Src)
			require.NoError(t, err)
			var out strings.Builder
			args := make([]any, len(tc.Args))
			for i, a := range tc.Args {
				args[i] = a
			}
			status, err := rexx.New(
				rexx.WithOutput(&out),
				rexx.WithInput(strings.NewReader(tc.Input)),
			).Run(context.Background(), prog, args...)
			require.NotNil(t, status)
			if tc.Error == "" {
				require.NoError(t, err)
				assert.Equal(t, tc.ExitCode, status.Code)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.Error)
				if tc.ExitCode != 0 {
					assert.Equal(t, tc.ExitCode, status.Code)
				} else {
					assert.Equal(t, 1, status.Code)
				}
			}
			assert.Equal(t, tc.Expected, out.String())
		})
	}
}

// run parses and runs src with its SAY output captured.
func run(t *testing.T, src string, opts ...rexx.Option) (string, *rexx.ExitStatus, error) {
	t.Helper()
	prog, err := rexx.Parse(src)
	require.NoError(t, err)
	var out strings.Builder
	status, err := rexx.New(append([]rexx.Option{rexx.WithOutput(&out)}, opts...)...).
		Run(context.Background(), prog)
	return out.String(), status, err
}

type recorder struct {
	mu       sync.Mutex
	requests []string
	params   []map[string]any
}

func (r *recorder) handler(name string) rexx.AddressHandler {
	return rexx.AddressHandlerFunc(func(_ context.Context, req *rexx.AddressRequest) (*rexx.AddressResult, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.requests = append(r.requests, fmt.Sprintf("%s %s %s", req.Target, req.Form, req.Command))
		if req.Params != nil {
			r.params = append(r.params, rexx.Export(req.Params).(map[string]any))
		}
		return &rexx.AddressResult{Result: name + ":" + req.Command}, nil
	})
}

func TestRunAddress(t *testing.T) {
	r := &recorder{}
	out, _, err := run(t, `
ADDRESS KV 'set a'
'plain'
ADDRESS KV
'second'
say result rc
ADDRESS
'third'
`, rexx.WithAddressHandler("kv", r.handler("KV")), rexx.WithAddressHandler("SYSTEM", r.handler("SYSTEM")))
	require.NoError(t, err)
	assert.Equal(t, "KV:second 0\n", out)
	if diff := cmp.Diff([]string{
		"KV InlineQuoted set a",
		"SYSTEM InlineQuoted plain",
		"KV InlineQuoted second",
		"SYSTEM InlineQuoted third",
	}, r.requests); diff != "" {
		t.Errorf("requests (-want +got):\n%s", diff)
	}
}

func TestRunAddressForms(t *testing.T) {
	r := &recorder{}
	out, _, err := run(t, `ADDRESS KV set key='a' value=1
ADDRESS KV <<EOT
line one
line two
EOT
ADDRESS KV LINES(2)
first
second
ADDRESS KV
get key='a'
<<SQL
select 1
SQL
say 'done'
`, rexx.WithAddressHandler("KV", r.handler("KV")))
	require.NoError(t, err)
	assert.Equal(t, "done\n", out)
	if diff := cmp.Diff([]string{
		"KV FunctionCall set",
		"KV HeredocBlock line one\nline two",
		"KV LinesCapture first\nsecond",
		"KV FunctionCall get",
		"KV HeredocBlock select 1",
	}, r.requests); diff != "" {
		t.Errorf("requests (-want +got):\n%s", diff)
	}
	assert.Len(t, r.params, 2)
	assert.Equal(t, "a", r.params[0]["key"])
	assert.EqualValues(t, "1", r.params[0]["value"])
	assert.Equal(t, map[string]any{"key": "a"}, r.params[1])
}

func TestRunAddressResult(t *testing.T) {
	h := rexx.AddressHandlerFunc(func(_ context.Context, req *rexx.AddressRequest) (*rexx.AddressResult, error) {
		who, _ := req.Lookup("who")
		return &rexx.AddressResult{RC: 5, Result: []any{who, 2}, ErrorText: "bad"}, nil
	})
	out, _, err := run(t, `who = 'ann'
ADDRESS CHECK 'x'
say rc errortext json_stringify(result)
`, rexx.WithAddressHandler("CHECK", h))
	require.NoError(t, err)
	assert.Equal(t, "5 bad [\"ann\",2]\n", out)
}

func TestRunAddressErrors(t *testing.T) {
	t.Run("unknown target", func(t *testing.T) {
		_, _, err := run(t, "ADDRESS KW 'x'", rexx.WithAddressHandler("KV", (&recorder{}).handler("KV")))
		var re *rexx.RuntimeError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, rexx.KindAddressDispatch, re.Kind)
		assert.Equal(t, "no handler for ADDRESS KW (did you mean KV?)", re.Message)
	})

	t.Run("handler error", func(t *testing.T) {
		boom := errors.New("boom")
		h := rexx.AddressHandlerFunc(func(context.Context, *rexx.AddressRequest) (*rexx.AddressResult, error) {
			return nil, boom
		})
		out, _, err := run(t, `signal on failure name failed
ADDRESS KV 'x'
exit
failed:
say rc errortext
`, rexx.WithAddressHandler("KV", h))
		require.NoError(t, err)
		assert.Equal(t, "-1 AddressDispatchError: ADDRESS KV: boom\n", out)
	})

	t.Run("timeout", func(t *testing.T) {
		h := rexx.AddressHandlerFunc(func(context.Context, *rexx.AddressRequest) (*rexx.AddressResult, error) {
			return nil, fmt.Errorf("slow: %w", context.DeadlineExceeded)
		})
		_, _, err := run(t, "ADDRESS KV 'x'", rexx.WithAddressHandler("KV", h))
		var re *rexx.RuntimeError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, rexx.KindTimeout, re.Kind)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestRunRemoteAddress(t *testing.T) {
	r := &recorder{}
	var urls []string
	factory := func(url string) (rexx.AddressHandler, error) {
		urls = append(urls, url)
		return r.handler("API"), nil
	}
	out, _, err := run(t, `ADDRESS "https://example.com/rpc" AS API
'ping'
say result
`, rexx.WithRemoteAddress(factory))
	require.NoError(t, err)
	assert.Equal(t, "API:ping\n", out)
	assert.Equal(t, []string{"https://example.com/rpc"}, urls)
	assert.Equal(t, []string{"API InlineQuoted ping"}, r.requests)

	_, _, err = run(t, `ADDRESS "https://example.com/rpc"`)
	assert.ErrorContains(t, err, "remote ADDRESS targets are not enabled")
}

func TestRunFunctions(t *testing.T) {
	boom := errors.New("boom")
	opts := []rexx.Option{
		rexx.WithFunction("join", 1, -1, func(_ context.Context, args []any) (any, error) {
			xs := make([]string, len(args))
			for i, a := range args {
				xs[i] = fmt.Sprint(rexx.Export(a))
			}
			return strings.Join(xs, "-"), nil
		}),
		rexx.WithFunction("fail", 0, 0, func(context.Context, []any) (any, error) {
			return nil, boom
		}),
		rexx.WithFunction("config", 0, 0, func(context.Context, []any) (any, error) {
			return map[string]any{"port": 8080, "tags": []string{"a"}}, nil
		}),
		rexx.WithFunction("opts", 0, -1, func(_ context.Context, args []any) (any, error) {
			bs, err := rexx.Marshal(rexx.NewArray(args...))
			return string(bs), err
		}),
	}

	out, _, err := run(t, `say join('a', 1, 2.5)
c = config()
say c.port json_stringify(c.tags)
say opts(1, debug=true)
`, opts...)
	require.NoError(t, err)
	assert.Equal(t, "a-1-2.5\n8080 [\"a\"]\n[1,{\"debug\":true}]\n", out)

	_, _, err = run(t, "say join()", opts...)
	assert.EqualError(t, err, "FunctionFailed: JOIN: wrong number of arguments: 0")

	_, _, err = run(t, "x = fail()", opts...)
	var re *rexx.RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, rexx.KindFunctionFailed, re.Kind)
	assert.Equal(t, "FAIL", re.Function)
	assert.ErrorIs(t, err, boom)
}

func TestRunNamedArguments(t *testing.T) {
	greet := rexx.WithNamedFunction("greet", []string{"name", "greeting"},
		func(_ context.Context, args []any) (any, error) {
			greeting := "Hello"
			if len(args) > 1 && args[1] != nil {
				greeting = args[1].(string)
			}
			return fmt.Sprintf("%s, %v", greeting, args[0]), nil
		})
	out, _, err := run(t, `say greet(name='Ann', greeting='Hi')
say greet('Bob', greeting='Yo')
say greet(greeting='Hey', name='Cy')
say greet(name='Di')
`, greet)
	require.NoError(t, err)
	assert.Equal(t, "Hi, Ann\nYo, Bob\nHey, Cy\nHello, Di\n", out)

	_, _, err = run(t, "say greet(nme='x')", greet)
	assert.EqualError(t, err, "FunctionFailed: GREET: unknown parameter: nme")

	_, _, err = run(t, "say greet('a', name='b')", greet)
	assert.EqualError(t, err, "FunctionFailed: GREET: parameter name given twice")
}

func TestRunRequire(t *testing.T) {
	modules := map[string]*rexx.Module{
		"MATH": {
			Source:       "exit\nsquare: return arg(1) * arg(1)\n",
			Dependencies: []string{"base"},
			Functions: []*rexx.Function{{
				Name: "twice", MinArity: 1, MaxArity: 1,
				Call: func(_ context.Context, args []any) (any, error) {
					return fmt.Sprint(rexx.Export(args[0])) + fmt.Sprint(rexx.Export(args[0])), nil
				},
			}},
		},
		"BASE": {Source: "exit\nbase: return 'base'\n"},
		"A":    {Source: "exit", Dependencies: []string{"B"}},
		"B":    {Source: "exit", Dependencies: []string{"A"}},
	}
	var loads []string
	loader := rexx.ModuleLoaderFunc(func(_ context.Context, name string) (*rexx.Module, error) {
		loads = append(loads, name)
		if m, ok := modules[strings.ToUpper(name)]; ok {
			return m, nil
		}
		return nil, fmt.Errorf("module not found: %s", name)
	})

	out, _, err := run(t, `require 'math'
require 'MATH'
say square(4) twice(5) base()
`, rexx.WithModuleLoader(loader))
	require.NoError(t, err)
	assert.Equal(t, "16 55 base\n", out)
	assert.Equal(t, []string{"math", "base"}, loads)

	_, _, err = run(t, "require 'a'", rexx.WithModuleLoader(loader))
	var re *rexx.RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, rexx.KindModule, re.Kind)
	assert.Equal(t, "circular dependency: A -> B -> A", re.Message)

	_, _, err = run(t, "require 'nothere'", rexx.WithModuleLoader(loader))
	assert.EqualError(t, err, "ModuleError: REQUIRE nothere: module not found: nothere")

	_, _, err = run(t, "require 'math'")
	assert.EqualError(t, err, "ModuleError: REQUIRE math: no module loader")
}

func TestRunInterpretJSLatch(t *testing.T) {
	js := func(context.Context, []any) (any, error) { return "js-ran", nil }
	src := `x = interpret_js('1+1')
say x
no-interpret
y = interpret_js('1+1')
say 'ran' y
`
	loader := rexx.ModuleLoaderFunc(func(context.Context, string) (*rexx.Module, error) {
		return &rexx.Module{Functions: []*rexx.Function{
			{Name: "INTERPRET_JS", MinArity: 1, MaxArity: 2, Call: js},
		}}, nil
	})
	testCases := []struct {
		name string
		src  string
		opts []rexx.Option
	}{
		{"host", src, []rexx.Option{rexx.WithFunction("interpret_js", 1, 2, js)}},
		{"module", "require 'js'\n" + src, []rexx.Option{rexx.WithModuleLoader(loader)}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, _, err := run(t, tc.src, tc.opts...)
			assert.Equal(t, "js-ran\n", out)
			var re *rexx.RuntimeError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, rexx.KindSecurityViolation, re.Kind)
			assert.Contains(t, err.Error(), "INTERPRET_JS is disabled by NO-INTERPRET")
		})
	}
}

func TestRunModuleHandlers(t *testing.T) {
	r := &recorder{}
	loader := rexx.ModuleLoaderFunc(func(context.Context, string) (*rexx.Module, error) {
		return &rexx.Module{Handlers: map[string]rexx.AddressHandler{"kv": r.handler("KV")}}, nil
	})
	out, _, err := run(t, "require 'kv'\nADDRESS KV 'x'\nsay result", rexx.WithModuleLoader(loader))
	require.NoError(t, err)
	assert.Equal(t, "KV:x\n", out)
}

func TestRunErrorContext(t *testing.T) {
	var errOut strings.Builder
	out, status, err := run(t, "say 'a'\nx = 1 / 0\n", rexx.WithErrorOutput(&errOut))
	assert.Equal(t, "a\n", out)
	assert.Equal(t, 1, status.Code)
	var re *rexx.RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, rexx.KindArithmetic, re.Kind)
	assert.Equal(t, 2, re.Line)
	require.NotNil(t, re.Context)
	assert.Equal(t, "x = 1 / 0", re.Context.Command)
	assert.Equal(t, []string{"main (line 2)"}, re.Context.Stack)
	assert.Equal(t, "Error at line 2: Arithmetic: division by zero: cannot divide number (1) by number (0)\n"+
		"  x = 1 / 0\n    at main (line 2)\n", errOut.String())
}

func TestRunCancel(t *testing.T) {
	prog, err := rexx.Parse("do forever\n  x = stop()\nend")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := rexx.WithFunction("stop", 0, 0, func(context.Context, []any) (any, error) {
		cancel()
		return "", nil
	})
	status, err := rexx.New(stop).Run(ctx, prog)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, status.Code)
}

func TestRunOptions(t *testing.T) {
	r := &recorder{}
	out, status, err := run(t, `say greeting n + 1 array_length(list)
say 2 / 3
'cmd'
exit 'done'
`,
		rexx.WithVariables(map[string]any{"greeting": "hi", "n": 2, "list": []any{1, 2}}),
		rexx.WithNumeric(rexx.NumericSettings{Digits: 4}),
		rexx.WithAddress("KV"),
		rexx.WithAddressHandler("KV", r.handler("KV")),
	)
	require.NoError(t, err)
	assert.Equal(t, "hi 3 2\n0.6667\n", out)
	assert.Equal(t, []string{"KV InlineQuoted cmd"}, r.requests)
	assert.Equal(t, 0, status.Code)
	assert.Equal(t, "done", status.Value)
	assert.Equal(t, []string{"RC", "RESULT", "ERRORTEXT"}, status.Variables.Keys()[3:])
}

func TestRunVariables(t *testing.T) {
	_, status, err := run(t, "x = 1\nName = 'a'\nname = 'b'\nlist = [1]")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "Name", "list"}, status.Variables.Keys())
	v, ok := status.Variables.Get("Name")
	assert.True(t, ok)
	assert.Equal(t, "b", v)
}

func TestRunTrace(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 6e6, time.UTC) }
	var traceOut strings.Builder
	_, status, err := run(t, "trace r\nx = 1 + 2\nsay x\n",
		rexx.WithClock(clock), rexx.WithTraceOutput(&traceOut))
	require.NoError(t, err)
	want := []string{
		"[03:04:05.006] R:CLAUSE 2: x = 1 + 2",
		"[03:04:05.006] R:ASSIGN x => 3",
		"[03:04:05.006] R:CLAUSE 3: say x",
		`[03:04:05.006] R:SAY "3"`,
	}
	if diff := cmp.Diff(want, status.TraceLines()); diff != "" {
		t.Errorf("trace lines (-want +got):\n%s", diff)
	}
	assert.Equal(t, strings.Join(want, "\n")+"\n", traceOut.String())

	r := &recorder{}
	_, status, err = run(t, "trace n\nADDRESS KV 'x'\ntrace i\ny = max(1, 2) + 1\ntrace o\nz = 1",
		rexx.WithClock(clock), rexx.WithAddressHandler("KV", r.handler("KV")))
	require.NoError(t, err)
	lines := strings.Join(status.TraceLines(), "\n")
	assert.Contains(t, lines, `NORMAL:COMMAND KV "x"`)
	assert.Contains(t, lines, "NORMAL:RC KV => 0")
	assert.Contains(t, lines, "I:FUNCTION MAX => 2")
	assert.Contains(t, lines, "I:OPERATOR max(1, 2) + 1 => 3")
	assert.Contains(t, lines, "I:ASSIGN y => 3")
	assert.NotContains(t, lines, "ASSIGN z")

	_, status, err = run(t, "x = 1", rexx.WithTrace(rexx.TraceResults), rexx.WithClock(clock))
	require.NoError(t, err)
	assert.Contains(t, status.TraceLines(), "[03:04:05.006] R:ASSIGN x => 1")
}

func TestRunDateTime(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	out, _, err := run(t, "say date() date('S') date('I') date('D')\nsay time() time('H') time('M')",
		rexx.WithClock(clock))
	require.NoError(t, err)
	assert.Equal(t, "2 Jan 2024 20240102 2024-01-02 2\n03:04:05 3 184\n", out)
}

func TestRunLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	_, _, err := run(t, "numeric digits 5", rexx.WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"message":"numeric"`)
	assert.Contains(t, buf.String(), `"digits":5`)
}

func TestRunScript(t *testing.T) {
	var out, errOut strings.Builder
	i := rexx.New(rexx.WithOutput(&out), rexx.WithErrorOutput(&errOut))
	code, err := i.RunScript(context.Background(), "parse arg a b; say b a; exit 7", "x", "y")
	require.NoError(t, err)
	assert.Equal(t, 7, code)
	assert.Equal(t, "y x\n", out.String())

	code, err = i.RunScript(context.Background(), "say (")
	assert.Equal(t, 1, code)
	var se *rexx.SyntaxError
	assert.ErrorAs(t, err, &se)
	assert.Contains(t, errOut.String(), "syntax error: line 1")
}

func TestRunConcurrent(t *testing.T) {
	prog, err := rexx.Parse("parse arg n\ntotal = 0\ndo i = 1 to n\n  total = total + i\nend\nexit total")
	require.NoError(t, err)
	i := rexx.New()
	var wg sync.WaitGroup
	codes := make([]int, 8)
	for k := range codes {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			status, err := i.Run(context.Background(), prog, k)
			if assert.NoError(t, err) {
				codes[k] = status.Code
			}
		}(k)
	}
	wg.Wait()
	assert.Equal(t, []int{0, 1, 3, 6, 10, 15, 21, 28}, codes)
}
