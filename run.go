package rexx

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Interpreter runs parsed programs. It holds the host side of a run: the
// function registry, ADDRESS handlers, module loader and I/O sinks. An
// Interpreter may run any number of programs concurrently; each Run has its
// own variables, queue and dispatcher.
type Interpreter struct {
	functions map[string]*Function
	handlers  map[string]AddressHandler
	remote    RemoteAddressFactory
	loader    ModuleLoader
	in        io.Reader
	out       io.Writer
	errOut    io.Writer
	traceOut  io.Writer
	variables map[string]any
	numeric   NumericSettings
	address   string
	trace     TraceMode
	logger    zerolog.Logger
	now       func() time.Time

	mu      sync.Mutex
	modules map[string]*loadedModule
}

// New returns an Interpreter configured by opts. SAY writes to os.Stdout
// unless WithOutput is given.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		functions: map[string]*Function{},
		handlers:  map[string]AddressHandler{},
		out:       os.Stdout,
		variables: map[string]any{},
		numeric:   DefaultNumeric(),
		address:   DefaultAddress,
		logger:    defaultLogger(),
		now:       time.Now,
		modules:   map[string]*loadedModule{},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ExitStatus is the outcome of a run.
type ExitStatus struct {
	// Code is the value of EXIT as a whole number, 0 when the program ends
	// without one and 1 when it ends on an uncaught error.
	Code int
	// Value is the raw value given to EXIT or a top-level RETURN.
	Value any
	// Variables holds the top-level variables when the run ended.
	Variables *Object
	trace     []string
}

// TraceLines returns the TRACE output of the run.
func (s *ExitStatus) TraceLines() []string {
	return s.trace
}

// Run executes prog with the given arguments, which PARSE ARG and ARG()
// see. An uncaught error ends the run: it is reported to the error output and
// returned as a *RuntimeError along with a status whose Code is 1.
// Cancelling ctx stops the run before its next statement.
func (i *Interpreter) Run(ctx context.Context, prog *Program, args ...any) (*ExitStatus, error) {
	xs := make([]any, len(args))
	for k, a := range args {
		v, err := Normalize(a)
		if err != nil {
			return nil, err
		}
		xs[k] = v
	}
	r := &run{
		interp:   i,
		disp:     newDispatcher(i.handlers, i.remote),
		funcs:    map[string]*Function{},
		routines: map[string]*libRoutine{},
		libs:     map[string]bool{},
		args:     xs,
		out:      i.out,
		tracer:   &tracer{w: i.traceOut, now: i.now},
		log:      i.logger,
		now:      i.now,
	}
	if r.out == nil {
		r.out = io.Discard
	}
	if i.in != nil {
		r.in = bufio.NewReader(i.in)
	}
	env := NewEnvironment()
	for k, v := range i.variables {
		x, err := Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", k, err)
		}
		env.Set(k, x)
	}
	e := newEngine(r, prog, env, ExecutionContext{
		Address: i.address,
		Numeric: i.numeric,
		Pattern: DefaultPattern,
		Trace:   i.trace,
	})
	r.log.Debug().Int("statements", len(prog.Statements)).Int("args", len(xs)).Msg("run")
	v, err := e.execute(ctx)
	status := &ExitStatus{Value: v, Variables: env.Snapshot(), trace: r.tracer.snapshot()}
	if err != nil {
		var es *exitSignal
		if !errors.As(err, &es) {
			status.Code = 1
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return status, err
			}
			re := asRuntimeError(err)
			i.report(re)
			return status, re
		}
		status.Value = es.value
	}
	if status.Value != nil {
		if n, ok := toInt(status.Value); ok {
			status.Code = n
		}
	}
	return status, nil
}

// report writes an uncaught error with its line and routine stack.
func (i *Interpreter) report(re *RuntimeError) {
	if i.errOut == nil {
		return
	}
	fmt.Fprintf(i.errOut, "Error at line %d: %s\n", re.Line, re.Error())
	if c := re.Context; c != nil {
		if c.Command != "" {
			fmt.Fprintf(i.errOut, "  %s\n", c.Command)
		}
		for _, f := range c.Stack {
			fmt.Fprintf(i.errOut, "    at %s\n", f)
		}
	}
}

// RunScript parses and runs src. argv is joined into the single argument
// string a command-line program receives.
func (i *Interpreter) RunScript(ctx context.Context, src string, argv ...string) (int, error) {
	prog, err := Parse(src)
	if err != nil {
		if i.errOut != nil {
			fmt.Fprintln(i.errOut, err)
		}
		return 1, err
	}
	var args []any
	if len(argv) > 0 {
		args = []any{strings.Join(argv, " ")}
	}
	status, err := i.Run(ctx, prog, args...)
	if status == nil {
		return 1, err
	}
	return status.Code, err
}
