package rexx

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithFunction registers a host function callable by name from scripts.
// A negative maxarity means no upper bound.
func WithFunction(name string, minarity, maxarity int,
	f func(context.Context, []any) (any, error)) Option {
	return WithFunctionSpec(&Function{Name: name, MinArity: minarity, MaxArity: maxarity, Call: f})
}

// WithNamedFunction registers a host function whose parameters can also be
// passed as name=value.
func WithNamedFunction(name string, params []string,
	f func(context.Context, []any) (any, error)) Option {
	return WithFunctionSpec(&Function{
		Name: name, MaxArity: len(params), Params: params, Call: f,
	})
}

// WithFunctionSpec registers a fully described host function.
func WithFunctionSpec(f *Function) Option {
	return func(i *Interpreter) {
		f.Name = strings.ToUpper(f.Name)
		i.functions[f.Name] = f
	}
}

// WithAddressHandler registers the handler for an ADDRESS target.
func WithAddressHandler(name string, h AddressHandler) Option {
	return func(i *Interpreter) {
		i.handlers[strings.ToUpper(name)] = h
	}
}

// WithRemoteAddress enables `ADDRESS "https://..."` targets.
func WithRemoteAddress(f RemoteAddressFactory) Option {
	return func(i *Interpreter) {
		i.remote = f
	}
}

// WithModuleLoader sets the loader REQUIRE resolves libraries with.
func WithModuleLoader(l ModuleLoader) Option {
	return func(i *Interpreter) {
		i.loader = l
	}
}

// WithOutput sets where SAY writes.
func WithOutput(w io.Writer) Option {
	return func(i *Interpreter) {
		i.out = w
	}
}

// WithErrorOutput sets where uncaught errors are reported.
func WithErrorOutput(w io.Writer) Option {
	return func(i *Interpreter) {
		i.errOut = w
	}
}

// WithTraceOutput sets where TRACE lines are written as they happen.
func WithTraceOutput(w io.Writer) Option {
	return func(i *Interpreter) {
		i.traceOut = w
	}
}

// WithInput sets where PULL reads from when the queue is empty.
func WithInput(r io.Reader) Option {
	return func(i *Interpreter) {
		i.in = r
	}
}

// WithVariables presets variables in every run.
func WithVariables(vars map[string]any) Option {
	return func(i *Interpreter) {
		for k, v := range vars {
			i.variables[k] = v
		}
	}
}

// WithNumeric sets the NUMERIC settings a run starts with.
func WithNumeric(n NumericSettings) Option {
	return func(i *Interpreter) {
		i.numeric = n
	}
}

// WithAddress sets the ADDRESS target a run starts with.
func WithAddress(name string) Option {
	return func(i *Interpreter) {
		i.address = name
	}
}

// WithTrace sets the TRACE setting a run starts with.
func WithTrace(m TraceMode) Option {
	return func(i *Interpreter) {
		i.trace = m
	}
}

// WithLogger sets the logger for engine diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(i *Interpreter) {
		i.logger = l
	}
}

// WithClock replaces time.Now for DATE, TIME and TRACE timestamps.
func WithClock(now func() time.Time) Option {
	return func(i *Interpreter) {
		i.now = now
	}
}
