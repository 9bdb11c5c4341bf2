package rexx

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// Function is a host function callable from scripts. Call receives engine
// values (see TypeOf) and may return any value Normalize accepts. Params
// names the parameters so calls can pass them as name=value; a function
// without Params receives named arguments as a trailing object. A negative
// MaxArity means no upper bound.
type Function struct {
	Name     string
	MinArity int
	MaxArity int
	Params   []string
	Call     func(ctx context.Context, args []any) (any, error)
}

func (f *Function) accepts(n int) bool {
	return f.MinArity <= n && (f.MaxArity < 0 || n <= f.MaxArity)
}

type builtin struct {
	min, max int
	call     func(e *engine, args []any) (any, error)
}

// call resolves name to an internal label, a label of the enclosing
// program of INTERPRET code, a host or builtin function, or a routine of a
// REQUIRE'd library, in that order. It reports whether a value was returned.
func (e *engine) call(ctx context.Context, name string, args []any, keys []string, isCall bool) (any, bool, error) {
	key := strings.ToUpper(name)
	if key == "INTERPRET_JS" && e.run.noInterpret {
		return nil, false, securityError(key)
	}
	for x := e; x != nil; x = x.parent {
		if pc, ok := x.prog.Label(name); ok {
			if keys != nil {
				args = positional(args, keys)
			}
			if x != e {
				x = x.borrowedBy(e)
			}
			return x.callRoutine(ctx, pc, name, args, e.line)
		}
	}
	if f := e.function(key); f != nil {
		v, err := e.callFunction(ctx, f, args, keys)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}
	if b, ok := builtins[key]; ok {
		if keys != nil {
			args = positional(args, keys)
		}
		if len(args) < b.min || b.max >= 0 && len(args) > b.max {
			err := newError(KindFunctionFailed, "%s: wrong number of arguments: %d", key, len(args))
			err.Function = key
			return nil, false, err
		}
		v, err := b.call(e, args)
		if err != nil {
			return nil, false, wrapFunctionError(key, err)
		}
		e.trace(TraceIntermediates, "FUNCTION", key, v, true)
		return v, true, nil
	}
	if r, ok := e.run.routines[key]; ok {
		if keys != nil {
			args = positional(args, keys)
		}
		return r.engine.callRoutine(ctx, r.pc, name, args, e.line)
	}
	if isCall {
		return nil, false, labelNotFoundError(name, e.callables())
	}
	return nil, false, funcNotFoundError(name, e.callables())
}

func (e *engine) function(key string) *Function {
	if f, ok := e.run.funcs[key]; ok {
		return f
	}
	if f, ok := e.run.interp.functions[key]; ok {
		return f
	}
	return nil
}

func (e *engine) callables() []string {
	var names []string
	for x := e; x != nil; x = x.parent {
		names = append(names, x.prog.LabelNames()...)
	}
	for k := range e.run.interp.functions {
		names = append(names, k)
	}
	for k := range e.run.funcs {
		names = append(names, k)
	}
	for k := range builtins {
		names = append(names, k)
	}
	for k := range e.run.routines {
		names = append(names, k)
	}
	return names
}

// positional drops the names of named arguments for callees that only take
// positional ones.
func positional(args []any, keys []string) []any {
	var named *Object
	var xs []any
	for i, v := range args {
		if keys[i] == "" {
			xs = append(xs, v)
			continue
		}
		if named == nil {
			named = NewObject()
		}
		named.Set(keys[i], v)
	}
	if named != nil {
		xs = append(xs, named)
	}
	return xs
}

// callFunction adapts named arguments to f.Params and calls f.
func (e *engine) callFunction(ctx context.Context, f *Function, args []any, keys []string) (any, error) {
	if keys != nil {
		if len(f.Params) == 0 {
			args = positional(args, keys)
		} else {
			xs := make([]any, 0, len(f.Params))
			n := 0
			for i, v := range args {
				if keys[i] != "" {
					continue
				}
				xs = append(xs, v)
				n++
			}
			for i, k := range keys {
				if k == "" {
					continue
				}
				j := paramIndex(f.Params, k)
				if j < 0 {
					err := newError(KindFunctionFailed, "%s: unknown parameter: %s", f.Name, k)
					err.Function = f.Name
					return nil, err
				}
				if j < n {
					err := newError(KindFunctionFailed, "%s: parameter %s given twice", f.Name, k)
					err.Function = f.Name
					return nil, err
				}
				for len(xs) <= j {
					xs = append(xs, nil)
				}
				xs[j] = args[i]
			}
			args = xs
		}
	}
	if !f.accepts(len(args)) {
		err := newError(KindFunctionFailed, "%s: wrong number of arguments: %d", f.Name, len(args))
		err.Function = f.Name
		return nil, err
	}
	v, err := f.Call(ctx, args)
	if err != nil {
		return nil, wrapFunctionError(f.Name, err)
	}
	if v, err = Normalize(v); err != nil {
		return nil, wrapFunctionError(f.Name, err)
	}
	e.trace(TraceIntermediates, "FUNCTION", f.Name, v, true)
	return v, nil
}

func paramIndex(params []string, name string) int {
	for i, p := range params {
		if strings.EqualFold(p, name) {
			return i
		}
	}
	return -1
}

func wrapFunctionError(name string, err error) error {
	var re *RuntimeError
	if errors.As(err, &re) {
		if re.Function == "" {
			re.Function = name
		}
		return re
	}
	kind := KindFunctionFailed
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	e := newError(kind, "%s: %s", name, err)
	e.Function, e.err = name, err
	return e
}

// borrowedBy returns an engine that runs the labels of e, an enclosing
// program, against the variables and settings of the INTERPRET code in caller.
func (e *engine) borrowedBy(caller *engine) *engine {
	return &engine{run: caller.run, prog: e.prog, parent: caller, env: caller.env, ctx: caller.ctx, line: caller.line}
}

// callRoutine runs an internal routine in a new frame. The frame binds
// ARG.0 .. ARG.n and shares every other variable with the caller.
func (e *engine) callRoutine(ctx context.Context, pc int, name string, args []any, line int) (any, bool, error) {
	if len(e.frames) >= maxCallDepth {
		err := newError(KindFunctionFailed, "call depth exceeded: %d", maxCallDepth)
		err.Function = strings.ToUpper(name)
		return nil, false, err
	}
	env := e.env.newFrame()
	env.setLocal("ARG.0", newNumber(int64(len(args))))
	for i, v := range args {
		env.setLocal("ARG."+strconv.Itoa(i+1), v)
	}
	f := &frame{name: strings.ToUpper(name), line: line, args: args, loops: map[int]*loopState{}}
	saved := e.env
	e.env, e.frames = env, append(e.frames, f)
	defer func() {
		e.env, e.frames = saved, e.frames[:len(e.frames)-1]
	}()
	e.run.log.Debug().Str("routine", f.name).Int("args", len(args)).Int("depth", len(e.frames)).Msg("call")
	e.trace(TraceIntermediates, "CALL", f.name, nil, false)
	err := e.exec(ctx, pc+1)
	if rs, ok := err.(*returnSignal); ok {
		return rs.value, rs.hasValue, nil
	}
	return nil, false, err
}
