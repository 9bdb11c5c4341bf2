package rexx

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/itchyny/timefmt-go"
	"github.com/rs/zerolog"
)

// maxCallDepth bounds CALL and function recursion.
const maxCallDepth = 1000

// ExecutionContext is the per-run state that travels with the statement
// sequence: the current and previous ADDRESS target, NUMERIC settings, the
// active interpolation pattern and the TRACE setting.
type ExecutionContext struct {
	Address     string
	PrevAddress string
	Numeric     NumericSettings
	Pattern     Pattern
	Trace       TraceMode
}

// run is the state of one Interpreter.Run shared by the main program, its
// INTERPRET children and the library sandboxes it loads.
type run struct {
	interp      *Interpreter
	disp        *dispatcher
	funcs       map[string]*Function
	routines    map[string]*libRoutine
	libs        map[string]bool
	loading     []string
	queue       []string
	noInterpret bool
	args        []any
	in          *bufio.Reader
	out         io.Writer
	tracer      *tracer
	log         zerolog.Logger
	now         func() time.Time
}

// libRoutine is a label exported by a REQUIRE'd library.
type libRoutine struct {
	engine *engine
	pc     int
	lib    string
}

type frame struct {
	name  string
	line  int
	args  []any
	loops map[int]*loopState
}

type loopState struct {
	to, by    *apd.Decimal
	remaining int
	items     []any
	index     int
}

type trap struct {
	label     string
	condition string
}

type engine struct {
	run    *run
	prog   *Program
	parent *engine
	env    *Environment
	ctx    ExecutionContext
	trap   *trap
	frames []*frame
	line   int
}

func newEngine(r *run, prog *Program, env *Environment, ctx ExecutionContext) *engine {
	return &engine{run: r, prog: prog, env: env, ctx: ctx}
}

// child returns an engine for INTERPRET code. It copies the caller's context
// and starts with no SIGNAL ON handler of its own.
func (e *engine) child(prog *Program, env *Environment) *engine {
	c := newEngine(e.run, prog, env, e.ctx)
	c.parent = e
	return c
}

func (e *engine) frame() *frame {
	return e.frames[len(e.frames)-1]
}

// execute runs the program from its first statement. RETURN at the top level
// ends the program like EXIT.
func (e *engine) execute(ctx context.Context) (any, error) {
	args := e.run.args
	if e.parent != nil {
		args = e.parent.frame().args
	}
	e.frames = []*frame{{name: "main", args: args, loops: map[int]*loopState{}}}
	err := e.exec(ctx, 0)
	if rs, ok := err.(*returnSignal); ok {
		return rs.value, nil
	}
	return nil, err
}

func (e *engine) exec(ctx context.Context, pc int) error {
	stmts := e.prog.Statements
	for pc < len(stmts) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		s := stmts[pc]
		e.line = s.Line
		if s.Op != oplabel && s.Op != opnop {
			e.run.log.Trace().Int("pc", pc).Int("line", s.Line).Stringer("op", s.Op).Msg("step")
			e.trace(TraceAll, "CLAUSE", fmt.Sprintf("%d: %s", s.Line, e.prog.sourceLine(s.Line)), nil, false)
		}
		next, err := e.step(ctx, pc, s)
		if err != nil {
			if next, err = e.guard(ctx, err, s); err != nil {
				return err
			}
		}
		pc = next
	}
	return nil
}

// guard turns a failing statement into a RuntimeError with its context, and
// transfers control to the SIGNAL ON label when one is armed. The handler is
// disarmed once it catches an error. SecurityViolation is never caught.
func (e *engine) guard(ctx context.Context, err error, s *Statement) (int, error) {
	switch err.(type) {
	case *exitSignal, *returnSignal:
		return 0, err
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return 0, err
	}
	re := asRuntimeError(err)
	if re.Line == 0 {
		re.Line = s.Line
	}
	if re.Context == nil {
		re.Context = e.capture(re, s)
	}
	if re.Kind == KindSecurityViolation || e.trap == nil || !e.trap.catches(re) {
		return 0, re
	}
	t := e.trap
	e.trap = nil
	pc, ok := e.prog.Label(t.label)
	if !ok {
		return 0, labelNotFoundError(t.label, e.prog.LabelNames())
	}
	e.run.log.Debug().Str("kind", re.Kind.String()).Int("line", re.Line).Str("label", t.label).Msg("error trapped")
	e.trace(TraceNormal, "ERROR", re.Error(), nil, false)
	c := re.Context
	e.env.Set("ERROR_LINE", newNumber(int64(c.Line)))
	e.env.Set("ERROR_MESSAGE", c.Message)
	e.env.Set("ERROR_FUNCTION", c.Function)
	e.env.Set("ERROR_COMMAND", c.Command)
	e.env.Set("ERROR_TYPE", re.Kind.String())
	e.env.Set("ERROR_VARIABLES", c.Variables)
	stack := NewArray()
	for _, f := range c.Stack {
		stack.Push(f)
	}
	e.env.Set("ERROR_STACK", stack)
	e.env.Set("ERROR_TIMESTAMP", timefmt.Format(c.Timestamp, "%Y-%m-%dT%H:%M:%S%:z"))
	e.env.Set("SIGL", newNumber(int64(c.Line)))
	return pc, nil
}

func (t *trap) catches(re *RuntimeError) bool {
	switch t.condition {
	case "SYNTAX":
		return re.Kind != KindAddressDispatch
	case "FAILURE":
		return re.Kind == KindAddressDispatch || re.Kind == KindTimeout
	default:
		return true
	}
}

func (e *engine) capture(re *RuntimeError, s *Statement) *ErrorContext {
	cmd := re.Command
	if cmd == "" {
		cmd = e.prog.sourceLine(s.Line)
	}
	return &ErrorContext{
		Line:      re.Line,
		Message:   re.Message,
		Function:  re.Function,
		Command:   cmd,
		Variables: e.env.Snapshot(),
		Stack:     e.stack(),
		Timestamp: e.run.now(),
	}
}

// stack lists the active routines, innermost first.
func (e *engine) stack() []string {
	var xs []string
	line := e.line
	for i := len(e.frames) - 1; i >= 0; i-- {
		f := e.frames[i]
		xs = append(xs, fmt.Sprintf("%s (line %d)", f.name, line))
		line = f.line
	}
	if e.parent != nil {
		xs = append(xs, e.parent.stack()...)
	}
	return xs
}

func (e *engine) trace(level TraceMode, typ, desc string, result any, hasResult bool) {
	if e.ctx.Trace == TraceOff || e.ctx.Trace < level {
		return
	}
	e.run.tracer.emit(e.ctx.Trace, typ, desc, result, hasResult)
}

func (e *engine) step(ctx context.Context, pc int, s *Statement) (int, error) {
	switch s.Op {
	case opnop, oplabel:
	case opassign:
		v, err := e.eval(ctx, s.Expr)
		if err != nil {
			return 0, err
		}
		target := s.V.(*Expr)
		if err := e.assign(ctx, target, v); err != nil {
			return 0, err
		}
		e.trace(TraceResults, "ASSIGN", target.String(), v, true)
	case opsay:
		var text string
		if s.Expr != nil {
			v, err := e.eval(ctx, s.Expr)
			if err != nil {
				return 0, err
			}
			text = e.str(v)
		}
		fmt.Fprintln(e.run.out, text)
		e.trace(TraceResults, "SAY", strconv.Quote(text), nil, false)
	case opif:
		b, err := e.cond(ctx, s.Expr)
		if err != nil {
			return 0, err
		}
		if !b {
			return s.Jump, nil
		}
	case opjump, opleave, opiterate:
		return s.Jump, nil
	case opdo:
		return e.doStart(ctx, pc, s)
	case opend:
		return e.doNext(ctx, s.Jump)
	case opcall:
		args, err := e.evalArgs(ctx, s.Args)
		if err != nil {
			return 0, err
		}
		v, ok, err := e.call(ctx, s.Name, args, nil, true)
		if err != nil {
			return 0, err
		}
		if ok {
			e.env.Set("RESULT", v)
		} else {
			e.env.Drop("RESULT")
		}
	case opreturn, opexit:
		var v any
		if s.Expr != nil {
			var err error
			if v, err = e.eval(ctx, s.Expr); err != nil {
				return 0, err
			}
		}
		if s.Op == opexit {
			return 0, &exitSignal{v}
		}
		return 0, &returnSignal{v, s.Expr != nil}
	case opsignal:
		return e.signal(s.Name, s.Line)
	case opsignalvalue:
		v, err := e.eval(ctx, s.Expr)
		if err != nil {
			return 0, err
		}
		return e.signal(e.str(v), s.Line)
	case opsignalon:
		e.trap = &trap{label: s.Name, condition: s.V.(string)}
	case opsignaloff:
		e.trap = nil
	case opaddress:
		if err := e.address(ctx, s); err != nil {
			return 0, err
		}
	case opcommand:
		if err := e.dispatch(ctx, s, s.V.(*addressClause), e.ctx.Address); err != nil {
			return 0, err
		}
	case opmethod:
		if err := e.dispatch(ctx, s, s.V.(*addressClause), e.ctx.Address); err != nil {
			return 0, err
		}
	case opexpr:
		if _, err := e.eval(ctx, s.Expr); err != nil {
			return 0, err
		}
	case opinterpret:
		if e.run.noInterpret {
			return 0, securityError("INTERPRET")
		}
		v, err := e.eval(ctx, s.Expr)
		if err != nil {
			return 0, err
		}
		if err := e.interpret(ctx, e.str(v), s.V.(*interpretClause)); err != nil {
			return 0, err
		}
	case opnointerpret:
		e.run.noInterpret = true
		e.run.log.Debug().Int("line", s.Line).Msg("NO-INTERPRET")
	case opnumeric:
		if err := e.numeric(ctx, s); err != nil {
			return 0, err
		}
	case opparse:
		if err := e.parse(ctx, s); err != nil {
			return 0, err
		}
	case oppush, opqueue:
		var line string
		if s.Expr != nil {
			v, err := e.eval(ctx, s.Expr)
			if err != nil {
				return 0, err
			}
			line = e.str(v)
		}
		if s.Op == oppush {
			e.run.queue = append([]string{line}, e.run.queue...)
		} else {
			e.run.queue = append(e.run.queue, line)
		}
	case opdrop:
		for _, name := range s.V.([]string) {
			e.drop(name)
		}
	case optrace:
		name := s.Name
		if s.Expr != nil {
			v, err := e.eval(ctx, s.Expr)
			if err != nil {
				return 0, err
			}
			name = e.str(v)
		}
		mode, ok := parseTraceMode(name)
		if !ok {
			return 0, newError(KindTypeCoercion, "unknown TRACE setting: %s", name)
		}
		e.ctx.Trace = mode
	case oprequire:
		v, err := e.eval(ctx, s.Expr)
		if err != nil {
			return 0, err
		}
		if err := e.require(ctx, e.str(v)); err != nil {
			return 0, err
		}
	case opinterpolation:
		pat, ok := e.pattern(s.Name)
		if !ok {
			return 0, newError(KindTypeCoercion, "interpolation pattern not defined: %s", s.Name)
		}
		e.ctx.Pattern = pat
	default:
		panic(s.Op)
	}
	return pc + 1, nil
}

func (e *engine) str(v any) string {
	return toString(v, e.ctx.Numeric)
}

func (e *engine) cond(ctx context.Context, x *Expr) (bool, error) {
	v, err := e.eval(ctx, x)
	if err != nil {
		return false, err
	}
	return toLogical(v)
}

func (e *engine) signal(label string, line int) (int, error) {
	pc, ok := e.prog.Label(label)
	if !ok {
		return 0, labelNotFoundError(label, e.prog.LabelNames())
	}
	e.env.Set("SIGL", newNumber(int64(line)))
	return pc, nil
}

func (e *engine) pattern(name string) (Pattern, bool) {
	for x := e; x != nil; x = x.parent {
		if pat, ok := x.prog.pattern(name); ok {
			return pat, true
		}
	}
	return Pattern{}, false
}

// doStart evaluates the controls of a repetitive DO once and runs the first
// test.
func (e *engine) doStart(ctx context.Context, pc int, s *Statement) (int, error) {
	loop, ok := s.V.(*doLoop)
	if !ok {
		return pc + 1, nil
	}
	st := &loopState{remaining: -1}
	switch {
	case loop.Over != nil:
		v, err := e.eval(ctx, loop.Over)
		if err != nil {
			return 0, err
		}
		switch v := v.(type) {
		case nil:
		case *Array:
			st.items = append([]any(nil), v.Items...)
		case *Object:
			for _, k := range v.Keys() {
				st.items = append(st.items, k)
			}
		default:
			return 0, newError(KindTypeCoercion, "DO OVER requires an array or object but got %s", typeErrorPreview(v))
		}
	case loop.Init != nil:
		v, err := e.eval(ctx, loop.Init)
		if err != nil {
			return 0, err
		}
		init, ok := toNumber(v)
		if !ok {
			return 0, newError(KindTypeCoercion, "DO %s: initial value is not a number: %s", loop.Var, e.str(v))
		}
		if loop.To != nil {
			if st.to, err = e.number(ctx, loop.To, "TO"); err != nil {
				return 0, err
			}
		}
		st.by = newNumber(1)
		if loop.By != nil {
			if st.by, err = e.number(ctx, loop.By, "BY"); err != nil {
				return 0, err
			}
		}
		e.env.Set(loop.Var, init)
	}
	count := loop.Count
	if loop.For != nil {
		count = loop.For
	}
	if count != nil {
		v, err := e.eval(ctx, count)
		if err != nil {
			return 0, err
		}
		n, ok := toInt(v)
		if !ok || n < 0 {
			return 0, newError(KindTypeCoercion, "DO count must be a non-negative whole number: %s", e.str(v))
		}
		st.remaining = n
	}
	e.frame().loops[pc] = st
	return e.doTest(ctx, pc, s, loop, st)
}

func (e *engine) number(ctx context.Context, x *Expr, what string) (*apd.Decimal, error) {
	v, err := e.eval(ctx, x)
	if err != nil {
		return nil, err
	}
	d, ok := toNumber(v)
	if !ok {
		return nil, newError(KindTypeCoercion, "%s value is not a number: %s", what, e.str(v))
	}
	return d, nil
}

// doTest decides whether the body runs again: TO, then the count, then
// WHILE.
func (e *engine) doTest(ctx context.Context, pc int, s *Statement, loop *doLoop, st *loopState) (int, error) {
	switch {
	case loop.Over != nil:
		if st.index >= len(st.items) {
			return s.Jump, nil
		}
		e.env.Set(loop.Var, st.items[st.index])
		st.index++
	case loop.Init != nil && st.to != nil:
		v, _ := e.env.Get(loop.Var)
		cur, ok := toNumber(v)
		if !ok {
			return 0, newError(KindTypeCoercion, "DO %s: control variable is not a number: %s", loop.Var, e.str(v))
		}
		c := compareNumbers(cur, st.to, e.ctx.Numeric)
		if st.by.Sign() >= 0 && c > 0 || st.by.Sign() < 0 && c < 0 {
			return s.Jump, nil
		}
	}
	if st.remaining == 0 {
		return s.Jump, nil
	}
	if st.remaining > 0 {
		st.remaining--
	}
	if loop.While != nil {
		b, err := e.cond(ctx, loop.While)
		if err != nil {
			return 0, err
		}
		if !b {
			return s.Jump, nil
		}
	}
	return pc + 1, nil
}

// doNext runs at END: UNTIL, then the step of the control variable, then the
// tests of the next iteration.
func (e *engine) doNext(ctx context.Context, pc int) (int, error) {
	s := e.prog.Statements[pc]
	loop, ok := s.V.(*doLoop)
	if !ok {
		return s.Jump, nil
	}
	st := e.frame().loops[pc]
	if st == nil {
		return s.Jump, nil
	}
	if loop.Until != nil {
		b, err := e.cond(ctx, loop.Until)
		if err != nil {
			return 0, err
		}
		if b {
			return s.Jump, nil
		}
	}
	if loop.Init != nil {
		v, _ := e.env.Get(loop.Var)
		cur, ok := toNumber(v)
		if !ok {
			return 0, newError(KindTypeCoercion, "DO %s: control variable is not a number: %s", loop.Var, e.str(v))
		}
		next := new(apd.Decimal)
		if _, err := e.ctx.Numeric.context().Add(next, cur, st.by); err != nil {
			return 0, newError(KindArithmetic, "DO %s: %s", loop.Var, err)
		}
		e.env.Set(loop.Var, next)
	}
	return e.doTest(ctx, pc, s, loop, st)
}

func (e *engine) numeric(ctx context.Context, s *Statement) error {
	n := e.ctx.Numeric
	switch s.Name {
	case "DIGITS", "FUZZ":
		v := DefaultDigits
		if s.Name == "FUZZ" {
			v = 0
		}
		if s.Expr != nil {
			x, err := e.eval(ctx, s.Expr)
			if err != nil {
				return err
			}
			var ok bool
			if v, ok = toInt(x); !ok {
				return newError(KindArithmetic, "NUMERIC %s must be a whole number: %s", s.Name, e.str(x))
			}
		}
		if s.Name == "DIGITS" {
			if v < 1 || v > MaxDigits {
				return newError(KindArithmetic, "NUMERIC DIGITS must be between 1 and %d: %d", MaxDigits, v)
			}
			if n.Fuzz >= v {
				return newError(KindArithmetic, "NUMERIC DIGITS %d must be greater than FUZZ %d", v, n.Fuzz)
			}
			n.Digits = v
		} else {
			if v < 0 || v >= n.Digits {
				return newError(KindArithmetic, "NUMERIC FUZZ must be between 0 and %d: %d", n.Digits-1, v)
			}
			n.Fuzz = v
		}
	case "FORM":
		n.Form = s.V.(NumericForm)
		if s.Expr != nil {
			x, err := e.eval(ctx, s.Expr)
			if err != nil {
				return err
			}
			switch f := strings.ToUpper(strings.TrimSpace(e.str(x))); f {
			case "SCIENTIFIC":
				n.Form = FormScientific
			case "ENGINEERING":
				n.Form = FormEngineering
			default:
				return newError(KindTypeCoercion, "NUMERIC FORM must be SCIENTIFIC or ENGINEERING: %s", f)
			}
		}
	}
	e.ctx.Numeric = n
	e.run.log.Debug().Int("digits", n.Digits).Int("fuzz", n.Fuzz).Stringer("form", n.Form).Msg("numeric")
	return nil
}

// Version is reported by PARSE VERSION.
const Version = "REXX-GO 5.00"

func (e *engine) parse(ctx context.Context, s *Statement) error {
	pc := s.V.(*parseClause)
	var sources []string
	switch pc.Source {
	case "ARG":
		for _, a := range e.frame().args {
			sources = append(sources, e.str(a))
		}
	case "PULL":
		sources = []string{e.pull()}
	case "SOURCE":
		sources = []string{"GO COMMAND " + e.frame().name}
	case "VERSION":
		sources = []string{Version}
	case "VAR":
		sources = []string{e.str(e.symbol(pc.Var))}
	case "VALUE":
		if s.Expr != nil {
			v, err := e.eval(ctx, s.Expr)
			if err != nil {
				return err
			}
			sources = []string{e.str(v)}
		}
	}
	lookup := func(name string) string {
		return e.str(e.symbol(name))
	}
	assign := func(name, v string) {
		e.setSymbol(name, v)
	}
	for i, tpl := range pc.Templates {
		var src string
		if i < len(sources) {
			src = sources[i]
		}
		switch {
		case pc.Upper:
			src = strings.ToUpper(src)
		case pc.Lower:
			src = strings.ToLower(src)
		}
		parseWithTemplate(src, tpl, lookup, assign)
	}
	return nil
}

// pull takes the head of the queue, or reads a line from the input when the
// queue is empty.
func (e *engine) pull() string {
	if q := e.run.queue; len(q) > 0 {
		e.run.queue = q[1:]
		return q[0]
	}
	if e.run.in == nil {
		return ""
	}
	line, _ := e.run.in.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

func (e *engine) drop(name string) {
	if strings.HasSuffix(name, ".") {
		e.dropStem(name)
		return
	}
	if i := strings.IndexByte(name, '.'); i > 0 {
		e.env.Drop(e.compound(strings.Split(name, ".")))
		return
	}
	e.env.Drop(name)
}

func (e *engine) dropStem(stem string) {
	root := e.env
	for root.transparent && root.parent != nil {
		root = root.parent
	}
	root.dropPrefix(strings.ToUpper(stem))
}

// address executes an ADDRESS instruction: a toggle, a switch of the
// default target, or a one-shot command to a named target.
func (e *engine) address(ctx context.Context, s *Statement) error {
	a := s.V.(*addressClause)
	target := a.Target
	if a.Remote {
		name, err := e.run.disp.registerRemote(a.Target, a.Alias)
		if err != nil {
			return err
		}
		target = name
	}
	switch {
	case a.Toggle:
		e.ctx.Address, e.ctx.PrevAddress = e.ctx.PrevAddress, e.ctx.Address
		if e.ctx.Address == "" {
			e.ctx.Address = DefaultAddress
		}
	case a.Form == 0:
		if !strings.EqualFold(target, e.ctx.Address) {
			e.ctx.PrevAddress, e.ctx.Address = e.ctx.Address, target
		}
	default:
		return e.dispatch(ctx, s, a, target)
	}
	e.run.log.Debug().Str("address", e.ctx.Address).Str("previous", e.ctx.PrevAddress).Msg("address")
	e.trace(TraceNormal, "ADDRESS", e.ctx.Address, nil, false)
	return nil
}

// dispatch sends one command to target and publishes RC, RESULT and
// ERRORTEXT. They are overwritten by every dispatch, failed ones included.
func (e *engine) dispatch(ctx context.Context, s *Statement, a *addressClause, target string) error {
	req := &AddressRequest{Target: target, Form: a.Form, Lookup: e.env.Get}
	if a.Form == FunctionCall {
		req.Operation, req.Command = s.Name, s.Name
		req.Params = NewObject()
		for i, k := range a.Keys {
			v, err := e.eval(ctx, s.Args[i])
			if err != nil {
				return err
			}
			req.Params.Set(k, v)
		}
	} else {
		v, err := e.eval(ctx, a.Command)
		if err != nil {
			return err
		}
		req.Command = e.str(v)
		if a.Form == LinesCapture {
			req.Lines = strings.Count(req.Command, "\n") + 1
		}
	}
	e.trace(TraceNormal, "COMMAND", strings.ToUpper(target)+" "+strconv.Quote(req.Command), nil, false)
	e.run.log.Debug().Str("target", target).Stringer("form", a.Form).Msg("dispatch")
	res, err := e.run.disp.dispatch(ctx, req)
	if err != nil {
		e.env.Set("RC", newNumber(-1))
		e.env.Set("RESULT", nil)
		e.env.Set("ERRORTEXT", err.Error())
		return err
	}
	result, err := Normalize(res.Result)
	if err != nil {
		return newError(KindAddressDispatch, "ADDRESS %s: %s", target, err)
	}
	e.env.Set("RC", newNumber(int64(res.RC)))
	e.env.Set("RESULT", result)
	e.env.Set("ERRORTEXT", res.ErrorText)
	e.trace(TraceNormal, "RC", strings.ToUpper(target), newNumber(int64(res.RC)), true)
	return nil
}
