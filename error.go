package rexx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrorKind classifies a RuntimeError.
type ErrorKind int

// Runtime error kinds.
const (
	KindArithmetic ErrorKind = iota + 1
	KindTypeCoercion
	KindUndefinedLabel
	KindFunctionNotFound
	KindFunctionFailed
	KindAddressDispatch
	KindSecurityViolation
	KindTimeout
	KindSyntax
	KindModule
)

func (k ErrorKind) String() string {
	switch k {
	case KindArithmetic:
		return "Arithmetic"
	case KindTypeCoercion:
		return "TypeCoercion"
	case KindUndefinedLabel:
		return "UndefinedLabel"
	case KindFunctionNotFound:
		return "FunctionNotFound"
	case KindFunctionFailed:
		return "FunctionFailed"
	case KindAddressDispatch:
		return "AddressDispatchError"
	case KindSecurityViolation:
		return "SecurityViolation"
	case KindTimeout:
		return "Timeout"
	case KindSyntax:
		return "Syntax"
	case KindModule:
		return "ModuleError"
	default:
		return "ErrorKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// SyntaxError is returned by Parse. A script with a syntax error never runs.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (err *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error: line %d: %s", err.Line, err.Message)
}

// RuntimeError is raised while a program executes. Context is filled in when
// the error passes through the statement guard.
type RuntimeError struct {
	Kind     ErrorKind
	Line     int
	Message  string
	Function string
	Command  string
	Context  *ErrorContext
	err      error
}

func (err *RuntimeError) Error() string {
	return err.Kind.String() + ": " + err.Message
}

func (err *RuntimeError) Unwrap() error {
	return err.err
}

// ErrorContext is the state captured when a RuntimeError is raised.
type ErrorContext struct {
	Line      int
	Message   string
	Function  string
	Command   string
	Variables *Object
	Stack     []string
	Timestamp time.Time
}

func newError(kind ErrorKind, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// asRuntimeError converts any error raised by a statement into a RuntimeError.
func asRuntimeError(err error) *RuntimeError {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re
	}
	var se *SyntaxError
	if errors.As(err, &se) {
		return &RuntimeError{Kind: KindSyntax, Message: se.Error(), err: err}
	}
	return &RuntimeError{Kind: KindFunctionFailed, Message: err.Error(), err: err}
}

func zeroDivisionError(op string, l, r any) *RuntimeError {
	err := newError(KindArithmetic, "division by zero: cannot %s %s by %s",
		operatorVerb(op), typeErrorPreview(l), typeErrorPreview(r))
	err.Function = op
	return err
}

func binopTypeError(op string, l, r any) *RuntimeError {
	err := newError(KindTypeCoercion, "cannot %s: %s and %s",
		operatorVerb(op), typeErrorPreview(l), typeErrorPreview(r))
	err.Function = op
	return err
}

func unaryTypeError(op string, v any) *RuntimeError {
	err := newError(KindTypeCoercion, "cannot %s: %s", operatorVerb(op), typeErrorPreview(v))
	err.Function = op
	return err
}

func logicalValueError(v any) *RuntimeError {
	return newError(KindTypeCoercion, "logical value must be 0 or 1 but got: %s", typeErrorPreview(v))
}

func labelNotFoundError(name string, candidates []string) *RuntimeError {
	err := newError(KindUndefinedLabel, "label not found: %s%s", name, suggest(name, candidates))
	err.Function = strings.ToUpper(name)
	return err
}

func funcNotFoundError(name string, candidates []string) *RuntimeError {
	err := newError(KindFunctionNotFound, "function not defined: %s%s", name, suggest(name, candidates))
	err.Function = strings.ToUpper(name)
	return err
}

func securityError(op string) *RuntimeError {
	err := newError(KindSecurityViolation, "%s is disabled by NO-INTERPRET", op)
	err.Function = op
	return err
}

func typeErrorPreview(v any) string {
	return TypeOf(v) + preview(v)
}

func preview(v any) string {
	if v == nil {
		return ""
	}
	s, l := toString(v, DefaultNumeric()), 25
	if _, ok := v.(string); ok {
		s = strconv.Quote(s)
	}
	if len(s) > l {
		s = s[:l-3] + " ..."
	}
	return " (" + s + ")"
}

// exitSignal unwinds every active routine when EXIT runs.
type exitSignal struct {
	value any
}

func (*exitSignal) Error() string {
	return "exit"
}

// returnSignal ends the innermost routine.
type returnSignal struct {
	value    any
	hasValue bool
}

func (*returnSignal) Error() string {
	return "return"
}
