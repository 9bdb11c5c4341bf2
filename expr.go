package rexx

import (
	"strconv"
	"strings"
)

// ExprKind ...
type ExprKind int

// Expression kinds.
const (
	ExprLiteral ExprKind = iota + 1
	ExprString
	ExprSymbol
	ExprCall
	ExprIndex
	ExprMember
	ExprArray
	ExprObject
	ExprBinary
	ExprUnary
)

// Expr is a node of an expression tree.
type Expr struct {
	Kind  ExprKind
	Op    Operator
	Name  string
	Value any
	Quote byte
	Left  *Expr
	Right *Expr
	Args  []*Expr
	Keys  []string
	Line  int
}

func (e *Expr) String() string {
	var sb strings.Builder
	e.writeTo(&sb)
	return sb.String()
}

func (e *Expr) writeTo(sb *strings.Builder) {
	switch e.Kind {
	case ExprLiteral:
		sb.WriteString(toString(e.Value, DefaultNumeric()))
	case ExprString:
		q := string(e.Quote)
		if q == "\x00" {
			q = `"`
		}
		sb.WriteString(q + strings.ReplaceAll(e.Value.(string), q, q+q) + q)
	case ExprSymbol:
		sb.WriteString(e.Name)
	case ExprCall:
		sb.WriteString(e.Name)
		sb.WriteByte('(')
		for i, arg := range e.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			if e.Keys != nil && e.Keys[i] != "" {
				sb.WriteString(e.Keys[i] + "=")
			}
			arg.writeTo(sb)
		}
		sb.WriteByte(')')
	case ExprIndex:
		e.Left.writeTo(sb)
		sb.WriteByte('[')
		e.Right.writeTo(sb)
		sb.WriteByte(']')
	case ExprMember:
		e.Left.writeTo(sb)
		sb.WriteString("." + e.Name)
	case ExprArray:
		sb.WriteByte('[')
		for i, arg := range e.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			arg.writeTo(sb)
		}
		sb.WriteByte(']')
	case ExprObject:
		sb.WriteByte('{')
		for i, arg := range e.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.Quote(e.Keys[i]) + ": ")
			arg.writeTo(sb)
		}
		sb.WriteByte('}')
	case ExprBinary:
		e.Left.writeTo(sb)
		switch e.Op {
		case OpBlank:
			sb.WriteByte(' ')
		case OpConcat:
			if e.Name != "" {
				sb.WriteString(" || ")
			}
		default:
			sb.WriteString(" " + e.Op.String() + " ")
		}
		e.Right.writeTo(sb)
	case ExprUnary:
		sb.WriteString(e.Op.String())
		e.Left.writeTo(sb)
	}
}

// isCall reports whether e is a bare function call.
func (e *Expr) isCall() bool {
	return e.Kind == ExprCall
}
