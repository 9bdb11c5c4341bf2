package rexx

import (
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Operator ...
type Operator int

// Operators ...
const (
	OpOr Operator = iota + 1
	OpXor
	OpAnd
	OpEq
	OpNe
	OpStrictEq
	OpStrictNe
	OpGt
	OpLt
	OpGe
	OpLe
	OpStrictGt
	OpStrictLt
	OpStrictGe
	OpStrictLe
	OpConcat
	OpBlank
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpIntDiv
	OpRem
	OpPow
	OpNot
	OpPlus
	OpNeg
)

var binaryOperators = map[string]Operator{
	"|":   OpOr,
	"&&":  OpXor,
	"&":   OpAnd,
	"=":   OpEq,
	`\=`:  OpNe,
	"!=":  OpNe,
	"¬=":  OpNe,
	"<>":  OpNe,
	"><":  OpNe,
	"==":  OpStrictEq,
	`\==`: OpStrictNe,
	"!==": OpStrictNe,
	"¬==": OpStrictNe,
	">":   OpGt,
	"<":   OpLt,
	">=":  OpGe,
	`\<`:  OpGe,
	"¬<":  OpGe,
	"<=":  OpLe,
	`\>`:  OpLe,
	"¬>":  OpLe,
	">>":  OpStrictGt,
	"<<":  OpStrictLt,
	">>=": OpStrictGe,
	"<<=": OpStrictLe,
	"||":  OpConcat,
	"+":   OpAdd,
	"-":   OpSub,
	"*":   OpMul,
	"/":   OpDiv,
	"%":   OpIntDiv,
	"//":  OpRem,
	"**":  OpPow,
}

var unaryOperators = map[string]Operator{
	`\`: OpNot,
	"!": OpNot,
	"¬": OpNot,
	"+": OpPlus,
	"-": OpNeg,
}

// String implements Stringer.
func (op Operator) String() string {
	switch op {
	case OpOr:
		return "|"
	case OpXor:
		return "&&"
	case OpAnd:
		return "&"
	case OpEq:
		return "="
	case OpNe:
		return `\=`
	case OpStrictEq:
		return "=="
	case OpStrictNe:
		return `\==`
	case OpGt:
		return ">"
	case OpLt:
		return "<"
	case OpGe:
		return ">="
	case OpLe:
		return "<="
	case OpStrictGt:
		return ">>"
	case OpStrictLt:
		return "<<"
	case OpStrictGe:
		return ">>="
	case OpStrictLe:
		return "<<="
	case OpConcat:
		return "||"
	case OpBlank:
		return " "
	case OpAdd, OpPlus:
		return "+"
	case OpSub, OpNeg:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpIntDiv:
		return "%"
	case OpRem:
		return "//"
	case OpPow:
		return "**"
	case OpNot:
		return `\`
	}
	panic(op)
}

// precedence returns the binding strength of a binary operator.
func (op Operator) precedence() int {
	switch op {
	case OpOr, OpXor:
		return 1
	case OpAnd:
		return 2
	case OpEq, OpNe, OpStrictEq, OpStrictNe, OpGt, OpLt, OpGe, OpLe,
		OpStrictGt, OpStrictLt, OpStrictGe, OpStrictLe:
		return 3
	case OpConcat, OpBlank:
		return 4
	case OpAdd, OpSub:
		return 5
	case OpMul, OpDiv, OpIntDiv, OpRem:
		return 6
	case OpPow:
		return 7
	default:
		return 0
	}
}

func (op Operator) isComparison() bool {
	return op.precedence() == 3
}

func operatorVerb(op string) string {
	switch op {
	case "+":
		return "add"
	case "-":
		return "subtract"
	case "*":
		return "multiply"
	case "/":
		return "divide"
	case "%":
		return "integer divide"
	case "//":
		return "take the remainder of"
	case "**":
		return "raise"
	case `\`:
		return "negate"
	default:
		return "apply " + op + " to"
	}
}

func binaryOp(op Operator, l, r any, n NumericSettings) (any, error) {
	switch op {
	case OpConcat:
		return toString(l, n) + toString(r, n), nil
	case OpBlank:
		return toString(l, n) + " " + toString(r, n), nil
	case OpOr, OpXor, OpAnd:
		x, err := toLogical(l)
		if err != nil {
			return nil, err
		}
		y, err := toLogical(r)
		if err != nil {
			return nil, err
		}
		switch op {
		case OpOr:
			return x || y, nil
		case OpAnd:
			return x && y, nil
		default:
			return x != y, nil
		}
	}
	if op.isComparison() {
		return compareOp(op, l, r, n), nil
	}
	return arith(op, l, r, n)
}

func arith(op Operator, l, r any, n NumericSettings) (any, error) {
	x, ok := toNumber(l)
	if !ok {
		return nil, binopTypeError(op.String(), l, r)
	}
	y, ok := toNumber(r)
	if !ok {
		return nil, binopTypeError(op.String(), l, r)
	}
	c, d := n.context(), new(apd.Decimal)
	var err error
	switch op {
	case OpAdd:
		_, err = c.Add(d, x, y)
	case OpSub:
		_, err = c.Sub(d, x, y)
	case OpMul:
		_, err = c.Mul(d, x, y)
	case OpDiv, OpIntDiv, OpRem:
		if y.IsZero() {
			return nil, zeroDivisionError(op.String(), l, r)
		}
		switch op {
		case OpDiv:
			if _, err = c.Quo(d, x, y); err == nil {
				d.Reduce(d)
			}
		case OpIntDiv:
			_, err = c.QuoInteger(d, x, y)
		default:
			_, err = c.Rem(d, x, y)
		}
	case OpPow:
		if _, ok := toInt(y); !ok {
			err := newError(KindTypeCoercion, "exponent must be a whole number: %s", typeErrorPreview(r))
			err.Function = op.String()
			return nil, err
		}
		if x.IsZero() && y.Negative {
			return nil, zeroDivisionError(op.String(), l, r)
		}
		if _, err = c.Pow(d, x, y); err == nil && y.Negative {
			d.Reduce(d)
		}
	default:
		panic(op)
	}
	if err != nil {
		e := newError(KindArithmetic, "cannot %s %s and %s: %s",
			operatorVerb(op.String()), typeErrorPreview(l), typeErrorPreview(r), err)
		e.Function = op.String()
		return nil, e
	}
	return d, nil
}

func unaryOp(op Operator, v any, n NumericSettings) (any, error) {
	if op == OpNot {
		b, err := toLogical(v)
		if err != nil {
			return nil, err
		}
		return !b, nil
	}
	x, ok := toNumber(v)
	if !ok {
		return nil, unaryTypeError(op.String(), v)
	}
	c, d := n.context(), new(apd.Decimal)
	var err error
	if op == OpNeg {
		_, err = c.Neg(d, x)
	} else {
		_, err = c.Round(d, x)
	}
	if err != nil {
		return nil, newError(KindArithmetic, "%s", err)
	}
	return d, nil
}

// toLogical accepts booleans, the numbers 0 and 1, and the strings "true"
// and "false".
func toLogical(v any) (bool, error) {
	switch v := v.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true":
			return true, nil
		case "0", "false":
			return false, nil
		}
	case *apd.Decimal:
		if v.IsZero() {
			return false, nil
		}
		if v.Cmp(newNumber(1)) == 0 {
			return true, nil
		}
	}
	return false, logicalValueError(v)
}
