package rexx

import (
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Compare l and r the way the normal comparison operators do. The result
// will be 0 if l = r, -1 if l < r, and +1 if l > r. Numeric strings compare
// as numbers under n, other strings compare case-insensitively with blanks
// trimmed.
func Compare(l, r any, n NumericSettings) int {
	if x, y, ok := bothNumbers(l, r); ok {
		return compareNumbers(x, y, n)
	}
	if sameRef(l, r) {
		return 0
	}
	ls := strings.Trim(toString(l, n), " \t")
	rs := strings.Trim(toString(r, n), " \t")
	if strings.EqualFold(ls, rs) {
		return 0
	}
	return strings.Compare(strings.ToLower(ls), strings.ToLower(rs))
}

func compareOp(op Operator, l, r any, n NumericSettings) bool {
	switch op {
	case OpEq:
		return Compare(l, r, n) == 0
	case OpNe:
		return Compare(l, r, n) != 0
	case OpGt:
		return Compare(l, r, n) > 0
	case OpLt:
		return Compare(l, r, n) < 0
	case OpGe:
		return Compare(l, r, n) >= 0
	case OpLe:
		return Compare(l, r, n) <= 0
	}
	if sameRef(l, r) {
		return op == OpStrictEq || op == OpStrictGe || op == OpStrictLe
	}
	ls, rs := toString(l, n), toString(r, n)
	switch op {
	case OpStrictEq:
		return strings.EqualFold(ls, rs)
	case OpStrictNe:
		return !strings.EqualFold(ls, rs)
	case OpStrictGt:
		return ls > rs
	case OpStrictLt:
		return ls < rs
	case OpStrictGe:
		return ls >= rs
	case OpStrictLe:
		return ls <= rs
	}
	panic(op)
}

func bothNumbers(l, r any) (*apd.Decimal, *apd.Decimal, bool) {
	if !isScalar(l) || !isScalar(r) {
		return nil, nil, false
	}
	x, ok := toNumber(l)
	if !ok {
		return nil, nil, false
	}
	y, ok := toNumber(r)
	if !ok {
		return nil, nil, false
	}
	return x, y, true
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, *apd.Decimal:
		return true
	default:
		return false
	}
}

// compareNumbers rounds both operands to DIGITS-FUZZ significant digits
// before comparing, so the last FUZZ digits are ignored.
func compareNumbers(x, y *apd.Decimal, n NumericSettings) int {
	c := n.fuzzContext()
	var a, b apd.Decimal
	if _, err := c.Round(&a, x); err != nil {
		return x.Cmp(y)
	}
	if _, err := c.Round(&b, y); err != nil {
		return x.Cmp(y)
	}
	return a.Cmp(&b)
}

func sameRef(l, r any) bool {
	switch l := l.(type) {
	case *Array:
		r, ok := r.(*Array)
		return ok && l == r
	case *Object:
		r, ok := r.(*Object)
		return ok && l == r
	}
	return false
}
