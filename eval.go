package rexx

import (
	"context"
	"strings"
)

func (e *engine) eval(ctx context.Context, x *Expr) (any, error) {
	switch x.Kind {
	case ExprLiteral:
		return x.Value, nil
	case ExprString:
		s := x.Value.(string)
		if x.Quote == '"' {
			s = e.interpolate(s)
		}
		return s, nil
	case ExprSymbol:
		return e.symbol(x.Name), nil
	case ExprCall:
		args, err := e.evalArgs(ctx, x.Args)
		if err != nil {
			return nil, err
		}
		v, ok, err := e.call(ctx, x.Name, args, x.Keys, false)
		if err != nil {
			return nil, err
		}
		if !ok {
			err := newError(KindFunctionFailed, "%s did not return a value", x.Name)
			err.Function = strings.ToUpper(x.Name)
			return nil, err
		}
		return v, nil
	case ExprIndex:
		l, err := e.eval(ctx, x.Left)
		if err != nil {
			return nil, err
		}
		k, err := e.eval(ctx, x.Right)
		if err != nil {
			return nil, err
		}
		return member(l, e.str(k)), nil
	case ExprMember:
		l, err := e.eval(ctx, x.Left)
		if err != nil {
			return nil, err
		}
		return member(l, x.Name), nil
	case ExprArray:
		items, err := e.evalArgs(ctx, x.Args)
		if err != nil {
			return nil, err
		}
		return NewArray(items...), nil
	case ExprObject:
		o := NewObject()
		for i, k := range x.Keys {
			v, err := e.eval(ctx, x.Args[i])
			if err != nil {
				return nil, err
			}
			o.Set(k, v)
		}
		return o, nil
	case ExprUnary:
		v, err := e.eval(ctx, x.Left)
		if err != nil {
			return nil, err
		}
		return unaryOp(x.Op, v, e.ctx.Numeric)
	case ExprBinary:
		l, err := e.eval(ctx, x.Left)
		if err != nil {
			return nil, err
		}
		if x.Op == OpAnd || x.Op == OpOr {
			b, err := toLogical(l)
			if err != nil {
				return nil, err
			}
			if b == (x.Op == OpOr) {
				return b, nil
			}
		}
		r, err := e.eval(ctx, x.Right)
		if err != nil {
			return nil, err
		}
		v, err := binaryOp(x.Op, l, r, e.ctx.Numeric)
		if err == nil {
			e.trace(TraceIntermediates, "OPERATOR", x.String(), v, true)
		}
		return v, err
	default:
		panic(x.Kind)
	}
}

func (e *engine) evalArgs(ctx context.Context, xs []*Expr) ([]any, error) {
	args := make([]any, len(xs))
	for i, x := range xs {
		v, err := e.eval(ctx, x)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// symbol evaluates a symbol. An unset simple symbol is its own name in
// upper case, except TRUE, FALSE and NULL. A compound symbol whose stem holds
// an object or array walks into it; otherwise its tails are substituted and
// an unset compound is null.
func (e *engine) symbol(name string) any {
	i := strings.IndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		if v, ok := e.env.Get(name); ok {
			return v
		}
		switch strings.ToUpper(name) {
		case "TRUE":
			return true
		case "FALSE":
			return false
		case "NULL":
			return nil
		}
		if i < 0 {
			return strings.ToUpper(name)
		}
		return nil
	}
	parts := strings.Split(name, ".")
	if root, ok := e.env.Get(parts[0]); ok && isContainer(root) {
		v := root
		for _, p := range parts[1:] {
			v = member(v, e.tail(p, v))
		}
		return v
	}
	v, _ := e.env.Get(e.compound(parts))
	return v
}

func isContainer(v any) bool {
	switch v.(type) {
	case *Array, *Object:
		return true
	}
	return false
}

// tail resolves one tail of a path into a container. Array tails that are
// not numbers are looked up as variables.
func (e *engine) tail(p string, in any) string {
	if _, ok := in.(*Array); ok && p != "" && !isNumber(p[0]) && !strings.EqualFold(p, "length") {
		if v, ok := e.env.Get(p); ok {
			return e.str(v)
		}
	}
	return p
}

// compound builds the variable name of a stem compound: each tail that
// names a set variable is replaced by its value.
func (e *engine) compound(parts []string) string {
	var sb strings.Builder
	sb.WriteString(strings.ToUpper(parts[0]))
	for _, p := range parts[1:] {
		sb.WriteByte('.')
		switch {
		case p == "", isNumber(p[0]):
			sb.WriteString(p)
		default:
			if v, ok := e.env.Get(p); ok && !strings.Contains(p, ".") {
				sb.WriteString(e.str(v))
			} else {
				sb.WriteString(strings.ToUpper(p))
			}
		}
	}
	return sb.String()
}

// setSymbol assigns to a simple, stem or compound symbol.
func (e *engine) setSymbol(name string, v any) error {
	i := strings.IndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		e.env.Set(name, v)
		return nil
	}
	parts := strings.Split(name, ".")
	if root, ok := e.env.Get(parts[0]); ok && isContainer(root) {
		c := root
		for _, p := range parts[1 : len(parts)-1] {
			c = member(c, e.tail(p, c))
		}
		last := parts[len(parts)-1]
		return setMember(c, e.tail(last, c), v)
	}
	e.env.Set(e.compound(parts), v)
	return nil
}

func (e *engine) assign(ctx context.Context, target *Expr, v any) error {
	switch target.Kind {
	case ExprSymbol:
		return e.setSymbol(target.Name, v)
	case ExprIndex:
		c, err := e.eval(ctx, target.Left)
		if err != nil {
			return err
		}
		k, err := e.eval(ctx, target.Right)
		if err != nil {
			return err
		}
		return setMember(c, e.str(k), v)
	case ExprMember:
		c, err := e.eval(ctx, target.Left)
		if err != nil {
			return err
		}
		return setMember(c, target.Name, v)
	default:
		return newError(KindTypeCoercion, "cannot assign to %s", target)
	}
}

func setMember(c any, key string, v any) error {
	switch c := c.(type) {
	case *Object:
		if k, _, ok := c.lookup(key); ok {
			key = k
		}
		c.Set(key, v)
		return nil
	case *Array:
		i, ok := toInt(key)
		if !ok || i < 0 {
			return newError(KindTypeCoercion, "array index must be a non-negative whole number: %s", key)
		}
		c.Set(i, v)
		return nil
	default:
		return newError(KindTypeCoercion, "cannot set %q of %s", key, typeErrorPreview(c))
	}
}

// interpolate substitutes the placeholders of the active pattern. A
// placeholder whose root variable is unset stays as written; a missing key
// below a set root is empty.
func (e *engine) interpolate(s string) string {
	return interpolate(s, e.ctx.Pattern, func(name string) (string, bool) {
		if v, ok := e.env.Get(name); ok {
			return e.str(v), true
		}
		parts := splitPath(name)
		if len(parts) == 0 {
			return "", false
		}
		v, ok := e.env.Get(parts[0])
		if !ok {
			return "", false
		}
		for _, p := range parts[1:] {
			v = member(v, p)
		}
		return e.str(v), true
	})
}
