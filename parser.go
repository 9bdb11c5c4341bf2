package rexx

import (
	"strings"
)

type parser struct {
	tokens []token
	pos    int
	stops  []string
	named  bool
}

func (p *parser) peek() token {
	return p.peekAt(0)
}

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *parser) next() token {
	t := p.peek()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *parser) atEnd() bool {
	k := p.peek().kind
	return k == tokEOC || k == tokEOF
}

func (p *parser) errorf(t token, format string, args ...any) *SyntaxError {
	return &SyntaxError{Line: t.line, Column: t.col, Message: newError(KindSyntax, format, args...).Message}
}

func (p *parser) unexpected(t token) *SyntaxError {
	switch t.kind {
	case tokEOF:
		return p.errorf(t, "unexpected end of script")
	case tokEOC:
		return p.errorf(t, "unexpected end of clause")
	case tokString:
		return p.errorf(t, "unexpected string: %q", t.text)
	case tokMember:
		return p.errorf(t, "unexpected token: .%s", t.text)
	}
	return p.errorf(t, "unexpected token: %s", t.text)
}

func (p *parser) isOp(t token, op string) bool {
	return t.kind == tokOp && t.text == op
}

// isStop reports whether t is a keyword that ends the current expression.
func (p *parser) isStop(t token) bool {
	if t.kind != tokSymbol {
		return false
	}
	if t.is("THEN") || t.is("ELSE") {
		return true
	}
	for _, s := range p.stops {
		if t.is(s) {
			return true
		}
	}
	return p.named && p.isOp(p.peekAt(1), "=")
}

// parseExpr parses an expression that ends at the end of the clause or at
// one of the given keywords.
func (p *parser) parseExpr(stops ...string) (*Expr, error) {
	saved := p.stops
	p.stops = stops
	defer func() { p.stops = saved }()
	if p.atEnd() || p.isStop(p.peek()) {
		return nil, p.unexpected(p.peek())
	}
	return p.parseBinary(1)
}

// parseNested parses a bracketed expression where no keyword stops apply.
func (p *parser) parseNested() (*Expr, error) {
	stops, named := p.stops, p.named
	p.stops, p.named = nil, false
	defer func() { p.stops, p.named = stops, named }()
	return p.parseBinary(1)
}

func (p *parser) parseBinary(prec int) (*Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		op, implicit, ok := p.peekOperator()
		if !ok || op.precedence() < prec {
			return left, nil
		}
		if !implicit {
			p.next()
		}
		right, err := p.parseBinary(op.precedence() + 1)
		if err != nil {
			return nil, err
		}
		e := &Expr{Kind: ExprBinary, Op: op, Left: left, Right: right, Line: t.line}
		if op == OpConcat && !implicit {
			e.Name = "||"
		}
		left = e
	}
}

// peekOperator returns the binary operator at the cursor. Two adjacent terms
// are joined by an implicit concatenation, with a blank when they were
// separated by one.
func (p *parser) peekOperator() (Operator, bool, bool) {
	t := p.peek()
	switch t.kind {
	case tokOp:
		op, ok := binaryOperators[t.text]
		return op, false, ok
	case tokString, tokNumber, tokHeredoc, tokLParen, tokLBrace:
	case tokLBrack:
		if !t.space {
			return 0, false, false
		}
	case tokSymbol:
		if p.isStop(t) {
			return 0, false, false
		}
	default:
		return 0, false, false
	}
	if t.space {
		return OpBlank, true, true
	}
	return OpConcat, true, true
}

func (p *parser) parseUnary() (*Expr, error) {
	t := p.peek()
	if t.kind == tokOp {
		if op, ok := unaryOperators[t.text]; ok {
			p.next()
			e, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &Expr{Kind: ExprUnary, Op: op, Left: e, Line: t.line}, nil
		}
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (*Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		switch {
		case t.kind == tokLBrack && !t.space:
			p.next()
			index, err := p.parseNested()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokRBrack, "]"); err != nil {
				return nil, err
			}
			e = &Expr{Kind: ExprIndex, Left: e, Right: index, Line: t.line}
		case t.kind == tokMember && !t.space:
			p.next()
			e = &Expr{Kind: ExprMember, Left: e, Name: t.text, Line: t.line}
		default:
			return e, nil
		}
	}
}

func (p *parser) expect(kind tokenKind, text string) error {
	t := p.peek()
	if t.kind != kind {
		if t.kind == tokEOC || t.kind == tokEOF {
			return p.errorf(t, "expected %s", text)
		}
		return p.errorf(t, "expected %s but got %s", text, t.text)
	}
	p.next()
	return nil
}

func (p *parser) parsePrimary() (*Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		d, ok := parseNumber(t.text)
		if !ok {
			return nil, p.errorf(t, "malformed number: %s", t.text)
		}
		return &Expr{Kind: ExprLiteral, Value: d, Line: t.line}, nil
	case tokString:
		return &Expr{Kind: ExprString, Value: t.text, Quote: t.quote, Line: t.line}, nil
	case tokHeredoc:
		return &Expr{Kind: ExprLiteral, Value: t.text, Line: t.line}, nil
	case tokSymbol:
		if p.isStop(t) {
			return nil, p.unexpected(t)
		}
		if l := p.peek(); l.kind == tokLParen && !l.space {
			p.next()
			return p.parseCall(t)
		}
		return &Expr{Kind: ExprSymbol, Name: t.text, Line: t.line}, nil
	case tokLParen:
		e, err := p.parseNested()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return e, nil
	case tokLBrack:
		return p.parseArray(t)
	case tokLBrace:
		return p.parseObject(t)
	default:
		return nil, p.unexpected(t)
	}
}

func (p *parser) parseCall(name token) (*Expr, error) {
	e := &Expr{Kind: ExprCall, Name: name.text, Line: name.line}
	if p.peek().kind == tokRParen {
		p.next()
		return e, nil
	}
	var keys []string
	for {
		var key string
		if t := p.peek(); t.kind == tokSymbol && !strings.Contains(t.text, ".") &&
			p.isOp(p.peekAt(1), "=") {
			key = t.text
			p.pos += 2
		}
		if key != "" && keys == nil {
			keys = make([]string, len(e.Args), len(e.Args)+1)
		}
		var arg *Expr
		if t := p.peek(); t.kind == tokComma || t.kind == tokRParen {
			if key != "" {
				return nil, p.unexpected(t)
			}
			arg = &Expr{Kind: ExprLiteral, Line: t.line}
		} else {
			var err error
			if arg, err = p.parseNested(); err != nil {
				return nil, err
			}
		}
		e.Args = append(e.Args, arg)
		if keys != nil {
			keys = append(keys, key)
		}
		t := p.next()
		if t.kind == tokRParen {
			break
		}
		if t.kind != tokComma {
			return nil, p.errorf(t, "expected , or ) in arguments of %s", name.text)
		}
	}
	e.Keys = keys
	return e, nil
}

func (p *parser) parseArray(open token) (*Expr, error) {
	e := &Expr{Kind: ExprArray, Line: open.line, Args: []*Expr{}}
	for p.peek().kind != tokRBrack {
		v, err := p.parseNested()
		if err != nil {
			return nil, err
		}
		e.Args = append(e.Args, v)
		if p.peek().kind != tokComma {
			break
		}
		p.next()
	}
	if err := p.expect(tokRBrack, "]"); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *parser) parseObject(open token) (*Expr, error) {
	e := &Expr{Kind: ExprObject, Line: open.line, Args: []*Expr{}, Keys: []string{}}
	for p.peek().kind != tokRBrace {
		k := p.next()
		switch k.kind {
		case tokString, tokSymbol, tokNumber:
		default:
			return nil, p.errorf(k, "object key must be a name or a string")
		}
		if err := p.expect(tokColon, ":"); err != nil {
			return nil, err
		}
		v, err := p.parseNested()
		if err != nil {
			return nil, err
		}
		e.Keys = append(e.Keys, k.text)
		e.Args = append(e.Args, v)
		if p.peek().kind != tokComma {
			break
		}
		p.next()
	}
	if err := p.expect(tokRBrace, "}"); err != nil {
		return nil, err
	}
	return e, nil
}
