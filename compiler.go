package rexx

import (
	"strings"
)

type compiler struct {
	parser
	prog     *Program
	loops    []*loopinfo
	switches []token
}

type loopinfo struct {
	name     string
	pc       int
	leaves   []int
	iterates []int
}

// Parse parses a script. Every label, block and interpolation pattern is
// resolved here, so a script with a syntax error never starts running.
func Parse(src string) (*Program, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	c := &compiler{
		parser: parser{tokens: tokens},
		prog: &Program{
			Labels:   map[string]int{},
			Patterns: map[string]Pattern{},
			lines:    strings.Split(src, "\n"),
		},
	}
	if _, err := c.compileBlock(); err != nil {
		return nil, err
	}
	for _, t := range c.switches {
		if _, ok := c.prog.pattern(t.text); !ok {
			return nil, c.errorf(t, "interpolation pattern not defined: %s", t.text)
		}
	}
	return c.prog, nil
}

func (c *compiler) emit(s *Statement) int {
	c.prog.Statements = append(c.prog.Statements, s)
	return len(c.prog.Statements) - 1
}

// patch points the jump of statement i at the next statement to be emitted.
func (c *compiler) patch(i int) {
	c.prog.Statements[i].Jump = len(c.prog.Statements)
}

func (c *compiler) skipEOC() {
	for c.peek().kind == tokEOC {
		c.next()
	}
}

// keyword reports whether t, at the cursor, is a keyword rather than the
// start of an assignment or a label.
func (c *compiler) keyword(t token, names ...string) bool {
	if t.kind != tokSymbol || c.isOp(c.peekAt(1), "=") || c.peekAt(1).kind == tokColon {
		return false
	}
	for _, name := range names {
		if t.is(name) {
			return true
		}
	}
	return false
}

func (c *compiler) endClause() error {
	if c.atEnd() || c.peek().is("ELSE") {
		return nil
	}
	return c.unexpected(c.peek())
}

// compileBlock compiles statements until one of the terminators, which is
// returned without being consumed.
func (c *compiler) compileBlock(terms ...string) (token, error) {
	for {
		c.skipEOC()
		t := c.peek()
		if t.kind == tokEOF {
			if len(terms) > 0 {
				return t, c.errorf(t, "missing %s", terms[len(terms)-1])
			}
			return t, nil
		}
		if c.keyword(t, terms...) {
			return t, nil
		}
		if c.keyword(t, "END", "ENDIF", "ELSE", "WHEN", "OTHERWISE", "THEN") {
			return t, c.errorf(t, "unexpected %s", strings.ToUpper(t.text))
		}
		if err := c.compileStatement(); err != nil {
			return t, err
		}
	}
}

func (c *compiler) compileStatement() error {
	t := c.peek()
	switch {
	case t.kind == tokSymbol && c.peekAt(1).kind == tokColon:
		return c.compileLabel()
	case t.kind == tokHeredoc:
		c.next()
		c.emit(&Statement{Op: opcommand, Line: t.line, V: &addressClause{
			Form:    heredocForm(t),
			Command: &Expr{Kind: ExprLiteral, Value: t.text, Line: t.line},
		}})
		return c.endClause()
	case t.is("NO") && c.isOp(c.peekAt(1), "-") && c.peekAt(2).is("INTERPRET") &&
		!c.peekAt(1).space && !c.peekAt(2).space:
		c.pos += 3
		c.emit(&Statement{Op: opnointerpret, Line: t.line})
		return c.endClause()
	}
	if c.keyword(t, keywords...) && !(t.is("ARG") && c.peekAt(1).kind == tokLParen && !c.peekAt(1).space) {
		switch strings.ToUpper(t.text) {
		case "LET":
			c.next()
			if ok, err := c.compileAssign(); ok || err != nil {
				return err
			}
			return c.errorf(t, "expected assignment after LET")
		case "SAY":
			return c.compileSimple(opsay, "")
		case "IF":
			_, err := c.compileIf()
			return err
		case "DO":
			return c.compileDo()
		case "SELECT":
			return c.compileSelect()
		case "LEAVE":
			return c.compileLeave(opleave)
		case "ITERATE":
			return c.compileLeave(opiterate)
		case "CALL":
			return c.compileCall()
		case "RETURN":
			return c.compileSimple(opreturn, "")
		case "EXIT":
			return c.compileSimple(opexit, "")
		case "SIGNAL":
			return c.compileSignal()
		case "ADDRESS":
			return c.compileAddress()
		case "INTERPRET":
			return c.compileInterpret()
		case "NUMERIC":
			return c.compileNumeric()
		case "PARSE":
			return c.compileParse()
		case "ARG", "PULL":
			c.next()
			return c.compileTemplate(t, &parseClause{Upper: true, Source: strings.ToUpper(t.text)})
		case "PUSH":
			return c.compileSimple(oppush, "")
		case "QUEUE":
			return c.compileSimple(opqueue, "")
		case "DROP":
			return c.compileDrop()
		case "NOP":
			c.next()
			c.emit(&Statement{Op: opnop, Line: t.line})
			return c.endClause()
		case "TRACE":
			return c.compileTrace()
		case "REQUIRE":
			c.next()
			e, err := c.parseExpr()
			if err != nil {
				return err
			}
			c.emit(&Statement{Op: oprequire, Line: t.line, Expr: e})
			return c.endClause()
		case "INTERPOLATION":
			return c.compileInterpolation()
		}
	}
	if ok, err := c.compileAssign(); ok || err != nil {
		return err
	}
	if c.isMethod() {
		a := &addressClause{Form: FunctionCall}
		s := &Statement{Op: opmethod, Line: t.line, V: a}
		if err := c.compileMethod(s, a); err != nil {
			return err
		}
		c.emit(s)
		return c.endClause()
	}
	e, err := c.parseExpr()
	if err != nil {
		return err
	}
	if e.isCall() {
		c.emit(&Statement{Op: opexpr, Line: t.line, Expr: e})
	} else {
		c.emit(&Statement{Op: opcommand, Line: t.line, V: &addressClause{Form: InlineQuoted, Command: e}})
	}
	return c.endClause()
}

var keywords = []string{
	"LET", "SAY", "IF", "DO", "SELECT", "LEAVE", "ITERATE", "CALL", "RETURN",
	"EXIT", "SIGNAL", "ADDRESS", "INTERPRET", "NUMERIC", "PARSE", "ARG",
	"PULL", "PUSH", "QUEUE", "DROP", "NOP", "TRACE", "REQUIRE", "INTERPOLATION",
}

func (c *compiler) compileLabel() error {
	t := c.next()
	c.next()
	if strings.Contains(t.text, ".") {
		return c.errorf(t, "invalid label name: %s", t.text)
	}
	key := strings.ToUpper(t.text)
	if _, ok := c.prog.Labels[key]; !ok {
		c.prog.Labels[key] = len(c.prog.Statements)
	}
	c.emit(&Statement{Op: oplabel, Line: t.line, Name: t.text})
	return nil
}

// compileSimple compiles KEYWORD [expr].
func (c *compiler) compileSimple(op opcode, name string) error {
	t := c.next()
	s := &Statement{Op: op, Line: t.line, Name: name}
	if !c.atEnd() && !c.peek().is("ELSE") {
		e, err := c.parseExpr()
		if err != nil {
			return err
		}
		s.Expr = e
	}
	c.emit(s)
	return c.endClause()
}

func (c *compiler) compileAssign() (bool, error) {
	start, t := c.pos, c.peek()
	if t.kind != tokSymbol {
		return false, nil
	}
	var target *Expr
	switch n := c.peekAt(1); {
	case c.isOp(n, "="):
		c.next()
		target = &Expr{Kind: ExprSymbol, Name: t.text, Line: t.line}
	case (n.kind == tokLBrack || n.kind == tokMember) && !n.space:
		var err error
		if target, err = c.parsePostfix(); err != nil || !c.isOp(c.peek(), "=") {
			c.pos = start
			return false, nil
		}
	default:
		return false, nil
	}
	c.next()
	value := &Expr{Kind: ExprString, Value: "", Line: t.line}
	if !c.atEnd() {
		var err error
		if value, err = c.parseExpr(); err != nil {
			return true, err
		}
	}
	c.emit(&Statement{Op: opassign, Line: t.line, Expr: value, V: target})
	return true, c.endClause()
}

// isMethod reports whether the clause is `operation key=value ...`.
func (c *compiler) isMethod() bool {
	return c.peek().kind == tokSymbol && c.peekAt(1).kind == tokSymbol &&
		!strings.Contains(c.peekAt(1).text, ".") && c.isOp(c.peekAt(2), "=")
}

func (c *compiler) compileMethod(s *Statement, a *addressClause) error {
	s.Name = c.next().text
	c.named = true
	defer func() { c.named = false }()
	for !c.atEnd() && !c.peek().is("ELSE") {
		k := c.next()
		if k.kind != tokSymbol || !c.isOp(c.peek(), "=") {
			return c.errorf(k, "expected name=value parameter for %s", s.Name)
		}
		c.next()
		v, err := c.parseExpr()
		if err != nil {
			return err
		}
		a.Keys = append(a.Keys, k.text)
		s.Args = append(s.Args, v)
	}
	return nil
}

// compileIf compiles the three IF shapes and reports whether it consumed an
// ENDIF, which an ELSE IF chain shares with its parent.
func (c *compiler) compileIf() (bool, error) {
	t := c.next()
	cond, err := c.parseExpr()
	if err != nil {
		return false, err
	}
	c.skipEOC()
	if !c.peek().is("THEN") {
		return false, c.errorf(c.peek(), "expected THEN")
	}
	c.next()
	jf := c.emit(&Statement{Op: opif, Line: t.line, Expr: cond})
	if c.atEnd() {
		c.skipEOC()
		if !c.keyword(c.peek(), "DO") {
			end, err := c.compileBlock("ELSE", "ENDIF")
			if err != nil {
				return false, err
			}
			c.next()
			if end.is("ENDIF") {
				c.patch(jf)
				return true, c.endClause()
			}
			j := c.emit(&Statement{Op: opjump, Line: end.line})
			c.patch(jf)
			var closed bool
			if c.keyword(c.peek(), "IF") {
				if closed, err = c.compileIf(); err != nil {
					return false, err
				}
			}
			if !closed {
				if _, err := c.compileBlock("ENDIF"); err != nil {
					return false, err
				}
				c.next()
			}
			c.patch(j)
			return true, c.endClause()
		}
	}
	if err := c.compileStatement(); err != nil {
		return false, err
	}
	if !c.claimElse() {
		c.patch(jf)
		return false, nil
	}
	e := c.next()
	j := c.emit(&Statement{Op: opjump, Line: e.line})
	c.patch(jf)
	c.skipEOC()
	if err := c.compileStatement(); err != nil {
		return false, err
	}
	c.patch(j)
	return false, nil
}

// claimElse positions the cursor on an ELSE belonging to a one-statement
// THEN: one on the same line, one followed by a statement, or a lone ELSE
// followed by DO or IF.
func (c *compiler) claimElse() bool {
	i := c.pos
	for c.tokens[i].kind == tokEOC {
		i++
	}
	if !c.tokens[i].is("ELSE") || c.isOp(c.tokens[i+1], "=") {
		return false
	}
	if i == c.pos || c.tokens[i+1].kind != tokEOC && c.tokens[i+1].kind != tokEOF {
		c.pos = i
		return true
	}
	j := i + 1
	for c.tokens[j].kind == tokEOC {
		j++
	}
	if c.tokens[j].is("DO") || c.tokens[j].is("IF") {
		c.pos = i
		return true
	}
	return false
}

func (c *compiler) compileDo() error {
	t := c.next()
	if c.atEnd() {
		if _, err := c.compileBlock("END"); err != nil {
			return err
		}
		c.next()
		return c.endClause()
	}
	loop := &doLoop{}
	stops := []string{"TO", "BY", "FOR", "WHILE", "UNTIL"}
	var err error
	switch k := c.peek(); {
	case k.is("FOREVER"):
		c.next()
		loop.Forever = true
	case k.kind == tokSymbol && c.peekAt(1).is("OVER"):
		loop.Var = c.next().text
		c.next()
		loop.Over, err = c.parseExpr("WHILE", "UNTIL")
	case k.kind == tokSymbol && c.isOp(c.peekAt(1), "="):
		loop.Var = c.next().text
		c.next()
		if loop.Init, err = c.parseExpr(stops...); err != nil {
			return err
		}
	controls:
		for err == nil {
			switch k := c.peek(); {
			case k.is("TO") && loop.To == nil:
				c.next()
				loop.To, err = c.parseExpr(stops...)
			case k.is("BY") && loop.By == nil:
				c.next()
				loop.By, err = c.parseExpr(stops...)
			case k.is("FOR") && loop.For == nil:
				c.next()
				loop.For, err = c.parseExpr(stops...)
			default:
				break controls
			}
		}
	case k.is("WHILE") || k.is("UNTIL"):
	default:
		loop.Count, err = c.parseExpr("WHILE", "UNTIL")
	}
	if err != nil {
		return err
	}
	switch k := c.peek(); {
	case k.is("WHILE"):
		c.next()
		loop.While, err = c.parseExpr()
	case k.is("UNTIL"):
		c.next()
		loop.Until, err = c.parseExpr()
	}
	if err != nil {
		return err
	}
	if !c.atEnd() {
		return c.unexpected(c.peek())
	}
	pc := c.emit(&Statement{Op: opdo, Line: t.line, Name: loop.Var, V: loop})
	info := &loopinfo{name: loop.Var, pc: pc}
	c.loops = append(c.loops, info)
	if _, err := c.compileBlock("END"); err != nil {
		return err
	}
	c.loops = c.loops[:len(c.loops)-1]
	end := c.next()
	if n := c.peek(); n.kind == tokSymbol && !n.is("ELSE") {
		if !strings.EqualFold(n.text, loop.Var) {
			return c.errorf(n, "END %s does not match DO %s", n.text, loop.Var)
		}
		c.next()
	}
	endpc := c.emit(&Statement{Op: opend, Line: end.line, Jump: pc})
	c.prog.Statements[pc].Jump = endpc + 1
	for _, i := range info.leaves {
		c.prog.Statements[i].Jump = endpc + 1
	}
	for _, i := range info.iterates {
		c.prog.Statements[i].Jump = endpc
	}
	return c.endClause()
}

func (c *compiler) compileLeave(op opcode) error {
	t := c.next()
	var name string
	if n := c.peek(); n.kind == tokSymbol && !n.is("ELSE") {
		name = c.next().text
	}
	for i := len(c.loops) - 1; i >= 0; i-- {
		info := c.loops[i]
		if name != "" && !strings.EqualFold(info.name, name) {
			continue
		}
		pc := c.emit(&Statement{Op: op, Line: t.line, Name: name})
		if op == opleave {
			info.leaves = append(info.leaves, pc)
		} else {
			info.iterates = append(info.iterates, pc)
		}
		return c.endClause()
	}
	if name != "" {
		return c.errorf(t, "%s %s: no active loop named %s", strings.ToUpper(t.text), name, name)
	}
	return c.errorf(t, "%s outside of a loop", strings.ToUpper(t.text))
}

func (c *compiler) compileSelect() error {
	t := c.next()
	if !c.atEnd() {
		return c.unexpected(c.peek())
	}
	var ends []int
	for {
		c.skipEOC()
		k := c.peek()
		switch {
		case c.keyword(k, "WHEN"):
			c.next()
			cond, err := c.parseExpr()
			if err != nil {
				return err
			}
			c.skipEOC()
			if !c.peek().is("THEN") {
				return c.errorf(c.peek(), "expected THEN")
			}
			c.next()
			jf := c.emit(&Statement{Op: opif, Line: k.line, Expr: cond})
			if _, err := c.compileBlock("WHEN", "OTHERWISE", "END"); err != nil {
				return err
			}
			ends = append(ends, c.emit(&Statement{Op: opjump, Line: k.line}))
			c.patch(jf)
		case c.keyword(k, "OTHERWISE"):
			c.next()
			if _, err := c.compileBlock("END"); err != nil {
				return err
			}
		case c.keyword(k, "END"):
			c.next()
			for _, i := range ends {
				c.patch(i)
			}
			return c.endClause()
		case k.kind == tokEOF:
			return c.errorf(t, "missing END for SELECT")
		default:
			return c.errorf(k, "expected WHEN, OTHERWISE or END in SELECT")
		}
	}
}

func (c *compiler) compileCall() error {
	t := c.next()
	name := c.next()
	if name.kind != tokSymbol && name.kind != tokString {
		return c.errorf(name, "expected routine name after CALL")
	}
	s := &Statement{Op: opcall, Line: t.line, Name: name.text}
	if l := c.peek(); l.kind == tokLParen && !l.space {
		c.next()
		e, err := c.parseCall(name)
		if err != nil {
			return err
		}
		s.Args = e.Args
		c.emit(s)
		return c.endClause()
	}
	for !c.atEnd() && !c.peek().is("ELSE") {
		if c.peek().kind == tokComma {
			s.Args = append(s.Args, &Expr{Kind: ExprLiteral, Line: t.line})
			c.next()
			continue
		}
		e, err := c.parseExpr()
		if err != nil {
			return err
		}
		s.Args = append(s.Args, e)
		if c.peek().kind != tokComma {
			break
		}
		c.next()
	}
	c.emit(s)
	return c.endClause()
}

func (c *compiler) compileSignal() error {
	t := c.next()
	switch k := c.peek(); {
	case k.is("ON") || k.is("OFF"):
		c.next()
		cond := c.next()
		if !cond.is("ERROR") && !cond.is("SYNTAX") && !cond.is("FAILURE") && !cond.is("ANY") {
			return c.errorf(cond, "unsupported condition: %s", cond.text)
		}
		if k.is("OFF") {
			c.emit(&Statement{Op: opsignaloff, Line: t.line, V: strings.ToUpper(cond.text)})
			return c.endClause()
		}
		label := cond.text
		if c.peek().is("NAME") {
			c.next()
			l := c.next()
			if l.kind != tokSymbol && l.kind != tokString {
				return c.errorf(l, "expected label after NAME")
			}
			label = l.text
		}
		c.emit(&Statement{Op: opsignalon, Line: t.line, Name: label, V: strings.ToUpper(cond.text)})
	case k.is("VALUE"):
		c.next()
		e, err := c.parseExpr()
		if err != nil {
			return err
		}
		c.emit(&Statement{Op: opsignalvalue, Line: t.line, Expr: e})
	case k.kind == tokSymbol || k.kind == tokString:
		c.next()
		c.emit(&Statement{Op: opsignal, Line: t.line, Name: k.text})
	default:
		return c.errorf(k, "expected label after SIGNAL")
	}
	return c.endClause()
}

func heredocForm(t token) RoutingForm {
	if t.lines > 0 {
		return LinesCapture
	}
	return HeredocBlock
}

func (c *compiler) compileAddress() error {
	t := c.next()
	s := &Statement{Op: opaddress, Line: t.line}
	if c.atEnd() {
		s.V = &addressClause{Toggle: true}
		c.emit(s)
		return nil
	}
	target := c.next()
	if target.kind != tokSymbol && target.kind != tokString {
		return c.errorf(target, "expected ADDRESS target")
	}
	a := &addressClause{Target: target.text}
	s.V = a
	if target.kind == tokString && isRemoteTarget(target.text) {
		a.Remote = true
		if c.peek().is("AS") {
			c.next()
			alias := c.next()
			if alias.kind != tokSymbol && alias.kind != tokString {
				return c.errorf(alias, "expected name after AS")
			}
			a.Alias = alias.text
		}
	}
	switch h := c.peek(); {
	case c.atEnd():
	case h.kind == tokHeredoc:
		c.next()
		a.Form = heredocForm(h)
		a.Command = &Expr{Kind: ExprLiteral, Value: h.text, Line: h.line}
	case c.isMethod():
		a.Form = FunctionCall
		if err := c.compileMethod(s, a); err != nil {
			return err
		}
	default:
		e, err := c.parseExpr()
		if err != nil {
			return err
		}
		a.Form = InlineQuoted
		a.Command = e
	}
	c.emit(s)
	return c.endClause()
}

func (c *compiler) compileInterpret() error {
	t := c.next()
	e, err := c.parseExpr("WITH")
	if err != nil {
		return err
	}
	ic := &interpretClause{Policy: PolicyFull}
	if c.peek().is("WITH") {
		c.next()
		switch k := c.next(); {
		case k.is("FULL"):
		case k.is("ISOLATED"):
			ic.Policy = PolicyIsolated
			if c.peek().kind == tokLParen || c.peek().is("IMPORT") {
				if c.peek().is("IMPORT") {
					c.next()
				}
				if ic.Imports, err = c.nameList(); err != nil {
					return err
				}
				ic.Policy = PolicyIsolatedIO
			}
			if c.peek().is("EXPORT") {
				c.next()
				if ic.Exports, err = c.nameList(); err != nil {
					return err
				}
				ic.Policy = PolicyIsolatedIO
			}
		default:
			return c.errorf(k, "expected FULL or ISOLATED after WITH")
		}
	}
	c.emit(&Statement{Op: opinterpret, Line: t.line, Expr: e, V: ic})
	return c.endClause()
}

// nameList parses `(a b, c)`.
func (c *compiler) nameList() ([]string, error) {
	if err := c.expect(tokLParen, "("); err != nil {
		return nil, err
	}
	names := []string{}
	for {
		switch t := c.next(); t.kind {
		case tokSymbol:
			names = append(names, t.text)
		case tokComma:
		case tokRParen:
			return names, nil
		default:
			return nil, c.errorf(t, "expected variable name but got %s", t.text)
		}
	}
}

func (c *compiler) compileNumeric() error {
	t := c.next()
	k := c.next()
	s := &Statement{Op: opnumeric, Line: t.line, Name: strings.ToUpper(k.text)}
	switch {
	case k.is("DIGITS"), k.is("FUZZ"):
		if !c.atEnd() {
			e, err := c.parseExpr()
			if err != nil {
				return err
			}
			s.Expr = e
		}
	case k.is("FORM"):
		s.V = FormScientific
		switch f := c.peek(); {
		case c.atEnd(), f.is("SCIENTIFIC"):
		case f.is("ENGINEERING"):
			s.V = FormEngineering
		case f.is("VALUE"):
			c.next()
			e, err := c.parseExpr()
			if err != nil {
				return err
			}
			s.Expr = e
			c.emit(s)
			return c.endClause()
		default:
			return c.errorf(f, "expected SCIENTIFIC or ENGINEERING")
		}
		if !c.atEnd() {
			c.next()
		}
	default:
		return c.errorf(k, "expected DIGITS, FUZZ or FORM after NUMERIC")
	}
	c.emit(s)
	return c.endClause()
}

func (c *compiler) compileParse() error {
	t := c.next()
	pc := &parseClause{}
	for {
		if k := c.peek(); k.is("UPPER") {
			pc.Upper = true
		} else if k.is("LOWER") {
			pc.Lower = true
		} else if !k.is("CASELESS") {
			break
		}
		c.next()
	}
	src := c.next()
	pc.Source = strings.ToUpper(src.text)
	switch {
	case src.is("ARG"), src.is("PULL"), src.is("SOURCE"), src.is("VERSION"):
	case src.is("VAR"):
		v := c.next()
		if v.kind != tokSymbol {
			return c.errorf(v, "expected variable name after PARSE VAR")
		}
		pc.Var = v.text
	case src.is("VALUE"):
		s := &Statement{Op: opparse, Line: t.line, V: pc}
		if !c.peek().is("WITH") {
			e, err := c.parseExpr("WITH")
			if err != nil {
				return err
			}
			s.Expr = e
		}
		if !c.peek().is("WITH") {
			return c.errorf(c.peek(), "expected WITH in PARSE VALUE")
		}
		c.next()
		return c.compileTemplateInto(s, pc)
	default:
		return c.errorf(src, "unsupported PARSE source: %s", src.text)
	}
	return c.compileTemplate(t, pc)
}

func (c *compiler) compileTemplate(t token, pc *parseClause) error {
	return c.compileTemplateInto(&Statement{Op: opparse, Line: t.line, V: pc}, pc)
}

func (c *compiler) compileTemplateInto(s *Statement, pc *parseClause) error {
	templates, err := c.parseTemplate()
	if err != nil {
		return err
	}
	pc.Templates = templates
	c.emit(s)
	return c.endClause()
}

func (c *compiler) compileDrop() error {
	t := c.next()
	var names []string
	for !c.atEnd() {
		n := c.next()
		if n.kind != tokSymbol {
			return c.errorf(n, "expected variable name after DROP")
		}
		names = append(names, n.text)
	}
	c.emit(&Statement{Op: opdrop, Line: t.line, V: names})
	return nil
}

func (c *compiler) compileTrace() error {
	t := c.next()
	s := &Statement{Op: optrace, Line: t.line, Name: "NORMAL"}
	switch m := c.peek(); {
	case c.atEnd():
	case m.is("VALUE"):
		c.next()
		e, err := c.parseExpr()
		if err != nil {
			return err
		}
		s.Expr = e
	case m.kind == tokSymbol || m.kind == tokString:
		c.next()
		mode, ok := parseTraceMode(m.text)
		if !ok {
			return c.errorf(m, "unknown TRACE setting: %s", m.text)
		}
		s.Name = mode.String()
	default:
		return c.unexpected(m)
	}
	c.emit(s)
	return c.endClause()
}

func (c *compiler) compileInterpolation() error {
	t := c.next()
	k := c.next()
	if k.kind != tokSymbol && k.kind != tokString {
		return c.errorf(k, "expected pattern name after INTERPOLATION")
	}
	if k.is("PATTERN") && c.peek().kind != tokEOC && c.peek().kind != tokEOF {
		name := c.next()
		open, closing := c.next(), c.next()
		if name.kind != tokSymbol || open.kind != tokString || closing.kind != tokString {
			return c.errorf(name, `expected INTERPOLATION PATTERN name "open" "close"`)
		}
		if open.text == "" || closing.text == "" {
			return c.errorf(open, "interpolation delimiters must not be empty")
		}
		key := strings.ToUpper(name.text)
		if _, ok := c.prog.Patterns[key]; ok {
			return c.errorf(name, "duplicate interpolation pattern: %s", name.text)
		}
		c.prog.Patterns[key] = Pattern{Name: key, Open: open.text, Close: closing.text}
		return c.endClause()
	}
	c.switches = append(c.switches, k)
	c.emit(&Statement{Op: opinterpolation, Line: t.line, Name: strings.ToUpper(k.text)})
	return c.endClause()
}
