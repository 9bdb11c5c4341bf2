package rexx

import (
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokEOC
	tokSymbol
	tokNumber
	tokString
	tokHeredoc
	tokOp
	tokLParen
	tokRParen
	tokLBrack
	tokRBrack
	tokLBrace
	tokRBrace
	tokComma
	tokColon
	tokMember
)

type token struct {
	kind  tokenKind
	text  string
	line  int
	col   int
	space bool // preceded by blanks
	quote byte
	lines int // LINES(n) block size
}

func (t token) is(keyword string) bool {
	return t.kind == tokSymbol && strings.EqualFold(t.text, keyword)
}

type lexer struct {
	source      []byte
	offset      int
	line        int
	lineStart   int
	depth       int
	space       bool
	tokens      []token
	clauseStart int
	heredocs    []int
}

func lex(src string) ([]token, error) {
	l := &lexer{source: []byte(src), line: 1}
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.tokens, nil
}

var operators = []string{
	`\==`, "¬==", "!==", ">>=", "<<=",
	"**", "//", "||", "&&", "==", `\=`, "¬=", "!=", "<>", "><", ">=", "<=",
	">>", "<<", `\>`, `\<`, "¬>", "¬<",
	"+", "-", "*", "/", "%", "=", "<", ">", "&", "|", `\`, "!", "¬", ".",
}

func (l *lexer) run() error {
	for l.offset < len(l.source) {
		ch := l.source[l.offset]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r':
			l.offset++
			l.space = true
		case ch == '\n':
			l.offset++
			if err := l.endLine(true); err != nil {
				return err
			}
		case ch == '/' && l.peekAt(1) == '*':
			if err := l.skipBlockComment(); err != nil {
				return err
			}
		case ch == '-' && l.peekAt(1) == '-',
			ch == '/' && l.peekAt(1) == '/' && l.atLineStart():
			for l.offset < len(l.source) && l.source[l.offset] != '\n' {
				l.offset++
			}
		case ch == ';':
			l.offset++
			l.depth = 0
			l.endClause()
		case ch == '\'' || ch == '"':
			if err := l.scanString(ch); err != nil {
				return err
			}
		case isNumber(ch) || ch == '.' && isNumber(l.peekAt(1)):
			if err := l.scanNumber(); err != nil {
				return err
			}
		case isIdent(ch, false):
			start := l.offset
			l.offset++
			for l.offset < len(l.source) && (isIdent(l.source[l.offset], true) || l.source[l.offset] == '.') {
				l.offset++
			}
			l.emit(tokSymbol, string(l.source[start:l.offset]), start)
		case ch == '.' && isIdent(l.peekAt(1), false):
			start := l.offset
			l.offset++
			for l.offset < len(l.source) && isIdent(l.source[l.offset], true) {
				l.offset++
			}
			l.emit(tokMember, string(l.source[start+1:l.offset]), start)
		case ch == '<' && l.peekAt(1) == '<' && l.heredocAhead():
			start := l.offset
			l.offset += 2
			for l.offset < len(l.source) && isIdent(l.source[l.offset], true) {
				l.offset++
			}
			l.emit(tokHeredoc, string(l.source[start+2:l.offset]), start)
			l.heredocs = append(l.heredocs, len(l.tokens)-1)
		default:
			if err := l.scanPunct(); err != nil {
				return err
			}
		}
	}
	if err := l.endLine(false); err != nil {
		return err
	}
	l.tokens = append(l.tokens, token{kind: tokEOF, line: l.line})
	return nil
}

func (l *lexer) peekAt(n int) byte {
	if l.offset+n >= len(l.source) {
		return 0
	}
	return l.source[l.offset+n]
}

func (l *lexer) atLineStart() bool {
	for _, ch := range l.source[l.lineStart:l.offset] {
		if ch != ' ' && ch != '\t' {
			return false
		}
	}
	return true
}

func (l *lexer) errorf(line, offset int, format string, args ...any) *SyntaxError {
	err := newError(KindSyntax, format, args...)
	return &SyntaxError{Line: line, Column: offset - l.lineStart + 1, Message: err.Message}
}

func (l *lexer) emit(kind tokenKind, text string, start int) {
	l.tokens = append(l.tokens, token{
		kind:  kind,
		text:  text,
		line:  l.line,
		col:   start - l.lineStart + 1,
		space: l.space,
	})
	l.space = false
}

func (l *lexer) endClause() {
	if n := len(l.tokens); n > 0 && l.tokens[n-1].kind != tokEOC {
		l.tokens = append(l.tokens, token{kind: tokEOC, line: l.tokens[n-1].line})
	}
	l.clauseStart = len(l.tokens)
	l.space = false
}

// endLine runs at every newline and at the end of input. It captures
// LINES(n) blocks and pending HEREDOC bodies, then ends the clause unless a
// bracket is still open.
func (l *lexer) endLine(eol bool) error {
	if n := l.linesBlock(); n > 0 {
		t := &l.tokens[len(l.tokens)-4]
		body, ok := l.captureLines(n, "")
		if !ok {
			return &SyntaxError{Line: t.line, Column: t.col, Message: "LINES block is longer than the remaining script"}
		}
		*t = token{kind: tokHeredoc, text: body, line: t.line, col: t.col, space: true, lines: n}
		l.tokens = l.tokens[:len(l.tokens)-3]
	}
	for _, i := range l.heredocs {
		t := &l.tokens[i]
		body, ok := l.captureLines(-1, t.text)
		if !ok {
			return &SyntaxError{Line: t.line, Column: t.col, Message: "unmatched HEREDOC delimiter: " + t.text}
		}
		t.text = body
	}
	l.heredocs = l.heredocs[:0]
	if eol {
		l.line++
		l.lineStart = l.offset
	}
	if l.depth == 0 {
		l.endClause()
	} else {
		l.space = true
	}
	return nil
}

// linesBlock reports n when the current clause is ADDRESS target LINES(n).
func (l *lexer) linesBlock() int {
	ts := l.tokens[l.clauseStart:]
	if len(ts) != 6 || !ts[0].is("ADDRESS") ||
		ts[1].kind != tokSymbol && ts[1].kind != tokString || !ts[2].is("LINES") ||
		ts[3].kind != tokLParen || ts[4].kind != tokNumber || ts[5].kind != tokRParen {
		return 0
	}
	n, ok := toInt(ts[4].text)
	if !ok || n <= 0 {
		return 0
	}
	l.depth = 0
	return n
}

// captureLines consumes raw lines after the current one: n of them, or up
// to the line equal to delim when n is negative.
func (l *lexer) captureLines(n int, delim string) (string, bool) {
	var lines []string
	for n != 0 {
		if l.offset >= len(l.source) {
			return "", false
		}
		end := l.offset
		for end < len(l.source) && l.source[end] != '\n' {
			end++
		}
		text := strings.TrimSuffix(string(l.source[l.offset:end]), "\r")
		l.offset = end
		if l.offset < len(l.source) {
			l.offset++
		}
		l.line++
		if n < 0 && strings.TrimSpace(text) == delim {
			break
		}
		lines = append(lines, text)
		if n > 0 {
			n--
		}
	}
	l.lineStart = l.offset
	return strings.Join(lines, "\n"), true
}

func (l *lexer) heredocAhead() bool {
	i := l.offset + 2
	if i >= len(l.source) || !isIdent(l.source[i], false) {
		return false
	}
	for i < len(l.source) && isIdent(l.source[i], true) {
		i++
	}
	rest := l.source[i:]
	if j := strings.IndexByte(string(rest), '\n'); j >= 0 {
		rest = rest[:j]
	}
	s := strings.TrimSpace(string(rest))
	return s == "" || strings.HasPrefix(s, "--") || strings.HasPrefix(s, "/*")
}

func (l *lexer) skipBlockComment() error {
	line, col := l.line, l.offset-l.lineStart+1
	depth := 0
	for l.offset < len(l.source) {
		switch {
		case l.source[l.offset] == '/' && l.peekAt(1) == '*':
			depth++
			l.offset += 2
		case l.source[l.offset] == '*' && l.peekAt(1) == '/':
			depth--
			l.offset += 2
			if depth == 0 {
				l.space = true
				return nil
			}
		case l.source[l.offset] == '\n':
			l.offset++
			l.line++
			l.lineStart = l.offset
		default:
			l.offset++
		}
	}
	return &SyntaxError{Line: line, Column: col, Message: "unterminated comment"}
}

func (l *lexer) scanString(quote byte) error {
	start := l.offset
	l.offset++
	var sb strings.Builder
	for {
		if l.offset >= len(l.source) || l.source[l.offset] == '\n' {
			return l.errorf(l.line, start, "unterminated string")
		}
		ch := l.source[l.offset]
		l.offset++
		if ch == quote {
			if l.peekAt(0) == quote {
				sb.WriteByte(quote)
				l.offset++
				continue
			}
			break
		}
		sb.WriteByte(ch)
	}
	l.emit(tokString, sb.String(), start)
	l.tokens[len(l.tokens)-1].quote = quote
	return nil
}

const (
	numberStateLead = iota
	numberStateFloat
	numberStateExpLead
	numberStateExp
)

func (l *lexer) scanNumber() error {
	start := l.offset
	state := numberStateLead
	if l.source[l.offset] == '.' {
		l.offset++
		state = numberStateFloat
	}
	malformed := func() error {
		for l.offset < len(l.source) && (isIdent(l.source[l.offset], true) || l.source[l.offset] == '.') {
			l.offset++
		}
		return l.errorf(l.line, start, "malformed number: %s", l.source[start:l.offset])
	}
	for {
		ch := l.peekAt(0)
		switch state {
		case numberStateLead, numberStateFloat:
			switch {
			case isNumber(ch):
				l.offset++
			case ch == '.':
				if state != numberStateLead {
					return malformed()
				}
				l.offset++
				state = numberStateFloat
			case ch == 'e' || ch == 'E':
				l.offset++
				if c := l.peekAt(0); c == '-' || c == '+' {
					l.offset++
				}
				state = numberStateExpLead
			case isIdent(ch, false):
				return malformed()
			default:
				l.emit(tokNumber, string(l.source[start:l.offset]), start)
				return nil
			}
		default:
			switch {
			case isNumber(ch):
				l.offset++
				state = numberStateExp
			case state == numberStateExpLead || isIdent(ch, false) || ch == '.':
				return malformed()
			default:
				l.emit(tokNumber, string(l.source[start:l.offset]), start)
				return nil
			}
		}
	}
}

func (l *lexer) scanPunct() error {
	start := l.offset
	ch := l.source[l.offset]
	var kind tokenKind
	switch ch {
	case '(':
		kind = tokLParen
	case ')':
		kind = tokRParen
	case '[':
		kind = tokLBrack
	case ']':
		kind = tokRBrack
	case '{':
		kind = tokLBrace
	case '}':
		kind = tokRBrace
	case ',':
		kind = tokComma
	case ':':
		kind = tokColon
	}
	if kind != tokEOF {
		switch kind {
		case tokLParen, tokLBrack, tokLBrace:
			l.depth++
		case tokRParen, tokRBrack, tokRBrace:
			if l.depth > 0 {
				l.depth--
			}
		}
		l.offset++
		l.emit(kind, string(ch), start)
		return nil
	}
	rest := string(l.source[l.offset:])
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			l.offset += len(op)
			l.emit(tokOp, op, start)
			return nil
		}
	}
	return l.errorf(l.line, start, "unexpected character: %q", rest[:1])
}

func isIdent(ch byte, tail bool) bool {
	return 'a' <= ch && ch <= 'z' ||
		'A' <= ch && ch <= 'Z' || ch == '_' ||
		tail && isNumber(ch)
}

func isNumber(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
