package rexx

import (
	"strings"
)

type templateKind int

const (
	tplTarget templateKind = iota
	tplDot
	tplLiteral
	tplVarPattern
	tplAbsolute
	tplRelative
)

type templateItem struct {
	Kind templateKind
	Name string
	N    int
}

func (t templateItem) isPattern() bool {
	return t.Kind >= tplLiteral
}

// parseTemplate parses comma separated PARSE templates.
func (c *compiler) parseTemplate() ([][]templateItem, error) {
	templates := [][]templateItem{nil}
	for !c.atEnd() {
		t := c.next()
		cur := &templates[len(templates)-1]
		switch t.kind {
		case tokComma:
			templates = append(templates, nil)
		case tokSymbol:
			*cur = append(*cur, templateItem{Kind: tplTarget, Name: t.text})
		case tokString:
			*cur = append(*cur, templateItem{Kind: tplLiteral, Name: t.text})
		case tokNumber:
			n, ok := toInt(t.text)
			if !ok || n < 1 {
				return nil, c.errorf(t, "invalid template position: %s", t.text)
			}
			*cur = append(*cur, templateItem{Kind: tplAbsolute, N: n})
		case tokLParen:
			v := c.next()
			if v.kind != tokSymbol {
				return nil, c.errorf(v, "expected variable name in template pattern")
			}
			if err := c.expect(tokRParen, ")"); err != nil {
				return nil, err
			}
			*cur = append(*cur, templateItem{Kind: tplVarPattern, Name: v.text})
		case tokOp:
			switch t.text {
			case ".":
				*cur = append(*cur, templateItem{Kind: tplDot})
				continue
			case "+", "-", "=":
			default:
				return nil, c.unexpected(t)
			}
			n := c.next()
			v, ok := toInt(n.text)
			if n.kind != tokNumber || !ok {
				return nil, c.errorf(n, "expected number after %s in template", t.text)
			}
			switch t.text {
			case "+":
				*cur = append(*cur, templateItem{Kind: tplRelative, N: v})
			case "-":
				*cur = append(*cur, templateItem{Kind: tplRelative, N: -v})
			default:
				*cur = append(*cur, templateItem{Kind: tplAbsolute, N: v})
			}
		default:
			return nil, c.unexpected(t)
		}
	}
	return templates, nil
}

// parseWithTemplate splits s according to template and assigns the pieces.
// Each run of targets receives the text up to the next pattern, split into
// blank-delimited words with the last target taking the remainder after
// the single blank that ends the previous word.
func parseWithTemplate(s string, template []templateItem, lookup func(string) string, assign func(string, string)) {
	start, matchStart := 0, 0
	var targets []templateItem
	for i := 0; i <= len(template); i++ {
		if i < len(template) && !template[i].isPattern() {
			targets = append(targets, template[i])
			continue
		}
		end, next := len(s), len(s)
		if i < len(template) {
			item := template[i]
			switch item.Kind {
			case tplLiteral, tplVarPattern:
				lit := item.Name
				if item.Kind == tplVarPattern {
					lit = lookup(item.Name)
				}
				if j := strings.Index(s[start:], lit); j >= 0 && lit != "" {
					end, next = start+j, start+j+len(lit)
					matchStart = start + j
				}
			case tplAbsolute, tplRelative:
				pos := item.N - 1
				if item.Kind == tplRelative {
					pos = matchStart + item.N
				}
				pos = max(0, min(pos, len(s)))
				if pos > start {
					end = pos
				}
				next, matchStart = pos, pos
			}
		}
		assignWords(s[start:end], targets, assign)
		targets, start = nil, next
	}
}

func assignWords(s string, targets []templateItem, assign func(string, string)) {
	for i, t := range targets {
		var v string
		if i == len(targets)-1 {
			v = s
		} else {
			s = strings.TrimLeft(s, " ")
			j := strings.IndexByte(s, ' ')
			if j < 0 {
				v, s = s, ""
			} else {
				v, s = s[:j], s[j+1:]
			}
		}
		if t.Kind == tplTarget {
			assign(t.Name, v)
		}
	}
}
