package rexx

import (
	"strings"
)

// Program is a parsed script: a flat statement sequence and a label table
// built before anything executes. A Program is immutable once parsed and can
// be run any number of times, concurrently.
type Program struct {
	Statements []*Statement
	Labels     map[string]int
	Patterns   map[string]Pattern
	lines      []string
}

// Label returns the statement index of a label, case-insensitively.
func (p *Program) Label(name string) (int, bool) {
	i, ok := p.Labels[strings.ToUpper(name)]
	return i, ok
}

// LabelNames returns the label names in statement order.
func (p *Program) LabelNames() []string {
	var names []string
	for _, s := range p.Statements {
		if s.Op == oplabel {
			if i, ok := p.Label(s.Name); ok && p.Statements[i] == s {
				names = append(names, s.Name)
			}
		}
	}
	return names
}

// sourceLine returns the trimmed text of a 1-based source line.
func (p *Program) sourceLine(line int) string {
	if line < 1 || line > len(p.lines) {
		return ""
	}
	return strings.TrimSpace(p.lines[line-1])
}

func (p *Program) pattern(name string) (Pattern, bool) {
	if pat, ok := p.Patterns[strings.ToUpper(name)]; ok {
		return pat, true
	}
	pat, ok := builtinPatterns[strings.ToUpper(name)]
	return pat, ok
}
