package rexx

import (
	"strconv"
	"strings"
)

// Pattern is a pair of interpolation delimiters.
type Pattern struct {
	Name  string
	Open  string
	Close string
}

var builtinPatterns = map[string]Pattern{
	"HANDLEBARS":    {"HANDLEBARS", "{{", "}}"},
	"SHELL":         {"SHELL", "${", "}"},
	"BATCH":         {"BATCH", "%", "%"},
	"DOUBLE_DOLLAR": {"DOUBLE_DOLLAR", "$$", "$$"},
}

// DefaultPattern is the interpolation pattern a run starts with.
var DefaultPattern = builtinPatterns["HANDLEBARS"]

// interpolate replaces each placeholder in s. resolve reports the value of a
// placeholder and whether its root variable is set; an unset root leaves the
// placeholder as written.
func interpolate(s string, pat Pattern, resolve func(string) (string, bool)) string {
	if !strings.Contains(s, pat.Open) {
		return s
	}
	var sb strings.Builder
	for {
		i := strings.Index(s, pat.Open)
		if i < 0 {
			break
		}
		j := strings.Index(s[i+len(pat.Open):], pat.Close)
		if j < 0 {
			break
		}
		j += i + len(pat.Open)
		name := strings.TrimSpace(s[i+len(pat.Open) : j])
		sb.WriteString(s[:i])
		if v, ok := resolve(name); ok && isPlaceholderName(name) {
			sb.WriteString(v)
		} else {
			sb.WriteString(s[i : j+len(pat.Close)])
		}
		s = s[j+len(pat.Close):]
	}
	sb.WriteString(s)
	return sb.String()
}

func isPlaceholderName(name string) bool {
	if name == "" || !isIdent(name[0], false) {
		return false
	}
	for i := 1; i < len(name); i++ {
		switch ch := name[i]; {
		case isIdent(ch, true), ch == '.', ch == '[', ch == ']':
		default:
			return false
		}
	}
	return true
}

// splitPath splits `user.address.city` or `items[0].name` into segments.
func splitPath(name string) []string {
	var parts []string
	for _, p := range strings.Split(name, ".") {
		for {
			i := strings.IndexByte(p, '[')
			if i < 0 {
				break
			}
			if i > 0 {
				parts = append(parts, p[:i])
			}
			j := strings.IndexByte(p[i:], ']')
			if j < 0 {
				break
			}
			parts = append(parts, p[i+1:i+j])
			p = p[i+j+1:]
		}
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// member looks up key in an object or array value. Missing keys and
// out-of-range indexes yield nil.
func member(v any, key string) any {
	switch v := v.(type) {
	case *Object:
		if _, x, ok := v.lookup(key); ok {
			return x
		}
	case *Array:
		if i, err := strconv.Atoi(strings.TrimSpace(key)); err == nil {
			return v.Get(i)
		}
		if strings.EqualFold(key, "length") {
			return newNumber(int64(v.Len()))
		}
	}
	return nil
}
