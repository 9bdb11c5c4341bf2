package rexx

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/apd/v3"
)

// Marshal returns the JSON encoding of v.
//
// Numbers keep their decimal digits, objects keep their key order, and '<',
// '>', '&' are not escaped.
func Marshal(v any) ([]byte, error) {
	var b bytes.Buffer
	(&encoder{w: &b}).encode(v)
	return b.Bytes(), nil
}

func jsonMarshal(v any) string {
	var sb strings.Builder
	(&encoder{w: &sb}).encode(v)
	return sb.String()
}

func jsonMarshalIndent(v any, indent string) string {
	var sb strings.Builder
	(&encoder{w: &sb, indent: indent}).encode(v)
	return sb.String()
}

type encoder struct {
	w interface {
		io.Writer
		io.ByteWriter
		io.StringWriter
	}
	indent string
	depth  int
}

func (e *encoder) encode(v any) {
	switch v := v.(type) {
	case nil:
		e.w.WriteString("null")
	case bool:
		if v {
			e.w.WriteString("true")
		} else {
			e.w.WriteString("false")
		}
	case *apd.Decimal:
		if v.Form != apd.Finite {
			e.w.WriteString("null")
			return
		}
		e.w.WriteString(v.String())
	case string:
		e.encodeString(v)
	case *Array:
		e.encodeArray(v)
	case *Object:
		e.encodeObject(v)
	default:
		e.encodeString(fmt.Sprint(v))
	}
}

func (e *encoder) newline() {
	if e.indent == "" {
		return
	}
	e.w.WriteByte('\n')
	for i := 0; i < e.depth; i++ {
		e.w.WriteString(e.indent)
	}
}

// ref: encodeState#string in encoding/json
func (e *encoder) encodeString(s string) {
	e.w.WriteByte('"')
	start := 0
	for i := 0; i < len(s); {
		if b := s[i]; b < utf8.RuneSelf {
			if ' ' <= b && b <= '~' && b != '"' && b != '\\' {
				i++
				continue
			}
			if start < i {
				e.w.WriteString(s[start:i])
			}
			switch b {
			case '"':
				e.w.WriteString(`\"`)
			case '\\':
				e.w.WriteString(`\\`)
			case '\b':
				e.w.WriteString(`\b`)
			case '\f':
				e.w.WriteString(`\f`)
			case '\n':
				e.w.WriteString(`\n`)
			case '\r':
				e.w.WriteString(`\r`)
			case '\t':
				e.w.WriteString(`\t`)
			default:
				const hex = "0123456789abcdef"
				e.w.WriteString(`\u00`)
				e.w.WriteByte(hex[b>>4])
				e.w.WriteByte(hex[b&0xF])
			}
			i++
			start = i
			continue
		}
		c, size := utf8.DecodeRuneInString(s[i:])
		if c == utf8.RuneError && size == 1 {
			if start < i {
				e.w.WriteString(s[start:i])
			}
			e.w.WriteString(`\ufffd`)
			i += size
			start = i
			continue
		}
		i += size
	}
	if start < len(s) {
		e.w.WriteString(s[start:])
	}
	e.w.WriteByte('"')
}

func (e *encoder) encodeArray(vs *Array) {
	e.w.WriteByte('[')
	if vs.Len() == 0 {
		e.w.WriteByte(']')
		return
	}
	e.depth++
	for i, v := range vs.Items {
		if i > 0 {
			e.w.WriteByte(',')
		}
		e.newline()
		e.encode(v)
	}
	e.depth--
	e.newline()
	e.w.WriteByte(']')
}

func (e *encoder) encodeObject(o *Object) {
	e.w.WriteByte('{')
	if o.Len() == 0 {
		e.w.WriteByte('}')
		return
	}
	e.depth++
	var i int
	o.Range(func(k string, v any) bool {
		if i > 0 {
			e.w.WriteByte(',')
		}
		i++
		e.newline()
		e.encodeString(k)
		e.w.WriteByte(':')
		if e.indent != "" {
			e.w.WriteByte(' ')
		}
		e.encode(v)
		return true
	})
	e.depth--
	e.newline()
	e.w.WriteByte('}')
}
