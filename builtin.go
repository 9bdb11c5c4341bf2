package rexx

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/apd/v3"
	"github.com/itchyny/timefmt-go"
)

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"ARG":            {0, 2, funcArg},
		"LENGTH":         {1, 1, funcLength},
		"UPPER":          {1, 1, funcUpper},
		"LOWER":          {1, 1, funcLower},
		"SUBSTR":         {2, 4, funcSubstr},
		"LEFT":           {2, 3, funcLeft},
		"RIGHT":          {2, 3, funcRight},
		"POS":            {2, 3, funcPos},
		"STRIP":          {1, 3, funcStrip},
		"WORDS":          {1, 1, funcWords},
		"WORD":           {2, 2, funcWord},
		"COPIES":         {2, 2, funcCopies},
		"REVERSE":        {1, 1, funcReverse},
		"ABS":            {1, 1, funcAbs},
		"MAX":            {1, -1, funcMax},
		"MIN":            {1, -1, funcMin},
		"DATATYPE":       {1, 2, funcDatatype},
		"TYPEOF":         {1, 1, funcTypeof},
		"QUEUED":         {0, 0, funcQueued},
		"ARRAY_PUSH":     {2, 2, funcArrayPush},
		"ARRAY_POP":      {1, 1, funcArrayPop},
		"ARRAY_LENGTH":   {1, 1, funcArrayLength},
		"ARRAY_GET":      {2, 2, funcArrayGet},
		"ARRAY_SET":      {3, 3, funcArraySet},
		"OBJECT_KEYS":    {1, 1, funcObjectKeys},
		"DEEP_COPY":      {1, 1, funcDeepCopy},
		"JSON_STRINGIFY": {1, 2, funcJSONStringify},
		"JSON_PARSE":     {1, 1, funcJSONParse},
		"DATE":           {0, 1, funcDate},
		"TIME":           {0, 1, funcTime},
		"INTERPRET_JS":   {1, 2, funcInterpretJS},
	}
}

func funcArg(e *engine, args []any) (any, error) {
	xs := e.frame().args
	if len(args) == 0 {
		return newNumber(int64(len(xs))), nil
	}
	n, err := argInt(e, args[0], "n", 1)
	if err != nil {
		return nil, err
	}
	var v any
	if n <= len(xs) {
		v = xs[n-1]
	}
	if len(args) == 2 {
		switch opt := strings.ToUpper(e.str(args[1])); {
		case strings.HasPrefix(opt, "E"):
			return n <= len(xs) && v != nil, nil
		case strings.HasPrefix(opt, "O"):
			return n > len(xs) || v == nil, nil
		default:
			return nil, newError(KindTypeCoercion, "ARG: option must be E or O: %s", opt)
		}
	}
	if v == nil {
		return "", nil
	}
	return v, nil
}

func argInt(e *engine, v any, name string, min int) (int, error) {
	n, ok := toInt(v)
	if !ok || n < min {
		return 0, newError(KindTypeCoercion, "%s must be a whole number >= %d: %s", name, min, e.str(v))
	}
	return n, nil
}

func funcLength(e *engine, args []any) (any, error) {
	switch v := args[0].(type) {
	case *Array:
		return newNumber(int64(v.Len())), nil
	case *Object:
		return newNumber(int64(v.Len())), nil
	default:
		return newNumber(int64(utf8.RuneCountInString(e.str(v)))), nil
	}
}

func funcUpper(e *engine, args []any) (any, error) {
	return strings.ToUpper(e.str(args[0])), nil
}

func funcLower(e *engine, args []any) (any, error) {
	return strings.ToLower(e.str(args[0])), nil
}

func padChar(e *engine, args []any, i int) (string, error) {
	if len(args) <= i || args[i] == nil {
		return " ", nil
	}
	pad := e.str(args[i])
	if utf8.RuneCountInString(pad) != 1 {
		return "", newError(KindTypeCoercion, "pad must be a single character: %q", pad)
	}
	return pad, nil
}

func funcSubstr(e *engine, args []any) (any, error) {
	s := []rune(e.str(args[0]))
	start, err := argInt(e, args[1], "start", 1)
	if err != nil {
		return nil, err
	}
	length := max(len(s)-start+1, 0)
	if len(args) > 2 && args[2] != nil {
		if length, err = argInt(e, args[2], "length", 0); err != nil {
			return nil, err
		}
	}
	pad, err := padChar(e, args, 3)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	for i := start - 1; i < start-1+length; i++ {
		if i < len(s) {
			sb.WriteRune(s[i])
		} else {
			sb.WriteString(pad)
		}
	}
	return sb.String(), nil
}

func funcLeft(e *engine, args []any) (any, error) {
	return funcSubstr(e, []any{args[0], newNumber(1), args[1], optional(args, 2)})
}

func funcRight(e *engine, args []any) (any, error) {
	s := []rune(e.str(args[0]))
	n, err := argInt(e, args[1], "length", 0)
	if err != nil {
		return nil, err
	}
	pad, err := padChar(e, args, 2)
	if err != nil {
		return nil, err
	}
	if n <= len(s) {
		return string(s[len(s)-n:]), nil
	}
	return strings.Repeat(pad, n-len(s)) + string(s), nil
}

func optional(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func funcPos(e *engine, args []any) (any, error) {
	needle, haystack := []rune(e.str(args[0])), []rune(e.str(args[1]))
	start := 1
	if len(args) > 2 && args[2] != nil {
		var err error
		if start, err = argInt(e, args[2], "start", 1); err != nil {
			return nil, err
		}
	}
	if len(needle) == 0 || start > len(haystack) {
		return newNumber(0), nil
	}
	if i := strings.Index(string(haystack[start-1:]), string(needle)); i >= 0 {
		return newNumber(int64(start + utf8.RuneCountInString(string(haystack[start-1:])[:i]))), nil
	}
	return newNumber(0), nil
}

func funcStrip(e *engine, args []any) (any, error) {
	s := e.str(args[0])
	opt := "B"
	if len(args) > 1 && args[1] != nil {
		opt = strings.ToUpper(e.str(args[1]))
	}
	cut := " "
	if len(args) > 2 && args[2] != nil {
		cut = e.str(args[2])
	}
	switch {
	case strings.HasPrefix(opt, "B"):
		return strings.Trim(s, cut), nil
	case strings.HasPrefix(opt, "L"):
		return strings.TrimLeft(s, cut), nil
	case strings.HasPrefix(opt, "T"):
		return strings.TrimRight(s, cut), nil
	default:
		return nil, newError(KindTypeCoercion, "STRIP: option must be B, L or T: %s", opt)
	}
}

func funcWords(e *engine, args []any) (any, error) {
	return newNumber(int64(len(strings.Fields(e.str(args[0]))))), nil
}

func funcWord(e *engine, args []any) (any, error) {
	n, err := argInt(e, args[1], "n", 1)
	if err != nil {
		return nil, err
	}
	ws := strings.Fields(e.str(args[0]))
	if n > len(ws) {
		return "", nil
	}
	return ws[n-1], nil
}

func funcCopies(e *engine, args []any) (any, error) {
	n, err := argInt(e, args[1], "n", 0)
	if err != nil {
		return nil, err
	}
	return strings.Repeat(e.str(args[0]), n), nil
}

func funcReverse(e *engine, args []any) (any, error) {
	s := []rune(e.str(args[0]))
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	return string(s), nil
}

func numberArg(e *engine, fn string, v any) (*apd.Decimal, error) {
	d, ok := toNumber(v)
	if !ok {
		return nil, newError(KindTypeCoercion, "%s: not a number: %s", fn, typeErrorPreview(v))
	}
	return d, nil
}

func funcAbs(e *engine, args []any) (any, error) {
	d, err := numberArg(e, "ABS", args[0])
	if err != nil {
		return nil, err
	}
	r := new(apd.Decimal)
	if _, err := e.ctx.Numeric.context().Abs(r, d); err != nil {
		return nil, newError(KindArithmetic, "ABS: %s", err)
	}
	return r, nil
}

func funcMax(e *engine, args []any) (any, error) {
	return extremum(e, "MAX", args, 1)
}

func funcMin(e *engine, args []any) (any, error) {
	return extremum(e, "MIN", args, -1)
}

func extremum(e *engine, fn string, args []any, sign int) (any, error) {
	if len(args) == 1 {
		if a, ok := args[0].(*Array); ok {
			if a.Len() == 0 {
				return nil, newError(KindFunctionFailed, "%s: empty array", fn)
			}
			args = a.Items
		}
	}
	var best *apd.Decimal
	for _, v := range args {
		d, err := numberArg(e, fn, v)
		if err != nil {
			return nil, err
		}
		if best == nil || compareNumbers(d, best, e.ctx.Numeric)*sign > 0 {
			best = d
		}
	}
	r := new(apd.Decimal)
	if _, err := e.ctx.Numeric.context().Round(r, best); err != nil {
		return nil, newError(KindArithmetic, "%s: %s", fn, err)
	}
	return r, nil
}

func funcDatatype(e *engine, args []any) (any, error) {
	s := e.str(args[0])
	if len(args) == 1 {
		if _, ok := toNumber(args[0]); ok {
			return "NUM", nil
		}
		return "CHAR", nil
	}
	typ := strings.ToUpper(e.str(args[1]))
	if typ == "" {
		return nil, newError(KindTypeCoercion, "DATATYPE: empty type")
	}
	all := func(f func(rune) bool) bool {
		if s == "" {
			return false
		}
		for _, r := range s {
			if !f(r) {
				return false
			}
		}
		return true
	}
	switch typ[0] {
	case 'N':
		_, ok := parseNumber(s)
		return ok, nil
	case 'W':
		_, ok := toInt(s)
		return ok, nil
	case 'A':
		return all(func(r rune) bool { return r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)) }), nil
	case 'M':
		return all(func(r rune) bool { return r < utf8.RuneSelf && unicode.IsLetter(r) }), nil
	case 'U':
		return all(func(r rune) bool { return 'A' <= r && r <= 'Z' }), nil
	case 'L':
		return all(func(r rune) bool { return 'a' <= r && r <= 'z' }), nil
	case 'B':
		return all(func(r rune) bool { return r == '0' || r == '1' }), nil
	case 'X':
		return all(func(r rune) bool { return strings.ContainsRune("0123456789abcdefABCDEF", r) }), nil
	default:
		return nil, newError(KindTypeCoercion, "DATATYPE: unknown type: %s", typ)
	}
}

func funcTypeof(_ *engine, args []any) (any, error) {
	return TypeOf(args[0]), nil
}

func funcQueued(e *engine, _ []any) (any, error) {
	return newNumber(int64(len(e.run.queue))), nil
}

// arrayArg accepts an array or its JSON text.
func arrayArg(fn string, v any) (*Array, error) {
	switch v := v.(type) {
	case *Array:
		return v, nil
	case string:
		if x, err := parseJSON(v); err == nil {
			if a, ok := x.(*Array); ok {
				return a, nil
			}
		}
	}
	return nil, newError(KindTypeCoercion, "%s: not an array: %s", fn, typeErrorPreview(v))
}

func funcArrayPush(_ *engine, args []any) (any, error) {
	a, err := arrayArg("ARRAY_PUSH", args[0])
	if err != nil {
		return nil, err
	}
	a.Push(args[1])
	return a, nil
}

func funcArrayPop(_ *engine, args []any) (any, error) {
	a, err := arrayArg("ARRAY_POP", args[0])
	if err != nil {
		return nil, err
	}
	v, _ := a.Pop()
	return v, nil
}

func funcArrayLength(_ *engine, args []any) (any, error) {
	a, err := arrayArg("ARRAY_LENGTH", args[0])
	if err != nil {
		return nil, err
	}
	return newNumber(int64(a.Len())), nil
}

func funcArrayGet(e *engine, args []any) (any, error) {
	a, err := arrayArg("ARRAY_GET", args[0])
	if err != nil {
		return nil, err
	}
	i, err := argInt(e, args[1], "index", 0)
	if err != nil {
		return nil, err
	}
	return a.Get(i), nil
}

func funcArraySet(e *engine, args []any) (any, error) {
	a, err := arrayArg("ARRAY_SET", args[0])
	if err != nil {
		return nil, err
	}
	i, err := argInt(e, args[1], "index", 0)
	if err != nil {
		return nil, err
	}
	a.Set(i, args[2])
	return a, nil
}

func funcObjectKeys(_ *engine, args []any) (any, error) {
	o, ok := args[0].(*Object)
	if !ok {
		return nil, newError(KindTypeCoercion, "OBJECT_KEYS: not an object: %s", typeErrorPreview(args[0]))
	}
	a := NewArray()
	for _, k := range o.Keys() {
		a.Push(k)
	}
	return a, nil
}

func funcDeepCopy(_ *engine, args []any) (any, error) {
	return clone(args[0]), nil
}

func funcJSONStringify(e *engine, args []any) (any, error) {
	if len(args) > 1 && args[1] != nil {
		indent := e.str(args[1])
		if n, ok := toInt(args[1]); ok {
			indent = strings.Repeat(" ", n)
		}
		return jsonMarshalIndent(args[0], indent), nil
	}
	return jsonMarshal(args[0]), nil
}

func funcJSONParse(e *engine, args []any) (any, error) {
	v, err := parseJSON(e.str(args[0]))
	if err != nil {
		return nil, newError(KindFunctionFailed, "JSON_PARSE: %s", err)
	}
	return v, nil
}

var dateFormats = map[string]string{
	"N": "%-d %b %Y",
	"S": "%Y%m%d",
	"U": "%m/%d/%y",
	"E": "%d/%m/%y",
	"O": "%y/%m/%d",
	"I": "%Y-%m-%d",
	"W": "%A",
	"M": "%B",
}

func funcDate(e *engine, args []any) (any, error) {
	now := e.run.now()
	opt := "N"
	if len(args) > 0 && args[0] != nil {
		opt = strings.ToUpper(e.str(args[0]))
	}
	if opt == "ISO" {
		opt = "I"
	}
	if f, ok := dateFormats[opt[:min(1, len(opt))]]; ok {
		return timefmt.Format(now, f), nil
	}
	switch opt[:min(1, len(opt))] {
	case "D":
		return newNumber(int64(now.YearDay())), nil
	case "B":
		base := time.Date(1, 1, 1, 0, 0, 0, 0, now.Location())
		return newNumber(int64(now.Sub(base).Hours() / 24)), nil
	}
	return nil, newError(KindTypeCoercion, "DATE: unknown format: %s", opt)
}

func funcTime(e *engine, args []any) (any, error) {
	now := e.run.now()
	opt := "N"
	if len(args) > 0 && args[0] != nil {
		opt = strings.ToUpper(e.str(args[0]))
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch opt {
	case "N", "NORMAL":
		return timefmt.Format(now, "%H:%M:%S"), nil
	case "L", "LONG":
		return timefmt.Format(now, "%H:%M:%S.%f"), nil
	case "C", "CIVIL":
		return timefmt.Format(now, "%-I:%M%P"), nil
	case "H", "HOURS":
		return newNumber(int64(now.Hour())), nil
	case "M", "MINUTES":
		return newNumber(int64(now.Sub(midnight) / time.Minute)), nil
	case "S", "SECONDS":
		return newNumber(int64(now.Sub(midnight) / time.Second)), nil
	case "ISO":
		return timefmt.Format(now, "%Y-%m-%dT%H:%M:%S%:z"), nil
	case "U", "UNIX":
		return strconv.FormatInt(now.Unix(), 10), nil
	}
	return nil, newError(KindTypeCoercion, "TIME: unknown format: %s", opt)
}

// funcInterpretJS exists so that scripts get a clear error: no JavaScript
// runtime is embedded. Under NO-INTERPRET it is a security violation.
func funcInterpretJS(e *engine, _ []any) (any, error) {
	if e.run.noInterpret {
		return nil, securityError("INTERPRET_JS")
	}
	return nil, newError(KindFunctionFailed, "INTERPRET_JS is not supported: no JavaScript runtime is available")
}
