package rexx

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// NumericForm selects how numbers that need an exponent are written.
type NumericForm int

// Numeric forms.
const (
	FormScientific NumericForm = iota
	FormEngineering
)

func (f NumericForm) String() string {
	if f == FormEngineering {
		return "ENGINEERING"
	}
	return "SCIENTIFIC"
}

// Limits of NUMERIC DIGITS.
const (
	DefaultDigits = 9
	MaxDigits     = 999999999
)

// NumericSettings holds the NUMERIC DIGITS, FUZZ and FORM settings.
type NumericSettings struct {
	Digits int
	Fuzz   int
	Form   NumericForm
}

// DefaultNumeric returns DIGITS 9, FUZZ 0, FORM SCIENTIFIC.
func DefaultNumeric() NumericSettings {
	return NumericSettings{Digits: DefaultDigits}
}

func (n NumericSettings) context() *apd.Context {
	c := apd.BaseContext.WithPrecision(uint32(n.Digits))
	c.Rounding = apd.RoundHalfUp
	return c
}

// fuzzContext is the context numeric comparisons subtract with.
func (n NumericSettings) fuzzContext() *apd.Context {
	c := apd.BaseContext.WithPrecision(uint32(n.Digits - n.Fuzz))
	c.Rounding = apd.RoundHalfUp
	return c
}

func newNumber(i int64) *apd.Decimal {
	return apd.New(i, 0)
}

// parseNumber parses a REXX numeric string: optional blanks, an optional
// sign, digits with at most one decimal point and an optional exponent.
func parseNumber(s string) (*apd.Decimal, bool) {
	s = strings.Trim(s, " \t")
	if s == "" {
		return nil, false
	}
	var sb strings.Builder
	i := 0
	if s[0] == '+' || s[0] == '-' {
		if s[0] == '-' {
			sb.WriteByte('-')
		}
		i++
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
	}
	var digits, dot bool
	for ; i < len(s); i++ {
		ch := s[i]
		switch {
		case isNumber(ch):
			digits = true
		case ch == '.' && !dot:
			dot = true
		case (ch == 'e' || ch == 'E') && digits:
			j := i + 1
			if j < len(s) && (s[j] == '+' || s[j] == '-') {
				j++
			}
			if j == len(s) {
				return nil, false
			}
			for k := j; k < len(s); k++ {
				if !isNumber(s[k]) {
					return nil, false
				}
			}
			sb.WriteString(s[i:])
			i = len(s)
			continue
		default:
			return nil, false
		}
		sb.WriteByte(ch)
	}
	if !digits {
		return nil, false
	}
	d, _, err := apd.NewFromString(sb.String())
	if err != nil {
		return nil, false
	}
	return d, true
}

// toNumber coerces v to a number. Booleans count as 1 and 0.
func toNumber(v any) (*apd.Decimal, bool) {
	switch v := v.(type) {
	case *apd.Decimal:
		return v, true
	case string:
		return parseNumber(v)
	case bool:
		if v {
			return newNumber(1), true
		}
		return newNumber(0), true
	default:
		return nil, false
	}
}

// toInt coerces v to a whole number that fits in an int.
func toInt(v any) (int, bool) {
	d, ok := toNumber(v)
	if !ok {
		return 0, false
	}
	var r apd.Decimal
	r.Reduce(d)
	if r.Exponent < 0 {
		return 0, false
	}
	i, err := r.Int64()
	if err != nil || int64(int(i)) != i {
		return 0, false
	}
	return int(i), true
}

// formatNumber renders d the way SAY shows it. Plain notation is used unless
// the integer part needs more than DIGITS digits or the fraction more than
// twice DIGITS, in which case the exponent follows NUMERIC FORM.
func formatNumber(d *apd.Decimal, n NumericSettings) string {
	if d.Form != apd.Finite {
		return d.String()
	}
	if d.IsZero() {
		return "0"
	}
	s := d.Text('e')
	var sign string
	if s[0] == '-' {
		sign, s = "-", s[1:]
	}
	i := strings.IndexByte(s, 'e')
	mantissa := strings.Replace(s[:i], ".", "", 1)
	exp, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return d.String()
	}
	digits := n.Digits
	if digits <= 0 {
		digits = DefaultDigits
	}
	if exp >= 0 && exp < digits || exp < 0 && len(mantissa)-1-exp <= 2*digits {
		return d.Text('f')
	}
	intDigits := 1
	if n.Form == FormEngineering {
		shift := ((exp % 3) + 3) % 3
		intDigits += shift
		exp -= shift
	}
	for len(mantissa) < intDigits {
		mantissa += "0"
	}
	var sb strings.Builder
	sb.WriteString(sign)
	sb.WriteString(mantissa[:intDigits])
	if len(mantissa) > intDigits {
		sb.WriteByte('.')
		sb.WriteString(mantissa[intDigits:])
	}
	if exp != 0 {
		sb.WriteByte('E')
		if exp > 0 {
			sb.WriteByte('+')
		}
		sb.WriteString(strconv.Itoa(exp))
	}
	return sb.String()
}

// toString converts v to its string form under the numeric settings n.
func toString(v any, n NumericSettings) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "1"
		}
		return "0"
	case *apd.Decimal:
		return formatNumber(v, n)
	default:
		return jsonMarshal(v)
	}
}
