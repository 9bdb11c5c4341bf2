package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

var noColor bool

func newColor(attrs ...color.Attribute) *color.Color {
	return color.New(attrs...)
}

var (
	nullColor      = newColor(color.FgHiBlack)
	boolColor      = newColor(color.FgYellow)
	numberColor    = newColor(color.FgCyan)
	stringColor    = newColor(color.FgGreen)
	objectKeyColor = newColor(color.FgBlue, color.Bold)
	errorColor     = newColor(color.FgRed, color.Bold)
)

func validColor(x string) bool {
	var num bool
	for _, c := range x {
		if '0' <= c && c <= '9' {
			num = true
		} else if c == ';' && num {
			num = false
		} else {
			return false
		}
	}
	return num || x == ""
}

// parseColor converts an SGR sequence such as "1;31" into a color.
func parseColor(x string) *color.Color {
	var attrs []color.Attribute
	for _, s := range strings.Split(x, ";") {
		if n, err := strconv.Atoi(s); err == nil {
			attrs = append(attrs, color.Attribute(n))
		}
	}
	return color.New(attrs...)
}

// setColors reads REXX_COLORS: colon separated SGR sequences for null,
// booleans, numbers, strings and object keys, in that order.
func setColors(colors string) error {
	var i int
	var c string
	for _, target := range []**color.Color{
		&nullColor, &boolColor, &numberColor,
		&stringColor, &objectKeyColor,
	} {
		if i < len(colors) {
			if j := strings.IndexByte(colors[i:], ':'); j >= 0 {
				c = colors[i : i+j]
				i += j + 1
			} else {
				c = colors[i:]
				i = len(colors)
			}
			if !validColor(c) {
				return fmt.Errorf("invalid color: %q", c)
			}
			*target = parseColor(c)
		} else {
			*target = newColor()
		}
	}
	return nil
}

// colorize wraps s in c unless colors are off.
func colorize(c *color.Color, s string) string {
	if noColor {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}
