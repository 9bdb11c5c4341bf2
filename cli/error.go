package cli

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/paul-hammant/RexxJS-sub005"
)

type emptyError struct {
	err error
}

func (*emptyError) Error() string {
	return ""
}

func (*emptyError) isEmptyError() {}

func (err *emptyError) ExitCode() int {
	if err, ok := err.err.(interface{ ExitCode() int }); ok {
		return err.ExitCode()
	}
	return exitCodeDefaultErr
}

type exitCodeError struct {
	code int
}

func (err *exitCodeError) Error() string {
	return "exit code: " + strconv.Itoa(err.code)
}

func (*exitCodeError) isEmptyError() {}

func (err *exitCodeError) ExitCode() int {
	return err.code
}

type flagParseError struct {
	err error
}

func (err *flagParseError) Error() string {
	return err.err.Error()
}

func (*flagParseError) ExitCode() int {
	return exitCodeFlagParseErr
}

type configError struct {
	err error
}

func (err *configError) Error() string {
	return "invalid configuration: " + err.err.Error()
}

func (*configError) ExitCode() int {
	return exitCodeFlagParseErr
}

// scriptParseError renders a syntax error with the offending line and a
// caret under the column.
type scriptParseError struct {
	fname, contents string
	err             error
}

func (err *scriptParseError) Error() string {
	var se *rexx.SyntaxError
	if !errors.As(err.err, &se) {
		return "syntax error: " + err.fname + ": " + err.err.Error()
	}
	linestr, column := getLineColumn(err.contents, se.Line, se.Column)
	if err.fname != "<expr>" || containsNewline(err.contents) {
		return fmt.Sprintf("syntax error: %s:%d\n%s  %s",
			err.fname, se.Line, formatLineInfo(linestr, se.Line, column), se.Message)
	}
	return fmt.Sprintf("syntax error: %s\n    %s\n    %*c  %s",
		err.contents, linestr, column+1, '^', se.Message)
}

func (*scriptParseError) ExitCode() int {
	return exitCodeSyntaxErr
}

type yamlParseError struct {
	fname, contents string
	err             error
}

var yamlLinePattern = regexp.MustCompile(`line (\d+): (.*)`)

func (err *yamlParseError) Error() string {
	msg := err.err.Error()
	var te *yaml.TypeError
	if errors.As(err.err, &te) && len(te.Errors) > 0 {
		msg = te.Errors[0]
	}
	m := yamlLinePattern.FindStringSubmatch(msg)
	if m == nil {
		return fmt.Sprintf("invalid yaml: %s: %s", err.fname, strings.TrimPrefix(msg, "yaml: "))
	}
	line, _ := strconv.Atoi(m[1])
	linestr, column := getLineColumn(err.contents, line, 1)
	return fmt.Sprintf("invalid yaml: %s:%d\n%s  %s",
		err.fname, line, formatLineInfo(linestr, line, column), m[2])
}

func (*yamlParseError) ExitCode() int {
	return exitCodeFlagParseErr
}

// getLineColumn returns the text of the 1-based line, cut to a window around
// the byte column, and the display width before the column.
func getLineColumn(str string, line, column int) (linestr string, width int) {
	ss := &stringScanner{str, 0}
	for n := 0; n < line; n++ {
		s, _, ok := ss.next()
		if !ok {
			break
		}
		linestr = s
	}
	offset := min(max(column-1, 0), len(linestr))
	if offset > 48 {
		skip := len(trimLastInvalidRune(linestr[:offset-48]))
		linestr = linestr[skip:]
		offset -= skip
	}
	linestr = trimLastInvalidRune(linestr[:min(64, len(linestr))])
	if offset < len(linestr) {
		offset = len(trimLastInvalidRune(linestr[:offset]))
	} else {
		offset = len(linestr)
	}
	return linestr, runewidth.StringWidth(linestr[:offset])
}

func trimLastInvalidRune(s string) string {
	for i := len(s) - 1; i >= 0 && i > len(s)-utf8.UTFMax; i-- {
		if b := s[i]; b < utf8.RuneSelf {
			return s[:i+1]
		} else if utf8.RuneStart(b) {
			if r, _ := utf8.DecodeRuneInString(s[i:]); r == utf8.RuneError {
				return s[:i]
			}
			break
		}
	}
	return s
}

func formatLineInfo(linestr string, line, column int) string {
	l := strconv.Itoa(line)
	return fmt.Sprintf("    %s | %s\n    %*c", l, linestr, column+len(l)+4, '^')
}

type stringScanner struct {
	str    string
	offset int
}

func (ss *stringScanner) next() (line string, start int, ok bool) {
	if ss.offset == len(ss.str) {
		return
	}
	start, ok = ss.offset, true
	line = ss.str[start:]
	i := indexNewline(line)
	if i < 0 {
		ss.offset = len(ss.str)
		return
	}
	line = line[:i]
	if strings.HasPrefix(ss.str[start+i:], "\r\n") {
		i++
	}
	ss.offset += i + 1
	return
}

func containsNewline(str string) bool {
	return strings.IndexByte(str, '\n') >= 0 ||
		strings.IndexByte(str, '\r') >= 0
}

func indexNewline(str string) (i int) {
	if i = strings.IndexByte(str, '\n'); i >= 0 {
		str = str[:i]
	}
	if j := strings.IndexByte(str, '\r'); j >= 0 {
		i = j
	}
	return
}
