package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/paul-hammant/RexxJS-sub005"
)

const (
	replPrompt     = "rexx> "
	replMorePrompt = "  ... "
)

// lineReader is the part of liner.State the REPL uses, so that tests can
// feed lines without a terminal.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// scannerReader reads REPL input from a plain stream.
type scannerReader struct {
	lines []string
}

func newScannerReader(r io.Reader) (*scannerReader, error) {
	cnt, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s := strings.ReplaceAll(string(cnt), "\r\n", "\n")
	return &scannerReader{lines: strings.SplitAfter(s, "\n")}, nil
}

func (r *scannerReader) Prompt(string) (string, error) {
	for len(r.lines) > 0 {
		line := r.lines[0]
		r.lines = r.lines[1:]
		if line == "" {
			continue
		}
		return strings.TrimSuffix(line, "\n"), nil
	}
	return "", io.EOF
}

func (*scannerReader) AppendHistory(string) {}

func isTerminalReader(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// repl reads clauses, runs each block and keeps the variables between them.
// A block that does not parse yet (an open DO or SELECT) continues on the
// next line; an empty line forces it.
func (cli *cli) repl(ctx context.Context, opts []rexx.Option, vars map[string]any) error {
	var lr lineReader
	if isTerminalReader(cli.inStream) {
		l := liner.NewLiner()
		defer l.Close()
		l.SetCtrlCAborts(true)
		l.SetCompleter(func(line string) []string {
			return completeName(line, vars)
		})
		lr = l
	} else {
		sr, err := newScannerReader(cli.inStream)
		if err != nil {
			return err
		}
		lr = sr
	}
	var buf []string
	for {
		prompt := replPrompt
		if len(buf) > 0 {
			prompt = replMorePrompt
		}
		line, err := lr.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				buf = buf[:0]
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		switch strings.TrimSpace(line) {
		case ":quit", ":q":
			return nil
		case ":vars":
			if err := cli.dumpVars(objectFromVars(vars)); err != nil {
				cli.printError(err)
			}
			continue
		}
		lr.AppendHistory(line)
		buf = append(buf, line)
		src := strings.Join(buf, "\n")
		prog, err := rexx.Parse(src)
		if err != nil {
			var se *rexx.SyntaxError
			if errors.As(err, &se) && strings.HasPrefix(se.Message, "missing") &&
				strings.TrimSpace(line) != "" {
				continue
			}
			cli.printError(&scriptParseError{"<repl>", src, err})
			buf = buf[:0]
			continue
		}
		buf = buf[:0]
		status, err := rexx.New(append(opts, rexx.WithVariables(vars))...).Run(ctx, prog)
		if status != nil && status.Variables != nil {
			vars = varsFromObject(status.Variables)
		}
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			cli.printError(err)
			continue
		}
		if status.Value != nil {
			fmt.Fprintln(cli.outStream, rexxString(status.Value))
		}
	}
}

func completeName(line string, vars map[string]any) []string {
	i := strings.LastIndexAny(line, " \t(,=") + 1
	prefix := strings.ToUpper(line[i:])
	if prefix == "" {
		return nil
	}
	var xs []string
	for k := range vars {
		if strings.HasPrefix(k, prefix) {
			xs = append(xs, line[:i]+k)
		}
	}
	sort.Strings(xs)
	return xs
}

func varsFromObject(o *rexx.Object) map[string]any {
	vars := make(map[string]any, o.Len())
	o.Range(func(k string, v any) bool {
		vars[k] = v
		return true
	})
	return vars
}

func objectFromVars(vars map[string]any) *rexx.Object {
	o := rexx.NewObject()
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		o.Set(k, vars[k])
	}
	return o
}
