package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/goforj/godump"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/paul-hammant/RexxJS-sub005"
)

const name = "rexx"

const version = "0.1.0"

var revision = "HEAD"

const (
	exitCodeOK = iota
	exitCodeDefaultErr
	exitCodeFlagParseErr
	exitCodeSyntaxErr
)

type cli struct {
	inStream  io.Reader
	outStream io.Writer
	errStream io.Writer

	ctx         context.Context
	modulePaths []string
	outputYAML  bool
}

type flagopts struct {
	Expression       string            `short:"e" long:"expression" description:"run the given program text"`
	Config           string            `short:"c" long:"config" description:"read settings from a YAML file"`
	Digits           *int              `long:"digits" description:"initial NUMERIC DIGITS"`
	Trace            string            `short:"t" long:"trace" description:"initial TRACE setting (O, N, A, R, I)"`
	Address          string            `long:"address" description:"initial ADDRESS target"`
	ModulePaths      []string          `short:"L" long:"module-path" description:"directory to search for REQUIRE libraries"`
	Vars             map[string]string `long:"var" description:"set a variable, parsed as JSON when possible"`
	Interactive      bool              `short:"i" long:"interactive" description:"read clauses from an interactive prompt"`
	DumpAST          bool              `long:"dump-ast" description:"print the parsed program and exit"`
	DumpVars         bool              `long:"dump-vars" description:"print the variables when the program ends"`
	YAMLOutput       bool              `long:"yaml-output" description:"print --dump-vars as YAML"`
	ColorOutput      bool              `short:"C" long:"color-output" description:"colorize --dump-vars"`
	MonochromeOutput bool              `short:"M" long:"monochrome-output" description:"stop colorizing --dump-vars"`
	Debug            bool              `long:"debug" description:"log interpreter internals to standard error"`
	Version          bool              `short:"v" long:"version" description:"display version information"`
	Help             bool              `short:"h" long:"help" description:"display this help information"`
}

func (cli *cli) run(args []string) int {
	if err := cli.runInternal(args); err != nil {
		if _, ok := err.(interface{ isEmptyError() }); !ok {
			cli.printError(err)
		}
		if err, ok := err.(interface{ ExitCode() int }); ok {
			return err.ExitCode()
		}
		return exitCodeDefaultErr
	}
	return exitCodeOK
}

func (cli *cli) runInternal(args []string) error {
	var opts flagopts
	args, err := parseFlags(args, &opts)
	if err != nil {
		return &flagParseError{err}
	}
	if opts.Help {
		fmt.Fprintf(cli.outStream, `%[1]s - REXX interpreter

Version: %s (rev: %s/%s)

Synopsis:
  %% %[1]s script.rexx [argument ...]
  %% %[1]s -e 'say "hello" arg(1)' world

Usage:
  %[1]s [OPTIONS] [FILE|-] [ARGUMENT ...]

`,
			name, version, revision, runtime.Version())
		fmt.Fprint(cli.outStream, formatFlags(&opts))
		return nil
	}
	if opts.Version {
		fmt.Fprintf(cli.outStream, "%s %s (rev: %s/%s)\n", name, version, revision, runtime.Version())
		return nil
	}
	cfg := &fileConfig{}
	if opts.Config != "" {
		if cfg, err = loadConfig(opts.Config); err != nil {
			return err
		}
	}
	if opts.Digits != nil {
		cfg.Digits = opts.Digits
	}
	if opts.Trace != "" {
		cfg.Trace = opts.Trace
	}
	if opts.Address != "" {
		cfg.Address = opts.Address
	}
	cfg.ModulePaths = append(append(opts.ModulePaths, cfg.ModulePaths...), cli.modulePaths...)
	cli.outputYAML = opts.YAMLOutput
	cli.setColorMode(opts.ColorOutput, opts.MonochromeOutput)
	if colors := os.Getenv("REXX_COLORS"); colors != "" {
		if err := setColors(colors); err != nil {
			return err
		}
	}

	interpOpts, vars, err := cli.interpreterOptions(cfg, &opts)
	if err != nil {
		return err
	}
	parent := cli.ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	var src, fname string
	switch {
	case opts.Expression != "":
		src, fname = opts.Expression, "<expr>"
	case len(args) > 0 && args[0] != "-":
		cnt, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		src, fname, args = string(cnt), args[0], args[1:]
	case len(args) == 0 && (opts.Interactive || isTerminalReader(cli.inStream)):
		return cli.repl(ctx, interpOpts, vars)
	default:
		if len(args) > 0 {
			args = args[1:]
		}
		cnt, err := io.ReadAll(cli.inStream)
		if err != nil {
			return err
		}
		src, fname = string(cnt), "<stdin>"
		interpOpts = append(interpOpts, rexx.WithInput(strings.NewReader("")))
	}
	prog, err := rexx.Parse(src)
	if err != nil {
		return &scriptParseError{fname, src, err}
	}
	if opts.DumpAST {
		fmt.Fprint(cli.outStream, godump.DumpStr(prog))
		return nil
	}
	interpOpts = append(interpOpts, rexx.WithVariables(vars))
	var runArgs []any
	if len(args) > 0 {
		runArgs = []any{strings.Join(args, " ")}
	}
	status, err := rexx.New(interpOpts...).Run(ctx, prog, runArgs...)
	if opts.DumpVars && status != nil {
		if err := cli.dumpVars(status.Variables); err != nil {
			return err
		}
	}
	if err != nil {
		var re *rexx.RuntimeError
		if errors.As(err, &re) {
			cli.printRuntimeError(fname, re)
			return &emptyError{err}
		}
		return err
	}
	if status.Code != 0 {
		return &exitCodeError{status.Code}
	}
	return nil
}

func (cli *cli) interpreterOptions(cfg *fileConfig, opts *flagopts) ([]rexx.Option, map[string]any, error) {
	numeric, err := cfg.numeric()
	if err != nil {
		return nil, nil, &configError{err}
	}
	vars, err := cfg.variables()
	if err != nil {
		return nil, nil, &configError{err}
	}
	for _, v := range variablesFromFlags(opts.Vars) {
		x, err := v.value()
		if err != nil {
			return nil, nil, &flagParseError{fmt.Errorf("--var %s: %w", v.name, err)}
		}
		vars[v.name] = x
	}
	interpOpts := []rexx.Option{
		rexx.WithOutput(cli.outStream),
		rexx.WithInput(cli.inStream),
		rexx.WithTraceOutput(cli.errStream),
		rexx.WithNumeric(numeric),
		rexx.WithAddressHandler(rexx.DefaultAddress, newSystemHandler()),
		rexx.WithModuleLoader(&moduleLoader{paths: cfg.ModulePaths}),
	}
	if cfg.Trace != "" {
		mode, err := rexx.ParseTraceMode(cfg.Trace)
		if err != nil {
			return nil, nil, &configError{err}
		}
		interpOpts = append(interpOpts, rexx.WithTrace(mode))
	}
	if cfg.Address != "" {
		interpOpts = append(interpOpts, rexx.WithAddress(strings.ToUpper(cfg.Address)))
	}
	if opts.Debug {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: cli.errStream, NoColor: noColor}).
			Level(zerolog.DebugLevel).With().Timestamp().Str("component", name).Logger()
		interpOpts = append(interpOpts, rexx.WithLogger(logger))
	}
	return interpOpts, vars, nil
}

func (cli *cli) setColorMode(color, monochrome bool) {
	switch {
	case color:
		noColor = false
	case monochrome:
		noColor = true
	case os.Getenv("NO_COLOR") != "":
		noColor = true
	default:
		f, ok := cli.outStream.(interface{ Fd() uintptr })
		noColor = !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
	}
}

func (cli *cli) dumpVars(vars *rexx.Object) error {
	var m marshaler = jsonFormatter()
	if cli.outputYAML {
		m = yamlFormatter()
	}
	bs, err := m.Marshal(rexx.Export(vars))
	if err != nil {
		return err
	}
	cli.outStream.Write(bs)
	if len(bs) > 0 && bs[len(bs)-1] != '\n' {
		cli.outStream.Write([]byte{'\n'})
	}
	return nil
}

func (cli *cli) printError(err error) {
	fmt.Fprintf(cli.errStream, "%s: %s\n", colorize(errorColor, name), err)
}

// printRuntimeError reports an uncaught error with the command that raised it
// and the routines active at the time.
func (cli *cli) printRuntimeError(fname string, re *rexx.RuntimeError) {
	fmt.Fprintf(cli.errStream, "%s: error at %s:%d: %s\n", colorize(errorColor, name), fname, re.Line, re)
	if c := re.Context; c != nil {
		if c.Command != "" {
			fmt.Fprintf(cli.errStream, "    %s\n", strings.TrimSpace(c.Command))
		}
		for _, f := range c.Stack {
			fmt.Fprintf(cli.errStream, "    at %s\n", f)
		}
	}
}
