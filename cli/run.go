package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
)

// Config specifies configuration to run the rexx CLI with.
type Config struct {
	// Input and output streams for the CLI.
	//
	// If Stdin is nil, an empty stdin will be used.
	// If Stdout or Stderr are nil, that output stream will be discarded.
	// Trace lines and error reports go to Stderr.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Context bounds the whole run; a cancelled context halts the script
	// at its next clause. Nil means context.Background.
	Context context.Context

	// ModulePaths are searched for REQUIRE libraries after the directories
	// given with --module-path and in the config file.
	ModulePaths []string
}

// Run the rexx CLI with the provided arguments,
// and return the exit code.
//
// The arguments must not contain os.Args[0].
func (cfg *Config) Run(args []string) (exitCode int) {
	cli := &cli{
		inStream:    cfg.Stdin,
		outStream:   cfg.Stdout,
		errStream:   cfg.Stderr,
		ctx:         cfg.Context,
		modulePaths: cfg.ModulePaths,
	}
	if cli.inStream == nil {
		cli.inStream = bytes.NewReader(nil)
	}
	if cli.outStream == nil {
		cli.outStream = io.Discard
	}
	if cli.errStream == nil {
		cli.errStream = io.Discard
	}
	if cli.ctx == nil {
		cli.ctx = context.Background()
	}
	return cli.run(args)
}

// Run the rexx CLI on the process arguments and standard streams. REXX_PATH
// lists extra library directories.
func Run() int {
	var paths []string
	if p := os.Getenv("REXX_PATH"); p != "" {
		paths = filepath.SplitList(p)
	}
	return (&Config{
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		ModulePaths: paths,
	}).Run(os.Args[1:])
}
