// Command rexx runs REXX programs.
package main

import (
	"os"

	"github.com/paul-hammant/RexxJS-sub005/cli"
)

func main() {
	os.Exit(cli.Run())
}
