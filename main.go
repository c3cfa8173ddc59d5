package main

import (
	"io"
	"os"

	"github.com/temirov/upmerge/cmd/cli"
)

// main executes the upmerge command-line application.
func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func run(arguments []string, standardInput io.Reader, standardOutput io.Writer, errorOutput io.Writer) int {
	return cli.Run(arguments[1:], standardInput, standardOutput, errorOutput)
}
