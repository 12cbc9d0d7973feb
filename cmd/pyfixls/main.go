// Command pyfixls is a pytest fixture intelligence server: it speaks the
// Language Server Protocol over stdio, and doubles as a CLI for listing
// the fixtures discovered in a workspace.
package main

import (
	"os"

	"github.com/pyfixls/pyfixls/internal/cli"
)

func main() {
	os.Exit(cli.Execute(rootCommand(), os.Args[1:], os.Stdout, os.Stderr))
}
