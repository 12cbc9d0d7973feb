package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pyfixls/pyfixls/internal/analyzer"
	"github.com/pyfixls/pyfixls/internal/cli"
	"github.com/pyfixls/pyfixls/internal/fixtureindex"
	"github.com/pyfixls/pyfixls/internal/fixturescmd"
	"github.com/pyfixls/pyfixls/internal/logging"
	"github.com/pyfixls/pyfixls/internal/lsp"
	"github.com/pyfixls/pyfixls/internal/pathcanon"
	"github.com/pyfixls/pyfixls/internal/resolver"
	"github.com/pyfixls/pyfixls/internal/scanner"
	"github.com/pyfixls/pyfixls/internal/version"
)

// rootCommand builds pyfixls' CLI: no args starts the LSP server over
// stdio; `fixtures list` is a named subcommand alongside it.
func rootCommand() cli.Command {
	return cli.Command{
		Name:    "pyfixls",
		Summary: "pytest fixture intelligence: LSP server and fixture tree CLI",
		Run:     runServer,
		Subcommands: map[string]cli.Command{
			"fixtures": {
				Name:    "pyfixls fixtures",
				Summary: "inspect the fixtures discovered in a workspace",
				Subcommands: map[string]cli.Command{
					"list": fixturescmd.Command(),
				},
			},
		},
	}
}

func runServer(args []string, stdout, stderr io.Writer) error {
	var verbose bool
	fs := flag.NewFlagSet("pyfixls", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&verbose, "v", false, "verbose logging to stderr")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: pyfixls [-v]")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Runs the pytest fixture intelligence LSP server over stdio.")
		fmt.Fprintln(stderr, "Configure your editor to launch this binary as an LSP server.")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return cli.ExitCodeError(cli.ExitError)
	}

	log := logging.FromEnv()
	if verbose {
		log = logging.New(logging.Debug)
	}

	canon := pathcanon.New()
	idx := fixtureindex.New()
	res := resolver.New(idx, canon)
	an := analyzer.New(idx, canon, res, log)
	sc := scanner.New(an, canon, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := lsp.NewServer(idx, canon, an, res, sc, log, version.String(), cancel)

	rwc := &stdioConn{Reader: os.Stdin, Writer: stdout}
	conn := lsp.NewConn(rwc, server)
	server.SetConn(conn)

	log.Infof("pyfixls: starting server")
	if err := conn.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	log.Infof("pyfixls: server stopped")
	return nil
}

// stdioConn wraps stdin/stdout as an io.ReadWriteCloser.
type stdioConn struct {
	io.Reader
	io.Writer
}

func (s *stdioConn) Close() error { return nil }
