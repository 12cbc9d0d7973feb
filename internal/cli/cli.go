package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pyfixls/pyfixls/internal/version"
)

// Command defines a CLI entrypoint. A Command with a non-empty
// Subcommands table dispatches its first non-flag argument to a named
// child Command instead of running Run directly, so a single binary can
// carry both a default action (the LSP server) and named subcommands
// (`fixtures list`).
type Command struct {
	Name        string
	Summary     string
	Run         func(args []string, stdout, stderr io.Writer) error
	Subcommands map[string]Command
}

// Execute runs the command and returns a process exit code.
func Execute(cmd Command, args []string, stdout, stderr io.Writer) int {
	if len(cmd.Subcommands) > 0 && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, ok := cmd.Subcommands[args[0]]
		if !ok {
			writef(stderr, "%s: unknown subcommand %q\n\n", cmd.Name, args[0])
			writeSubcommandUsage(stderr, cmd)
			return 2
		}
		return Execute(sub, args[1:], stdout, stderr)
	}

	fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() {
		writef(stderr, "usage: %s [flags]\n\n%s\n\nflags:\n", cmd.Name, cmd.Summary)
		fs.PrintDefaults()
		if len(cmd.Subcommands) > 0 {
			writeln(stderr)
			writeSubcommandUsage(stderr, cmd)
		}
	}

	// Only a leading --version or --help is Execute's own; any other
	// arguments, flags included, are passed to Run for it to parse.
	runArgs := args
	if len(args) > 0 {
		switch args[0] {
		case "-version", "--version", "-h", "-help", "--help":
			if err := fs.Parse(args); err != nil {
				if err == flag.ErrHelp {
					return 0
				}
				writeln(stderr, err)
				return 2
			}
			runArgs = fs.Args()
		}
	}

	if *showVersion {
		writef(stdout, "%s %s\n", cmd.Name, version.String())
		return 0
	}

	if cmd.Run == nil {
		writef(stderr, "%s: no command configured\n", cmd.Name)
		return 1
	}

	if err := cmd.Run(runArgs, stdout, stderr); err != nil {
		var code ExitCodeError
		if errors.As(err, &code) {
			if code != ExitOK {
				writef(stderr, "%s: %v\n", cmd.Name, err)
			}
			return int(code)
		}
		writef(stderr, "%s: %v\n", cmd.Name, err)
		return 1
	}

	return 0
}

func writeSubcommandUsage(w io.Writer, cmd Command) {
	names := make([]string, 0, len(cmd.Subcommands))
	for name := range cmd.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	writef(w, "subcommands:\n")
	for _, name := range names {
		writef(w, "  %s\t%s\n", name, cmd.Subcommands[name].Summary)
	}
}

func writef(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

func writeln(w io.Writer, args ...any) {
	_, _ = fmt.Fprintln(w, args...)
}
