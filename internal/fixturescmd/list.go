// Package fixturescmd implements the `pyfixls fixtures list` subcommand:
// a one-shot scan of a workspace that prints a tree of conftest.py/test
// files, the fixtures each defines, and how many places use them.
package fixturescmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/pyfixls/pyfixls/internal/analyzer"
	"github.com/pyfixls/pyfixls/internal/cli"
	"github.com/pyfixls/pyfixls/internal/fixture"
	"github.com/pyfixls/pyfixls/internal/fixtureindex"
	"github.com/pyfixls/pyfixls/internal/logging"
	"github.com/pyfixls/pyfixls/internal/pathcanon"
	"github.com/pyfixls/pyfixls/internal/resolver"
	"github.com/pyfixls/pyfixls/internal/scanner"
)

// Command builds the `fixtures list` cli.Command.
func Command() cli.Command {
	return cli.Command{
		Name:    "pyfixls fixtures list",
		Summary: "list fixtures discovered under a workspace path",
		Run:     run,
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("fixtures list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	skipUnused := fs.Bool("skip-unused", false, "omit fixtures with zero usages")
	onlyUnused := fs.Bool("only-unused", false, "show only fixtures with zero usages")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *skipUnused && *onlyUnused {
		return cli.ExitCodeError(2)
	}

	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}

	log := logging.FromEnv()
	canon := pathcanon.New()
	idx := fixtureindex.New()
	res := resolver.New(idx, canon)
	an := analyzer.New(idx, canon, res, log)
	sc := scanner.New(an, canon, log)

	ctx := context.Background()
	absRoot := canon.Canonical(root)
	if err := sc.ScanWorkspace(ctx, absRoot); err != nil {
		return err
	}
	if err := sc.ScanVenv(ctx, absRoot); err != nil {
		return err
	}

	return printTree(stdout, absRoot, idx, res, *skipUnused, *onlyUnused)
}

func printTree(w io.Writer, root string, idx *fixtureindex.Index, res *resolver.Resolver, skipUnused, onlyUnused bool) error {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)
	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)

	files := idx.Files()
	sort.Strings(files)

	for _, file := range files {
		rel, err := filepath.Rel(root, file)
		if err != nil {
			rel = file
		}
		depth := strings.Count(rel, string(filepath.Separator))
		indent := strings.Repeat("  ", depth)

		if filepath.Base(file) == "conftest.py" {
			bold.Fprint(w, indent)
			cyan.Fprintln(w, rel)
		} else {
			bold.Fprint(w, indent)
			yellow.Fprintln(w, rel)
		}

		defs := definitionsIn(idx, file)
		sort.Slice(defs, func(i, j int) bool { return defs[i].Line < defs[j].Line })
		for _, d := range defs {
			usages := len(res.References(d)) - 1
			if skipUnused && usages == 0 {
				continue
			}
			if onlyUnused && usages != 0 {
				continue
			}
			kind := "fixture"
			if d.IsAsync {
				kind = "async fixture"
			}
			label := fmt.Sprintf("%s  %s %s (%d usage", indent, kind, d.Name, usages)
			if usages != 1 {
				label += "s"
			}
			label += ")"
			if usages == 0 {
				gray.Fprintln(w, label)
			} else {
				green.Fprintln(w, label)
			}
		}

		if used := idx.Usages(file); len(used) > 0 && !onlyUnused {
			names := usedNames(used)
			fmt.Fprintf(w, "%s  uses: %s\n", indent, strings.Join(names, ", "))
		}
	}
	return nil
}

func definitionsIn(idx *fixtureindex.Index, file string) []fixture.Definition {
	var out []fixture.Definition
	for _, name := range idx.DefinitionNames() {
		for _, d := range idx.Definitions(name) {
			if d.File == file {
				out = append(out, d)
			}
		}
	}
	return out
}

func usedNames(usages []fixture.Usage) []string {
	seen := map[string]bool{}
	var names []string
	for _, u := range usages {
		if !seen[u.Name] {
			seen[u.Name] = true
			names = append(names, u.Name)
		}
	}
	sort.Strings(names)
	return names
}
