// Package scanner walks a workspace and its virtualenv, feeding every
// conftest.py/test_*.py/*_test.py file to the analyzer, skipping
// directories (.git, node_modules, __pycache__, venvs) that never hold
// relevant source. A separate live-rescan watcher keeps the index
// current as files change after the initial scan.
package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/pyfixls/pyfixls/internal/analyzer"
	"github.com/pyfixls/pyfixls/internal/logging"
	"github.com/pyfixls/pyfixls/internal/pathcanon"
)

// skipDirs names directories never descended into during a workspace
// walk.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"env":          true,
}

// Scanner walks a workspace root and a virtualenv, analyzing every
// matching Python file.
type Scanner struct {
	analyzer *analyzer.Analyzer
	canon    *pathcanon.Canonicalizer
	log      *logging.Logger
}

// New constructs a Scanner that feeds files to a.
func New(a *analyzer.Analyzer, canon *pathcanon.Canonicalizer, log *logging.Logger) *Scanner {
	return &Scanner{analyzer: a, canon: canon, log: log}
}

// IOError reports that a file could not be read during a scan: logged at
// warn, the file is skipped, the scan continues.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return "scanner: read " + e.Path + ": " + e.Err.Error() }
func (e *IOError) Unwrap() error { return e.Err }

// ScanWorkspace recursively walks root, collecting conftest.py /
// test_*.py / *_test.py files, and analyzes each. conftest
// files are analyzed before test files within the same walk so that a
// test file's own analyze() sees fixtures conftest.py already
// contributed — the scanner does not re-run analysis when an ancestor
// conftest is discovered after a dependent test file.
func (s *Scanner) ScanWorkspace(ctx context.Context, root string) error {
	var conftests, tests []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort: skip unreadable entries
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		switch {
		case name == "conftest.py":
			conftests = append(conftests, path)
		case isTestFileName(name):
			tests = append(tests, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, path := range conftests {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.analyzeFile(ctx, path, false)
	}
	for _, path := range tests {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.analyzeFile(ctx, path, false)
	}
	return nil
}

// ScanVenv locates a virtualenv under root (.venv, venv, env), falling
// back to the VIRTUAL_ENV environment
// variable, then analyze every .py file in each site-packages
// subdirectory whose name begins with pytest_, marking every definition
// found there as third-party.
func (s *Scanner) ScanVenv(ctx context.Context, root string) error {
	venv := locateVenv(root)
	if venv == "" {
		return nil
	}
	sitePackagesDirs, err := findSitePackages(venv)
	if err != nil {
		return nil
	}
	for _, sp := range sitePackagesDirs {
		entries, err := os.ReadDir(sp)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() || !strings.HasPrefix(e.Name(), "pytest_") {
				continue
			}
			pluginDir := filepath.Join(sp, e.Name())
			_ = filepath.WalkDir(pluginDir, func(path string, d os.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return nil //nolint:nilerr
				}
				if strings.HasSuffix(path, ".py") {
					if err := ctx.Err(); err != nil {
						return err
					}
					s.analyzeFile(ctx, path, true)
				}
				return nil
			})
		}
	}
	return nil
}

func (s *Scanner) analyzeFile(ctx context.Context, path string, isThirdParty bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		if s.log != nil {
			s.log.Warnf("scan: %v", &IOError{Path: path, Err: err})
		}
		return
	}
	if err := s.analyzer.Analyze(ctx, path, content, isThirdParty); err != nil {
		if s.log != nil {
			s.log.Debugf("scan: %v", err)
		}
	}
}

func isTestFileName(name string) bool {
	if !strings.HasSuffix(name, ".py") {
		return false
	}
	return strings.HasPrefix(name, "test_") || strings.HasSuffix(name, "_test.py")
}

func locateVenv(root string) string {
	for _, candidate := range []string{".venv", "venv", "env"} {
		p := filepath.Join(root, candidate)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p
		}
	}
	if v := os.Getenv("VIRTUAL_ENV"); v != "" {
		return v
	}
	return ""
}

// findSitePackages locates lib/python*/site-packages under venv (and its
// Windows equivalent, Lib/site-packages).
func findSitePackages(venv string) ([]string, error) {
	var out []string

	libDir := filepath.Join(venv, "lib")
	entries, err := os.ReadDir(libDir)
	if err == nil {
		for _, e := range entries {
			if e.IsDir() && strings.HasPrefix(e.Name(), "python") {
				sp := filepath.Join(libDir, e.Name(), "site-packages")
				if info, err := os.Stat(sp); err == nil && info.IsDir() {
					out = append(out, sp)
				}
			}
		}
	}

	winSP := filepath.Join(venv, "Lib", "site-packages")
	if info, err := os.Stat(winSP); err == nil && info.IsDir() {
		out = append(out, winSP)
	}

	return out, nil
}
