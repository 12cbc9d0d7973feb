// Package resolver implements pytest's fixture priority rules: same-file,
// then nearest conftest.py walking up the directory tree, then
// third-party plugins. It is the single place that interprets the
// index; the analyzer calls into it to decide whether a name is an
// available fixture, and the LSP handlers call into it to answer
// go-to-definition, find-references, completion, and rename requests.
package resolver

import (
	"errors"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pyfixls/pyfixls/internal/fixture"
	"github.com/pyfixls/pyfixls/internal/fixtureindex"
	"github.com/pyfixls/pyfixls/internal/pathcanon"
	"github.com/pyfixls/pyfixls/internal/pystrings"
)

// Resolver answers priority-ordered fixture lookups against an Index.
type Resolver struct {
	idx   *fixtureindex.Index
	canon *pathcanon.Canonicalizer
}

// New constructs a Resolver over idx, using canon to compute conftest.py
// ancestor paths in the same canonical form the index uses as keys.
func New(idx *fixtureindex.Index, canon *pathcanon.Canonicalizer) *Resolver {
	return &Resolver{idx: idx, canon: canon}
}

// builtinFixtureNames are never eligible for rename even when no
// definition for them has been indexed (they come from pytest itself).
var builtinFixtureNames = map[string]bool{
	"request":  true,
	"tmp_path": true,
}

// IsAvailable reports whether name resolves to some definition available
// to file under the priority rules, without regard to cursor position.
// The analyzer uses this to decide whether a name expression is a
// fixture usage.
func (r *Resolver) IsAvailable(file, name string) bool {
	_, ok := r.scopeDefinition(file, name)
	return ok
}

// AvailableFixtures returns every fixture name available to file, each
// mapped to the definition that governs it there, sorted by name.
func (r *Resolver) AvailableFixtures(file string) []fixture.Definition {
	var out []fixture.Definition
	for _, name := range r.idx.DefinitionNames() {
		if d, ok := r.scopeDefinition(file, name); ok {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve identifies the identifier at (line, char) in file, then finds
// the governing definition, disambiguating self-referential overrides by
// cursor position.
func (r *Resolver) Resolve(file string, line, char int) (name string, def fixture.Definition, ok bool) {
	content, exists := r.idx.FileContent(file)
	if !exists {
		return "", fixture.Definition{}, false
	}
	lineText := lineAt(content, line)
	id, start, end, found := pystrings.IdentifierAt(lineText, char)
	if !found {
		return "", fixture.Definition{}, false
	}
	_, _ = start, end

	defs := r.idx.Definitions(id)
	sameFile := filterByFile(defs, file)

	for _, d := range sameFile {
		if d.Contains(line, char) {
			return id, d, true
		}
	}

	var above []fixture.Definition
	for _, d := range sameFile {
		if d.Line <= line {
			above = append(above, d)
		}
	}
	if len(above) > 0 {
		sort.Slice(above, func(i, j int) bool {
			if above[i].Line != above[j].Line {
				return above[i].Line > above[j].Line
			}
			return above[i].StartChar > above[j].StartChar
		})
		return id, above[0], true
	}

	for _, conf := range r.conftestChain(file) {
		if inConf := filterByFile(defs, conf); len(inConf) > 0 {
			return id, pickDeterministic(inConf), true
		}
	}

	var thirdParty []fixture.Definition
	for _, d := range defs {
		if d.IsThirdParty {
			thirdParty = append(thirdParty, d)
		}
	}
	if len(thirdParty) > 0 {
		return id, pickDeterministic(thirdParty), true
	}

	return id, fixture.Definition{}, false
}

// References returns the set of files for which def is the governing
// definition of its name, unioned with their recorded usages, always
// including def's own position.
func (r *Resolver) References(def fixture.Definition) []fixture.Usage {
	out := []fixture.Usage{{
		Name:      def.Name,
		File:      def.File,
		Line:      def.Line,
		StartChar: def.StartChar,
		EndChar:   def.EndChar,
	}}
	seen := map[string]bool{usageKey(out[0]): true}

	for _, file := range r.idx.Files() {
		governing, ok := r.scopeDefinition(file, def.Name)
		if !ok || governing.File != def.File || governing.Line != def.Line {
			continue
		}
		for _, u := range r.idx.Usages(file) {
			if u.Name != def.Name {
				continue
			}
			if k := usageKey(u); !seen[k] {
				seen[k] = true
				out = append(out, u)
			}
		}
	}
	return out
}

// CompletionKind classifies where a completion request landed.
type CompletionKind int

const (
	// CompletionNone means no fixture completion applies here.
	CompletionNone CompletionKind = iota
	// CompletionParameterList means the cursor is inside a function
	// signature's parameter list.
	CompletionParameterList
	// CompletionBody means the cursor is inside a function body; an
	// accepted completion must also be inserted into the parameter list.
	CompletionBody
	// CompletionUsefixtures means the cursor is inside
	// @pytest.mark.usefixtures("...").
	CompletionUsefixtures
	// CompletionParametrizeIndirect means the cursor is inside
	// @pytest.mark.parametrize(..., indirect=[...]).
	CompletionParametrizeIndirect
)

// CompletionContext carries the classification plus the fixtures
// eligible at that position.
type CompletionContext struct {
	Kind      CompletionKind
	Fixtures  []fixture.Definition
	Declared  map[string]bool // parameter names already declared, for CompletionParameterList/Body
}

// Classify returns the CompletionContext for (file, line, char), filtering
// out fixtures already declared as parameters when the context is a
// signature or a body.
func (r *Resolver) Classify(file string, line, char int, kind CompletionKind, declared []string) CompletionContext {
	all := r.AvailableFixtures(file)
	decl := map[string]bool{}
	for _, d := range declared {
		decl[d] = true
	}

	if kind != CompletionParameterList && kind != CompletionBody {
		return CompletionContext{Kind: kind, Fixtures: all}
	}

	var filtered []fixture.Definition
	for _, d := range all {
		if !decl[d.Name] {
			filtered = append(filtered, d)
		}
	}
	return CompletionContext{Kind: kind, Fixtures: filtered, Declared: decl}
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var errNotIdentifier = errors.New("resolver: new name is not a valid Python identifier")
var errThirdPartyRename = errors.New("resolver: cannot rename a third-party fixture")
var errBuiltinRename = errors.New("resolver: cannot rename a built-in fixture")

// ValidateRename enforces that the new name must be a valid Python
// identifier, and that the target must not be third-party or built-in.
func (r *Resolver) ValidateRename(def fixture.Definition, newName string) error {
	if !identRe.MatchString(newName) {
		return errNotIdentifier
	}
	if def.IsThirdParty {
		return errThirdPartyRename
	}
	if builtinFixtureNames[def.Name] {
		return errBuiltinRename
	}
	onlyThirdParty := true
	for _, d := range r.idx.Definitions(def.Name) {
		if !d.IsThirdParty {
			onlyThirdParty = false
			break
		}
	}
	if onlyThirdParty {
		return errBuiltinRename
	}
	return nil
}

// scopeDefinition picks the definition that governs name for file under
// the priority rules, without regard to cursor position: same file (the
// lexically last definition, matching Python's own redefinition
// semantics), then nearest conftest.py ancestor, then third-party.
func (r *Resolver) scopeDefinition(file, name string) (fixture.Definition, bool) {
	defs := r.idx.Definitions(name)

	if sameFile := filterByFile(defs, file); len(sameFile) > 0 {
		sort.Slice(sameFile, func(i, j int) bool { return sameFile[i].Line > sameFile[j].Line })
		return sameFile[0], true
	}

	for _, conf := range r.conftestChain(file) {
		if inConf := filterByFile(defs, conf); len(inConf) > 0 {
			return pickDeterministic(inConf), true
		}
	}

	var thirdParty []fixture.Definition
	for _, d := range defs {
		if d.IsThirdParty {
			thirdParty = append(thirdParty, d)
		}
	}
	if len(thirdParty) > 0 {
		return pickDeterministic(thirdParty), true
	}

	return fixture.Definition{}, false
}

// conftestChain returns the canonical path of a conftest.py in each
// ancestor directory of file, nearest first, walking up to the
// filesystem root. A conftest.py above the workspace root is still
// searched; it simply never has anything indexed under it.
func (r *Resolver) conftestChain(file string) []string {
	dir := filepath.Dir(file)
	var chain []string
	for {
		chain = append(chain, r.canon.Canonical(filepath.Join(dir, "conftest.py")))
		next := filepath.Dir(dir)
		if next == dir {
			break
		}
		dir = next
	}
	return chain
}

func filterByFile(defs []fixture.Definition, file string) []fixture.Definition {
	var out []fixture.Definition
	for _, d := range defs {
		if d.File == file {
			out = append(out, d)
		}
	}
	return out
}

// pickDeterministic breaks ties by lexicographically smallest canonical
// path, so that resolution never depends on the concurrent map's
// iteration order. Within a single file, the lexically last definition
// wins, same as the same-file case in scopeDefinition: a fixture
// redefined twice in one conftest.py resolves to the later def, matching
// Python's own redefinition semantics.
func pickDeterministic(defs []fixture.Definition) fixture.Definition {
	best := defs[0]
	for _, d := range defs[1:] {
		switch {
		case d.File < best.File:
			best = d
		case d.File == best.File && d.Line > best.Line:
			best = d
		}
	}
	return best
}

func usageKey(u fixture.Usage) string {
	return u.File + ":" + strconv.Itoa(u.Line) + ":" + strconv.Itoa(u.StartChar) + ":" + u.Name
}

func lineAt(content string, line int) string {
	lines := strings.Split(content, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}
