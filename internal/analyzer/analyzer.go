// Package analyzer extracts, per file, the fixture definitions, usages,
// and undeclared references from a parsed Python source file, writing
// the results into the shared index. It walks classes, functions,
// decorators, and docstrings, recognizing test and fixture functions by
// name and decorator.
package analyzer

import (
	"context"
	"strings"
	"sync"

	"github.com/pyfixls/pyfixls/internal/fixture"
	"github.com/pyfixls/pyfixls/internal/fixtureindex"
	"github.com/pyfixls/pyfixls/internal/logging"
	"github.com/pyfixls/pyfixls/internal/pathcanon"
	"github.com/pyfixls/pyfixls/internal/pyast"
	"github.com/pyfixls/pyfixls/internal/pydecor"
	"github.com/pyfixls/pyfixls/internal/pystrings"
	"github.com/pyfixls/pyfixls/internal/resolver"
)

// Analyzer runs analyze(path, content) against a shared index and
// resolver.
type Analyzer struct {
	idx      *fixtureindex.Index
	canon    *pathcanon.Canonicalizer
	resolver *resolver.Resolver
	log      *logging.Logger
	parsers  sync.Pool
}

// New constructs an Analyzer. resolver is used during usage extraction to
// test fixture availability: a parameter or body name only counts as a
// fixture usage if it's a known fixture available to this file; it reads
// the same idx this
// Analyzer writes to, so availability reflects whatever has been analyzed
// so far — a file that references a fixture defined in a conftest.py
// scanned later will be picked up correctly on the conftest's own
// analyze() pass only if usages are recomputed, which the scanner does by
// analyzing conftest files before the test files that depend on them.
func New(idx *fixtureindex.Index, canon *pathcanon.Canonicalizer, res *resolver.Resolver, log *logging.Logger) *Analyzer {
	return &Analyzer{
		idx:      idx,
		canon:    canon,
		resolver: res,
		log:      log,
		parsers:  sync.Pool{New: func() any { return pyast.NewParser() }},
	}
}

// accumulator collects one analyze(F) pass's output before it is
// committed to the index, so the index's per-map writes can be ordered
// correctly (file content last).
type accumulator struct {
	defs       []fixture.Definition
	usages     []fixture.Usage
	undeclared []fixture.Undeclared
}

// Analyze parses content, clears any stale entries for path, then
// extracts and commits fixture definitions, usages, and undeclared
// references to the index. isThirdParty marks every definition found in
// content as coming from a virtualenv plugin source (the scanner decides
// this by path, not the analyzer).
func (a *Analyzer) Analyze(ctx context.Context, path string, content []byte, isThirdParty bool) error {
	canonical := a.canon.Canonical(path)
	a.idx.ClearFile(canonical)

	parser := a.parsers.Get().(*pyast.Parser)
	defer a.parsers.Put(parser)

	str := string(content)

	file, err := parser.Parse(ctx, content)
	if err != nil {
		if a.log != nil {
			a.log.Debugf("analyze: parse failed: file=%s err=%v", canonical, err)
		}
		a.idx.SetFileContent(canonical, str)
		return &ParseError{File: canonical, Err: err}
	}

	acc := &accumulator{}
	a.walk(file.TopLevelStatements(), canonical, isThirdParty, true, acc)

	for _, d := range acc.defs {
		a.idx.AddDefinition(d)
	}
	a.idx.SetUsages(canonical, acc.usages)
	a.idx.SetUndeclared(canonical, acc.undeclared)
	// Content written last: any observer who sees the new content also
	// sees the usages/undeclared that were derived from it.
	a.idx.SetFileContent(canonical, str)

	return nil
}

// walk visits statements (including class bodies, recursively) looking
// for definitions. topLevel is true only for the module's own direct
// statements, since the assignment-form definition
// (`db = pytest.fixture()(make_db)`) is scoped to module level.
func (a *Analyzer) walk(stmts []*pyast.Node, file string, isThirdParty, topLevel bool, acc *accumulator) {
	for _, n := range stmts {
		switch {
		case pyast.IsFunctionDef(n):
			fn, decorators := pyast.Unwrap(n)
			a.handleFunctionDef(fn, decorators, file, isThirdParty, acc)
		case pyast.IsClassDef(n):
			class, decorators := pyast.Unwrap(n)
			a.handleClassDecorators(decorators, class, file, acc)
			a.walk(pyast.Body(class), file, isThirdParty, false, acc)
		case topLevel && n.Type() == "expression_statement":
			a.handleModuleAssignment(n, file, isThirdParty, acc)
		}
	}
}

func isTestName(name string) bool {
	return strings.HasPrefix(name, "test_") || strings.HasSuffix(name, "_test")
}

// handleFunctionDef records a fixture definition if fn is decorated as
// one, then — for test and fixture functions only — extracts parameter,
// usefixtures and parametrize usages, plus undeclared body-name references.
func (a *Analyzer) handleFunctionDef(fn *pyast.Node, decorators []*pyast.Node, file string, isThirdParty bool, acc *accumulator) {
	if fn == nil {
		return
	}
	nameNode := fn.Field("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Text()

	isFixture := false
	for _, d := range decorators {
		if pydecor.IsFixtureDecorator(d) {
			isFixture = true
			break
		}
	}
	if isFixture {
		acc.defs = append(acc.defs, fixture.Definition{
			Name:         name,
			File:         file,
			Line:         fn.Line(),
			StartChar:    nameNode.Char(),
			EndChar:      nameNode.EndChar(),
			Docstring:    firstDocstring(fn),
			IsThirdParty: isThirdParty,
			IsAsync:      pyast.IsAsync(fn),
		})
	}

	if !isFixture && !isTestName(name) {
		return
	}

	declared := map[string]bool{}
	for _, p := range pyast.Params(fn) {
		pname := pyast.ParamName(p)
		if pname == "" || pname == "self" || pname == "cls" {
			continue
		}
		declared[pname] = true
		if a.resolver.IsAvailable(file, pname) {
			if id := pyast.ParamIdentNode(p); id != nil {
				acc.usages = append(acc.usages, fixture.Usage{
					Name: pname, File: file, Line: id.Line(),
					StartChar: id.Char(), EndChar: id.EndChar(),
				})
			}
		}
	}

	for _, d := range decorators {
		a.handleUsefixturesDecorator(d, file, acc)
		a.handleParametrizeDecorator(d, file, acc)
	}

	bindings := map[string]int{}
	for _, stmt := range pyast.Body(fn) {
		a.walkBody(stmt, file, name, fn.Line(), declared, bindings, acc)
	}
}

// handleClassDecorators records usefixtures usages from a class-level
// @pytest.mark.usefixtures(...): one usage per string argument, at the
// string's position, however many test methods the class defines.
func (a *Analyzer) handleClassDecorators(decorators []*pyast.Node, class *pyast.Node, file string, acc *accumulator) {
	if class == nil {
		return
	}
	for _, d := range decorators {
		a.handleUsefixturesDecorator(d, file, acc)
	}
}

// handleUsefixturesDecorator records one usage per string argument of a
// @pytest.mark.usefixtures(...) decorator, attributed to that string
// literal's own position — whether the decorator sits above a function
// or above a class.
func (a *Analyzer) handleUsefixturesDecorator(d *pyast.Node, file string, acc *accumulator) {
	for _, strNode := range pydecor.UsefixturesArgs(d) {
		name := unquote(strNode.Text())
		if name == "" || !a.resolver.IsAvailable(file, name) {
			continue
		}
		acc.usages = append(acc.usages, fixture.Usage{
			Name: name, File: file, Line: strNode.Line(),
			StartChar: strNode.Char(), EndChar: strNode.EndChar(),
		})
	}
}

func (a *Analyzer) handleParametrizeDecorator(d *pyast.Node, file string, acc *accumulator) {
	names, all, ok := pydecor.ParametrizeIndirect(d)
	if !ok {
		return
	}
	firstArg := pydecor.ParametrizeFirstArg(d)
	targets := names
	if all {
		targets = parseCommaNames(firstArg)
	}
	for _, name := range targets {
		if !a.resolver.IsAvailable(file, name) {
			continue
		}
		if firstArg != nil {
			if line, start, end, ok := paramNamePosition(firstArg, name); ok {
				acc.usages = append(acc.usages, fixture.Usage{Name: name, File: file, Line: line, StartChar: start, EndChar: end})
				continue
			}
		}
		acc.usages = append(acc.usages, fixture.Usage{
			Name: name, File: file, Line: d.Line(), StartChar: d.Char(), EndChar: d.EndChar(),
		})
	}
}

// walkBody walks a single statement of a test/fixture function body,
// flagging bare Name references that resolve to an available fixture as
// either a usage (already declared as a parameter — handled earlier, so
// skipped here) or an undeclared reference, honoring line-aware scoping:
// a name assigned on a line at or before the reference is a local
// variable, not a fixture usage.
func (a *Analyzer) walkBody(n *pyast.Node, file, funcName string, funcDefLine int, declared map[string]bool, bindings map[string]int, acc *accumulator) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "function_definition", "class_definition", "decorated_definition", "lambda":
		return // nested scopes are out of scope for this walk

	case "assignment", "augmented_assignment":
		if right := n.Field("right"); right != nil {
			a.walkBody(right, file, funcName, funcDefLine, declared, bindings, acc)
		}
		bindTargets(n.Field("left"), n.Line(), bindings)
		return

	case "for_statement":
		if right := n.Field("right"); right != nil {
			a.walkBody(right, file, funcName, funcDefLine, declared, bindings, acc)
		}
		bindTargets(n.Field("left"), n.Line(), bindings)
		for _, stmt := range pyast.Body(n) {
			a.walkBody(stmt, file, funcName, funcDefLine, declared, bindings, acc)
		}
		return

	case "with_item":
		if val := n.Field("value"); val != nil {
			a.walkBody(val, file, funcName, funcDefLine, declared, bindings, acc)
		}
		if alias := n.Field("alias"); alias != nil {
			bindTargets(alias, n.Line(), bindings)
		}
		return

	case "except_clause":
		if alias := n.Field("alias"); alias != nil {
			bindTargets(alias, n.Line(), bindings)
		}
		for _, c := range n.NamedChildren() {
			a.walkBody(c, file, funcName, funcDefLine, declared, bindings, acc)
		}
		return

	case "attribute":
		if obj := n.Field("object"); obj != nil {
			a.walkBody(obj, file, funcName, funcDefLine, declared, bindings, acc)
		}
		return

	case "keyword_argument":
		if val := n.Field("value"); val != nil {
			a.walkBody(val, file, funcName, funcDefLine, declared, bindings, acc)
		}
		return

	case "identifier":
		a.considerUndeclared(n, file, funcName, funcDefLine, declared, bindings, acc)
		return
	}

	for _, c := range n.NamedChildren() {
		a.walkBody(c, file, funcName, funcDefLine, declared, bindings, acc)
	}
}

func (a *Analyzer) considerUndeclared(id *pyast.Node, file, funcName string, funcDefLine int, declared map[string]bool, bindings map[string]int, acc *accumulator) {
	name := id.Text()
	if name == "" || declared[name] || fixture.IsBuiltinExclusion(name) {
		return
	}
	if boundLine, ok := bindings[name]; ok && boundLine <= id.Line() {
		return
	}
	if !a.resolver.IsAvailable(file, name) {
		return
	}
	acc.undeclared = append(acc.undeclared, fixture.Undeclared{
		Name: name, File: file, Line: id.Line(),
		StartChar: id.Char(), EndChar: id.EndChar(),
		FuncName: funcName, FuncDefLine: funcDefLine,
	})
}

// bindTargets records every identifier within an assignment/for/with
// target (which may be a bare identifier, or a tuple/list pattern for
// unpacking) as bound at line.
func bindTargets(target *pyast.Node, line int, bindings map[string]int) {
	if target == nil {
		return
	}
	switch target.Type() {
	case "identifier":
		bindings[target.Text()] = line
	case "pattern_list", "tuple_pattern", "list_pattern":
		for _, c := range target.NamedChildren() {
			bindTargets(c, line, bindings)
		}
	}
}

func firstDocstring(fn *pyast.Node) string {
	body := pyast.Body(fn)
	if len(body) == 0 {
		return ""
	}
	first := body[0]
	if first.Type() != "expression_statement" || first.NamedChildCount() != 1 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	return pystrings.CleanDocstring(str.Text())
}

// handleModuleAssignment recognizes the pytest-mock idiom
// `NAME = pytest.fixture(...)(INNER)`: a call expression whose own
// callee is itself a call to `fixture`/`pytest.fixture`.
func (a *Analyzer) handleModuleAssignment(stmt *pyast.Node, file string, isThirdParty bool, acc *accumulator) {
	if stmt.NamedChildCount() != 1 {
		return
	}
	assign := stmt.NamedChild(0)
	if assign.Type() != "assignment" {
		return
	}
	left := assign.Field("left")
	right := assign.Field("right")
	if left == nil || left.Type() != "identifier" || right == nil || right.Type() != "call" {
		return
	}
	outerCallee := right.Field("function")
	if outerCallee == nil || outerCallee.Type() != "call" {
		return
	}
	innerCallee := outerCallee.Field("function")
	if innerCallee == nil {
		return
	}
	calleeText := innerCallee.Text()
	if calleeText != "fixture" && !strings.HasSuffix(calleeText, ".fixture") {
		return
	}
	acc.defs = append(acc.defs, fixture.Definition{
		Name:         left.Text(),
		File:         file,
		Line:         left.Line(),
		StartChar:    left.Char(),
		EndChar:      left.EndChar(),
		IsThirdParty: isThirdParty,
	})
}

// paramNamePosition locates name within a single-line comma-separated
// parameter-names string literal (the first argument to parametrize),
// returning its line and character span. Multi-line literals fall back to
// the decorator's own position.
func paramNamePosition(strNode *pyast.Node, name string) (line, start, end int, ok bool) {
	if strNode == nil || strNode.Line() != strNode.EndLine() {
		return 0, 0, 0, false
	}
	text := strNode.Text()
	if len(text) < 2 {
		return 0, 0, 0, false
	}
	inner := text[1 : len(text)-1]
	offset := 1
	for _, part := range strings.Split(inner, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == name {
			lead := strings.Index(part, trimmed)
			s := strNode.Char() + offset + lead
			return strNode.Line(), s, s + len(trimmed), true
		}
		offset += len(part) + 1
	}
	return 0, 0, 0, false
}

func parseCommaNames(strNode *pyast.Node) []string {
	if strNode == nil {
		return nil
	}
	text := strNode.Text()
	if len(text) < 2 {
		return nil
	}
	var out []string
	for _, part := range strings.Split(text[1:len(text)-1], ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"""`, "'''", `"`, "'"} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}
