package pydecor

import (
	"context"
	"testing"

	"github.com/pyfixls/pyfixls/internal/pyast"
)

func decoratorsOf(t *testing.T, src string) []*pyast.Node {
	t.Helper()
	f, err := pyast.NewParser().Parse(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	stmts := f.TopLevelStatements()
	if len(stmts) == 0 {
		t.Fatalf("no top-level statements parsed from:\n%s", src)
	}
	_, decorators := pyast.Unwrap(stmts[0])
	if len(decorators) == 0 {
		t.Fatalf("no decorators found on first statement parsed from:\n%s", src)
	}
	return decorators
}

func firstDecorator(t *testing.T, src string) *pyast.Node {
	t.Helper()
	return decoratorsOf(t, src)[0]
}

func TestIsFixtureDecoratorBare(t *testing.T) {
	dec := firstDecorator(t, "@pytest.fixture\ndef db():\n    pass\n")
	if !IsFixtureDecorator(dec) {
		t.Error("IsFixtureDecorator() = false, want true for @pytest.fixture")
	}
}

func TestIsFixtureDecoratorCalled(t *testing.T) {
	dec := firstDecorator(t, "@pytest.fixture(scope=\"module\")\ndef db():\n    pass\n")
	if !IsFixtureDecorator(dec) {
		t.Error("IsFixtureDecorator() = false, want true for @pytest.fixture(scope=\"module\")")
	}
}

func TestIsFixtureDecoratorRejectsOtherDecorators(t *testing.T) {
	dec := firstDecorator(t, "@staticmethod\ndef helper():\n    pass\n")
	if IsFixtureDecorator(dec) {
		t.Error("IsFixtureDecorator() = true, want false for @staticmethod")
	}
}

func TestIsPytestMarkUsefixtures(t *testing.T) {
	dec := firstDecorator(t, "@pytest.mark.usefixtures(\"db\", \"client\")\ndef test_x():\n    pass\n")
	if !IsPytestMark(dec, "usefixtures") {
		t.Error("IsPytestMark(dec, \"usefixtures\") = false, want true")
	}
	if IsPytestMark(dec, "parametrize") {
		t.Error("IsPytestMark(dec, \"parametrize\") = true, want false")
	}
}

func TestUsefixturesArgs(t *testing.T) {
	dec := firstDecorator(t, "@pytest.mark.usefixtures(\"db\", \"client\")\ndef test_x():\n    pass\n")
	args := UsefixturesArgs(dec)
	if len(args) != 2 {
		t.Fatalf("UsefixturesArgs() = %v, want 2 entries", args)
	}
	if got := unquote(args[0].Text()); got != "db" {
		t.Errorf("UsefixturesArgs()[0] = %q, want %q", got, "db")
	}
	if got := unquote(args[1].Text()); got != "client" {
		t.Errorf("UsefixturesArgs()[1] = %q, want %q", got, "client")
	}
}

func TestParametrizeIndirectAllTrue(t *testing.T) {
	dec := firstDecorator(t, "@pytest.mark.parametrize(\"x\", [1, 2], indirect=True)\ndef test_x(x):\n    pass\n")
	names, all, ok := ParametrizeIndirect(dec)
	if !ok {
		t.Fatal("ParametrizeIndirect() ok = false, want true")
	}
	if !all {
		t.Error("ParametrizeIndirect() all = false, want true")
	}
	if names != nil {
		t.Errorf("ParametrizeIndirect() names = %v, want nil when indirect=True", names)
	}
}

func TestParametrizeIndirectNameList(t *testing.T) {
	dec := firstDecorator(t, "@pytest.mark.parametrize(\"x\", [1, 2], indirect=[\"x\"])\ndef test_x(x):\n    pass\n")
	names, all, ok := ParametrizeIndirect(dec)
	if !ok {
		t.Fatal("ParametrizeIndirect() ok = false, want true")
	}
	if all {
		t.Error("ParametrizeIndirect() all = true, want false for a name list")
	}
	if len(names) != 1 || names[0] != "x" {
		t.Errorf("ParametrizeIndirect() names = %v, want [\"x\"]", names)
	}
}

func TestParametrizeIndirectAbsent(t *testing.T) {
	dec := firstDecorator(t, "@pytest.mark.parametrize(\"x\", [1, 2])\ndef test_x(x):\n    pass\n")
	_, _, ok := ParametrizeIndirect(dec)
	if ok {
		t.Error("ParametrizeIndirect() ok = true, want false when indirect is absent")
	}
}

func TestParametrizeFirstArg(t *testing.T) {
	dec := firstDecorator(t, "@pytest.mark.parametrize(\"x,y\", [(1, 2)])\ndef test_x(x, y):\n    pass\n")
	arg := ParametrizeFirstArg(dec)
	if arg == nil {
		t.Fatal("ParametrizeFirstArg() = nil, want the string literal node")
	}
	if got := unquote(arg.Text()); got != "x,y" {
		t.Errorf("ParametrizeFirstArg().Text() = %q, want %q", got, "x,y")
	}
}

func TestParametrizeFirstArgRejectsNonLiteral(t *testing.T) {
	dec := firstDecorator(t, "@pytest.mark.parametrize(NAMES, VALUES)\ndef test_x(x, y):\n    pass\n")
	if arg := ParametrizeFirstArg(dec); arg != nil {
		t.Errorf("ParametrizeFirstArg() = %v, want nil for a non-literal first argument", arg)
	}
}
