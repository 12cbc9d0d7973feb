package resolver

import (
	"testing"

	"github.com/pyfixls/pyfixls/internal/fixture"
	"github.com/pyfixls/pyfixls/internal/fixtureindex"
	"github.com/pyfixls/pyfixls/internal/pathcanon"
)

func TestResolveSameFileWins(t *testing.T) {
	idx := fixtureindex.New()
	idx.AddDefinition(fixture.Definition{Name: "db", File: "/a/conftest.py", Line: 1, StartChar: 4, EndChar: 6})
	idx.AddDefinition(fixture.Definition{Name: "db", File: "/a/test_foo.py", Line: 1, StartChar: 4, EndChar: 6})
	idx.SetFileContent("/a/test_foo.py", "def test_x(db):\n    assert db\n")

	r := New(idx, pathcanon.New())
	_, def, ok := r.Resolve("/a/test_foo.py", 2, 11)
	if !ok {
		t.Fatal("Resolve() ok = false, want true")
	}
	if def.File != "/a/test_foo.py" || def.Line != 1 {
		t.Errorf("Resolve() = %+v, want same-file definition at line 1", def)
	}
}

func TestResolveFallsBackToConftest(t *testing.T) {
	idx := fixtureindex.New()
	idx.AddDefinition(fixture.Definition{Name: "db", File: "/a/conftest.py", Line: 1, StartChar: 4, EndChar: 6})
	idx.SetFileContent("/a/test_foo.py", "def test_x(db):\n    assert db\n")

	r := New(idx, pathcanon.New())
	_, def, ok := r.Resolve("/a/test_foo.py", 2, 11)
	if !ok {
		t.Fatal("Resolve() ok = false, want true")
	}
	if def.File != "/a/conftest.py" {
		t.Errorf("Resolve() def.File = %q, want /a/conftest.py", def.File)
	}
}

func TestResolveNearestConftestWins(t *testing.T) {
	idx := fixtureindex.New()
	idx.AddDefinition(fixture.Definition{Name: "db", File: "/a/conftest.py", Line: 1, StartChar: 4, EndChar: 6})
	idx.AddDefinition(fixture.Definition{Name: "db", File: "/a/b/conftest.py", Line: 1, StartChar: 4, EndChar: 6})
	idx.SetFileContent("/a/b/test_foo.py", "def test_x(db):\n    assert db\n")

	r := New(idx, pathcanon.New())
	_, def, ok := r.Resolve("/a/b/test_foo.py", 2, 11)
	if !ok {
		t.Fatal("Resolve() ok = false, want true")
	}
	if def.File != "/a/b/conftest.py" {
		t.Errorf("Resolve() def.File = %q, want nearest /a/b/conftest.py", def.File)
	}
}

func TestResolveConftestRedefinitionLastWins(t *testing.T) {
	idx := fixtureindex.New()
	idx.AddDefinition(fixture.Definition{Name: "db", File: "/a/conftest.py", Line: 1, StartChar: 4, EndChar: 6})
	idx.AddDefinition(fixture.Definition{Name: "db", File: "/a/conftest.py", Line: 10, StartChar: 4, EndChar: 6})
	idx.SetFileContent("/a/test_foo.py", "def test_x(db):\n    assert db\n")

	r := New(idx, pathcanon.New())
	_, def, ok := r.Resolve("/a/test_foo.py", 2, 11)
	if !ok {
		t.Fatal("Resolve() ok = false, want true")
	}
	if def.Line != 10 {
		t.Errorf("Resolve() def.Line = %d, want 10 (the later redefinition in the same conftest.py)", def.Line)
	}
}

func TestResolveThirdPartyFallback(t *testing.T) {
	idx := fixtureindex.New()
	idx.AddDefinition(fixture.Definition{Name: "tmpdir", File: "/venv/site-packages/pytest_x.py", Line: 1, StartChar: 4, EndChar: 10, IsThirdParty: true})
	idx.SetFileContent("/a/test_foo.py", "def test_x(tmpdir):\n    assert tmpdir\n")

	r := New(idx, pathcanon.New())
	_, def, ok := r.Resolve("/a/test_foo.py", 2, 13)
	if !ok || !def.IsThirdParty {
		t.Fatalf("Resolve() = (%+v, %v), want third-party definition", def, ok)
	}
}

func TestResolveNoDefinitionFound(t *testing.T) {
	idx := fixtureindex.New()
	idx.SetFileContent("/a/test_foo.py", "def test_x(unknown_fixture):\n    pass\n")

	r := New(idx, pathcanon.New())
	_, _, ok := r.Resolve("/a/test_foo.py", 1, 13)
	if ok {
		t.Error("Resolve() ok = true, want false for an undefined name")
	}
}

func TestReferencesIncludesDefinitionAndUsages(t *testing.T) {
	idx := fixtureindex.New()
	def := fixture.Definition{Name: "db", File: "/a/conftest.py", Line: 1, StartChar: 4, EndChar: 6}
	idx.AddDefinition(def)
	idx.SetFileContent("/a/conftest.py", "def db():\n    pass\n")
	idx.SetFileContent("/a/test_foo.py", "def test_x(db):\n    assert db\n")
	idx.SetUsages("/a/test_foo.py", []fixture.Usage{{Name: "db", File: "/a/test_foo.py", Line: 1, StartChar: 11, EndChar: 13}})

	r := New(idx, pathcanon.New())
	refs := r.References(def)
	if len(refs) != 2 {
		t.Fatalf("References() has %d entries, want 2 (definition + usage): %v", len(refs), refs)
	}
}

func TestValidateRenameRejectsThirdParty(t *testing.T) {
	idx := fixtureindex.New()
	def := fixture.Definition{Name: "tmpdir", File: "/venv/pytest_x.py", Line: 1, IsThirdParty: true}
	idx.AddDefinition(def)

	r := New(idx, pathcanon.New())
	if err := r.ValidateRename(def, "my_tmpdir"); err == nil {
		t.Error("ValidateRename() err = nil, want error for third-party fixture")
	}
}

func TestValidateRenameRejectsBadIdentifier(t *testing.T) {
	idx := fixtureindex.New()
	def := fixture.Definition{Name: "db", File: "/a/conftest.py", Line: 1}
	idx.AddDefinition(def)

	r := New(idx, pathcanon.New())
	if err := r.ValidateRename(def, "123bad"); err == nil {
		t.Error("ValidateRename() err = nil, want error for invalid identifier")
	}
}

func TestValidateRenameAcceptsValid(t *testing.T) {
	idx := fixtureindex.New()
	def := fixture.Definition{Name: "db", File: "/a/conftest.py", Line: 1}
	idx.AddDefinition(def)

	r := New(idx, pathcanon.New())
	if err := r.ValidateRename(def, "database"); err != nil {
		t.Errorf("ValidateRename() err = %v, want nil", err)
	}
}

func TestClassifyFiltersDeclaredParameters(t *testing.T) {
	idx := fixtureindex.New()
	idx.AddDefinition(fixture.Definition{Name: "db", File: "/a/conftest.py", Line: 1})
	idx.AddDefinition(fixture.Definition{Name: "client", File: "/a/conftest.py", Line: 5})
	idx.SetFileContent("/a/test_foo.py", "def test_x(db):\n    pass\n")

	r := New(idx, pathcanon.New())
	cc := r.Classify("/a/test_foo.py", 1, 14, CompletionParameterList, []string{"db"})

	for _, f := range cc.Fixtures {
		if f.Name == "db" {
			t.Errorf("Classify() still offered already-declared parameter %q", f.Name)
		}
	}
	found := false
	for _, f := range cc.Fixtures {
		if f.Name == "client" {
			found = true
		}
	}
	if !found {
		t.Error("Classify() did not offer undeclared fixture \"client\"")
	}
}
