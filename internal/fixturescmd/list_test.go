package fixturescmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/pyfixls/pyfixls/internal/fixture"
	"github.com/pyfixls/pyfixls/internal/fixtureindex"
	"github.com/pyfixls/pyfixls/internal/pathcanon"
	"github.com/pyfixls/pyfixls/internal/resolver"
)

func init() {
	// go test's output is not a terminal, but be explicit so the tree
	// assertions below compare plain text rather than ANSI escape codes.
	color.NoColor = true
}

func TestPrintTreeListsDefinitionsAndUsages(t *testing.T) {
	idx := fixtureindex.New()
	idx.AddDefinition(fixture.Definition{Name: "db", File: "/root/conftest.py", Line: 3})
	idx.SetFileContent("/root/conftest.py", "import pytest\n\n@pytest.fixture\ndef db():\n    pass\n")
	idx.SetFileContent("/root/test_foo.py", "def test_x(db):\n    assert db\n")
	idx.SetUsages("/root/test_foo.py", []fixture.Usage{{Name: "db", File: "/root/test_foo.py", Line: 1, StartChar: 11, EndChar: 13}})

	res := resolver.New(idx, pathcanon.New())

	var buf bytes.Buffer
	if err := printTree(&buf, "/root", idx, res, false, false); err != nil {
		t.Fatalf("printTree() error = %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "conftest.py") {
		t.Errorf("output missing conftest.py entry:\n%s", out)
	}
	if !strings.Contains(out, "fixture db") {
		t.Errorf("output missing fixture db entry:\n%s", out)
	}
	if !strings.Contains(out, "1 usage") {
		t.Errorf("output missing usage count:\n%s", out)
	}
	if !strings.Contains(out, "uses: db") {
		t.Errorf("output missing uses: line for test_foo.py:\n%s", out)
	}
}

func TestPrintTreeLabelsAsyncFixture(t *testing.T) {
	idx := fixtureindex.New()
	idx.AddDefinition(fixture.Definition{Name: "db", File: "/root/conftest.py", Line: 3, IsAsync: true})
	idx.SetFileContent("/root/conftest.py", "import pytest\n\n@pytest.fixture\nasync def db():\n    pass\n")

	res := resolver.New(idx, pathcanon.New())

	var buf bytes.Buffer
	if err := printTree(&buf, "/root", idx, res, false, false); err != nil {
		t.Fatalf("printTree() error = %v", err)
	}
	if !strings.Contains(buf.String(), "async fixture db") {
		t.Errorf("output missing async fixture db entry:\n%s", buf.String())
	}
}

func TestPrintTreeSkipUnused(t *testing.T) {
	idx := fixtureindex.New()
	idx.AddDefinition(fixture.Definition{Name: "unused_fixture", File: "/root/conftest.py", Line: 3})
	idx.SetFileContent("/root/conftest.py", "import pytest\n\n@pytest.fixture\ndef unused_fixture():\n    pass\n")

	res := resolver.New(idx, pathcanon.New())

	var buf bytes.Buffer
	if err := printTree(&buf, "/root", idx, res, true, false); err != nil {
		t.Fatalf("printTree() error = %v", err)
	}
	if strings.Contains(buf.String(), "unused_fixture") {
		t.Errorf("--skip-unused output still lists an unused fixture:\n%s", buf.String())
	}
}

func TestPrintTreeOnlyUnused(t *testing.T) {
	idx := fixtureindex.New()
	idx.AddDefinition(fixture.Definition{Name: "db", File: "/root/conftest.py", Line: 3})
	idx.AddDefinition(fixture.Definition{Name: "unused_fixture", File: "/root/conftest.py", Line: 8})
	idx.SetFileContent("/root/conftest.py", "import pytest\n\n@pytest.fixture\ndef db():\n    pass\n\n@pytest.fixture\ndef unused_fixture():\n    pass\n")
	idx.SetFileContent("/root/test_foo.py", "def test_x(db):\n    assert db\n")
	idx.SetUsages("/root/test_foo.py", []fixture.Usage{{Name: "db", File: "/root/test_foo.py", Line: 1, StartChar: 11, EndChar: 13}})

	res := resolver.New(idx, pathcanon.New())

	var buf bytes.Buffer
	if err := printTree(&buf, "/root", idx, res, false, true); err != nil {
		t.Fatalf("printTree() error = %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "fixture db") {
		t.Errorf("--only-unused output still lists the used fixture db:\n%s", out)
	}
	if !strings.Contains(out, "unused_fixture") {
		t.Errorf("--only-unused output missing unused_fixture:\n%s", out)
	}
}

func TestDefinitionsInFiltersByFile(t *testing.T) {
	idx := fixtureindex.New()
	idx.AddDefinition(fixture.Definition{Name: "db", File: "/a/conftest.py", Line: 1})
	idx.AddDefinition(fixture.Definition{Name: "client", File: "/b/conftest.py", Line: 1})

	got := definitionsIn(idx, "/a/conftest.py")
	if len(got) != 1 || got[0].Name != "db" {
		t.Fatalf("definitionsIn(/a/conftest.py) = %v, want only db", got)
	}
}

func TestUsedNamesDedupesAndSorts(t *testing.T) {
	usages := []fixture.Usage{
		{Name: "db", File: "/a/test_foo.py", Line: 1},
		{Name: "client", File: "/a/test_foo.py", Line: 2},
		{Name: "db", File: "/a/test_foo.py", Line: 3},
	}
	got := usedNames(usages)
	want := []string{"client", "db"}
	if len(got) != len(want) {
		t.Fatalf("usedNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("usedNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRunRejectsConflictingFlags(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"--skip-unused", "--only-unused", "."}, &stdout, &stderr)
	if err == nil {
		t.Fatal("run() error = nil, want an error for conflicting flags")
	}
}
