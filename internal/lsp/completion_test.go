package lsp

import (
	"reflect"
	"testing"

	"github.com/pyfixls/pyfixls/internal/resolver"
)

func TestClassifyCompletionParameterList(t *testing.T) {
	content := "def test_x(db, ):\n    pass\n"
	kind, defLine, declared := classifyCompletion(content, 1, 15)
	if kind != resolver.CompletionParameterList {
		t.Fatalf("classifyCompletion() kind = %v, want CompletionParameterList", kind)
	}
	if defLine != 1 {
		t.Errorf("defLine = %d, want 1", defLine)
	}
	if !reflect.DeepEqual(declared, []string{"db"}) {
		t.Errorf("declared = %v, want [db]", declared)
	}
}

func TestClassifyCompletionBody(t *testing.T) {
	content := "def test_x(db):\n    assert \n"
	kind, defLine, declared := classifyCompletion(content, 2, 11)
	if kind != resolver.CompletionBody {
		t.Fatalf("classifyCompletion() kind = %v, want CompletionBody", kind)
	}
	if defLine != 1 {
		t.Errorf("defLine = %d, want 1", defLine)
	}
	if !reflect.DeepEqual(declared, []string{"db"}) {
		t.Errorf("declared = %v, want [db]", declared)
	}
}

func TestClassifyCompletionUsefixtures(t *testing.T) {
	content := "@pytest.mark.usefixtures(\"\")\ndef test_x():\n    pass\n"
	kind, _, _ := classifyCompletion(content, 1, 27)
	if kind != resolver.CompletionUsefixtures {
		t.Fatalf("classifyCompletion() kind = %v, want CompletionUsefixtures", kind)
	}
}

func TestClassifyCompletionParametrizeIndirect(t *testing.T) {
	content := "@pytest.mark.parametrize(\"x\", [1], indirect=[\"\"])\ndef test_x(x):\n    pass\n"
	kind, _, _ := classifyCompletion(content, 1, 48)
	if kind != resolver.CompletionParametrizeIndirect {
		t.Fatalf("classifyCompletion() kind = %v, want CompletionParametrizeIndirect", kind)
	}
}

func TestClassifyCompletionNoneOutsideAnyContext(t *testing.T) {
	content := "import pytest\n"
	kind, _, _ := classifyCompletion(content, 1, 5)
	if kind != resolver.CompletionNone {
		t.Fatalf("classifyCompletion() kind = %v, want CompletionNone", kind)
	}
}

func TestParseParamNamesStripsAnnotationsAndDefaults(t *testing.T) {
	content := "def test_x(db, tmp_path: Path, count=1, *args, **kwargs):\n    pass\n"
	names := parseParamNames(content, 1)
	want := []string{"db", "tmp_path", "count", "args", "kwargs"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("parseParamNames() = %v, want %v", names, want)
	}
}

func TestParseParamNamesMultilineSignature(t *testing.T) {
	content := "def test_x(\n    db,\n    client,\n):\n    pass\n"
	names := parseParamNames(content, 1)
	want := []string{"db", "client"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("parseParamNames() = %v, want %v", names, want)
	}
}

func TestSplitTopLevelCommasIgnoresNestedCommas(t *testing.T) {
	got := splitTopLevelCommas(`a, b=[1, 2], c`)
	want := []string{"a", " b=[1, 2]", " c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitTopLevelCommas() = %v, want %v", got, want)
	}
}
