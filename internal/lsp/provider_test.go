package lsp

import (
	"testing"

	"go.lsp.dev/protocol"
)

func TestURIPathRoundTrip(t *testing.T) {
	path := "/a/b/test_foo.py"
	uri := pathToURI(path)
	if uri != protocol.DocumentURI("file:///a/b/test_foo.py") {
		t.Errorf("pathToURI() = %q, want file:///a/b/test_foo.py", uri)
	}
	if got := uriToPath(uri); got != path {
		t.Errorf("uriToPath(pathToURI(%q)) = %q, want %q", path, got, path)
	}
}

func TestUriToPathWithoutScheme(t *testing.T) {
	if got := uriToPath("/already/a/path.py"); got != "/already/a/path.py" {
		t.Errorf("uriToPath() = %q, want unchanged input", got)
	}
}

func TestLineConversionRoundTrip(t *testing.T) {
	for internal := 1; internal <= 5; internal++ {
		lsp := toLSPLine(internal)
		if got := toInternalLine(lsp); got != internal {
			t.Errorf("toInternalLine(toLSPLine(%d)) = %d, want %d", internal, got, internal)
		}
	}
}

func TestToLSPLineClampsNonPositive(t *testing.T) {
	if got := toLSPLine(0); got != 0 {
		t.Errorf("toLSPLine(0) = %d, want 0", got)
	}
	if got := toLSPLine(-3); got != 0 {
		t.Errorf("toLSPLine(-3) = %d, want 0", got)
	}
}

func TestWordAtFindsIdentifier(t *testing.T) {
	content := "def test_x(db):\n    assert db\n"
	name, start, end, ok := wordAt(content, 1, 11)
	if !ok {
		t.Fatal("wordAt() ok = false, want true")
	}
	if name != "db" {
		t.Errorf("wordAt() name = %q, want %q", name, "db")
	}
	if start != 11 || end != 13 {
		t.Errorf("wordAt() span = [%d,%d), want [11,13)", start, end)
	}
}

func TestWordAtOutOfRangeLine(t *testing.T) {
	content := "def test_x():\n    pass\n"
	if _, _, _, ok := wordAt(content, 99, 0); ok {
		t.Error("wordAt() ok = true, want false for an out-of-range line")
	}
}

func TestLineTextReturnsRequestedLine(t *testing.T) {
	content := "line0\nline1\nline2\n"
	if got := lineText(content, 1); got != "line1" {
		t.Errorf("lineText() = %q, want %q", got, "line1")
	}
}

func TestLineTextOutOfRange(t *testing.T) {
	content := "only one line\n"
	if got := lineText(content, 5); got != "" {
		t.Errorf("lineText() = %q, want empty for out-of-range line", got)
	}
}
