package pystrings

import "testing"

func TestCleanDocstringSingleLine(t *testing.T) {
	got := CleanDocstring(`"""A one-line fixture docstring."""`)
	want := "A one-line fixture docstring."
	if got != want {
		t.Errorf("CleanDocstring() = %q, want %q", got, want)
	}
}

func TestCleanDocstringDedents(t *testing.T) {
	raw := "\"\"\"Summary.\n\n    Extra detail, indented.\n    Second line.\n    \"\"\""
	got := CleanDocstring(raw)
	want := "Summary.\n\nExtra detail, indented.\nSecond line."
	if got != want {
		t.Errorf("CleanDocstring() = %q, want %q", got, want)
	}
}

func TestCleanDocstringSingleQuotes(t *testing.T) {
	if got, want := CleanDocstring(`'short'`), "short"; got != want {
		t.Errorf("CleanDocstring() = %q, want %q", got, want)
	}
}

func TestIdentifierAt(t *testing.T) {
	cases := []struct {
		line      string
		offset    int
		wantName  string
		wantStart int
		wantEnd   int
		wantOK    bool
	}{
		{"    db_session = 1", 6, "db_session", 4, 14, true},
		{"def test_foo(db_session):", 14, "db_session", 13, 23, true},
		{"x = 1", 1, "", 0, 0, false}, // " " is not an identifier char
		{"x = 1", 5, "", 0, 0, false}, // out of range
		{"123abc", 0, "", 0, 0, false}, // starts with digit
	}
	for _, c := range cases {
		name, start, end, ok := IdentifierAt(c.line, c.offset)
		if ok != c.wantOK || name != c.wantName || start != c.wantStart || end != c.wantEnd {
			t.Errorf("IdentifierAt(%q, %d) = (%q, %d, %d, %v), want (%q, %d, %d, %v)",
				c.line, c.offset, name, start, end, ok, c.wantName, c.wantStart, c.wantEnd, c.wantOK)
		}
	}
}
