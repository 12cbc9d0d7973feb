// Package pystrings provides small string utilities used by the analyzer
// and providers: docstring cleanup and identifier extraction around a
// character offset. Neither operation is covered by a library anywhere in
// the retrieval pack, so both are plain stdlib functions (see DESIGN.md).
package pystrings

import "strings"

// CleanDocstring strips the surrounding quotes from a raw Python string
// literal's source text, dedents using the minimum common leading
// whitespace of the non-empty lines after the first, and trims trailing
// whitespace, preserving interior structure (Markdown/RST/code fences).
func CleanDocstring(raw string) string {
	s := stripQuotes(raw)
	lines := strings.Split(s, "\n")
	if len(lines) == 0 {
		return ""
	}

	lines[0] = strings.TrimSpace(lines[0])

	if len(lines) > 1 {
		indent := -1
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) == "" {
				continue
			}
			n := leadingWhitespace(line)
			if indent == -1 || n < indent {
				indent = n
			}
		}
		if indent > 0 {
			for i := 1; i < len(lines); i++ {
				if len(lines[i]) >= indent {
					lines[i] = lines[i][indent:]
				} else {
					lines[i] = strings.TrimLeft(lines[i], " \t")
				}
			}
		}
	}

	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}

	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

func leadingWhitespace(s string) int {
	n := 0
	for n < len(s) && (s[n] == ' ' || s[n] == '\t') {
		n++
	}
	return n
}

func stripQuotes(raw string) string {
	s := raw
	for _, q := range []string{`"""`, "'''"} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	for _, q := range []string{`"`, "'"} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}

// IdentifierAt returns the maximal [A-Za-z_][A-Za-z0-9_]* run covering
// charOffset in lineText, or ok=false if charOffset is not inside such a
// run.
func IdentifierAt(lineText string, charOffset int) (name string, start, end int, ok bool) {
	if charOffset < 0 || charOffset >= len(lineText) {
		return "", 0, 0, false
	}
	if !isIdentChar(lineText[charOffset]) {
		return "", 0, 0, false
	}

	start = charOffset
	for start > 0 && isIdentChar(lineText[start-1]) {
		start--
	}
	end = charOffset
	for end < len(lineText) && isIdentChar(lineText[end]) {
		end++
	}

	if isDigit(lineText[start]) {
		// A run starting with a digit is not a valid identifier.
		return "", 0, 0, false
	}

	return lineText[start:end], start, end, true
}

func isIdentChar(b byte) bool {
	return b == '_' || isDigit(b) || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
