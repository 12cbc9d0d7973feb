package lsp

import "strings"

// paramInsertion is where and how to splice a new parameter name into a
// function's parameter list: the character just after the last existing
// parameter, or inside an empty (). A leading comma+space is prepended
// when a parameter already exists. It supports single- and multi-line
// signatures.
type paramInsertion struct {
	Line       int // 0-based LSP line
	Char       int // 0-based LSP character
	NeedsComma bool
}

// locateParamInsertion scans forward from a "def"/"async def" line
// (1-based, internal numbering) for the matching close paren of its
// parameter list, tracking paren depth across lines so multi-line
// signatures work the same as single-line ones.
func locateParamInsertion(content string, defLine int) (paramInsertion, bool) {
	lines := strings.Split(content, "\n")
	if defLine < 1 || defLine > len(lines) {
		return paramInsertion{}, false
	}

	depth := 0
	seenOpen := false
	nonSpaceSinceOpen := false
	// lastLine/lastChar: just after the last parameter character seen
	// (commas, whitespace and comments excluded).
	lastLine, lastChar := 0, 0

	for ln := defLine; ln <= len(lines); ln++ {
		text := lines[ln-1]
		for i := 0; i < len(text); i++ {
			switch text[i] {
			case '(':
				depth++
				seenOpen = true
			case ')':
				if seenOpen {
					depth--
					if depth == 0 {
						ins := paramInsertion{
							Line:       toLSPLine(ln),
							Char:       i,
							NeedsComma: nonSpaceSinceOpen,
						}
						if nonSpaceSinceOpen {
							ins.Line, ins.Char = toLSPLine(lastLine), lastChar
						}
						return ins, true
					}
					lastLine, lastChar = ln, i+1
				}
			case '#':
				if seenOpen && depth > 0 {
					i = len(text) // rest of the line is a comment
				}
			default:
				if seenOpen && depth > 0 && text[i] != ' ' && text[i] != '\t' && text[i] != '\n' {
					nonSpaceSinceOpen = true
					if text[i] != ',' {
						lastLine, lastChar = ln, i+1
					}
				}
			}
		}
	}
	return paramInsertion{}, false
}

func insertionText(name string, needsComma bool) string {
	if needsComma {
		return ", " + name
	}
	return name
}
