package lsp

import (
	"context"
	"encoding/json"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/pyfixls/pyfixls/internal/resolver"
)

// handleCompletion classifies where the cursor landed, asks the resolver
// for the fixtures eligible there, and for parameter-list/body contexts
// attaches an edit that also splices the chosen name into the enclosing
// signature.
func (s *Server) handleCompletion(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.CompletionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	path := s.canon.Canonical(uriToPath(p.TextDocument.URI))
	content, ok := s.idx.FileContent(path)
	if !ok {
		return nil, nil
	}

	line := toInternalLine(p.Position.Line)
	char := int(p.Position.Character)

	kind, defLine, declared := classifyCompletion(content, line, char)
	if kind == resolver.CompletionNone {
		return &protocol.CompletionList{IsIncomplete: false, Items: []protocol.CompletionItem{}}, nil
	}

	cc := s.resolver.Classify(path, line, char, kind, declared)

	var insertion paramInsertion
	needsEdit := (kind == resolver.CompletionParameterList || kind == resolver.CompletionBody) && defLine > 0
	if needsEdit {
		var found bool
		insertion, found = locateParamInsertion(content, defLine)
		needsEdit = found
	}

	items := make([]protocol.CompletionItem, 0, len(cc.Fixtures))
	for _, d := range cc.Fixtures {
		item := protocol.CompletionItem{
			Label:         d.Name,
			Kind:          protocol.CompletionItemKindVariable,
			Detail:        relativeToRoot(s.rootPath, d.File),
			Documentation: protocol.MarkupContent{Kind: protocol.Markdown, Value: s.formatHover(d.File, d.Line, d.Docstring)},
		}
		if needsEdit {
			item.AdditionalTextEdits = []protocol.TextEdit{{
				Range: protocol.Range{
					Start: protocol.Position{Line: uint32(insertion.Line), Character: uint32(insertion.Char)},
					End:   protocol.Position{Line: uint32(insertion.Line), Character: uint32(insertion.Char)},
				},
				NewText: insertionText(d.Name, insertion.NeedsComma),
			}}
		}
		items = append(items, item)
	}

	return &protocol.CompletionList{IsIncomplete: false, Items: items}, nil
}

// classifyCompletion determines the CompletionKind for (line, char) in
// content using indentation and paren-depth scanning rather than a full
// re-parse; it is a pragmatic approximation of the grammar-level contexts
// the analyzer itself tracks with tree-sitter, good enough for completion
// triggers (which always land on `(`, `,`, or `"`).
func classifyCompletion(content string, line, char int) (kind resolver.CompletionKind, defLine int, declared []string) {
	lines := strings.Split(content, "\n")
	if line < 1 || line > len(lines) {
		return resolver.CompletionNone, 0, nil
	}
	cur := lines[line-1]
	before := cur
	if char <= len(cur) {
		before = cur[:char]
	}

	if k, ok := classifyDecorator(lines, line, char); ok {
		return k, 0, nil
	}

	if def, ok := enclosingDefForParams(lines, line, before); ok {
		return resolver.CompletionParameterList, def, parseParamNames(content, def)
	}

	if def, ok := enclosingDefForBody(lines, line); ok {
		return resolver.CompletionBody, def, parseParamNames(content, def)
	}

	return resolver.CompletionNone, 0, nil
}

// classifyDecorator reports whether (line, char) sits inside the open
// parens of a usefixtures(...) or parametrize(..., indirect=[...]) call
// that starts on line or one of the few lines above it.
func classifyDecorator(lines []string, line, char int) (resolver.CompletionKind, bool) {
	for start := line; start >= 1 && line-start < 6; start-- {
		trimmed := strings.TrimSpace(lines[start-1])
		var kind resolver.CompletionKind
		switch {
		case strings.HasPrefix(trimmed, "@pytest.mark.usefixtures("):
			kind = resolver.CompletionUsefixtures
		case strings.HasPrefix(trimmed, "@pytest.mark.parametrize("):
			kind = resolver.CompletionParametrizeIndirect
		default:
			if start != line {
				continue
			}
			return resolver.CompletionNone, false
		}

		depth := 0
		sawIndirect := false
		for ln := start; ln <= line; ln++ {
			text := lines[ln-1]
			limit := len(text)
			if ln == line {
				limit = char
			}
			for i := 0; i < limit && i < len(text); i++ {
				switch text[i] {
				case '(':
					depth++
				case ')':
					depth--
				case '[':
					if kind == resolver.CompletionParametrizeIndirect {
						sawIndirect = sawIndirect || strings.Contains(text[:i], "indirect=")
					}
				}
			}
			if ln == line && depth <= 0 {
				return resolver.CompletionNone, false
			}
		}
		if kind == resolver.CompletionParametrizeIndirect && !sawIndirect {
			return resolver.CompletionNone, false
		}
		return kind, true
	}
	return resolver.CompletionNone, false
}

// enclosingDefForParams reports whether char on line sits inside an open,
// unclosed "(" belonging to a def/async def signature that starts on or
// before line.
func enclosingDefForParams(lines []string, line int, before string) (int, bool) {
	for start := line; start >= 1 && line-start < 20; start-- {
		trimmed := strings.TrimSpace(lines[start-1])
		if !strings.HasPrefix(trimmed, "def ") && !strings.HasPrefix(trimmed, "async def ") {
			continue
		}
		depth := 0
		for ln := start; ln <= line; ln++ {
			text := lines[ln-1]
			limit := len(text)
			if ln == line {
				limit = len(before)
			}
			for i := 0; i < limit && i < len(text); i++ {
				switch text[i] {
				case '(':
					depth++
				case ')':
					depth--
				}
			}
		}
		return start, depth > 0
	}
	return 0, false
}

// enclosingDefForBody finds the nearest preceding def/async def line whose
// indentation is less than line's, treating line as residing in that
// function's body.
func enclosingDefForBody(lines []string, line int) (int, bool) {
	if line < 1 || line > len(lines) {
		return 0, false
	}
	indent := leadingWhitespace(lines[line-1])
	for ln := line - 1; ln >= 1; ln-- {
		text := lines[ln-1]
		if strings.TrimSpace(text) == "" {
			continue
		}
		li := leadingWhitespace(text)
		trimmed := strings.TrimSpace(text)
		if (strings.HasPrefix(trimmed, "def ") || strings.HasPrefix(trimmed, "async def ")) && li < indent {
			return ln, true
		}
		if li < indent {
			// Dedented past a non-def ancestor (e.g. class body or
			// nothing); the innermost enclosing def, if any, is further
			// up at an even smaller indent.
			indent = li
		}
	}
	return 0, false
}

func leadingWhitespace(s string) int {
	n := 0
	for n < len(s) && (s[n] == ' ' || s[n] == '\t') {
		n++
	}
	return n
}

// parseParamNames extracts the already-declared parameter names of the
// signature starting at defLine, stripping type annotations, defaults,
// and */** markers.
func parseParamNames(content string, defLine int) []string {
	lines := strings.Split(content, "\n")
	if defLine < 1 || defLine > len(lines) {
		return nil
	}

	var b strings.Builder
	depth := 0
	seenOpen := false
	for ln := defLine; ln <= len(lines); ln++ {
		text := lines[ln-1]
		done := false
		for i := 0; i < len(text); i++ {
			switch text[i] {
			case '(':
				depth++
				if depth == 1 {
					seenOpen = true
					continue
				}
			case ')':
				depth--
				if depth == 0 {
					done = true
				}
			}
			if seenOpen && depth >= 1 && !done {
				b.WriteByte(text[i])
			}
		}
		if done {
			break
		}
		b.WriteByte(' ')
	}

	raw := b.String()
	if strings.HasPrefix(raw, "(") {
		raw = raw[1:]
	}

	var names []string
	for _, part := range splitTopLevelCommas(raw) {
		part = strings.TrimSpace(part)
		part = strings.TrimLeft(part, "*")
		if part == "" {
			continue
		}
		if i := strings.IndexAny(part, ":="); i >= 0 {
			part = part[:i]
		}
		part = strings.TrimSpace(part)
		if part != "" {
			names = append(names, part)
		}
	}
	return names
}

func splitTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}
