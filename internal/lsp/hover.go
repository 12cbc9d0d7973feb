package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.lsp.dev/protocol"
)

// handleHover builds a markdown block with the reconstructed
// `def name(params)` line, the source file, and the dedented docstring
// in a fenced block.
func (s *Server) handleHover(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.HoverParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	path := s.canon.Canonical(uriToPath(p.TextDocument.URI))
	_, def, ok := s.resolver.Resolve(path, toInternalLine(p.Position.Line), int(p.Position.Character))
	if !ok {
		return nil, nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: s.formatHover(def.File, def.Line, def.Docstring),
		},
	}, nil
}

func (s *Server) formatHover(file string, line int, docstring string) string {
	content, _ := s.idx.FileContent(file)
	sig := strings.TrimSpace(lineAt1Based(content, line))
	if sig == "" {
		sig = "def ..."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "```python\n%s\n```\n\n", sig)
	fmt.Fprintf(&b, "*%s*", relativeToRoot(s.rootPath, file))
	if docstring != "" {
		fmt.Fprintf(&b, "\n\n```\n%s\n```", docstring)
	}
	return b.String()
}

func lineAt1Based(content string, line int) string {
	lines := strings.Split(content, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

func relativeToRoot(root, file string) string {
	if root == "" {
		return file
	}
	rel := strings.TrimPrefix(file, root)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return file
	}
	return rel
}
