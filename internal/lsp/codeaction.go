package lsp

import (
	"context"
	"encoding/json"
	"fmt"

	"go.lsp.dev/protocol"
)

// handleCodeAction offers, for each undeclared-fixture diagnostic
// intersecting the requested range, a quick fix that adds the missing
// name to the enclosing function's parameter list.
func (s *Server) handleCodeAction(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.CodeActionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	doc, ok := s.getDocument(p.TextDocument.URI)
	if !ok {
		return []protocol.CodeAction{}, nil
	}

	path := s.canon.Canonical(uriToPath(p.TextDocument.URI))
	actions := make([]protocol.CodeAction, 0)

	for _, u := range s.idx.Undeclared(path) {
		diagRange := protocol.Range{
			Start: protocol.Position{Line: toLSPLine(u.Line), Character: uint32(u.StartChar)},
			End:   protocol.Position{Line: toLSPLine(u.Line), Character: uint32(u.EndChar)},
		}
		if !rangesIntersect(diagRange, p.Range) {
			continue
		}

		insertion, ok := locateParamInsertion(doc.Content, u.FuncDefLine)
		if !ok {
			continue
		}

		edit := protocol.TextEdit{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(insertion.Line), Character: uint32(insertion.Char)},
				End:   protocol.Position{Line: uint32(insertion.Line), Character: uint32(insertion.Char)},
			},
			NewText: insertionText(u.Name, insertion.NeedsComma),
		}

		actions = append(actions, protocol.CodeAction{
			Title: fmt.Sprintf("Add '%s' fixture parameter", u.Name),
			Kind:  protocol.QuickFix,
			Diagnostics: []protocol.Diagnostic{{
				Range:    diagRange,
				Severity: protocol.DiagnosticSeverityWarning,
				Source:   ServerName,
				Message:  fmt.Sprintf("'%s' used but not declared as parameter", u.Name),
			}},
			Edit: &protocol.WorkspaceEdit{
				Changes: map[protocol.DocumentURI][]protocol.TextEdit{
					p.TextDocument.URI: {edit},
				},
			},
		})
	}

	return actions, nil
}

// rangesIntersect returns true if two ranges overlap.
func rangesIntersect(a, b protocol.Range) bool {
	if a.End.Line < b.Start.Line || (a.End.Line == b.Start.Line && a.End.Character <= b.Start.Character) {
		return false
	}
	if a.Start.Line > b.End.Line || (a.Start.Line == b.End.Line && a.Start.Character >= b.End.Character) {
		return false
	}
	return true
}
