package lsp

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"go.lsp.dev/protocol"
)

// handleDocumentSymbol lists every fixture defined in the requested file
// as a DocumentSymbol, letting editors show a fixture outline and
// "breadcrumb" navigation the same way they do for functions and
// classes.
func (s *Server) handleDocumentSymbol(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.DocumentSymbolParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	path := s.canon.Canonical(uriToPath(p.TextDocument.URI))
	symbols := make([]protocol.DocumentSymbol, 0)

	for _, name := range s.idx.DefinitionNames() {
		for _, def := range s.idx.Definitions(name) {
			if def.File != path {
				continue
			}
			rng := protocol.Range{
				Start: protocol.Position{Line: toLSPLine(def.Line), Character: uint32(def.StartChar)},
				End:   protocol.Position{Line: toLSPLine(def.Line), Character: uint32(def.EndChar)},
			}
			detail := "fixture"
			if def.IsAsync {
				detail = "async fixture"
			}
			symbols = append(symbols, protocol.DocumentSymbol{
				Name:           def.Name,
				Detail:         detail,
				Kind:           protocol.SymbolKindFunction,
				Range:          rng,
				SelectionRange: rng,
			})
		}
	}

	sort.Slice(symbols, func(i, j int) bool { return symbols[i].Range.Start.Line < symbols[j].Range.Start.Line })
	return symbols, nil
}

// handleWorkspaceSymbol implements the supplemented "workspace symbols"
// feature: a case-insensitive substring search over every indexed fixture
// name, across the whole workspace.
func (s *Server) handleWorkspaceSymbol(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.WorkspaceSymbolParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	query := strings.ToLower(p.Query)
	symbols := make([]protocol.SymbolInformation, 0)

	for _, name := range s.idx.DefinitionNames() {
		if query != "" && !strings.Contains(strings.ToLower(name), query) {
			continue
		}
		for _, def := range s.idx.Definitions(name) {
			symbols = append(symbols, protocol.SymbolInformation{
				BaseSymbolInformation: protocol.BaseSymbolInformation{
					Name: def.Name,
					Kind: protocol.SymbolKindFunction,
				},
				Location: protocol.Location{
					URI: pathToURI(def.File),
					Range: protocol.Range{
						Start: protocol.Position{Line: toLSPLine(def.Line), Character: uint32(def.StartChar)},
						End:   protocol.Position{Line: toLSPLine(def.Line), Character: uint32(def.EndChar)},
					},
				},
			})
		}
	}

	sort.Slice(symbols, func(i, j int) bool { return symbols[i].Name < symbols[j].Name })
	return symbols, nil
}
