package lsp

import (
	"context"
	"encoding/json"
	"fmt"

	"go.lsp.dev/protocol"
)

// handleCodeLens places one lens above each fixture definition in the
// file, reporting how many places use it (References minus the
// definition's own entry).
func (s *Server) handleCodeLens(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.CodeLensParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	path := s.canon.Canonical(uriToPath(p.TextDocument.URI))
	lenses := make([]protocol.CodeLens, 0)

	for _, name := range s.idx.DefinitionNames() {
		for _, def := range s.idx.Definitions(name) {
			if def.File != path {
				continue
			}
			count := len(s.resolver.References(def)) - 1
			label := fmt.Sprintf("%d usage", count)
			if count != 1 {
				label += "s"
			}
			lenses = append(lenses, protocol.CodeLens{
				Range: protocol.Range{
					Start: protocol.Position{Line: toLSPLine(def.Line), Character: uint32(def.StartChar)},
					End:   protocol.Position{Line: toLSPLine(def.Line), Character: uint32(def.EndChar)},
				},
				Command: &protocol.Command{Title: label},
			})
		}
	}

	return lenses, nil
}
