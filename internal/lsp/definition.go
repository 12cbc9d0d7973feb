package lsp

import (
	"context"
	"encoding/json"

	"go.lsp.dev/protocol"
)

// handleDefinition resolves the identifier at the cursor and returns a
// single location spanning its fixture definition's name.
func (s *Server) handleDefinition(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.DefinitionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	path := s.canon.Canonical(uriToPath(p.TextDocument.URI))
	_, def, ok := s.resolver.Resolve(path, toInternalLine(p.Position.Line), int(p.Position.Character))
	if !ok {
		return nil, nil
	}

	return []protocol.Location{{
		URI: pathToURI(def.File),
		Range: protocol.Range{
			Start: protocol.Position{Line: toLSPLine(def.Line), Character: uint32(def.StartChar)},
			End:   protocol.Position{Line: toLSPLine(def.Line), Character: uint32(def.EndChar)},
		},
	}}, nil
}
