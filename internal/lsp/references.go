package lsp

import (
	"context"
	"encoding/json"

	"go.lsp.dev/protocol"

	"github.com/pyfixls/pyfixls/internal/fixture"
)

// handleReferences resolves the cursor position to a definition, then
// returns every reference the resolver's scope computation finds,
// always including the cursor itself even if it landed on a usage
// rather than the definition.
func (s *Server) handleReferences(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.ReferenceParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	path := s.canon.Canonical(uriToPath(p.TextDocument.URI))
	line := toInternalLine(p.Position.Line)
	char := int(p.Position.Character)

	_, def, ok := s.resolver.Resolve(path, line, char)
	if !ok {
		return nil, nil
	}

	refs := s.resolver.References(def)

	cursor := fixture.Usage{Line: line, StartChar: char, EndChar: char + 1, File: path}
	hasCursor := false
	for _, r := range refs {
		if r.File == cursor.File && r.Line == cursor.Line && char >= r.StartChar && char < r.EndChar {
			hasCursor = true
			break
		}
	}
	if !hasCursor {
		refs = append(refs, fixture.Usage{Name: def.Name, File: path, Line: line, StartChar: char, EndChar: char + 1})
	}

	locations := make([]protocol.Location, 0, len(refs))
	for _, r := range refs {
		locations = append(locations, protocol.Location{
			URI: pathToURI(r.File),
			Range: protocol.Range{
				Start: protocol.Position{Line: toLSPLine(r.Line), Character: uint32(r.StartChar)},
				End:   protocol.Position{Line: toLSPLine(r.Line), Character: uint32(r.EndChar)},
			},
		})
	}
	return locations, nil
}
