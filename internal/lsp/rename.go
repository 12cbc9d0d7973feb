package lsp

import (
	"context"
	"encoding/json"

	"go.lsp.dev/protocol"
)

// handlePrepareRename checks that the cursor resolves to a definition the
// resolver is willing to rename before the editor prompts for a new name.
func (s *Server) handlePrepareRename(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.PrepareRenameParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	path := s.canon.Canonical(uriToPath(p.TextDocument.URI))
	_, def, ok := s.resolver.Resolve(path, toInternalLine(p.Position.Line), int(p.Position.Character))
	if !ok || s.resolver.ValidateRename(def, def.Name) != nil {
		return nil, nil
	}

	return &protocol.Range{
		Start: protocol.Position{Line: toLSPLine(def.Line), Character: uint32(def.StartChar)},
		End:   protocol.Position{Line: toLSPLine(def.Line), Character: uint32(def.EndChar)},
	}, nil
}

// handleRename rejects renames of built-in or third-party fixtures and
// invalid identifiers, otherwise returns a WorkspaceEdit touching every
// reference across every file.
func (s *Server) handleRename(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.RenameParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	path := s.canon.Canonical(uriToPath(p.TextDocument.URI))
	_, def, ok := s.resolver.Resolve(path, toInternalLine(p.Position.Line), int(p.Position.Character))
	if !ok {
		return nil, nil
	}
	if err := s.resolver.ValidateRename(def, p.NewName); err != nil {
		return nil, &ResponseError{Code: CodeInvalidRequest, Message: err.Error()}
	}

	refs := s.resolver.References(def)
	changes := map[protocol.DocumentURI][]protocol.TextEdit{}
	for _, r := range refs {
		uri := pathToURI(r.File)
		changes[uri] = append(changes[uri], protocol.TextEdit{
			Range: protocol.Range{
				Start: protocol.Position{Line: toLSPLine(r.Line), Character: uint32(r.StartChar)},
				End:   protocol.Position{Line: toLSPLine(r.Line), Character: uint32(r.EndChar)},
			},
			NewText: p.NewName,
		})
	}

	return &protocol.WorkspaceEdit{Changes: changes}, nil
}
