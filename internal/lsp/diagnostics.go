package lsp

import (
	"context"
	"fmt"

	"go.lsp.dev/protocol"
)

// analyzeAndPublish re-analyzes content for uri and publishes one warning
// diagnostic per undeclared-fixture entry.
func (s *Server) analyzeAndPublish(ctx context.Context, uri protocol.DocumentURI, content string) {
	path := uriToPath(uri)
	if err := s.analyzer.Analyze(ctx, path, []byte(content), false); err != nil && s.log != nil {
		s.log.Debugf("analyze %s: %v", path, err)
	}
	s.publishDiagnostics(ctx, uri, path)
}

func (s *Server) publishDiagnostics(ctx context.Context, uri protocol.DocumentURI, path string) {
	if s.conn == nil {
		return
	}

	canonical := s.canon.Canonical(path)
	var diagnostics []protocol.Diagnostic
	for _, u := range s.idx.Undeclared(canonical) {
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: toLSPLine(u.Line), Character: uint32(u.StartChar)},
				End:   protocol.Position{Line: toLSPLine(u.Line), Character: uint32(u.EndChar)},
			},
			Severity: protocol.DiagnosticSeverityWarning,
			Source:   ServerName,
			Message:  fmt.Sprintf("'%s' used but not declared as parameter", u.Name),
		})
	}
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}

	if err := s.conn.Notify(ctx, "textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	}); err != nil && s.log != nil {
		s.log.Warnf("failed to publish diagnostics: %v", err)
	}
}
