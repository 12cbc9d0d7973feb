// Package lsp implements a Language Server Protocol server for pytest
// fixture intelligence: go-to-definition, find-references, hover,
// completion, rename, code actions, code lens, diagnostics, and
// document/workspace symbols. Requests are dispatched from a JSON-RPC
// method table onto handler methods, with an in-memory documents map
// guarded by a single RWMutex.
package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.lsp.dev/protocol"

	"github.com/pyfixls/pyfixls/internal/analyzer"
	"github.com/pyfixls/pyfixls/internal/fixtureindex"
	"github.com/pyfixls/pyfixls/internal/logging"
	"github.com/pyfixls/pyfixls/internal/pathcanon"
	"github.com/pyfixls/pyfixls/internal/resolver"
	"github.com/pyfixls/pyfixls/internal/scanner"
)

// ServerName identifies this server to clients in initialize's ServerInfo.
const ServerName = "pyfixls"

// Document represents an open text document tracked by the server.
type Document struct {
	URI     protocol.DocumentURI
	Version int32
	Content string
}

// Server handles LSP requests against a shared fixture index, analyzer,
// and resolver.
type Server struct {
	conn *Conn

	mu          sync.RWMutex
	initialized bool
	shutdown    bool
	documents   map[protocol.DocumentURI]*Document
	rootURI     protocol.DocumentURI
	rootPath    string
	watcher     *scanner.Watcher

	idx      *fixtureindex.Index
	canon    *pathcanon.Canonicalizer
	analyzer *analyzer.Analyzer
	resolver *resolver.Resolver
	scanner  *scanner.Scanner
	log      *logging.Logger

	version string
	onExit  func()
}

// NewServer constructs a Server over the given components. onExit is
// invoked when the client sends "exit".
func NewServer(
	idx *fixtureindex.Index,
	canon *pathcanon.Canonicalizer,
	an *analyzer.Analyzer,
	res *resolver.Resolver,
	sc *scanner.Scanner,
	log *logging.Logger,
	version string,
	onExit func(),
) *Server {
	return &Server{
		documents: make(map[protocol.DocumentURI]*Document),
		idx:       idx,
		canon:     canon,
		analyzer:  an,
		resolver:  res,
		scanner:   sc,
		log:       log,
		version:   version,
		onExit:    onExit,
	}
}

// SetConn sets the connection used to send notifications (diagnostics).
func (s *Server) SetConn(conn *Conn) {
	s.conn = conn
}

// Handle implements Handler: routes requests to method handlers.
func (s *Server) Handle(ctx context.Context, req *Request) (any, error) {
	s.mu.RLock()
	shutdown := s.shutdown
	initialized := s.initialized
	s.mu.RUnlock()

	if shutdown && req.Method != "exit" {
		return nil, &ResponseError{Code: CodeInvalidRequest, Message: "server is shutting down"}
	}

	if !initialized {
		switch req.Method {
		case "initialize", "initialized", "shutdown", "exit":
		default:
			return nil, &ResponseError{Code: CodeInvalidRequest, Message: "server not initialized"}
		}
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(ctx, req.Params)
	case "initialized":
		return s.handleInitialized(ctx, req.Params)
	case "shutdown":
		return s.handleShutdown(ctx)
	case "exit":
		return s.handleExit(ctx)

	case "textDocument/didOpen":
		return s.handleDidOpen(ctx, req.Params)
	case "textDocument/didChange":
		return s.handleDidChange(ctx, req.Params)
	case "textDocument/didClose":
		return s.handleDidClose(ctx, req.Params)
	case "textDocument/didSave":
		return s.handleDidSave(ctx, req.Params)

	case "textDocument/definition":
		return s.handleDefinition(ctx, req.Params)
	case "textDocument/references":
		return s.handleReferences(ctx, req.Params)
	case "textDocument/hover":
		return s.handleHover(ctx, req.Params)
	case "textDocument/completion":
		return s.handleCompletion(ctx, req.Params)
	case "textDocument/rename":
		return s.handleRename(ctx, req.Params)
	case "textDocument/codeAction":
		return s.handleCodeAction(ctx, req.Params)
	case "textDocument/codeLens":
		return s.handleCodeLens(ctx, req.Params)
	case "textDocument/documentSymbol":
		return s.handleDocumentSymbol(ctx, req.Params)
	case "workspace/symbol":
		return s.handleWorkspaceSymbol(ctx, req.Params)

	default:
		if s.log != nil {
			s.log.Debugf("unhandled method: %s", req.Method)
		}
		return nil, ErrMethodNotFound
	}
}

// --- Lifecycle ---

func (s *Server) handleInitialize(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.InitializeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("parsing initialize params: %w", err)
	}

	s.mu.Lock()
	if len(p.WorkspaceFolders) > 0 {
		s.rootURI = protocol.DocumentURI(p.WorkspaceFolders[0].URI)
	} else if p.RootURI != "" {
		s.rootURI = p.RootURI
	}
	s.rootPath = uriToPath(s.rootURI)
	s.mu.Unlock()

	if s.log != nil {
		s.log.Infof("initialize: root=%s", s.rootURI)
	}

	if s.rootPath != "" && s.scanner != nil {
		go s.scanWorkspace(ctx)
	}

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
				Save:      &protocol.SaveOptions{IncludeText: true},
			},
			DefinitionProvider:      true,
			ReferencesProvider:      true,
			HoverProvider:           true,
			RenameProvider:          true,
			DocumentSymbolProvider:  true,
			WorkspaceSymbolProvider: true,
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{`"`, ",", "("},
			},
			CodeActionProvider: &protocol.CodeActionOptions{
				CodeActionKinds: []protocol.CodeActionKind{protocol.QuickFix},
			},
			CodeLensProvider: &protocol.CodeLensOptions{},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    ServerName,
			Version: s.version,
		},
	}, nil
}

// scanWorkspace runs the initial full scan and starts the live-rescan
// watcher. It runs in its own goroutine so initialize can reply promptly.
func (s *Server) scanWorkspace(ctx context.Context) {
	if err := s.scanner.ScanWorkspace(ctx, s.rootPath); err != nil && s.log != nil {
		s.log.Warnf("initial workspace scan: %v", err)
	}
	if err := s.scanner.ScanVenv(ctx, s.rootPath); err != nil && s.log != nil {
		s.log.Warnf("initial venv scan: %v", err)
	}

	w, err := scanner.NewWatcher(s.scanner)
	if err != nil {
		if s.log != nil {
			s.log.Warnf("starting watcher: %v", err)
		}
		return
	}
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
	if err := w.WatchTree(s.rootPath); err != nil && s.log != nil {
		s.log.Warnf("watch tree: %v", err)
	}
}

func (s *Server) handleInitialized(ctx context.Context, params json.RawMessage) (any, error) {
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
	if s.log != nil {
		s.log.Infof("initialized")
	}
	return nil, nil
}

func (s *Server) handleShutdown(ctx context.Context) (any, error) {
	s.mu.Lock()
	s.shutdown = true
	w := s.watcher
	s.mu.Unlock()
	if w != nil {
		_ = w.Close()
	}
	if s.log != nil {
		s.log.Infof("shutdown")
	}
	return nil, nil
}

func (s *Server) handleExit(ctx context.Context) (any, error) {
	if s.log != nil {
		s.log.Infof("exit")
	}
	if s.onExit != nil {
		s.onExit()
	}
	return nil, nil
}

// --- Text document sync ---

func (s *Server) handleDidOpen(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.documents[p.TextDocument.URI] = &Document{
		URI:     p.TextDocument.URI,
		Version: p.TextDocument.Version,
		Content: p.TextDocument.Text,
	}
	s.mu.Unlock()

	s.analyzeAndPublish(ctx, p.TextDocument.URI, p.TextDocument.Text)
	return nil, nil
}

func (s *Server) handleDidChange(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	s.mu.Lock()
	doc, ok := s.documents[p.TextDocument.URI]
	if ok {
		doc.Version = p.TextDocument.Version
		if len(p.ContentChanges) > 0 {
			doc.Content = p.ContentChanges[len(p.ContentChanges)-1].Text
		}
	}
	s.mu.Unlock()

	if ok {
		s.analyzeAndPublish(ctx, p.TextDocument.URI, doc.Content)
	}
	return nil, nil
}

func (s *Server) handleDidClose(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.documents, p.TextDocument.URI)
	s.mu.Unlock()

	if s.conn != nil {
		if err := s.conn.Notify(ctx, "textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
			URI:         p.TextDocument.URI,
			Diagnostics: []protocol.Diagnostic{},
		}); err != nil && s.log != nil {
			s.log.Warnf("failed to clear diagnostics: %v", err)
		}
	}
	return nil, nil
}

func (s *Server) handleDidSave(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	content := p.Text
	if content == "" {
		s.mu.RLock()
		if doc, ok := s.documents[p.TextDocument.URI]; ok {
			content = doc.Content
		}
		s.mu.RUnlock()
	}
	if content != "" {
		s.analyzeAndPublish(ctx, p.TextDocument.URI, content)
	}
	return nil, nil
}

func (s *Server) getDocument(uri protocol.DocumentURI) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[uri]
	return doc, ok
}
