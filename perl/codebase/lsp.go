package codebase

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/dhamidi/perlls/config"
	"github.com/dhamidi/perlls/perl/parser"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"
)

const lsName = "perlls"

type LSPServer struct {
	store   *Store
	config  *config.Config
	watcher *FileWatcher
	handler protocol.Handler
	server  *server.Server
	version string
}

func NewLSPServer(version string, cfg *config.Config) *LSPServer {
	ls := &LSPServer{
		version: version,
		config:  cfg,
	}

	ls.handler = protocol.Handler{
		Initialize:            ls.initialize,
		Initialized:           ls.initialized,
		Shutdown:              ls.shutdown,
		SetTrace:              ls.setTrace,
		TextDocumentDidOpen:   ls.textDocumentDidOpen,
		TextDocumentDidChange: ls.textDocumentDidChange,
		TextDocumentDidClose:  ls.textDocumentDidClose,
		TextDocumentDidSave:   ls.textDocumentDidSave,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *LSPServer) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *LSPServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir := "."
	if params.RootURI != nil && *params.RootURI != "" {
		if path, err := uriToPath(*params.RootURI); err == nil {
			rootDir = path
		}
	} else if params.RootPath != nil && *params.RootPath != "" {
		rootDir = *params.RootPath
	}

	ls.store = NewStore(rootDir, ls.config)

	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindIncremental),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *LSPServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	if err := ls.store.ScanAll(context.Background()); err != nil {
		log.Errorf("workspace scan: %s", err)
	}
	for _, result := range ls.store.ScanResults() {
		if result.Err != nil {
			ls.publishScan(ctx, result)
		}
	}

	ls.watcher = NewFileWatcher(ls.store)
	ls.watcher.OnScan(func(result ScanResult) {
		ls.publishScan(ctx, result)
	})
	ls.watcher.OnRemove(func(path string) {
		publish(ctx, pathToURI(path), nil)
	})
	ls.watcher.Start()
	return nil
}

func (ls *LSPServer) shutdown(ctx *glsp.Context) error {
	if ls.watcher != nil {
		ls.watcher.Stop()
		ls.watcher = nil
	}
	if ls.store != nil {
		log.Infof("shutting down: %v", ls.store.Stats())
	}
	return nil
}

func (ls *LSPServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *LSPServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := params.TextDocument
	ls.store.Open(doc.URI, doc.LanguageID, int(doc.Version), doc.Text)
	ls.publishDocument(ctx, doc.URI)
	return nil
}

func (ls *LSPServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI
	err := ls.store.Change(uri, int(params.TextDocument.Version), convertChanges(params.ContentChanges))
	if errors.Is(err, ErrNotOpen) || errors.Is(err, ErrStale) {
		log.Warningf("ignoring change: %s", err)
		return nil
	}
	ls.publishDocument(ctx, uri)
	return nil
}

func (ls *LSPServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	if err := ls.store.Close(uri); err != nil {
		log.Warningf("close: %s", err)
	}
	publish(ctx, uri, nil)
	return nil
}

func (ls *LSPServer) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text == nil {
		return nil
	}
	uri := params.TextDocument.URI
	if err := ls.store.Replace(uri, *params.Text); errors.Is(err, ErrNotOpen) {
		return nil
	}
	ls.publishDocument(ctx, uri)
	return nil
}

func (ls *LSPServer) publishDocument(ctx *glsp.Context, uri string) {
	snap, err := ls.store.Document(uri)
	if err != nil {
		return
	}
	publish(ctx, uri, diagnostics(snap.Text, snap.ParseErr))
}

func (ls *LSPServer) publishScan(ctx *glsp.Context, result ScanResult) {
	var text string
	var perr *parser.ParseError
	if errors.As(result.Err, &perr) {
		if data, err := os.ReadFile(result.Path); err == nil {
			text = string(data)
		}
	}
	publish(ctx, pathToURI(result.Path), diagnostics(text, result.Err))
}

func publish(ctx *glsp.Context, uri string, diags []protocol.Diagnostic) {
	if diags == nil {
		diags = []protocol.Diagnostic{}
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

// diagnostics describes err as diagnostics against text. A nil err yields
// none, which clears the client's diagnostics.
func diagnostics(text string, err error) []protocol.Diagnostic {
	if err == nil {
		return nil
	}
	start, end := 0, 0
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		start = min(max(perr.Offset, 0), len(text))
		end = start
		if perr.Found != "" && strings.HasPrefix(text[start:], perr.Found) {
			end += len(perr.Found)
		}
	}
	pc := NewPositionConverter(text)
	severity := protocol.DiagnosticSeverityError
	source := lsName
	return []protocol.Diagnostic{{
		Range:    toProtocolRange(pc.Position(start), pc.Position(end)),
		Severity: &severity,
		Source:   &source,
		Message:  err.Error(),
	}}
}

func convertChanges(changes []any) []Change {
	var result []Change
	for _, c := range changes {
		switch change := c.(type) {
		case protocol.TextDocumentContentChangeEvent:
			converted := Change{Text: change.Text}
			if change.Range != nil {
				converted.Range = &Range{
					Start: fromProtocolPosition(change.Range.Start),
					End:   fromProtocolPosition(change.Range.End),
				}
			}
			result = append(result, converted)
		case protocol.TextDocumentContentChangeEventWhole:
			result = append(result, Change{Text: change.Text})
		}
	}
	return result
}

func fromProtocolPosition(p protocol.Position) Position {
	return Position{Line: int(p.Line), Character: int(p.Character)}
}

func toProtocolRange(start, end Position) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(start.Line), Character: protocol.UInteger(start.Character)},
		End:   protocol.Position{Line: protocol.UInteger(end.Line), Character: protocol.UInteger(end.Character)},
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(kind protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &kind
}
