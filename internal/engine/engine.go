// Package engine assembles the analysis components behind one facade:
// document tracking, cached parsing, symbol indexing, the diagnostics
// pipeline, and the query service. The host protocol layer talks only to
// the Engine.
package engine

import (
	"context"
	"log"

	"github.com/codelens/matlab-context-mcp/internal/analyzer"
	"github.com/codelens/matlab-context-mcp/internal/cache"
	"github.com/codelens/matlab-context-mcp/internal/config"
	"github.com/codelens/matlab-context-mcp/internal/diagnostics"
	"github.com/codelens/matlab-context-mcp/internal/document"
	"github.com/codelens/matlab-context-mcp/internal/index"
	"github.com/codelens/matlab-context-mcp/internal/parser"
	"github.com/codelens/matlab-context-mcp/internal/query"
	"github.com/codelens/matlab-context-mcp/internal/workspace"
	"github.com/codelens/matlab-context-mcp/pkg/types"
)

// Engine coordinates all analysis state for one workspace
type Engine struct {
	cfg      *config.Config
	parser   *parser.Parser
	parses   *cache.Cache[*types.Outline]
	index    *index.Index
	docs     *document.Store
	pipeline *diagnostics.Pipeline
	queries  *query.Service
	scanner  *workspace.Scanner
	watcher  *workspace.Watcher
	mlint    *analyzer.Mlint
}

// New creates an Engine from configuration. publisher receives diagnostic
// sets as the pipeline finishes them.
func New(cfg *config.Config, publisher diagnostics.Publisher) *Engine {
	mlint := analyzer.NewMlint(cfg.Analyzer.Path, analyzer.WithTimeout(cfg.AnalyzerTimeout()))

	parses := cache.New[*types.Outline](cfg.Cache.Capacity, cfg.CacheTTL())
	results := cache.New[[]types.Diagnostic](cfg.Cache.Capacity, cfg.CacheTTL())

	ix := index.New()
	docs := document.NewStore()

	pipeline := diagnostics.New(mlint, publisher, results, diagnostics.Config{
		Debounce:       cfg.Debounce(),
		MaxDiagnostics: cfg.Diagnostics.MaxPerFile,
		Rules:          cfg.Diagnostics.Rules,
	})

	return &Engine{
		cfg:      cfg,
		parser:   parser.New(),
		parses:   parses,
		index:    ix,
		docs:     docs,
		pipeline: pipeline,
		queries:  query.NewService(ix, docs, cfg.Completion.MaxResults),
		scanner:  workspace.NewScanner(cfg.Workspace.Include, cfg.Workspace.Exclude, 0),
		mlint:    mlint,
	}
}

// NotifyChange ingests new content for a file: it refreshes the open
// document, reparses (through the cache), swaps the file's index entries,
// and schedules diagnostics
func (e *Engine) NotifyChange(uri, content string) {
	e.docs.Update(uri, content)
	e.index.Update(e.parse(uri, content))
	e.pipeline.Schedule(uri, content)
}

// NotifyClose drops all state for a file and retracts its diagnostics
func (e *Engine) NotifyClose(uri string) {
	e.docs.Close(uri)
	e.index.Remove(uri)
	e.pipeline.Forget(uri)
}

// parse returns the outline for content, consulting the parse cache
// first. Cached outlines are content-addressed, so a hit from a different
// file is re-stamped with the requesting URI.
func (e *Engine) parse(uri, content string) *types.Outline {
	key := cache.ContentKey(cache.KindParse, content)
	if cached, ok := e.parses.Get(key); ok {
		if cached.URI == uri {
			return cached
		}
		restamped := *cached
		restamped.URI = uri
		return &restamped
	}
	outline := e.parser.Parse(uri, content)
	e.parses.Put(key, outline)
	return outline
}

// IndexWorkspace scans the configured root and ingests every matching
// file
func (e *Engine) IndexWorkspace(ctx context.Context) (*workspace.Statistics, error) {
	return e.scanner.Scan(ctx, e.cfg.Workspace.Root, e)
}

// Watch starts forwarding filesystem changes under the workspace root
// into the engine. Safe to skip for hosts that push all changes
// themselves.
func (e *Engine) Watch() error {
	w, err := workspace.NewWatcher(e.cfg.Workspace.Root, e.scanner, e, log.Printf)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	e.watcher = w
	return nil
}

// Complete returns ranked completion candidates at a cursor position
func (e *Engine) Complete(uri string, line, column int) ([]query.CompletionItem, error) {
	return e.queries.Complete(uri, line, column)
}

// Hover returns rendered documentation for the symbol under the cursor
func (e *Engine) Hover(uri string, line, column int) (*query.HoverResult, error) {
	return e.queries.Hover(uri, line, column)
}

// Definition resolves the token under the cursor to its declarations
func (e *Engine) Definition(uri string, line, column int) ([]query.Location, error) {
	return e.queries.Definition(uri, line, column)
}

// References finds uses of the token under the cursor across open files
func (e *Engine) References(uri string, line, column int, includeDeclaration bool) ([]query.Location, error) {
	return e.queries.References(uri, line, column, includeDeclaration)
}

// DocumentSymbols returns the hierarchical outline for one file
func (e *Engine) DocumentSymbols(uri string) []query.DocumentSymbol {
	return e.queries.DocumentSymbols(uri)
}

// WorkspaceSymbols returns fuzzy-matched symbols across the workspace
func (e *Engine) WorkspaceSymbols(q string, limit int) []types.Symbol {
	return e.queries.WorkspaceSymbols(q, limit)
}

// Status reports a snapshot of engine state
type Status struct {
	Index         types.IndexStats
	OpenDocuments int
	ParseCache    cache.Stats
	AnalyzerPath  string
	AnalyzerReady bool
	WorkspaceRoot string
}

// Status returns current index, cache, and analyzer state
func (e *Engine) Status() Status {
	return Status{
		Index:         e.index.Stats(),
		OpenDocuments: e.docs.Len(),
		ParseCache:    e.parses.Stats(),
		AnalyzerPath:  e.cfg.Analyzer.Path,
		AnalyzerReady: e.mlint.Available(),
		WorkspaceRoot: e.cfg.Workspace.Root,
	}
}

// SetAnalyzer swaps the diagnostics analyzer at runtime
func (e *Engine) SetAnalyzer(a diagnostics.Analyzer) {
	e.pipeline.SetAnalyzer(a)
}

// Close stops the watcher and the diagnostics pipeline, waiting for
// in-flight runs to finish
func (e *Engine) Close() error {
	var err error
	if e.watcher != nil {
		err = e.watcher.Close()
	}
	e.pipeline.Close()
	return err
}
