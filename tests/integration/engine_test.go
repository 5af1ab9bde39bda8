package integration

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codelens/matlab-context-mcp/internal/config"
	"github.com/codelens/matlab-context-mcp/internal/engine"
	"github.com/codelens/matlab-context-mcp/pkg/types"
)

type diagnosticLog struct {
	mu      sync.Mutex
	history map[string][][]types.Diagnostic
}

func newDiagnosticLog() *diagnosticLog {
	return &diagnosticLog{history: make(map[string][][]types.Diagnostic)}
}

func (d *diagnosticLog) Publish(uri string, diags []types.Diagnostic) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history[uri] = append(d.history[uri], diags)
}

func (d *diagnosticLog) count(uri string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.history[uri])
}

func (d *diagnosticLog) latest(uri string) []types.Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()
	sets := d.history[uri]
	if len(sets) == 0 {
		return nil
	}
	return sets[len(sets)-1]
}

func newWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newEngine(t *testing.T, root string) (*engine.Engine, *diagnosticLog) {
	t.Helper()
	cfg := config.Default()
	cfg.Workspace.Root = root
	cfg.Diagnostics.DebounceMs = 10
	cfg.Analyzer.Path = "definitely-not-on-path"

	pub := newDiagnosticLog()
	e := engine.New(cfg, pub)
	t.Cleanup(func() { _ = e.Close() })
	return e, pub
}

// TestScanThenQuery exercises the full path from on-disk files to query
// results: scan, index, then resolve symbols across files.
func TestScanThenQuery(t *testing.T) {
	root := newWorkspace(t, map[string]string{
		"signal/filter_noise.m": "% Removes noise from a signal.\nfunction out = filter_noise(in, cutoff)\nout = in;\nend\n",
		"main.m":                "data = filter_noise(raw, 0.5);\n",
	})
	e, _ := newEngine(t, root)

	stats, err := e.IndexWorkspace(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats.FilesScanned)

	// Definition from the call site lands on the declaring file
	mainURI := "file://" + filepath.ToSlash(filepath.Join(root, "main.m"))
	locs, err := e.Definition(mainURI, 1, 9)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Contains(t, locs[0].URI, "filter_noise.m")

	// Hover from the call site renders the signature and doc
	hover, err := e.Hover(mainURI, 1, 9)
	require.NoError(t, err)
	require.NotNil(t, hover)
	assert.Contains(t, hover.Contents, "out = filter_noise(in, cutoff)")
	assert.Contains(t, hover.Contents, "Removes noise")

	// Workspace search finds the function with an inexact query
	matches := e.WorkspaceSymbols("filter_nois", 5)
	require.NotEmpty(t, matches)
	assert.Equal(t, "filter_noise", matches[0].Name)
}

// TestEditPublishCycle drives edits through the engine and watches the
// diagnostics pipeline settle after each burst of changes.
func TestEditPublishCycle(t *testing.T) {
	e, pub := newEngine(t, t.TempDir())
	uri := "file:///live.m"

	// A burst of edits collapses into one publication
	e.NotifyChange(uri, "x = 1")
	e.NotifyChange(uri, "x = 2")
	e.NotifyChange(uri, "x = 3")

	require.Eventually(t, func() bool {
		return pub.count(uri) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, pub.latest(uri), "unavailable analyzer degrades to an empty set")

	// Completion reflects the newest content immediately, before
	// diagnostics settle
	e.NotifyChange(uri, "function fresh_name()\nend\nfresh")
	items, err := e.Complete(uri, 3, 6)
	require.NoError(t, err)
	require.NotEmpty(t, items)
	assert.Equal(t, "fresh_name", items[0].Label)

	// Closing retracts everything
	e.NotifyClose(uri)
	assert.Empty(t, e.DocumentSymbols(uri))
}

// TestClassOutlineEndToEnd indexes a classdef file from disk and checks
// the hierarchical outline and qualified workspace symbols.
func TestClassOutlineEndToEnd(t *testing.T) {
	root := newWorkspace(t, map[string]string{
		"Rotation.m": `classdef Rotation
    properties
        angle
    end
    methods
        function r = apply(obj, v)
        end
    end
end
`,
	})
	e, _ := newEngine(t, root)

	_, err := e.IndexWorkspace(context.Background())
	require.NoError(t, err)

	uri := "file://" + filepath.ToSlash(filepath.Join(root, "Rotation.m"))
	symbols := e.DocumentSymbols(uri)
	require.Len(t, symbols, 1)
	assert.Equal(t, "Rotation", symbols[0].Name)
	require.Len(t, symbols[0].Children, 2)

	matches := e.WorkspaceSymbols("apply", 5)
	require.NotEmpty(t, matches)
	assert.Equal(t, "Rotation.apply", matches[0].QualifiedName())
}
