package engine

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
	"github.com/codelens/matlab-context-mcp/pkg/types"
)

type captivePublisher struct {
	mu     sync.Mutex
	byFile map[string][][]types.Diagnostic
}

func newCaptivePublisher() *captivePublisher {
	return &captivePublisher{byFile: make(map[string][][]types.Diagnostic)}
}

func (c *captivePublisher) Publish(uri string, diags []types.Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byFile[uri] = append(c.byFile[uri], diags)
}

func (c *captivePublisher) publications(uri string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byFile[uri])
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Workspace.Root = t.TempDir()
	cfg.Diagnostics.DebounceMs = 10
	cfg.Analyzer.Path = "definitely-not-on-path"
	return cfg
}

func newTestEngine(t *testing.T) (*Engine, *captivePublisher) {
	t.Helper()
	pub := newCaptivePublisher()
	e := New(testConfig(t), pub)
	t.Cleanup(func() { _ = e.Close() })
	return e, pub
}

func TestNotifyChange_IndexesAndPublishes(t *testing.T) {
	e, pub := newTestEngine(t)

	e.NotifyChange("file:///main.m", "function run_all()\nend")

	items, err := e.Complete("file:///main.m", 1, 1)
	require.NoError(t, err)
	var found bool
	for _, item := range items {
		if item.Label == "run_all" {
			found = true
		}
	}
	assert.True(t, found, "indexed symbol reaches completion")

	// Analyzer is unavailable, so the pipeline degrades to an empty set
	require.Eventually(t, func() bool {
		return pub.publications("file:///main.m") == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestNotifyClose_DropsAllState(t *testing.T) {
	e, _ := newTestEngine(t)

	e.NotifyChange("file:///gone.m", "function vanish()\nend")
	e.NotifyClose("file:///gone.m")

	locs, err := e.Definition("file:///other.m", 1, 1)
	require.NoError(t, err)
	assert.Empty(t, locs)
	assert.Empty(t, e.DocumentSymbols("file:///gone.m"))
	assert.Zero(t, e.Status().OpenDocuments)
}

func TestParse_CacheHitAcrossFiles(t *testing.T) {
	e, _ := newTestEngine(t)
	content := "function twin()\nend"

	e.NotifyChange("file:///a.m", content)
	e.NotifyChange("file:///b.m", content)

	// Identical content parses once; both files still get their own
	// index entries under their own URIs
	stats := e.Status()
	assert.Equal(t, 2, stats.Index.Files)
	assert.Equal(t, 1, int(stats.ParseCache.Hits))

	symsA := e.DocumentSymbols("file:///a.m")
	symsB := e.DocumentSymbols("file:///b.m")
	require.Len(t, symsA, 1)
	require.Len(t, symsB, 1)
	assert.Equal(t, symsA[0].Name, symsB[0].Name)
}

func TestIndexWorkspace_ScansRoot(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(cfg.Workspace.Root, "util.m")
	require.NoError(t, os.WriteFile(path, []byte("function tidy()\nend"), 0o644))

	pub := newCaptivePublisher()
	e := New(cfg, pub)
	t.Cleanup(func() { _ = e.Close() })

	stats, err := e.IndexWorkspace(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesScanned)

	matches := e.WorkspaceSymbols("tidy", 10)
	require.NotEmpty(t, matches)
	assert.Equal(t, "tidy", matches[0].Name)
}

func TestStatus_ReportsAnalyzer(t *testing.T) {
	e, _ := newTestEngine(t)
	status := e.Status()
	assert.Equal(t, "definitely-not-on-path", status.AnalyzerPath)
	assert.False(t, status.AnalyzerReady)
	assert.NotEmpty(t, status.WorkspaceRoot)
}
