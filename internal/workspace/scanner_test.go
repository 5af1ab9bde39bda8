package workspace

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	changes map[string]string
	closes  []string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{changes: make(map[string]string)}
}

func (r *recordingSink) NotifyChange(uri, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes[uri] = content
}

func (r *recordingSink) NotifyClose(uri string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closes = append(r.closes, uri)
}

func (r *recordingSink) uris() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.changes))
	for uri := range r.changes {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScan_MatchesIncludeAndExclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.m", "x = 1;")
	writeFile(t, root, "lib/helper.m", "function helper()\nend")
	writeFile(t, root, "vendor/dep.m", "y = 2;")
	writeFile(t, root, "notes.txt", "not matlab")

	scanner := NewScanner(nil, []string{"vendor/**"}, 2)
	sink := newRecordingSink()

	stats, err := scanner.Scan(context.Background(), root, sink)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesScanned)
	assert.Equal(t, 2, stats.FilesSkipped, "vendor file and txt file")
	assert.Zero(t, stats.FilesFailed)

	uris := sink.uris()
	require.Len(t, uris, 2)
	assert.Contains(t, uris[1], "main.m")
	assert.Contains(t, uris[0], "helper.m")
	assert.Equal(t, "x = 1;", sink.changes[FileURI(filepath.Join(root, "main.m"))])
}

func TestScan_SkipsHiddenDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.m", "a")
	writeFile(t, root, ".git/objects/b.m", "b")

	scanner := NewScanner(nil, nil, 1)
	sink := newRecordingSink()

	stats, err := scanner.Scan(context.Background(), root, sink)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesScanned)
}

func TestScan_CanceledContext(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 20; i++ {
		writeFile(t, root, filepath.Join("src", string(rune('a'+i))+".m"), "x = 1;")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := NewScanner(nil, nil, 1)
	_, err := scanner.Scan(ctx, root, newRecordingSink())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileURIRoundTrip(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("path shape differs on windows")
	}
	path := "/tmp/project/main.m"
	uri := FileURI(path)
	assert.Equal(t, "file:///tmp/project/main.m", uri)
	assert.Equal(t, path, URIPath(uri))
	assert.Equal(t, "untitled:one", URIPath("untitled:one"))
}

func TestWatcher_ForwardsChangesAndRemovals(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("fsnotify timing is flaky on macOS CI")
	}
	root := t.TempDir()
	scanner := NewScanner(nil, nil, 1)
	sink := newRecordingSink()

	w, err := NewWatcher(root, scanner, sink, t.Logf)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Close()

	path := writeFile(t, root, "fresh.m", "x = 1;")
	uri := FileURI(path)

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		_, ok := sink.changes[uri]
		return ok
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.closes) > 0 && sink.closes[0] == uri
	}, 3*time.Second, 10*time.Millisecond)
}
