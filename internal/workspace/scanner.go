// Package workspace discovers and watches source files on disk. The
// scanner walks a root directory applying include/exclude glob patterns
// and feeds matching files to a sink; the watcher keeps the sink current
// as files change after the initial scan.
package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// Sink receives file content discovered by the scanner and watcher
type Sink interface {
	NotifyChange(uri, content string)
	NotifyClose(uri string)
}

// Statistics summarizes one scan pass
type Statistics struct {
	FilesScanned  int
	FilesSkipped  int
	FilesFailed   int
	Duration      time.Duration
	ErrorMessages []string
}

// Scanner walks a workspace root and loads matching files into a sink
type Scanner struct {
	include []string
	exclude []string
	workers int
}

// NewScanner creates a Scanner. Empty include defaults to every .m file;
// workers defaults to the CPU count when non-positive.
func NewScanner(include, exclude []string, workers int) *Scanner {
	if len(include) == 0 {
		include = []string{"**/*.m"}
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scanner{include: include, exclude: exclude, workers: workers}
}

// Scan discovers matching files under root and feeds each one to sink.
// Unreadable files are recorded in the statistics rather than aborting
// the scan.
func (s *Scanner) Scan(ctx context.Context, root string, sink Sink) (*Statistics, error) {
	start := time.Now()
	stats := &Statistics{}

	files, skipped, err := s.discover(root)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	stats.FilesSkipped = skipped

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, path := range files {
		path := path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.FilesFailed++
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", path, err))
				return nil
			}
			sink.NotifyChange(FileURI(path), string(data))
			stats.FilesScanned++
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	stats.Duration = time.Since(start)
	return stats, nil
}

// discover walks root collecting files that match the include patterns
// and none of the exclude patterns
func (s *Scanner) discover(root string) (matched []string, skipped int, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && rel != "." {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.matches(rel) {
			skipped++
			return nil
		}
		matched = append(matched, path)
		return nil
	})
	return matched, skipped, err
}

// matches applies the include then exclude patterns to a slash-separated
// path relative to the workspace root
func (s *Scanner) matches(rel string) bool {
	included := false
	for _, pattern := range s.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, pattern := range s.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	return true
}

// FileURI converts a filesystem path to a file:// URI
func FileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		// Windows drive paths need a leading slash
		abs = "/" + abs
	}
	return "file://" + abs
}

// URIPath converts a file:// URI back to a filesystem path. Non-file
// URIs are returned unchanged.
func URIPath(uri string) string {
	path, ok := strings.CutPrefix(uri, "file://")
	if !ok {
		return uri
	}
	if len(path) > 2 && path[0] == '/' && path[2] == ':' {
		// Strip the extra slash in front of a Windows drive letter
		path = path[1:]
	}
	return filepath.FromSlash(path)
}
