// Package diagnostics schedules external analysis runs per file and
// delivers structured findings to the host.
//
// Each file moves through idle -> scheduled -> running -> published.
// Repeated edits while scheduled collapse into one run (debounce), and a
// monotonically increasing per-file generation counter suppresses results
// of runs that were superseded while in flight. A superseded analyzer
// process is not killed; it is allowed to finish and its output is
// discarded.
package diagnostics

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/codelens/matlab-context-mcp/internal/cache"
	"github.com/codelens/matlab-context-mcp/pkg/types"
)

// DefaultDebounce is the quiescence window before a scheduled file runs
const DefaultDebounce = 500 * time.Millisecond

// Analyzer is the external static analysis collaborator
type Analyzer interface {
	Name() string
	Available() bool
	Analyze(ctx context.Context, uri, filePath string) ([]types.Diagnostic, error)
}

// Publisher receives finished diagnostic sets. Delivery is fire-and-forget;
// implementations must not call back into the pipeline.
type Publisher interface {
	Publish(uri string, diags []types.Diagnostic)
}

// State describes where a file currently is in the pipeline
type State int

const (
	StateIdle State = iota
	StateScheduled
	StateRunning
	StatePublished
)

// Config controls pipeline behavior
type Config struct {
	Debounce       time.Duration   // Quiescence window; DefaultDebounce when zero
	MaxDiagnostics int             // Per-file cap, 0 means unlimited
	Rules          map[string]bool // Rule code -> enabled; absent codes are enabled
}

// fileState tracks one file's debounce timer and generation
type fileState struct {
	state      State
	generation uint64
	content    string
	timer      *time.Timer
}

// Pipeline drives debounced analysis of changed files
type Pipeline struct {
	analyzer  Analyzer
	publisher Publisher
	results   *cache.Cache[[]types.Diagnostic]
	cfg       Config

	mu     sync.Mutex
	files  map[string]*fileState
	logged map[string]struct{} // failure class + file, so failures log once
	closed bool
	wg     sync.WaitGroup

	// logf is swappable for tests
	logf func(format string, args ...any)
}

// New creates a Pipeline. analyzer may be nil, which behaves like a
// permanently unavailable analyzer: every change publishes an empty set.
func New(analyzer Analyzer, publisher Publisher, results *cache.Cache[[]types.Diagnostic], cfg Config) *Pipeline {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Pipeline{
		analyzer:  analyzer,
		publisher: publisher,
		results:   results,
		cfg:       cfg,
		files:     make(map[string]*fileState),
		logged:    make(map[string]struct{}),
		logf:      log.Printf,
	}
}

// SetAnalyzer swaps the analyzer; the next scheduled run uses it
func (p *Pipeline) SetAnalyzer(a Analyzer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.analyzer = a
}

// Schedule records a content change for uri and (re)starts its debounce
// timer. Any in-flight run for the file is superseded.
func (p *Pipeline) Schedule(uri, content string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	fs, ok := p.files[uri]
	if !ok {
		fs = &fileState{}
		p.files[uri] = fs
	}
	fs.generation++
	fs.content = content
	fs.state = StateScheduled
	if fs.timer != nil {
		fs.timer.Stop()
	}

	gen := fs.generation
	fs.timer = time.AfterFunc(p.cfg.Debounce, func() {
		p.run(uri, gen)
	})
}

// Forget drops all pipeline state for uri and clears its published
// diagnostics. Called when a file closes.
func (p *Pipeline) Forget(uri string) {
	p.mu.Lock()
	fs, ok := p.files[uri]
	if ok {
		if fs.timer != nil {
			fs.timer.Stop()
		}
		fs.generation++ // Invalidate any in-flight run
		delete(p.files, uri)
	}
	p.mu.Unlock()

	if ok && p.publisher != nil {
		p.publisher.Publish(uri, nil)
	}
}

// StateOf reports the pipeline state for uri
func (p *Pipeline) StateOf(uri string) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if fs, ok := p.files[uri]; ok {
		return fs.state
	}
	return StateIdle
}

// Close stops all timers and waits for in-flight runs to finish
func (p *Pipeline) Close() {
	p.mu.Lock()
	p.closed = true
	for _, fs := range p.files {
		if fs.timer != nil {
			fs.timer.Stop()
		}
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// run executes one analysis cycle for uri at the given generation. Fired
// by the debounce timer; a generation mismatch at any checkpoint means the
// run was superseded and its output is discarded.
func (p *Pipeline) run(uri string, gen uint64) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	fs, ok := p.files[uri]
	if !ok || fs.generation != gen {
		p.mu.Unlock()
		return
	}
	fs.state = StateRunning
	content := fs.content
	p.wg.Add(1)
	p.mu.Unlock()
	defer p.wg.Done()

	key := cache.ContentKey(cache.KindMlint, content)
	if p.results != nil {
		if diags, hit := p.results.Get(key); hit {
			p.deliver(uri, gen, diags)
			return
		}
	}

	diags, err := p.analyze(uri, content)
	if err != nil {
		p.logFailureOnce(uri, err)
		// Degrade to an empty set so stale findings are cleared; the file
		// must never stay in running
		p.deliver(uri, gen, nil)
		return
	}

	diags = p.applyRules(diags)
	if p.results != nil {
		p.results.Put(key, diags)
	}
	p.deliver(uri, gen, diags)
}

// analyze materializes the buffer content to a temp file and runs the
// external analyzer on it
func (p *Pipeline) analyze(uri, content string) ([]types.Diagnostic, error) {
	if p.analyzer == nil || !p.analyzer.Available() {
		return nil, types.ErrAnalyzerUnavailable
	}

	tmp, err := os.CreateTemp("", "mcontext-*.m")
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	return p.analyzer.Analyze(context.Background(), uri, tmpPath)
}

// deliver publishes diags for uri unless the run was superseded by a newer
// generation
func (p *Pipeline) deliver(uri string, gen uint64, diags []types.Diagnostic) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fs, ok := p.files[uri]
	if !ok || fs.generation != gen {
		// Superseded while running; a newer cycle owns the file now
		return
	}
	fs.state = StatePublished
	if p.publisher != nil {
		p.publisher.Publish(uri, diags)
	}
}

// applyRules filters findings through the configured rule toggles and
// enforces the per-file cap
func (p *Pipeline) applyRules(diags []types.Diagnostic) []types.Diagnostic {
	filtered := diags
	if len(p.cfg.Rules) > 0 {
		filtered = make([]types.Diagnostic, 0, len(diags))
		for _, d := range diags {
			if enabled, present := p.cfg.Rules[d.Code]; present && !enabled {
				continue
			}
			filtered = append(filtered, d)
		}
	}
	if p.cfg.MaxDiagnostics > 0 && len(filtered) > p.cfg.MaxDiagnostics {
		filtered = filtered[:p.cfg.MaxDiagnostics]
	}
	return filtered
}

// logFailureOnce logs an analyzer failure a single time per failure class
// per file, so a broken configuration does not flood the log on every edit
func (p *Pipeline) logFailureOnce(uri string, err error) {
	class := failureClass(err)

	p.mu.Lock()
	key := class + ":" + uri
	if _, seen := p.logged[key]; seen {
		p.mu.Unlock()
		return
	}
	p.logged[key] = struct{}{}
	p.mu.Unlock()

	p.logf("diagnostics: analyzer %s for %s: %v", class, filepath.Base(uri), err)
}

func failureClass(err error) string {
	switch {
	case errors.Is(err, types.ErrAnalyzerUnavailable):
		return "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "failed"
	}
}
