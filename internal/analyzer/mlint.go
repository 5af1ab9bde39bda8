package analyzer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/codelens/matlab-context-mcp/pkg/types"
)

// DefaultTimeout bounds a single analyzer invocation
const DefaultTimeout = 10 * time.Second

// Source identifier attached to every finding this analyzer produces
const Source = "mlint"

// Output line patterns. mlint emits one finding per line:
//
//	L 12 (C 5-10): Terminate statement with semicolon
//	L 4: Invalid syntax
//
// Header lines ("==== file.m ====") and anything else unparseable are
// skipped silently: garbage in the report means "no additional findings",
// never a pipeline failure.
var (
	findingWithIDRe = regexp.MustCompile(`^L\s+(\d+)\s+\(([^)]+)\)\s*:\s*(.+)$`)
	findingSimpleRe = regexp.MustCompile(`^L\s+(\d+)\s*:\s*(.+)$`)
)

// Mlint drives the external MATLAB Code Analyzer executable. An empty
// executable path disables the analyzer entirely.
type Mlint struct {
	path    string
	timeout time.Duration
}

// Option configures an Mlint analyzer
type Option func(*Mlint)

// WithTimeout overrides the per-invocation timeout
func WithTimeout(d time.Duration) Option {
	return func(m *Mlint) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// NewMlint creates an analyzer for the given executable path. The path is
// not validated here; availability is checked per invocation so a fixed
// configuration starts working as soon as the binary appears.
func NewMlint(path string, opts ...Option) *Mlint {
	m := &Mlint{
		path:    path,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the analyzer's source identifier
func (m *Mlint) Name() string { return Source }

// Available reports whether the configured executable exists and can run
func (m *Mlint) Available() bool {
	if m.path == "" {
		return false
	}
	_, err := exec.LookPath(m.path)
	return err == nil
}

// Analyze runs the analyzer on the file at filePath and returns its
// findings attributed to uri. Findings order follows the report. A missing
// executable yields ErrAnalyzerUnavailable; the analyzer exiting non-zero
// is expected whenever findings exist and is not an error.
func (m *Mlint) Analyze(ctx context.Context, uri, filePath string) ([]types.Diagnostic, error) {
	if !m.Available() {
		return nil, fmt.Errorf("%w: %q", types.ErrAnalyzerUnavailable, m.path)
	}

	runCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, m.path, filePath, "-id")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() != nil {
		return nil, fmt.Errorf("analyzer timed out after %s: %w", m.timeout, runCtx.Err())
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to run analyzer: %w", err)
		}
		// Non-zero exit with a report is the normal "findings exist" case
	}

	// mlint writes findings to stderr, falling back to stdout on some
	// platforms
	output := stderr.String()
	if strings.TrimSpace(output) == "" {
		output = stdout.String()
	}

	return ParseReport(uri, output), nil
}

// ParseReport parses raw analyzer output into diagnostics for uri
func ParseReport(uri, output string) []types.Diagnostic {
	var diags []types.Diagnostic

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "==========") {
			continue
		}

		var (
			lineNum int
			code    string
			message string
		)
		if m := findingWithIDRe.FindStringSubmatch(line); m != nil {
			lineNum, _ = strconv.Atoi(m[1])
			code = strings.TrimSpace(m[2])
			message = m[3]
		} else if m := findingSimpleRe.FindStringSubmatch(line); m != nil {
			lineNum, _ = strconv.Atoi(m[1])
			message = m[2]
		} else {
			continue
		}
		if lineNum < 1 {
			continue
		}

		d := types.Diagnostic{
			URI: uri,
			Range: types.Range{
				Start: types.Position{Line: lineNum, Column: 1},
				End:   types.Position{Line: lineNum, Column: 1},
			},
			Severity: MapSeverity(code),
			Message:  message,
			Source:   Source,
			Code:     code,
		}
		if d.Validate() != nil {
			continue
		}
		diags = append(diags, d)
	}
	return diags
}

// MapSeverity maps an analyzer message ID to a diagnostic severity.
// E and F prefixes are error classes, C and W are warnings, I is
// informational; anything unrecognized defaults to warning.
func MapSeverity(code string) types.Severity {
	if code == "" {
		return types.SeverityWarning
	}
	switch strings.ToUpper(code[:1]) {
	case "E", "F":
		return types.SeverityError
	case "C", "W":
		return types.SeverityWarning
	case "I":
		return types.SeverityInfo
	default:
		return types.SeverityWarning
	}
}
