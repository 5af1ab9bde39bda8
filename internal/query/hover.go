package query

import (
	"fmt"
	"strings"

	"github.com/codelens/matlab-context-mcp/internal/parser"
	"github.com/codelens/matlab-context-mcp/pkg/types"
)

// HoverResult carries rendered markdown for the symbol under the cursor
type HoverResult struct {
	Contents string
	Range    types.Range
}

// Hover resolves the symbol at the cursor and renders its signature and
// documentation. Returns nil when nothing resolvable is under the cursor;
// that is a normal outcome, not an error.
func (s *Service) Hover(uri string, line, column int) (*HoverResult, error) {
	if err := validatePosition(line, column); err != nil {
		return nil, err
	}

	word := s.wordAt(uri, line, column)
	if word == "" {
		// Fall back to the innermost enclosing symbol
		if sym, ok := s.index.FindAtPosition(uri, line, column); ok {
			return &HoverResult{Contents: renderSymbol(sym), Range: sym.Range}, nil
		}
		return nil, nil
	}

	if sym, ok := s.resolveName(uri, word); ok {
		return &HoverResult{Contents: renderSymbol(sym), Range: sym.Range}, nil
	}

	if parser.IsBuiltin(word) {
		return &HoverResult{
			Contents: fmt.Sprintf("**builtin: %s**\n\n%s", word, parser.BuiltinDetail(word)),
		}, nil
	}
	return nil, nil
}

// resolveName finds the best definition for a name, preferring one in the
// same file
func (s *Service) resolveName(uri, name string) (types.Symbol, bool) {
	matches := s.index.FindByName(name, types.MatchExact)
	if len(matches) == 0 {
		return types.Symbol{}, false
	}
	for _, m := range matches {
		if m.URI == uri {
			return m, true
		}
	}
	return matches[0], true
}

// renderSymbol formats a symbol as hover markdown
func renderSymbol(sym types.Symbol) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s: %s**\n\n", sym.Kind, sym.QualifiedName())
	fmt.Fprintf(&b, "```matlab\n%s\n```", sym.Signature)
	if sym.Documentation != "" {
		b.WriteString("\n\n---\n\n")
		b.WriteString(sym.Documentation)
	}
	return b.String()
}
