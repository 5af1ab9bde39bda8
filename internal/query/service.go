// Package query implements the read-only operations served to the host:
// completion, hover, definition, references, and symbol listings. Handlers
// consume the symbol index and the open-document store plus the static
// builtin and keyword tables; they hold no state of their own.
package query

import (
	"github.com/codelens/matlab-context-mcp/internal/document"
	"github.com/codelens/matlab-context-mcp/internal/index"
	"github.com/codelens/matlab-context-mcp/pkg/types"
)

// DefaultMaxCompletions caps completion results when config does not
const DefaultMaxCompletions = 50

// Location is a resolved source position in a file
type Location struct {
	URI   string
	Range types.Range
}

// Service exposes the query operations over a shared index and document
// store
type Service struct {
	index          *index.Index
	docs           *document.Store
	maxCompletions int
}

// NewService creates a query Service. maxCompletions falls back to
// DefaultMaxCompletions when non-positive.
func NewService(ix *index.Index, docs *document.Store, maxCompletions int) *Service {
	if maxCompletions <= 0 {
		maxCompletions = DefaultMaxCompletions
	}
	return &Service{
		index:          ix,
		docs:           docs,
		maxCompletions: maxCompletions,
	}
}

// validatePosition rejects malformed positions at the handler boundary so
// they never reach the index internals
func validatePosition(line, column int) error {
	if line < 1 || column < 1 {
		return types.ErrInvalidPosition
	}
	return nil
}

// wordAt resolves the identifier under the cursor in an open document.
// Returns "" for unopened files or positions not touching an identifier.
func (s *Service) wordAt(uri string, line, column int) string {
	doc, ok := s.docs.Get(uri)
	if !ok {
		return ""
	}
	return doc.WordAt(line, column)
}
