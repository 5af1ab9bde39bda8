// Package document tracks the in-memory text of open buffers. It is the
// content provider consumed by the query handlers and the diagnostics
// pipeline: the host pushes full text on every change and the rest of the
// engine only ever reads.
package document

import (
	"strings"
	"sync"
	"unicode"
)

// Document holds the current text of one open file
type Document struct {
	URI     string
	Content string
	Version int // Monotonic per document, bumped on every update
}

// Lines returns the document content split into lines
func (d *Document) Lines() []string {
	return strings.Split(d.Content, "\n")
}

// Store is a mutex-guarded map of open documents
type Store struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{docs: make(map[string]*Document)}
}

// Open registers a document with its initial content. Opening an already
// open URI behaves like an update.
func (s *Store) Open(uri, content string) *Document {
	return s.Update(uri, content)
}

// Update replaces a document's content wholesale and bumps its version
func (s *Store) Update(uri, content string) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[uri]
	if !ok {
		doc = &Document{URI: uri}
		s.docs[uri] = doc
	}
	updated := &Document{URI: uri, Content: content, Version: doc.Version + 1}
	s.docs[uri] = updated
	return updated
}

// Close forgets a document. Idempotent.
func (s *Store) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

// Get returns the document for uri, when open
func (s *Store) Get(uri string) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[uri]
	return doc, ok
}

// URIs returns the URIs of all open documents
func (s *Store) URIs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uris := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		uris = append(uris, uri)
	}
	return uris
}

// Len returns the number of open documents
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Line returns the 1-based line of the document, or "" when out of range
func (d *Document) Line(line int) string {
	if line < 1 {
		return ""
	}
	lines := d.Lines()
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// WordAt extracts the identifier under the given 1-based position. The
// cursor may sit anywhere inside the word or directly after it. Returns ""
// when the position does not touch an identifier.
func (d *Document) WordAt(line, column int) string {
	text := d.Line(line)
	if text == "" {
		return ""
	}
	runes := []rune(text)
	// Allow a cursor hanging just past the end of the word
	idx := column - 1
	if idx >= len(runes) {
		idx = len(runes) - 1
	}
	if idx < 0 {
		return ""
	}
	if !isWordRune(runes[idx]) && idx > 0 && isWordRune(runes[idx-1]) {
		idx--
	}
	if !isWordRune(runes[idx]) {
		return ""
	}

	start := idx
	for start > 0 && isWordRune(runes[start-1]) {
		start--
	}
	end := idx
	for end < len(runes)-1 && isWordRune(runes[end+1]) {
		end++
	}
	word := string(runes[start : end+1])
	// Identifiers cannot start with a digit
	if unicode.IsDigit(rune(word[0])) {
		return ""
	}
	return word
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
