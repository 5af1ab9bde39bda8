package types

// SymbolKind represents the type of MATLAB language symbol
type SymbolKind string

const (
	KindFunction SymbolKind = "function"
	KindMethod   SymbolKind = "method"
	KindClass    SymbolKind = "class"
	KindProperty SymbolKind = "property"
	KindVariable SymbolKind = "variable"
	KindBuiltin  SymbolKind = "builtin"
	KindKeyword  SymbolKind = "keyword"
)

// Position represents a location in source code (1-based line and column)
type Position struct {
	Line   int
	Column int
}

// Range represents a span of source code from Start to End
type Range struct {
	Start Position
	End   Position
}

// Contains reports whether the given 1-based position falls inside the range.
// Parser ranges are line-granular at the end boundary, so any column on an
// interior or end line counts as inside.
func (r Range) Contains(line, column int) bool {
	if line < r.Start.Line || line > r.End.Line {
		return false
	}
	if line == r.Start.Line && column < r.Start.Column {
		return false
	}
	return true
}

// Lines returns the number of source lines the range spans
func (r Range) Lines() int {
	return r.End.Line - r.Start.Line + 1
}

// Symbol represents a named code entity derived from an Outline and stored
// in the symbol index
type Symbol struct {
	// Identification
	Name      string
	Kind      SymbolKind
	URI       string // Owning file
	Container string // Enclosing class or parent function name, empty at top level

	// Content
	Signature     string // Rendered declaration, e.g. "[q, r] = decompose(m)"
	Documentation string // Nearest preceding comment block

	// Location
	Range Range
}

// QualifiedName returns the container-scoped name used for symbol identity,
// e.g. "Rotation.apply" for a method or "decompose" for a free function.
func (s *Symbol) QualifiedName() string {
	if s.Container == "" {
		return s.Name
	}
	return s.Container + "." + s.Name
}

// MatchMode controls how the index compares symbol names during search
type MatchMode int

const (
	MatchExact MatchMode = iota
	MatchPrefix
	MatchSubstring
	MatchFuzzy
)

// IndexStats contains aggregate counts for a symbol index instance
type IndexStats struct {
	Files   int
	Symbols int
	ByKind  map[SymbolKind]int
}
