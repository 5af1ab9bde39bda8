package index

import (
	"sort"
	"strings"
	"sync"

	"github.com/hbollon/go-edlib"

	"github.com/codelens/matlab-context-mcp/pkg/types"
)

// fuzzyThreshold is the minimum Jaro-Winkler similarity for a fuzzy match
// that is not already a substring match
const fuzzyThreshold = 0.8

// Index aggregates outlines from many files into queryable tables. It keeps
// two projections over the same symbol records: by-file for update, removal
// and outline queries, and by-name for search. Both are rebuilt for a file
// inside a single locked section, so readers always observe either the old
// complete symbol set for a file or the new one, never a partial mix.
type Index struct {
	mu       sync.RWMutex
	byFile   map[string][]types.Symbol
	byName   map[string][]types.Symbol // keyed by lowercase symbol name
	outlines map[string]*types.Outline
}

// New creates an empty Index
func New() *Index {
	return &Index{
		byFile:   make(map[string][]types.Symbol),
		byName:   make(map[string][]types.Symbol),
		outlines: make(map[string]*types.Outline),
	}
}

// Update atomically replaces all symbols owned by the outline's file with
// the symbols derived from the outline
func (ix *Index) Update(outline *types.Outline) {
	symbols := deriveSymbols(outline)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.removeLocked(outline.URI)
	ix.byFile[outline.URI] = symbols
	ix.outlines[outline.URI] = outline
	for _, sym := range symbols {
		key := strings.ToLower(sym.Name)
		ix.byName[key] = append(ix.byName[key], sym)
	}
}

// Remove deletes all symbols owned by the given file. Idempotent.
func (ix *Index) Remove(uri string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(uri)
}

// removeLocked drops a file from both projections. Caller holds the write lock.
func (ix *Index) removeLocked(uri string) {
	old, ok := ix.byFile[uri]
	if !ok {
		return
	}
	delete(ix.byFile, uri)
	delete(ix.outlines, uri)

	for _, sym := range old {
		key := strings.ToLower(sym.Name)
		kept := ix.byName[key][:0]
		for _, candidate := range ix.byName[key] {
			if candidate.URI != uri {
				kept = append(kept, candidate)
			}
		}
		if len(kept) == 0 {
			delete(ix.byName, key)
		} else {
			ix.byName[key] = kept
		}
	}
}

// FindByName returns all symbols whose name matches according to mode,
// across all indexed files. Matching is case-insensitive; results are
// ordered by name, then owning file.
func (ix *Index) FindByName(name string, mode types.MatchMode) []types.Symbol {
	query := strings.ToLower(name)

	ix.mu.RLock()
	var results []types.Symbol
	switch mode {
	case types.MatchExact:
		results = append(results, ix.byName[query]...)
	default:
		for key, syms := range ix.byName {
			if nameMatches(key, query, mode) {
				results = append(results, syms...)
			}
		}
	}
	ix.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Name != results[j].Name {
			return results[i].Name < results[j].Name
		}
		if results[i].URI != results[j].URI {
			return results[i].URI < results[j].URI
		}
		return results[i].Range.Start.Line < results[j].Range.Start.Line
	})
	return results
}

func nameMatches(key, query string, mode types.MatchMode) bool {
	switch mode {
	case types.MatchPrefix:
		return strings.HasPrefix(key, query)
	case types.MatchSubstring:
		return strings.Contains(key, query)
	case types.MatchFuzzy:
		if strings.Contains(key, query) {
			return true
		}
		score, err := edlib.StringsSimilarity(query, key, edlib.JaroWinkler)
		return err == nil && score >= fuzzyThreshold
	default:
		return key == query
	}
}

// FindAtPosition returns the innermost symbol whose declared range contains
// the given 1-based position, or false when no symbol covers it
func (ix *Index) FindAtPosition(uri string, line, column int) (types.Symbol, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var best types.Symbol
	found := false
	for _, sym := range ix.byFile[uri] {
		if !sym.Range.Contains(line, column) {
			continue
		}
		// Narrower span wins; later declaration breaks ties so nested
		// entries shadow their parents
		if !found || sym.Range.Lines() < best.Range.Lines() ||
			(sym.Range.Lines() == best.Range.Lines() && sym.Range.Start.Line >= best.Range.Start.Line) {
			best = sym
			found = true
		}
	}
	return best, found
}

// SymbolsIn returns all symbols owned by the given file in declaration
// order. Unknown files yield an empty slice.
func (ix *Index) SymbolsIn(uri string) []types.Symbol {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	symbols := ix.byFile[uri]
	out := make([]types.Symbol, len(symbols))
	copy(out, symbols)
	return out
}

// Outline returns the current outline for a file, when indexed
func (ix *Index) Outline(uri string) (*types.Outline, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	o, ok := ix.outlines[uri]
	return o, ok
}

// Files returns the URIs of all indexed files, sorted
func (ix *Index) Files() []string {
	ix.mu.RLock()
	files := make([]string, 0, len(ix.byFile))
	for uri := range ix.byFile {
		files = append(files, uri)
	}
	ix.mu.RUnlock()

	sort.Strings(files)
	return files
}

// Stats returns aggregate counts by kind and indexed-file total
func (ix *Index) Stats() types.IndexStats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	stats := types.IndexStats{
		Files:  len(ix.byFile),
		ByKind: make(map[types.SymbolKind]int),
	}
	for _, symbols := range ix.byFile {
		stats.Symbols += len(symbols)
		for _, sym := range symbols {
			stats.ByKind[sym.Kind]++
		}
	}
	return stats
}

// deriveSymbols flattens an outline into index symbol records. The result
// depends only on the outline, so re-deriving after a reparse of identical
// content yields identical symbols.
func deriveSymbols(outline *types.Outline) []types.Symbol {
	symbols := make([]types.Symbol, 0, outline.EntryCount())

	for i := range outline.Functions {
		fn := &outline.Functions[i]
		symbols = append(symbols, functionSymbol(outline.URI, fn, types.KindFunction))
	}
	for i := range outline.Classes {
		cls := &outline.Classes[i]
		symbols = append(symbols, types.Symbol{
			Name:          cls.Name,
			Kind:          types.KindClass,
			URI:           outline.URI,
			Signature:     "classdef " + cls.Name,
			Documentation: cls.DocString,
			Range:         cls.Range,
		})
		for j := range cls.Properties {
			prop := &cls.Properties[j]
			symbols = append(symbols, types.Symbol{
				Name:      prop.Name,
				Kind:      types.KindProperty,
				URI:       outline.URI,
				Container: cls.Name,
				Signature: "property " + prop.Name,
				Range: types.Range{
					Start: types.Position{Line: prop.Line, Column: prop.Col},
					End:   types.Position{Line: prop.Line},
				},
			})
		}
		for j := range cls.Methods {
			m := &cls.Methods[j]
			symbols = append(symbols, functionSymbol(outline.URI, m, types.KindMethod))
		}
	}
	for i := range outline.Variables {
		v := &outline.Variables[i]
		scope := "global"
		if v.Persistent {
			scope = "persistent"
		}
		symbols = append(symbols, types.Symbol{
			Name:      v.Name,
			Kind:      types.KindVariable,
			URI:       outline.URI,
			Signature: scope + " " + v.Name,
			Range: types.Range{
				Start: types.Position{Line: v.Line, Column: v.Col},
				End:   types.Position{Line: v.Line},
			},
		})
	}
	return symbols
}

func functionSymbol(uri string, fn *types.FunctionEntry, kind types.SymbolKind) types.Symbol {
	container := fn.Class
	if container == "" {
		container = fn.Parent
	}
	return types.Symbol{
		Name:          fn.Name,
		Kind:          kind,
		URI:           uri,
		Container:     container,
		Signature:     fn.Signature(),
		Documentation: fn.DocString,
		Range:         fn.Range,
	}
}
