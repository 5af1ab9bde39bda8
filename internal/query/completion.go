package query

import (
	"sort"
	"strings"

	"github.com/codelens/matlab-context-mcp/internal/parser"
	"github.com/codelens/matlab-context-mcp/pkg/types"
)

// CompletionItem is one completion candidate
type CompletionItem struct {
	Label         string
	Kind          types.SymbolKind
	Detail        string
	Documentation string
}

// Match quality buckets, in rank order
const (
	rankExact = iota
	rankPrefix
	rankSubstring
	rankNone
)

// Complete returns ranked completion candidates for the given cursor
// position. Candidates come from the symbol index (current file first,
// then the rest of the workspace), the builtin function table, and the
// keyword table. Exact matches rank before prefix matches before
// substring matches; ties break alphabetically. The result is capped at
// the configured maximum.
func (s *Service) Complete(uri string, line, column int) ([]CompletionItem, error) {
	if err := validatePosition(line, column); err != nil {
		return nil, err
	}
	prefix := s.wordAt(uri, line, column)

	type ranked struct {
		item CompletionItem
		rank int
	}
	var candidates []ranked
	seen := make(map[string]struct{})

	add := func(item CompletionItem) {
		r := matchRank(item.Label, prefix)
		if r == rankNone {
			return
		}
		// First writer wins: file symbols shadow workspace symbols,
		// which shadow builtins and keywords of the same name
		key := strings.ToLower(item.Label)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		candidates = append(candidates, ranked{item: item, rank: r})
	}

	for _, sym := range s.index.SymbolsIn(uri) {
		add(symbolCompletion(sym))
	}
	if prefix != "" {
		for _, sym := range s.index.FindByName(prefix, types.MatchSubstring) {
			add(symbolCompletion(sym))
		}
	}
	for _, name := range parser.BuiltinNames() {
		add(CompletionItem{
			Label:  name,
			Kind:   types.KindBuiltin,
			Detail: parser.BuiltinDetail(name),
		})
	}
	for _, kw := range parser.Keywords {
		add(CompletionItem{
			Label:  kw,
			Kind:   types.KindKeyword,
			Detail: "keyword",
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].rank != candidates[j].rank {
			return candidates[i].rank < candidates[j].rank
		}
		return strings.ToLower(candidates[i].item.Label) < strings.ToLower(candidates[j].item.Label)
	})

	if len(candidates) > s.maxCompletions {
		candidates = candidates[:s.maxCompletions]
	}
	items := make([]CompletionItem, len(candidates))
	for i, c := range candidates {
		items[i] = c.item
	}
	return items, nil
}

func symbolCompletion(sym types.Symbol) CompletionItem {
	return CompletionItem{
		Label:         sym.Name,
		Kind:          sym.Kind,
		Detail:        sym.Signature,
		Documentation: sym.Documentation,
	}
}

// matchRank buckets a candidate label against the typed prefix. An empty
// prefix accepts everything at substring rank so results stay ordered
// alphabetically.
func matchRank(label, prefix string) int {
	if prefix == "" {
		return rankSubstring
	}
	l := strings.ToLower(label)
	p := strings.ToLower(prefix)
	switch {
	case l == p:
		return rankExact
	case strings.HasPrefix(l, p):
		return rankPrefix
	case strings.Contains(l, p):
		return rankSubstring
	default:
		return rankNone
	}
}
