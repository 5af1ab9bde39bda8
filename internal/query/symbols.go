package query

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/codelens/matlab-context-mcp/pkg/types"
)

// DocumentSymbol is one node of a file's symbol hierarchy
type DocumentSymbol struct {
	Name     string
	Kind     types.SymbolKind
	Detail   string
	Range    types.Range
	Children []DocumentSymbol
}

// DocumentSymbols returns the hierarchical outline view for one file:
// classes contain their properties and methods, functions contain their
// nested functions. Unknown files yield an empty slice.
func (s *Service) DocumentSymbols(uri string) []DocumentSymbol {
	outline, ok := s.index.Outline(uri)
	if !ok {
		return nil
	}

	var result []DocumentSymbol

	for i := range outline.Classes {
		cls := &outline.Classes[i]
		node := DocumentSymbol{
			Name:   cls.Name,
			Kind:   types.KindClass,
			Detail: "classdef " + cls.Name,
			Range:  cls.Range,
		}
		for _, prop := range cls.Properties {
			node.Children = append(node.Children, DocumentSymbol{
				Name:   prop.Name,
				Kind:   types.KindProperty,
				Detail: "property",
				Range: types.Range{
					Start: types.Position{Line: prop.Line, Column: prop.Col},
					End:   types.Position{Line: prop.Line},
				},
			})
		}
		for j := range cls.Methods {
			m := &cls.Methods[j]
			node.Children = append(node.Children, DocumentSymbol{
				Name:   m.Name,
				Kind:   types.KindMethod,
				Detail: m.Signature(),
				Range:  m.Range,
			})
		}
		result = append(result, node)
	}

	// Top-level functions carry their nested functions as children
	nested := make(map[string][]DocumentSymbol)
	for i := range outline.Functions {
		fn := &outline.Functions[i]
		if fn.Depth == 0 {
			continue
		}
		nested[fn.Parent] = append(nested[fn.Parent], DocumentSymbol{
			Name:   fn.Name,
			Kind:   types.KindFunction,
			Detail: fn.Signature(),
			Range:  fn.Range,
		})
	}
	for i := range outline.Functions {
		fn := &outline.Functions[i]
		if fn.Depth != 0 {
			continue
		}
		result = append(result, DocumentSymbol{
			Name:     fn.Name,
			Kind:     types.KindFunction,
			Detail:   fn.Signature(),
			Range:    fn.Range,
			Children: nested[fn.Name],
		})
	}

	for _, v := range outline.Variables {
		detail := "global"
		if v.Persistent {
			detail = "persistent"
		}
		result = append(result, DocumentSymbol{
			Name:   v.Name,
			Kind:   types.KindVariable,
			Detail: detail,
			Range: types.Range{
				Start: types.Position{Line: v.Line, Column: v.Col},
				End:   types.Position{Line: v.Line},
			},
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Range.Start.Line < result[j].Range.Start.Line
	})
	return result
}

// WorkspaceSymbols returns a flat, query-filtered list of symbols across
// every indexed file. Matching is fuzzy; better matches sort first, with
// name then file as tiebreakers. An empty query returns everything up to
// limit.
func (s *Service) WorkspaceSymbols(query string, limit int) []types.Symbol {
	var matches []types.Symbol
	if query == "" {
		for _, uri := range s.index.Files() {
			matches = append(matches, s.index.SymbolsIn(uri)...)
		}
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	} else {
		matches = s.index.FindByName(query, types.MatchFuzzy)
		q := strings.ToLower(query)
		sort.SliceStable(matches, func(i, j int) bool {
			si := fuzzyScore(q, strings.ToLower(matches[i].Name))
			sj := fuzzyScore(q, strings.ToLower(matches[j].Name))
			if si != sj {
				return si > sj
			}
			return matches[i].Name < matches[j].Name
		})
	}

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func fuzzyScore(query, name string) float32 {
	score, err := edlib.StringsSimilarity(query, name, edlib.JaroWinkler)
	if err != nil {
		return 0
	}
	return score
}
