package query

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/codelens/matlab-context-mcp/pkg/types"
)

// References returns every location where the symbol under the cursor is
// used: its index definitions plus a textual occurrence scan across all
// open documents. includeDeclaration controls whether defining locations
// are part of the result.
func (s *Service) References(uri string, line, column int, includeDeclaration bool) ([]Location, error) {
	if err := validatePosition(line, column); err != nil {
		return nil, err
	}

	word := s.wordAt(uri, line, column)
	if word == "" {
		return nil, nil
	}

	declarations := make(map[string]struct{})
	for _, sym := range s.index.FindByName(word, types.MatchExact) {
		declarations[locationKey(sym.URI, sym.Range.Start.Line)] = struct{}{}
	}

	wordRe, err := regexp.Compile(`\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		return nil, err
	}

	var locations []Location
	for _, docURI := range s.docs.URIs() {
		doc, ok := s.docs.Get(docURI)
		if !ok {
			continue
		}
		for lineIdx, text := range doc.Lines() {
			for _, span := range wordRe.FindAllStringIndex(text, -1) {
				lineNum := lineIdx + 1
				if !includeDeclaration {
					if _, isDecl := declarations[locationKey(docURI, lineNum)]; isDecl {
						continue
					}
				}
				locations = append(locations, Location{
					URI: docURI,
					Range: types.Range{
						Start: types.Position{Line: lineNum, Column: span[0] + 1},
						End:   types.Position{Line: lineNum, Column: span[1] + 1},
					},
				})
			}
		}
	}

	sort.Slice(locations, func(i, j int) bool {
		a, b := locations[i], locations[j]
		if a.URI != b.URI {
			return a.URI < b.URI
		}
		if a.Range.Start.Line != b.Range.Start.Line {
			return a.Range.Start.Line < b.Range.Start.Line
		}
		return a.Range.Start.Column < b.Range.Start.Column
	})
	return locations, nil
}

func locationKey(uri string, line int) string {
	return uri + "#" + strconv.Itoa(line)
}
