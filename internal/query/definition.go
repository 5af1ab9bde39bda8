package query

import "github.com/codelens/matlab-context-mcp/pkg/types"

// Definition resolves the token at the cursor to its defining locations.
// Multiple files may define the same name; all matches are returned, and
// an ambiguous definition is a valid outcome rather than an error. An
// unresolvable token yields an empty slice.
func (s *Service) Definition(uri string, line, column int) ([]Location, error) {
	if err := validatePosition(line, column); err != nil {
		return nil, err
	}

	word := s.wordAt(uri, line, column)
	if word == "" {
		return nil, nil
	}

	matches := s.index.FindByName(word, types.MatchExact)
	locations := make([]Location, 0, len(matches))
	for _, sym := range matches {
		locations = append(locations, Location{URI: sym.URI, Range: declarationRange(sym)})
	}
	return locations, nil
}

// declarationRange narrows a symbol's range to its name on the declaring
// line, which is where a client should land on go-to-definition
func declarationRange(sym types.Symbol) types.Range {
	start := sym.Range.Start
	return types.Range{
		Start: start,
		End:   types.Position{Line: start.Line, Column: start.Column + len(sym.Name)},
	}
}
