package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codelens/matlab-context-mcp/internal/document"
	"github.com/codelens/matlab-context-mcp/internal/index"
	"github.com/codelens/matlab-context-mcp/internal/parser"
	"github.com/codelens/matlab-context-mcp/pkg/types"
)

type fixture struct {
	ix   *index.Index
	docs *document.Store
	svc  *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ix:   index.New(),
		docs: document.NewStore(),
	}
	f.svc = NewService(f.ix, f.docs, 0)
	return f
}

// addFile opens content as a document and indexes its outline
func (f *fixture) addFile(uri, content string) {
	f.docs.Open(uri, content)
	f.ix.Update(parser.New().Parse(uri, content))
}

func TestComplete_RankingOrder(t *testing.T) {
	f := newFixture(t)
	f.addFile("file:///plots.m", `function plot()
end
function plot3()
end
function my_plot()
end
`)
	f.docs.Open("file:///edit.m", "plot")

	items, err := f.svc.Complete("file:///edit.m", 1, 5)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(items), 3)

	labels := make([]string, 0, 3)
	for _, item := range items {
		switch item.Label {
		case "plot", "plot3", "my_plot":
			labels = append(labels, item.Label)
		}
	}
	assert.Equal(t, []string{"plot", "plot3", "my_plot"}, labels,
		"exact before prefix before substring")
}

func TestComplete_IncludesBuiltinsAndKeywords(t *testing.T) {
	f := newFixture(t)
	f.docs.Open("file:///edit.m", "sq")

	items, err := f.svc.Complete("file:///edit.m", 1, 3)
	require.NoError(t, err)

	var foundSqrt, foundSqueeze bool
	for _, item := range items {
		if item.Label == "sqrt" && item.Kind == types.KindBuiltin {
			foundSqrt = true
		}
		if item.Label == "squeeze" {
			foundSqueeze = true
		}
	}
	assert.True(t, foundSqrt)
	assert.True(t, foundSqueeze)
}

func TestComplete_FileSymbolShadowsBuiltin(t *testing.T) {
	f := newFixture(t)
	f.addFile("file:///edit.m", "function y = sqrt(x)\ny = x;\nend\nsqrt")

	items, err := f.svc.Complete("file:///edit.m", 4, 5)
	require.NoError(t, err)

	for _, item := range items {
		if item.Label == "sqrt" {
			assert.Equal(t, types.KindFunction, item.Kind,
				"user definition wins over the builtin table")
			return
		}
	}
	t.Fatal("sqrt not in completion results")
}

func TestComplete_CapsResults(t *testing.T) {
	f := newFixture(t)
	f.svc = NewService(f.ix, f.docs, 5)
	f.docs.Open("file:///edit.m", "")

	items, err := f.svc.Complete("file:///edit.m", 1, 1)
	require.NoError(t, err)
	assert.Len(t, items, 5)
}

func TestComplete_RejectsMalformedPosition(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Complete("file:///edit.m", -1, 1)
	assert.ErrorIs(t, err, types.ErrInvalidPosition)
	_, err = f.svc.Complete("file:///edit.m", 1, 0)
	assert.ErrorIs(t, err, types.ErrInvalidPosition)
}

func TestComplete_UnknownFileStillServesStaticTables(t *testing.T) {
	f := newFixture(t)
	items, err := f.svc.Complete("file:///never-opened.m", 1, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, items, "builtins and keywords do not require an indexed file")
}

func TestHover_FunctionWithDoc(t *testing.T) {
	f := newFixture(t)
	f.addFile("file:///scale.m", `% Scales the input by factor.
function y = scale(x, factor)
y = x * factor;
end
`)
	// Cursor on the call site word "scale"
	f.docs.Open("file:///edit.m", "z = scale(3, 2);")
	f.ix.Update(parser.New().Parse("file:///edit.m", "z = scale(3, 2);"))

	hover, err := f.svc.Hover("file:///edit.m", 1, 6)
	require.NoError(t, err)
	require.NotNil(t, hover)
	assert.Contains(t, hover.Contents, "y = scale(x, factor)")
	assert.Contains(t, hover.Contents, "Scales the input by factor.")
}

func TestHover_BuiltinFallback(t *testing.T) {
	f := newFixture(t)
	f.docs.Open("file:///edit.m", "y = sqrt(4);")

	hover, err := f.svc.Hover("file:///edit.m", 1, 6)
	require.NoError(t, err)
	require.NotNil(t, hover)
	assert.Contains(t, hover.Contents, "sqrt")
	assert.Contains(t, hover.Contents, "square root")
}

func TestHover_NothingUnderCursor(t *testing.T) {
	f := newFixture(t)
	f.docs.Open("file:///edit.m", "   ")

	hover, err := f.svc.Hover("file:///edit.m", 1, 2)
	require.NoError(t, err)
	assert.Nil(t, hover)
}

func TestDefinition_SingleMatch(t *testing.T) {
	f := newFixture(t)
	f.addFile("file:///lib.m", "function helper()\nend")
	f.docs.Open("file:///edit.m", "helper();")

	locs, err := f.svc.Definition("file:///edit.m", 1, 3)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "file:///lib.m", locs[0].URI)
	assert.Equal(t, 1, locs[0].Range.Start.Line)
}

func TestDefinition_AmbiguousReturnsAll(t *testing.T) {
	f := newFixture(t)
	f.addFile("file:///a.m", "function setup()\nend")
	f.addFile("file:///b.m", "function setup()\nend")
	f.docs.Open("file:///edit.m", "setup();")

	locs, err := f.svc.Definition("file:///edit.m", 1, 3)
	require.NoError(t, err)
	assert.Len(t, locs, 2, "ambiguous definition is a valid outcome")
}

func TestDefinition_UnknownTokenIsEmpty(t *testing.T) {
	f := newFixture(t)
	f.docs.Open("file:///edit.m", "mystery();")

	locs, err := f.svc.Definition("file:///edit.m", 1, 3)
	require.NoError(t, err)
	assert.Empty(t, locs)
}

func TestReferences_IncludeDeclarationFlag(t *testing.T) {
	f := newFixture(t)
	f.addFile("file:///lib.m", "function tally()\nend")
	f.addFile("file:///use.m", "tally();\nx = tally();")

	// Cursor on the first use in use.m
	withDecl, err := f.svc.References("file:///use.m", 1, 2, true)
	require.NoError(t, err)
	withoutDecl, err := f.svc.References("file:///use.m", 1, 2, false)
	require.NoError(t, err)

	assert.Len(t, withDecl, 3, "declaration plus two uses")
	assert.Len(t, withoutDecl, 2)
	for _, loc := range withoutDecl {
		assert.Equal(t, "file:///use.m", loc.URI)
	}
}

func TestReferences_WordBoundary(t *testing.T) {
	f := newFixture(t)
	f.addFile("file:///lib.m", "function sum2()\nend")
	f.addFile("file:///use.m", "sum2(); sum20();")

	locs, err := f.svc.References("file:///use.m", 1, 2, false)
	require.NoError(t, err)
	require.Len(t, locs, 1, "sum20 must not match sum2")
	assert.Equal(t, 1, locs[0].Range.Start.Column)
}

func TestDocumentSymbols_Hierarchy(t *testing.T) {
	f := newFixture(t)
	f.addFile("file:///Shape.m", `classdef Shape
    properties
        area
    end
    methods
        function a = measure(obj)
        end
    end
end
function outer()
    function inner()
    end
end
global tracker
`)

	symbols := f.svc.DocumentSymbols("file:///Shape.m")
	require.Len(t, symbols, 3)

	assert.Equal(t, "Shape", symbols[0].Name)
	require.Len(t, symbols[0].Children, 2)
	assert.Equal(t, "area", symbols[0].Children[0].Name)
	assert.Equal(t, "measure", symbols[0].Children[1].Name)

	assert.Equal(t, "outer", symbols[1].Name)
	require.Len(t, symbols[1].Children, 1)
	assert.Equal(t, "inner", symbols[1].Children[0].Name)

	assert.Equal(t, "tracker", symbols[2].Name)
	assert.Equal(t, types.KindVariable, symbols[2].Kind)
}

func TestDocumentSymbols_UnknownFile(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, f.svc.DocumentSymbols("file:///missing.m"))
}

func TestWorkspaceSymbols_FuzzyOrdering(t *testing.T) {
	f := newFixture(t)
	f.addFile("file:///a.m", `function load_signal()
end
function signal_loader()
end
function unrelated()
end
`)

	matches := f.svc.WorkspaceSymbols("load_signal", 10)
	require.NotEmpty(t, matches)
	assert.Equal(t, "load_signal", matches[0].Name, "best fuzzy match first")
	for _, m := range matches {
		assert.NotEqual(t, "unrelated", m.Name)
	}
}

func TestWorkspaceSymbols_EmptyQueryListsAll(t *testing.T) {
	f := newFixture(t)
	f.addFile("file:///a.m", "function alpha()\nend")
	f.addFile("file:///b.m", "function beta()\nend")

	matches := f.svc.WorkspaceSymbols("", 0)
	assert.Len(t, matches, 2)

	capped := f.svc.WorkspaceSymbols("", 1)
	assert.Len(t, capped, 1)
}
