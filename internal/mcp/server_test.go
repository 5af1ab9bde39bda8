package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codelens/matlab-context-mcp/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Workspace.Root = t.TempDir()
	cfg.Analyzer.Path = "definitely-not-on-path"
	cfg.Diagnostics.DebounceMs = 10

	s, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.engine.Close() })
	return s
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

// resultJSON decodes the text payload of a tool result
func resultJSON(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "expected text content")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &decoded))
	return decoded
}

func TestOpenThenComplete(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleOpenDocument(ctx, callRequest(map[string]interface{}{
		"uri":     "file:///main.m",
		"content": "function run_report()\nend\nrun_r",
	}))
	require.NoError(t, err)

	result, err := s.handleComplete(ctx, callRequest(map[string]interface{}{
		"uri":    "file:///main.m",
		"line":   float64(3),
		"column": float64(6),
	}))
	require.NoError(t, err)

	decoded := resultJSON(t, result)
	items, ok := decoded["items"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, items)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "run_report", first["label"])
}

func TestHoverRoundTrip(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleOpenDocument(ctx, callRequest(map[string]interface{}{
		"uri":     "file:///lib.m",
		"content": "% Adds two numbers.\nfunction c = add(a, b)\nc = a + b;\nend",
	}))
	require.NoError(t, err)

	result, err := s.handleHover(ctx, callRequest(map[string]interface{}{
		"uri":    "file:///lib.m",
		"line":   float64(2),
		"column": float64(15),
	}))
	require.NoError(t, err)

	decoded := resultJSON(t, result)
	assert.Equal(t, true, decoded["found"])
	assert.Contains(t, decoded["contents"], "c = add(a, b)")
}

func TestDefinitionAcrossDocuments(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	for uri, content := range map[string]string{
		"file:///lib.m": "function helper()\nend",
		"file:///use.m": "helper();",
	} {
		_, err := s.handleOpenDocument(ctx, callRequest(map[string]interface{}{
			"uri": uri, "content": content,
		}))
		require.NoError(t, err)
	}

	result, err := s.handleDefinition(ctx, callRequest(map[string]interface{}{
		"uri":    "file:///use.m",
		"line":   float64(1),
		"column": float64(2),
	}))
	require.NoError(t, err)

	decoded := resultJSON(t, result)
	locs := decoded["locations"].([]interface{})
	require.Len(t, locs, 1)
	assert.Equal(t, "file:///lib.m", locs[0].(map[string]interface{})["uri"])
}

func TestCloseDocumentRetractsState(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleOpenDocument(ctx, callRequest(map[string]interface{}{
		"uri": "file:///tmp.m", "content": "function temp()\nend",
	}))
	require.NoError(t, err)

	_, err = s.handleCloseDocument(ctx, callRequest(map[string]interface{}{
		"uri": "file:///tmp.m",
	}))
	require.NoError(t, err)

	result, err := s.handleDocumentSymbols(ctx, callRequest(map[string]interface{}{
		"uri": "file:///tmp.m",
	}))
	require.NoError(t, err)
	decoded := resultJSON(t, result)
	assert.Empty(t, decoded["symbols"])
}

func TestInvalidParams(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleOpenDocument(ctx, callRequest(map[string]interface{}{
		"content": "x = 1;",
	}))
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)

	_, err = s.handleComplete(ctx, callRequest(map[string]interface{}{
		"uri":    "file:///x.m",
		"line":   float64(0),
		"column": float64(1),
	}))
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidPosition, mcpErr.Code)
}

func TestGetStatusShape(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleOpenDocument(ctx, callRequest(map[string]interface{}{
		"uri": "file:///a.m", "content": "function one()\nend",
	}))
	require.NoError(t, err)

	result, err := s.handleGetStatus(ctx, callRequest(map[string]interface{}{}))
	require.NoError(t, err)

	decoded := resultJSON(t, result)
	index := decoded["index"].(map[string]interface{})
	assert.Equal(t, float64(1), index["files"])
	analyzer := decoded["analyzer"].(map[string]interface{})
	assert.Equal(t, false, analyzer["available"])
	assert.Equal(t, float64(1), decoded["open_documents"])
}

func TestWorkspaceSymbolsLimitValidation(t *testing.T) {
	s := newTestServer(t)
	_, err := s.handleWorkspaceSymbols(context.Background(), callRequest(map[string]interface{}{
		"query": "x",
		"limit": float64(9999),
	}))
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}
