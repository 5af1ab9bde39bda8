package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codelens/matlab-context-mcp/internal/query"
	"github.com/codelens/matlab-context-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams   = -32602 // Invalid method parameters
	ErrorCodeInternalError   = -32603 // Internal JSON-RPC error
	ErrorCodeInvalidPosition = -32001 // Position outside document bounds
	ErrorCodeUnknownDocument = -32002 // URI was never opened or indexed
)

// handleOpenDocument handles the open_document tool invocation
func (s *Server) handleOpenDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri, content, err := documentArgs(request)
	if err != nil {
		return nil, err
	}
	s.engine.NotifyChange(uri, content)
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"opened": true,
		"uri":    uri,
	})), nil
}

// handleChangeDocument handles the change_document tool invocation
func (s *Server) handleChangeDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri, content, err := documentArgs(request)
	if err != nil {
		return nil, err
	}
	s.engine.NotifyChange(uri, content)
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"changed": true,
		"uri":     uri,
	})), nil
}

// handleCloseDocument handles the close_document tool invocation
func (s *Server) handleCloseDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	uri, err := requireString(args, "uri")
	if err != nil {
		return nil, err
	}
	s.engine.NotifyClose(uri)
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"closed": true,
		"uri":    uri,
	})), nil
}

// handleComplete handles the complete tool invocation
func (s *Server) handleComplete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri, line, column, err := positionArgs(request)
	if err != nil {
		return nil, err
	}

	items, err := s.engine.Complete(uri, line, column)
	if err != nil {
		return nil, queryError(err)
	}

	results := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		entry := map[string]interface{}{
			"label": item.Label,
			"kind":  string(item.Kind),
		}
		if item.Detail != "" {
			entry["detail"] = item.Detail
		}
		if item.Documentation != "" {
			entry["documentation"] = item.Documentation
		}
		results = append(results, entry)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"items": results,
	})), nil
}

// handleHover handles the hover tool invocation
func (s *Server) handleHover(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri, line, column, err := positionArgs(request)
	if err != nil {
		return nil, err
	}

	hover, err := s.engine.Hover(uri, line, column)
	if err != nil {
		return nil, queryError(err)
	}
	if hover == nil {
		return mcp.NewToolResultText(formatJSON(map[string]interface{}{
			"found": false,
		})), nil
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"found":    true,
		"contents": hover.Contents,
		"range":    rangeJSON(hover.Range),
	})), nil
}

// handleDefinition handles the definition tool invocation
func (s *Server) handleDefinition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri, line, column, err := positionArgs(request)
	if err != nil {
		return nil, err
	}

	locs, err := s.engine.Definition(uri, line, column)
	if err != nil {
		return nil, queryError(err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"locations": locationsJSON(locs),
	})), nil
}

// handleReferences handles the references tool invocation
func (s *Server) handleReferences(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri, line, column, err := positionArgs(request)
	if err != nil {
		return nil, err
	}
	args, _ := arguments(request)
	includeDecl := getBoolDefault(args, "include_declaration", false)

	locs, err := s.engine.References(uri, line, column, includeDecl)
	if err != nil {
		return nil, queryError(err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"locations": locationsJSON(locs),
	})), nil
}

// handleDocumentSymbols handles the document_symbols tool invocation
func (s *Server) handleDocumentSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	uri, err := requireString(args, "uri")
	if err != nil {
		return nil, err
	}

	symbols := s.engine.DocumentSymbols(uri)
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"uri":     uri,
		"symbols": documentSymbolsJSON(symbols),
	})), nil
}

// handleWorkspaceSymbols handles the workspace_symbols tool invocation
func (s *Server) handleWorkspaceSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	q := getStringDefault(args, "query", "")
	limit := getIntDefault(args, "limit", 100)
	if limit < 1 || limit > 500 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 500", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	matches := s.engine.WorkspaceSymbols(q, limit)
	results := make([]map[string]interface{}, 0, len(matches))
	for _, sym := range matches {
		results = append(results, map[string]interface{}{
			"name":      sym.QualifiedName(),
			"kind":      string(sym.Kind),
			"uri":       sym.URI,
			"range":     rangeJSON(sym.Range),
			"signature": sym.Signature,
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"symbols": results,
	})), nil
}

// handleIndexWorkspace handles the index_workspace tool invocation
func (s *Server) handleIndexWorkspace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.engine.IndexWorkspace(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "workspace scan failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"files_scanned": stats.FilesScanned,
		"files_skipped": stats.FilesSkipped,
		"files_failed":  stats.FilesFailed,
		"duration_ms":   stats.Duration.Milliseconds(),
	}
	if len(stats.ErrorMessages) > 0 {
		if len(stats.ErrorMessages) > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = len(stats.ErrorMessages)
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := s.engine.Status()

	byKind := make(map[string]interface{}, len(status.Index.ByKind))
	for kind, count := range status.Index.ByKind {
		byKind[string(kind)] = count
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"workspace_root": status.WorkspaceRoot,
		"index": map[string]interface{}{
			"files":   status.Index.Files,
			"symbols": status.Index.Symbols,
			"by_kind": byKind,
		},
		"open_documents": status.OpenDocuments,
		"parse_cache": map[string]interface{}{
			"hits":      status.ParseCache.Hits,
			"misses":    status.ParseCache.Misses,
			"evictions": status.ParseCache.Evictions,
		},
		"analyzer": map[string]interface{}{
			"path":      status.AnalyzerPath,
			"available": status.AnalyzerReady,
		},
	})), nil
}

// Helper functions

// arguments extracts the raw argument map from a tool request
func arguments(request mcp.CallToolRequest) (map[string]interface{}, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	return args, nil
}

// documentArgs extracts the uri and content parameters shared by the
// open and change tools
func documentArgs(request mcp.CallToolRequest) (uri, content string, err error) {
	args, err := arguments(request)
	if err != nil {
		return "", "", err
	}
	uri, err = requireString(args, "uri")
	if err != nil {
		return "", "", err
	}
	content, ok := args["content"].(string)
	if !ok {
		return "", "", newMCPError(ErrorCodeInvalidParams, "content parameter is required", map[string]interface{}{
			"param":  "content",
			"reason": "missing",
		})
	}
	return uri, content, nil
}

// positionArgs extracts the uri/line/column parameters of cursor tools
func positionArgs(request mcp.CallToolRequest) (uri string, line, column int, err error) {
	args, err := arguments(request)
	if err != nil {
		return "", 0, 0, err
	}
	uri, err = requireString(args, "uri")
	if err != nil {
		return "", 0, 0, err
	}
	line = getIntDefault(args, "line", 0)
	column = getIntDefault(args, "column", 0)
	if line < 1 || column < 1 {
		return "", 0, 0, newMCPError(ErrorCodeInvalidPosition, "line and column must be 1-based positive integers", map[string]interface{}{
			"line":   line,
			"column": column,
		})
	}
	return uri, line, column, nil
}

// requireString extracts a mandatory non-empty string parameter
func requireString(args map[string]interface{}, key string) (string, error) {
	val, ok := args[key].(string)
	if !ok || val == "" {
		return "", newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	return val, nil
}

// queryError maps query-layer sentinel errors to MCP error codes
func queryError(err error) error {
	switch {
	case errors.Is(err, types.ErrInvalidPosition):
		return newMCPError(ErrorCodeInvalidPosition, "position outside document bounds", map[string]interface{}{
			"error": err.Error(),
		})
	default:
		return newMCPError(ErrorCodeInternalError, "query failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// locationsJSON renders query locations for a tool response
func locationsJSON(locs []query.Location) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(locs))
	for _, loc := range locs {
		out = append(out, map[string]interface{}{
			"uri":   loc.URI,
			"range": rangeJSON(loc.Range),
		})
	}
	return out
}

// documentSymbolsJSON renders a symbol hierarchy for a tool response
func documentSymbolsJSON(symbols []query.DocumentSymbol) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(symbols))
	for _, sym := range symbols {
		entry := map[string]interface{}{
			"name":  sym.Name,
			"kind":  string(sym.Kind),
			"range": rangeJSON(sym.Range),
		}
		if sym.Detail != "" {
			entry["detail"] = sym.Detail
		}
		if len(sym.Children) > 0 {
			entry["children"] = documentSymbolsJSON(sym.Children)
		}
		out = append(out, entry)
	}
	return out
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
