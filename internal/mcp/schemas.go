package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// positionProperties are the shared uri/line/column parameters of the
// cursor-based tools
func positionProperties() map[string]interface{} {
	return map[string]interface{}{
		"uri": map[string]interface{}{
			"type":        "string",
			"description": "Document URI (e.g., file:///path/to/script.m)",
		},
		"line": map[string]interface{}{
			"type":        "integer",
			"description": "1-based line number",
			"minimum":     1,
		},
		"column": map[string]interface{}{
			"type":        "integer",
			"description": "1-based column number",
			"minimum":     1,
		},
	}
}

// openDocumentTool returns the tool definition for open_document
func openDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "open_document",
		Description: "Open a MATLAB document and register its content for analysis",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"uri": map[string]interface{}{
					"type":        "string",
					"description": "Document URI",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Full document text",
				},
			},
			Required: []string{"uri", "content"},
		},
	}
}

// changeDocumentTool returns the tool definition for change_document
func changeDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "change_document",
		Description: "Replace an open document's content, reindex it, and schedule diagnostics",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"uri": map[string]interface{}{
					"type":        "string",
					"description": "Document URI",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Full replacement text",
				},
			},
			Required: []string{"uri", "content"},
		},
	}
}

// closeDocumentTool returns the tool definition for close_document
func closeDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "close_document",
		Description: "Close a document, dropping its index entries and retracting its diagnostics",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"uri": map[string]interface{}{
					"type":        "string",
					"description": "Document URI",
				},
			},
			Required: []string{"uri"},
		},
	}
}

// completeTool returns the tool definition for complete
func completeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "complete",
		Description: "List ranked completion candidates at a cursor position",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: positionProperties(),
			Required:   []string{"uri", "line", "column"},
		},
	}
}

// hoverTool returns the tool definition for hover
func hoverTool() mcp.Tool {
	return mcp.Tool{
		Name:        "hover",
		Description: "Show signature and documentation for the symbol under the cursor",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: positionProperties(),
			Required:   []string{"uri", "line", "column"},
		},
	}
}

// definitionTool returns the tool definition for definition
func definitionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "definition",
		Description: "Resolve the token under the cursor to its defining locations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: positionProperties(),
			Required:   []string{"uri", "line", "column"},
		},
	}
}

// referencesTool returns the tool definition for references
func referencesTool() mcp.Tool {
	props := positionProperties()
	props["include_declaration"] = map[string]interface{}{
		"type":        "boolean",
		"description": "If true, include the declaration among the references",
		"default":     false,
	}
	return mcp.Tool{
		Name:        "references",
		Description: "Find uses of the token under the cursor across open documents",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   []string{"uri", "line", "column"},
		},
	}
}

// documentSymbolsTool returns the tool definition for document_symbols
func documentSymbolsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "document_symbols",
		Description: "List the hierarchical symbol outline of one document",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"uri": map[string]interface{}{
					"type":        "string",
					"description": "Document URI",
				},
			},
			Required: []string{"uri"},
		},
	}
}

// workspaceSymbolsTool returns the tool definition for workspace_symbols
func workspaceSymbolsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "workspace_symbols",
		Description: "Fuzzy-search symbols across every indexed file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Symbol name query; empty lists everything",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results (1-500)",
					"default":     100,
					"minimum":     1,
					"maximum":     500,
				},
			},
		},
	}
}

// indexWorkspaceTool returns the tool definition for index_workspace
func indexWorkspaceTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_workspace",
		Description: "Scan the workspace root and index every matching MATLAB file",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report index size, cache statistics, and analyzer availability",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
