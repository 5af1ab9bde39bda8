package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/codelens/matlab-context-mcp/internal/config"
	"github.com/codelens/matlab-context-mcp/internal/engine"
	"github.com/codelens/matlab-context-mcp/pkg/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "matlab-context-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DiagnosticsMethod is the notification method diagnostics are
	// published on
	DiagnosticsMethod = "matlab/diagnostics"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	engine *engine.Engine
}

// NewServer creates a new MCP server instance for a workspace root
func NewServer(cfg *config.Config) (*Server, error) {
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	eng := engine.New(cfg, &notifier{mcp: mcpServer})

	s := &Server{
		mcp:    mcpServer,
		engine: eng,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Engine exposes the underlying analysis engine
func (s *Server) Engine() *engine.Engine {
	return s.engine
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.engine.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(openDocumentTool(), s.handleOpenDocument)
	s.mcp.AddTool(changeDocumentTool(), s.handleChangeDocument)
	s.mcp.AddTool(closeDocumentTool(), s.handleCloseDocument)
	s.mcp.AddTool(completeTool(), s.handleComplete)
	s.mcp.AddTool(hoverTool(), s.handleHover)
	s.mcp.AddTool(definitionTool(), s.handleDefinition)
	s.mcp.AddTool(referencesTool(), s.handleReferences)
	s.mcp.AddTool(documentSymbolsTool(), s.handleDocumentSymbols)
	s.mcp.AddTool(workspaceSymbolsTool(), s.handleWorkspaceSymbols)
	s.mcp.AddTool(indexWorkspaceTool(), s.handleIndexWorkspace)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	return nil
}

// notifier publishes finished diagnostic sets as MCP notifications
type notifier struct {
	mcp *server.MCPServer
}

// Publish sends one file's diagnostics to every connected client. A nil
// or empty set retracts previously published diagnostics for the file.
func (n *notifier) Publish(uri string, diags []types.Diagnostic) {
	items := make([]map[string]interface{}, 0, len(diags))
	for _, d := range diags {
		items = append(items, map[string]interface{}{
			"range":    rangeJSON(d.Range),
			"severity": string(d.Severity),
			"message":  d.Message,
			"source":   d.Source,
			"code":     d.Code,
		})
	}
	n.mcp.SendNotificationToAllClients(DiagnosticsMethod, map[string]interface{}{
		"uri":         uri,
		"diagnostics": items,
	})
}

// rangeJSON renders a range as nested position objects
func rangeJSON(r types.Range) map[string]interface{} {
	return map[string]interface{}{
		"start": map[string]interface{}{"line": r.Start.Line, "column": r.Start.Column},
		"end":   map[string]interface{}{"line": r.End.Line, "column": r.End.Column},
	}
}
