package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/docchat/internal/assistant"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes document chat tools. A stdio
// connection serves a single client, so every tool call works on one
// session.
type Server struct {
	svc *assistant.Service
	mcp *server.MCPServer
}

// NewServer creates a new MCP server over svc.
func NewServer(svc *assistant.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"docchat",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(uploadDocumentTool, s.handleUploadDocument)
	s.mcp.AddTool(listDocumentsTool, s.handleListDocuments)
	s.mcp.AddTool(askDocumentTool, s.handleAskDocument)
	s.mcp.AddTool(askGeneralTool, s.handleAskGeneral)
	s.mcp.AddTool(getHistoryTool, s.handleGetHistory)
	s.mcp.AddTool(clearHistoryTool, s.handleClearHistory)
	s.mcp.AddTool(removeDocumentTool, s.handleRemoveDocument)
	s.mcp.AddTool(setModelTool, s.handleSetModel)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
