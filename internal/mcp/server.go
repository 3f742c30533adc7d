package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/testmorph/internal/engine"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes conversion tools.
type Server struct {
	engine *engine.Engine
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server around the given engine.
func NewServer(eng *engine.Engine) *Server {
	s := &Server{
		engine: eng,
	}

	s.mcp = server.NewMCPServer(
		"testmorph",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(convertTestTool, s.handleConvertTest)
	s.mcp.AddTool(findSimilarTool, s.handleFindSimilar)
	s.mcp.AddTool(engineStatusTool, s.handleEngineStatus)
	s.mcp.AddTool(submitFeedbackTool, s.handleSubmitFeedback)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
