package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/lumahq/companion/internal/conversation"
	"github.com/lumahq/companion/internal/memory"
	"github.com/lumahq/companion/internal/recall"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the companion's memory and
// conversation state to other agents and tooling.
type Server struct {
	memories      *memory.Store
	conversations *conversation.Store
	recallIndex   *recall.Index
	mcp           *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
// recallIndex may be nil when no embedding provider is configured;
// recall_memories then falls back to importance-ordered listing.
func NewServer(memories *memory.Store, conversations *conversation.Store, recallIndex *recall.Index) *Server {
	s := &Server{
		memories:      memories,
		conversations: conversations,
		recallIndex:   recallIndex,
	}

	s.mcp = server.NewMCPServer(
		"luma",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(rememberFactTool, s.handleRememberFact)
	s.mcp.AddTool(recallMemoriesTool, s.handleRecallMemories)
	s.mcp.AddTool(getConversationStateTool, s.handleGetConversationState)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
