// Package mcp exposes the summary service as Model Context Protocol tools.
package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/roasbeef/propsum/internal/build"
	"github.com/roasbeef/propsum/internal/summary"
)

// SummaryService answers summary requests for already parsed ids.
type SummaryService interface {
	Summarize(ctx context.Context, id summary.ProposalID) (
		*summary.Envelope, error)

	Stats() summary.Stats
}

// Server wraps the MCP server with the summary service.
type Server struct {
	server  *mcp.Server
	service SummaryService
	log     *slog.Logger
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(service SummaryService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "propsum",
		Version: build.Version(),
	}, nil)

	s := &Server{
		server:  mcpServer,
		service: service,
		log:     log.With("component", "mcp"),
	}

	s.registerTools()

	return s
}

// Run starts the MCP server on the given transport.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.log.Info("MCP server starting")
	return s.server.Run(ctx, transport)
}

// Connect serves a single session on transport without blocking.
func (s *Server) Connect(ctx context.Context,
	transport mcp.Transport) (*mcp.ServerSession, error) {

	return s.server.Connect(ctx, transport, nil)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "get_proposal_summary",
		Description: "Get a structured markdown summary of a Nouns " +
			"governance proposal by its numeric ID",
	}, s.handleGetProposalSummary)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_service_stats",
		Description: "Get request and cache counters of the summary service",
	}, s.handleGetServiceStats)
}
