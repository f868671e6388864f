package mcp

import (
	"context"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/roasbeef/propsum/internal/summary"
)

// GetProposalSummaryArgs are the arguments for the get_proposal_summary
// tool.
type GetProposalSummaryArgs struct {
	// ID is the proposal number.
	ID int64 `json:"id" jsonschema:"Non-negative proposal ID"`
}

// GetProposalSummaryResult is the result of the get_proposal_summary tool.
type GetProposalSummaryResult struct {
	ID          int64  `json:"id"`
	Description string `json:"description" jsonschema:"Original proposal text"`
	Summary     string `json:"summary" jsonschema:"Markdown summary of the proposal"`
	Cached      bool   `json:"cached" jsonschema:"Whether the summary was served from the cache"`
}

func (s *Server) handleGetProposalSummary(ctx context.Context,
	req *mcp.CallToolRequest,
	args GetProposalSummaryArgs) (*mcp.CallToolResult,
	GetProposalSummaryResult, error) {

	id, err := summary.ParseProposalID(strconv.FormatInt(args.ID, 10))
	if err != nil {
		return nil, GetProposalSummaryResult{}, err
	}

	env, err := s.service.Summarize(ctx, id)
	if err != nil {
		s.log.WarnContext(ctx, "get_proposal_summary failed",
			"proposal_id", args.ID, "error", err)

		return nil, GetProposalSummaryResult{}, err
	}

	return nil, GetProposalSummaryResult{
		ID:          env.ID,
		Description: env.Description,
		Summary:     env.Summary,
		Cached:      env.Cached,
	}, nil
}

// GetServiceStatsArgs is empty, the tool takes no arguments.
type GetServiceStatsArgs struct{}

func (s *Server) handleGetServiceStats(_ context.Context,
	_ *mcp.CallToolRequest,
	_ GetServiceStatsArgs) (*mcp.CallToolResult, summary.Stats, error) {

	return nil, s.service.Stats(), nil
}
