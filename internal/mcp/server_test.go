package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/roasbeef/propsum/internal/summary"
)

// stubService records the ids it was asked for.
type stubService struct {
	calls []summary.ProposalID
	err   error
}

func (s *stubService) Summarize(
	_ context.Context, id summary.ProposalID,
) (*summary.Envelope, error) {
	s.calls = append(s.calls, id)
	if s.err != nil {
		return nil, s.err
	}

	return &summary.Envelope{
		ID:          int64(id),
		Description: "Fund bridge repair",
		Summary:     "**TL;DR 📌** Repair.",
	}, nil
}

func (s *stubService) Stats() summary.Stats {
	return summary.Stats{Requests: uint64(len(s.calls))}
}

// connect wires a client session to a fresh server over in-memory
// transports.
func connect(t *testing.T, svc SummaryService) *mcp.ClientSession {
	t.Helper()

	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	srv := NewServer(svc, nil)
	serverSession, err := srv.Connect(ctx, serverTransport)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{
		Name: "propsum-test", Version: "v0.0.1",
	}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	return session
}

// TestNewServer verifies that the tool schemas are valid.
func TestNewServer(t *testing.T) {
	require.NotNil(t, NewServer(&stubService{}, nil))
}

func TestListTools(t *testing.T) {
	session := connect(t, &stubService{})

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"get_proposal_summary", "get_service_stats",
	}, names)
}

func TestGetProposalSummary(t *testing.T) {
	svc := &stubService{}
	session := connect(t, svc)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_proposal_summary",
		Arguments: map[string]any{"id": 7},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)

	var got GetProposalSummaryResult
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, GetProposalSummaryResult{
		ID:          7,
		Description: "Fund bridge repair",
		Summary:     "**TL;DR 📌** Repair.",
	}, got)
	require.Equal(t, []summary.ProposalID{7}, svc.calls)
}

func TestGetProposalSummaryErrors(t *testing.T) {
	svc := &stubService{err: &summary.Error{
		Kind: summary.KindNotFound,
		Msg:  "Proposal #5 does not exist.",
	}}
	session := connect(t, svc)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_proposal_summary",
		Arguments: map[string]any{"id": 5},
	})
	require.NoError(t, err)
	require.True(t, res.IsError)

	// Negative ids never reach the service.
	res, err = session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_proposal_summary",
		Arguments: map[string]any{"id": -3},
	})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Equal(t, []summary.ProposalID{5}, svc.calls)
}
