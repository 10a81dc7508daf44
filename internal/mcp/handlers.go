package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lumahq/companion/internal/memory"
)

// handleRememberFact stores or updates a fact about a user.
func (s *Server) handleRememberFact(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}
	key, err := request.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: key"), nil
	}
	value, err := request.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: value"), nil
	}

	memType := memory.Type(request.GetString("memory_type", string(memory.TypeFact)))
	if !memory.ValidTypes[memType] {
		return mcp.NewToolResultError(fmt.Sprintf("invalid memory_type %q", memType)), nil
	}

	importance := request.GetInt("importance", 3)
	if importance < 1 || importance > 5 {
		return mcp.NewToolResultError("importance must be between 1 and 5"), nil
	}

	fact, err := s.memories.Upsert(ctx, memory.Fact{
		UserID:     userID,
		Key:        key,
		Value:      value,
		MemoryType: memType,
		Importance: importance,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("storing fact failed: %v", err)), nil
	}

	if s.recallIndex != nil {
		if err := s.recallIndex.Add(ctx, *fact); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("stored, but indexing failed: %v", err)), nil
		}
	}

	return mcp.NewToolResultText(fmt.Sprintf("Remembered %s/%s = %q for %s.", fact.MemoryType, fact.Key, fact.Value, userID)), nil
}

// handleRecallMemories returns what the companion knows about a user.
// With a query and an available index it searches semantically; otherwise
// it lists by importance.
func (s *Server) handleRecallMemories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}

	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	query := request.GetString("query", "")
	if query != "" && s.recallIndex != nil {
		matches, err := s.recallIndex.Search(ctx, userID, query, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("recall search failed: %v", err)), nil
		}
		if len(matches) == 0 {
			return mcp.NewToolResultText("No memories matched the query."), nil
		}
		facts := make([]memory.Fact, len(matches))
		for i, m := range matches {
			facts[i] = m.Fact
		}
		return mcp.NewToolResultText(formatFacts(facts)), nil
	}

	facts, err := s.memories.ListByUser(ctx, userID, memory.ListFilter{Limit: limit})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing memories failed: %v", err)), nil
	}
	if len(facts) == 0 {
		return mcp.NewToolResultText("No memories stored for this user yet."), nil
	}
	return mcp.NewToolResultText(formatFacts(facts)), nil
}

// handleGetConversationState reports where a user is in the conversation.
func (s *Server) handleGetConversationState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}

	state, err := s.conversations.GetOrCreateState(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading state failed: %v", err)), nil
	}
	count, err := s.conversations.CountMessages(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("counting messages failed: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Stage: %s\n", state.CurrentStage)
	fmt.Fprintf(&sb, "Onboarding complete: %t\n", state.OnboardingCompleted)
	fmt.Fprintf(&sb, "Messages exchanged: %d\n", count)
	return mcp.NewToolResultText(sb.String()), nil
}

// formatFacts renders facts as one line each for agent consumption.
func formatFacts(facts []memory.Fact) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d memories:\n", len(facts))
	for _, f := range facts {
		fmt.Fprintf(&sb, "- [%s, importance %d] %s: %s\n", f.MemoryType, f.Importance, f.Key, f.Value)
	}
	return sb.String()
}
