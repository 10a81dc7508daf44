package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lumahq/companion/internal/conversation"
	"github.com/lumahq/companion/internal/db"
	"github.com/lumahq/companion/internal/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return NewServer(memory.NewStore(database), conversation.NewStore(database), nil)
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", result.Content[0])
	}
	return tc.Text
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"remember_fact", rememberFactTool, "remember_fact"},
		{"recall_memories", recallMemoriesTool, "recall_memories"},
		{"get_conversation_state", getConversationStateTool, "get_conversation_state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestHandleRememberFact(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	t.Run("stores fact", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"user_id":     "user-1",
			"key":         "name",
			"value":       "Dana",
			"memory_type": "fact",
			"importance":  5,
		}

		result, err := srv.handleRememberFact(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}

		facts, err := srv.memories.ListByUser(ctx, "user-1", memory.ListFilter{})
		if err != nil {
			t.Fatalf("ListByUser: %v", err)
		}
		if len(facts) != 1 || facts[0].Value != "Dana" || facts[0].Importance != 5 {
			t.Errorf("unexpected stored facts: %+v", facts)
		}
	})

	t.Run("missing value", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"user_id": "user-1",
			"key":     "name",
		}

		result, err := srv.handleRememberFact(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing value")
		}
	})

	t.Run("invalid memory type", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"user_id":     "user-1",
			"key":         "x",
			"value":       "y",
			"memory_type": "rumor",
		}

		result, err := srv.handleRememberFact(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for invalid memory_type")
		}
	})

	t.Run("out of range importance", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"user_id":    "user-1",
			"key":        "x",
			"value":      "y",
			"importance": 9,
		}

		result, err := srv.handleRememberFact(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for importance out of range")
		}
	})
}

func TestHandleRecallMemories(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	seed := []memory.Fact{
		{UserID: "user-1", Key: "name", Value: "Dana", MemoryType: memory.TypeFact, Importance: 5},
		{UserID: "user-1", Key: "running", Value: "train for a 10k", MemoryType: memory.TypeGoal, Importance: 3},
		{UserID: "user-2", Key: "name", Value: "Sam", MemoryType: memory.TypeFact, Importance: 5},
	}
	for _, f := range seed {
		if _, err := srv.memories.Upsert(ctx, f); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	t.Run("lists own memories only", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"user_id": "user-1"}

		result, err := srv.handleRecallMemories(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		text := textOf(t, result)
		if !strings.Contains(text, "Dana") || !strings.Contains(text, "10k") {
			t.Errorf("expected both memories, got: %s", text)
		}
		if strings.Contains(text, "Sam") {
			t.Errorf("leaked another user's memory: %s", text)
		}
	})

	t.Run("empty user", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"user_id": "nobody"}

		result, err := srv.handleRecallMemories(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(textOf(t, result), "No memories") {
			t.Errorf("expected empty notice, got: %s", textOf(t, result))
		}
	})

	t.Run("missing user_id", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleRecallMemories(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing user_id")
		}
	})
}

func TestHandleGetConversationState(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	if _, err := srv.conversations.AppendMessage(ctx, "user-1", conversation.RoleUser, "hi"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if _, err := srv.conversations.AppendMessage(ctx, "user-1", conversation.RoleAssistant, "hello"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"user_id": "user-1"}

	result, err := srv.handleGetConversationState(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := textOf(t, result)
	if !strings.Contains(text, "Stage: greeting") {
		t.Errorf("expected greeting stage, got: %s", text)
	}
	if !strings.Contains(text, "Messages exchanged: 2") {
		t.Errorf("expected message count 2, got: %s", text)
	}
	if !strings.Contains(text, "Onboarding complete: false") {
		t.Errorf("expected onboarding incomplete, got: %s", text)
	}
}
