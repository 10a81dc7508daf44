package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/lumahq/companion/internal/conversation"
	"github.com/lumahq/companion/internal/db"
	"github.com/lumahq/companion/internal/gateway"
	"github.com/lumahq/companion/internal/memory"
)

// mockCompleter records chat calls and returns a canned reply.
type mockCompleter struct {
	mu    sync.Mutex
	calls []gateway.ChatRequest
	reply string
	err   error
}

func (m *mockCompleter) Chat(ctx context.Context, req gateway.ChatRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockCompleter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func setup(t *testing.T, chat gateway.Completer) (*Orchestrator, *conversation.Store, *memory.Store) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	conversations := conversation.NewStore(database)
	memories := memory.NewStore(database)
	return New(conversations, memories, chat, nil), conversations, memories
}

func TestStageProgressionThroughOnboarding(t *testing.T) {
	chat := &mockCompleter{reply: "nice to meet you"}
	o, conversations, _ := setup(t, chat)
	ctx := context.Background()

	wantStages := []conversation.Stage{
		conversation.StageLearningName,
		conversation.StageLearningAbout,
		conversation.StageOngoing,
	}
	for i, want := range wantStages {
		result, err := o.SendMessage(ctx, "user-1", "hello")
		if err != nil {
			t.Fatalf("exchange %d: %v", i, err)
		}
		if result.State.CurrentStage != want {
			t.Errorf("exchange %d: stage = %s, want %s", i, result.State.CurrentStage, want)
		}
	}

	state, _ := conversations.GetOrCreateState(ctx, "user-1")
	if !state.OnboardingCompleted {
		t.Error("expected onboarding completed after three exchanges")
	}

	// Fourth exchange is terminal: no further stage movement.
	result, err := o.SendMessage(ctx, "user-1", "hello again")
	if err != nil {
		t.Fatalf("fourth exchange: %v", err)
	}
	if result.State.CurrentStage != conversation.StageOngoing || !result.State.OnboardingCompleted {
		t.Errorf("terminal state changed: %+v", result.State)
	}
}

func TestFailedExchangeLeavesStateAndHistoryUntouched(t *testing.T) {
	chat := &mockCompleter{err: errors.New("provider down")}
	o, conversations, _ := setup(t, chat)
	ctx := context.Background()

	_, err := o.SendMessage(ctx, "user-1", "hello")
	if err == nil {
		t.Fatal("expected error from failing gateway")
	}

	state, _ := conversations.GetOrCreateState(ctx, "user-1")
	if state.CurrentStage != conversation.StageGreeting || state.OnboardingCompleted {
		t.Errorf("state advanced despite failure: %+v", state)
	}

	messages, _ := conversations.Recent(ctx, "user-1", 10)
	if len(messages) != 0 {
		t.Errorf("expected empty history after failure, got %d messages", len(messages))
	}
}

func TestSuccessfulExchangeAppendsBothTurns(t *testing.T) {
	chat := &mockCompleter{reply: "hi Maya!"}
	o, conversations, _ := setup(t, chat)
	ctx := context.Background()

	if _, err := o.SendMessage(ctx, "user-1", "I'm Maya"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	messages, _ := conversations.Recent(ctx, "user-1", 10)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != conversation.RoleUser || messages[0].Content != "I'm Maya" {
		t.Errorf("unexpected user turn: %+v", messages[0])
	}
	if messages[1].Role != conversation.RoleAssistant || messages[1].Content != "hi Maya!" {
		t.Errorf("unexpected assistant turn: %+v", messages[1])
	}
}

func TestEmptyMessageRejectedWithoutGatewayCall(t *testing.T) {
	chat := &mockCompleter{reply: "x"}
	o, _, _ := setup(t, chat)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := o.SendMessage(context.Background(), "user-1", text)
		if !errors.Is(err, gateway.ErrEmptyMessage) {
			t.Errorf("text %q: expected ErrEmptyMessage, got %v", text, err)
		}
	}
	if chat.callCount() != 0 {
		t.Errorf("expected no gateway calls, got %d", chat.callCount())
	}
}

func TestMemoriesAndStateForwardedToGateway(t *testing.T) {
	chat := &mockCompleter{reply: "ok"}
	o, _, memories := setup(t, chat)
	ctx := context.Background()

	memories.Upsert(ctx, memory.Fact{UserID: "user-1", Key: "name", Value: "Maya", MemoryType: memory.TypeFact})

	if _, err := o.SendMessage(ctx, "user-1", "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	req := chat.calls[0]
	if len(req.Memories) != 1 || req.Memories[0].Value != "Maya" {
		t.Errorf("memories not forwarded: %+v", req.Memories)
	}
	if req.ConversationState == nil || req.ConversationState.CurrentStage != conversation.StageGreeting {
		t.Errorf("state not forwarded: %+v", req.ConversationState)
	}
}

func TestHistoryWindowForwarded(t *testing.T) {
	chat := &mockCompleter{reply: "ok"}
	o, _, _ := setup(t, chat)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := o.SendMessage(ctx, "user-1", "ping"); err != nil {
			t.Fatalf("exchange %d: %v", i, err)
		}
	}

	// Fifth call saw 8 prior messages but only the last 6 as window.
	last := chat.calls[len(chat.calls)-1]
	if len(last.ConversationHistory) != 6 {
		t.Errorf("expected 6-turn window, got %d", len(last.ConversationHistory))
	}
}

func TestConcurrentSendsSerializePerUser(t *testing.T) {
	chat := &mockCompleter{reply: "ok"}
	o, conversations, _ := setup(t, chat)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.SendMessage(ctx, "user-1", "hello")
		}()
	}
	wg.Wait()

	// Serialized exchanges advance exactly three steps, not fewer.
	state, _ := conversations.GetOrCreateState(ctx, "user-1")
	if state.CurrentStage != conversation.StageOngoing || !state.OnboardingCompleted {
		t.Errorf("expected onboarding completed after 3 serialized exchanges, got %+v", state)
	}
	messages, _ := conversations.Recent(ctx, "user-1", 20)
	if len(messages) != 6 {
		t.Errorf("expected 6 messages, got %d", len(messages))
	}
}

type recordingExtractor struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *recordingExtractor) Extract(ctx context.Context, userID, userMessage, reply string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return e.err
}

func TestExtractorInvokedAfterSuccess(t *testing.T) {
	chat := &mockCompleter{reply: "ok"}
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	ext := &recordingExtractor{}
	o := New(conversation.NewStore(database), memory.NewStore(database), chat, ext)

	if _, err := o.SendMessage(context.Background(), "user-1", "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if ext.calls != 1 {
		t.Errorf("expected 1 extractor call, got %d", ext.calls)
	}
}

func TestExtractorFailureDoesNotFailExchange(t *testing.T) {
	chat := &mockCompleter{reply: "ok"}
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	ext := &recordingExtractor{err: errors.New("extraction broke")}
	o := New(conversation.NewStore(database), memory.NewStore(database), chat, ext)

	result, err := o.SendMessage(context.Background(), "user-1", "hello")
	if err != nil {
		t.Fatalf("exchange should survive extractor failure: %v", err)
	}
	if result.Reply != "ok" {
		t.Errorf("unexpected reply %q", result.Reply)
	}
}
