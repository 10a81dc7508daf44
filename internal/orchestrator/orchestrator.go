// Package orchestrator drives one conversation exchange end to end:
// load context, call the chat gateway, persist the outcome, advance
// onboarding.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/lumahq/companion/internal/conversation"
	"github.com/lumahq/companion/internal/gateway"
	"github.com/lumahq/companion/internal/memory"
	"github.com/lumahq/companion/internal/prompt"
)

// Extractor learns new memory facts from a completed exchange. It runs
// after the reply is persisted and its failures never fail the exchange.
type Extractor interface {
	Extract(ctx context.Context, userID, userMessage, reply string) error
}

// Result is the outcome of a successful exchange.
type Result struct {
	Reply string             `json:"reply"`
	State conversation.State `json:"state"`
}

// Orchestrator coordinates stores and the chat gateway for one user
// turn. Exchanges for the same user are serialized: a read-modify-write
// over stage and history must not interleave with itself.
type Orchestrator struct {
	conversations *conversation.Store
	memories      *memory.Store
	chat          gateway.Completer
	extractor     Extractor

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// New creates an orchestrator. extractor may be nil to disable
// post-exchange memory extraction.
func New(conversations *conversation.Store, memories *memory.Store, chat gateway.Completer, extractor Extractor) *Orchestrator {
	return &Orchestrator{
		conversations: conversations,
		memories:      memories,
		chat:          chat,
		extractor:     extractor,
		userLocks:     make(map[string]*sync.Mutex),
	}
}

// SendMessage runs one exchange for the user. On success the user and
// assistant turns are appended to history and the onboarding stage
// advances exactly one step; on failure state and history are left
// untouched and the error is returned for the caller to surface.
func (o *Orchestrator) SendMessage(ctx context.Context, userID, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, gateway.ErrEmptyMessage
	}
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	lock := o.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	facts, err := o.memories.ListByUser(ctx, userID, memory.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("loading memories: %w", err)
	}

	state, err := o.conversations.GetOrCreateState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading conversation state: %w", err)
	}

	history, err := o.conversations.RecentTurns(ctx, userID, prompt.HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	reply, err := o.chat.Chat(ctx, gateway.ChatRequest{
		Message:             text,
		ConversationHistory: history,
		Memories:            facts,
		ConversationState:   state,
	})
	if err != nil {
		return nil, err
	}

	if _, err := o.conversations.AppendMessage(ctx, userID, conversation.RoleUser, text); err != nil {
		return nil, fmt.Errorf("persisting user turn: %w", err)
	}
	if _, err := o.conversations.AppendMessage(ctx, userID, conversation.RoleAssistant, reply); err != nil {
		return nil, fmt.Errorf("persisting assistant turn: %w", err)
	}

	if !state.OnboardingCompleted {
		state.Advance()
		if err := o.conversations.SaveState(ctx, state); err != nil {
			return nil, fmt.Errorf("advancing stage: %w", err)
		}
	}

	if o.extractor != nil {
		if err := o.extractor.Extract(ctx, userID, text, reply); err != nil {
			log.Printf("orchestrator: memory extraction for %s: %v", userID, err)
		}
	}

	return &Result{Reply: reply, State: *state}, nil
}

func (o *Orchestrator) userLock(userID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		o.userLocks[userID] = lock
	}
	return lock
}
