package gateway

import (
	"github.com/lumahq/companion/internal/conversation"
	"github.com/lumahq/companion/internal/memory"
)

// ChatRequest is the wire format accepted by POST /api/chat. Everything
// but the message is optional; the mobile client sends whatever context
// it holds locally.
type ChatRequest struct {
	Message             string              `json:"message"`
	ConversationHistory []conversation.Turn `json:"conversationHistory,omitempty"`
	Memories            []memory.Fact       `json:"memories,omitempty"`
	ConversationState   *conversation.State `json:"conversationState,omitempty"`
	// GroqAPIKey lets a client bring its own key instead of using the
	// server-side one.
	GroqAPIKey string `json:"groqApiKey,omitempty"`
}

// ChatResponse is the success envelope.
type ChatResponse struct {
	Response string `json:"response"`
}

// ErrorResponse is the failure envelope. Every failure, upstream or
// local, is normalized into this shape with a non-2xx status.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}
