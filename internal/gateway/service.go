package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lumahq/companion/internal/llm"
	"github.com/lumahq/companion/internal/prompt"
)

// Completer is the seam between the orchestrator and the chat gateway.
// The in-process Service and the HTTP Client both satisfy it.
type Completer interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// Options configure a chat Service.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	// Timeout bounds the single upstream call. Zero means no bound
	// beyond the caller's context.
	Timeout time.Duration
}

// DefaultOptions match the reference companion behavior: short, warm
// replies from a fast Groq-hosted model.
func DefaultOptions() Options {
	return Options{
		Model:       "llama-3.3-70b-versatile",
		Temperature: 0.85,
		MaxTokens:   200,
		Timeout:     30 * time.Second,
	}
}

// Service performs one upstream completion per chat request. It holds no
// per-request state and is safe for concurrent use across users.
type Service struct {
	provider llm.Provider
	opts     Options
}

// NewService creates a chat service backed by the given provider. A nil
// provider is allowed; Chat then fails with ErrNoAPIKey, which lets the
// handler fall back to request-supplied keys.
func NewService(provider llm.Provider, opts Options) *Service {
	if opts.Model == "" {
		opts.Model = DefaultOptions().Model
	}
	if opts.Temperature == 0 {
		opts.Temperature = DefaultOptions().Temperature
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = DefaultOptions().MaxTokens
	}
	return &Service{provider: provider, opts: opts}
}

// Chat validates the request, composes the system prompt, and issues
// exactly one completion call. No retries, no streaming.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", ErrEmptyMessage
	}
	if s.provider == nil {
		return "", ErrNoAPIKey
	}

	system := prompt.Compose(req.Memories, req.ConversationState)
	messages := prompt.BuildMessages(system, req.ConversationHistory, req.Message)

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:       s.opts.Model,
		Messages:    messages,
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	// A response with no usable completion degrades to a placeholder
	// rather than failing the whole exchange.
	if resp.Content == "" {
		return prompt.NoResponsePlaceholder, nil
	}
	return resp.Content, nil
}
