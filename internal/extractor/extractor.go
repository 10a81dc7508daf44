// Package extractor learns durable memory facts from completed chat
// exchanges. It is deliberately decoupled from the exchange itself:
// extraction failures are logged by the caller and never surface to the
// user.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lumahq/companion/internal/llm"
	"github.com/lumahq/companion/internal/memory"
)

// Extractor runs a JSON-mode completion over an exchange and upserts
// whatever facts it finds.
type Extractor struct {
	memories *memory.Store
	provider llm.Provider
	model    string
}

// New creates an extractor.
func New(memories *memory.Store, provider llm.Provider, model string) *Extractor {
	return &Extractor{memories: memories, provider: provider, model: model}
}

// extractedFact is one candidate fact parsed from the model's response.
type extractedFact struct {
	Key        string `json:"key"`
	Value      string `json:"value"`
	MemoryType string `json:"memory_type"`
	Importance int    `json:"importance"`
}

type extractionResult struct {
	Facts []extractedFact `json:"facts"`
}

// Extract analyzes one user/assistant exchange and stores any new facts.
func (e *Extractor) Extract(ctx context.Context, userID, userMessage, reply string) error {
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model: e.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: extractionSystemPrompt},
			{Role: llm.RoleUser, Content: buildExchangePrompt(userMessage, reply)},
		},
		MaxTokens:   512,
		Temperature: 0.2,
		JSONMode:    true,
	})
	if err != nil {
		return fmt.Errorf("extraction completion: %w", err)
	}

	result, err := parseExtraction(resp.Content)
	if err != nil {
		return fmt.Errorf("parsing extraction response: %w", err)
	}

	for _, ef := range result.Facts {
		if ef.Key == "" || ef.Value == "" {
			continue
		}
		t := memory.Type(ef.MemoryType)
		if !memory.ValidTypes[t] {
			t = memory.TypeFact
		}
		importance := ef.Importance
		if importance < 1 || importance > 5 {
			importance = 3
		}
		_, err := e.memories.Upsert(ctx, memory.Fact{
			UserID:     userID,
			Key:        ef.Key,
			Value:      ef.Value,
			MemoryType: t,
			Importance: importance,
		})
		if err != nil {
			return fmt.Errorf("saving extracted fact %q: %w", ef.Key, err)
		}
	}
	return nil
}

func buildExchangePrompt(userMessage, reply string) string {
	var b strings.Builder
	b.WriteString("Exchange to analyze:\n\n")
	b.WriteString("User: ")
	b.WriteString(userMessage)
	b.WriteString("\n\nCompanion: ")
	b.WriteString(reply)
	return b.String()
}

// parseExtraction tolerates models that wrap JSON in code fences.
func parseExtraction(content string) (*extractionResult, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var result extractionResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

const extractionSystemPrompt = `You extract durable personal facts from a wellness-app chat exchange.

You MUST respond with valid JSON matching this schema:
{
  "facts": [
    {
      "key": "short stable identifier, e.g. name, occupation, sister, morning_runs",
      "value": "the fact itself, phrased briefly",
      "memory_type": "fact|preference|goal|concern|achievement|interest",
      "importance": 1-5
    }
  ]
}

Rules:
- Only extract things worth remembering across sessions: who they are, what they care about, goals, worries, wins, interests.
- Use key "name" for their name and "occupation" for what they do.
- Do not extract transient moods, pleasantries, or anything the companion said.
- Return {"facts": []} when the exchange contains nothing durable.`
