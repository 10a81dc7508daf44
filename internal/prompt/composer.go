// Package prompt assembles the companion's system prompt from what it
// knows about a user. Composition is a pure function of its inputs so
// the exact prompt sent upstream is reproducible in tests.
package prompt

import (
	"strings"

	"github.com/lumahq/companion/internal/conversation"
	"github.com/lumahq/companion/internal/llm"
	"github.com/lumahq/companion/internal/memory"
)

// HistoryWindow is the number of prior turns included with each request.
// Older turns are dropped to keep the prompt small; full history stays in
// the conversation store.
const HistoryWindow = 6

// NoResponsePlaceholder is returned to the user when the upstream
// provider produces no completion at all. A placeholder reads better in
// a chat bubble than a hard error.
const NoResponsePlaceholder = "(no response)"

// personaPreamble fixes the companion's identity and tone. The crisis
// block is part of the preamble and therefore present in every prompt,
// not gated on message content.
const personaPreamble = `You are Luma, a warm and emotionally attentive wellness companion inside a mood and journaling app.

HOW YOU TALK:
- Warm, casual, and genuine, like a close friend who listens well
- Keep replies short: 2-4 sentences, never a lecture
- Ask at most one question per reply
- Validate feelings before offering any suggestion
- Never diagnose, prescribe, or give medical advice

CRISIS SUPPORT:
If they express thoughts of self-harm, suicide, or harming others, take it seriously. Acknowledge their pain, tell them they deserve immediate support, and encourage them to reach the 988 Suicide & Crisis Lifeline (call or text 988) or their local emergency number. Stay kind and present. Never dismiss, argue, or change the subject.`

// Stage-contextual instructions. stageDefault is the deliberate
// catch-all for stages this build does not recognize.
const (
	instructionKnown = `You already know this person. Speak like a friend who remembers their life: use what you remember naturally, notice shifts in their mood, and check in on their goals and concerns when it fits the moment.`

	stageGreeting = `This is your very first exchange with this person. Welcome them warmly, introduce yourself briefly, and ask for their name.`

	stageLearningName = `You just met. If they shared their name, use it warmly, and ask one light question about their daily life, like what they do for work or study.`

	stageLearningAbout = `You are still getting acquainted. Ask gently about what brought them here: how they have been feeling lately, or what they hope this space gives them.`

	stageDefault = `You are still getting to know them. Stay curious, and ask light questions about their life when it feels natural.`
)

// Compose builds the system prompt for one exchange. Section order is
// fixed: persona, remembered facts, stage instruction. Identical inputs
// yield byte-identical output.
func Compose(memories []memory.Fact, state *conversation.State) string {
	sections := []string{personaPreamble}

	if remembered := rememberSection(memories); remembered != "" {
		sections = append(sections, remembered)
	}

	sections = append(sections, stageInstruction(state))

	return strings.Join(sections, "\n\n")
}

// rememberSection renders the "WHAT YOU REMEMBER" block. One line per
// non-empty category, in the order name, occupation, concerns, goals.
// Returns "" when nothing is known.
func rememberSection(memories []memory.Fact) string {
	var lines []string

	if name := firstValueByKey(memories, "name"); name != "" {
		lines = append(lines, "Their name is "+name+".")
	}
	if occupation := firstValueByKey(memories, "occupation"); occupation != "" {
		lines = append(lines, "They work as "+occupation+".")
	}
	if concerns := valuesByType(memories, memory.TypeConcern); len(concerns) > 0 {
		lines = append(lines, "Things weighing on them: "+strings.Join(concerns, ", ")+".")
	}
	if goals := valuesByType(memories, memory.TypeGoal); len(goals) > 0 {
		lines = append(lines, "Goals they are working toward: "+strings.Join(goals, ", ")+".")
	}

	if len(lines) == 0 {
		return ""
	}
	return "WHAT YOU REMEMBER:\n" + strings.Join(lines, "\n")
}

// stageInstruction selects the closing instruction. A nil state or
// completed onboarding always gets the "known person" variant regardless
// of the recorded stage.
func stageInstruction(state *conversation.State) string {
	if state == nil || state.OnboardingCompleted {
		return instructionKnown
	}
	switch state.CurrentStage {
	case conversation.StageGreeting:
		return stageGreeting
	case conversation.StageLearningName:
		return stageLearningName
	case conversation.StageLearningAbout:
		return stageLearningAbout
	default:
		return stageDefault
	}
}

func firstValueByKey(memories []memory.Fact, key string) string {
	for _, m := range memories {
		if m.Key == key {
			return m.Value
		}
	}
	return ""
}

func valuesByType(memories []memory.Fact, t memory.Type) []string {
	var values []string
	for _, m := range memories {
		if m.MemoryType == t {
			values = append(values, m.Value)
		}
	}
	return values
}

// BuildMessages assembles the outbound message list: the system prompt,
// the last HistoryWindow turns in original order, then the new user
// message.
func BuildMessages(system string, history []conversation.Turn, userMessage string) []llm.Message {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: llm.Role(turn.Role), Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})
	return messages
}
