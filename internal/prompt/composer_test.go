package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lumahq/companion/internal/conversation"
	"github.com/lumahq/companion/internal/llm"
	"github.com/lumahq/companion/internal/memory"
)

func fact(key, value string, t memory.Type) memory.Fact {
	return memory.Fact{Key: key, Value: value, MemoryType: t}
}

func TestComposeIsDeterministic(t *testing.T) {
	memories := []memory.Fact{
		fact("name", "Maya", memory.TypeFact),
		fact("work stress", "deadline pressure", memory.TypeConcern),
	}
	state := &conversation.State{CurrentStage: conversation.StageLearningAbout}

	first := Compose(memories, state)
	second := Compose(memories, state)
	if first != second {
		t.Error("expected identical output for identical inputs")
	}
}

func TestCrisisBlockAlwaysPresent(t *testing.T) {
	inputs := []struct {
		memories []memory.Fact
		state    *conversation.State
	}{
		{nil, nil},
		{nil, &conversation.State{CurrentStage: conversation.StageGreeting}},
		{[]memory.Fact{fact("name", "Jon", memory.TypeFact)}, &conversation.State{OnboardingCompleted: true}},
	}
	for i, in := range inputs {
		out := Compose(in.memories, in.state)
		if !strings.Contains(out, "CRISIS SUPPORT") || !strings.Contains(out, "988") {
			t.Errorf("case %d: crisis block missing from prompt", i)
		}
	}
}

func TestRememberSectionOrderAndOmission(t *testing.T) {
	memories := []memory.Fact{
		fact("sleep", "sleep 8 hours", memory.TypeGoal),
		fact("work stress", "deadline pressure", memory.TypeConcern),
		fact("occupation", "a nurse", memory.TypeFact),
		fact("name", "Maya", memory.TypeFact),
		fact("loneliness", "feeling isolated", memory.TypeConcern),
	}

	out := Compose(memories, nil)

	nameIdx := strings.Index(out, "Their name is Maya.")
	occIdx := strings.Index(out, "They work as a nurse.")
	concernIdx := strings.Index(out, "Things weighing on them: deadline pressure, feeling isolated.")
	goalIdx := strings.Index(out, "Goals they are working toward: sleep 8 hours.")

	for i, idx := range []int{nameIdx, occIdx, concernIdx, goalIdx} {
		if idx < 0 {
			t.Fatalf("line %d missing from prompt:\n%s", i, out)
		}
	}
	if !(nameIdx < occIdx && occIdx < concernIdx && concernIdx < goalIdx) {
		t.Errorf("remember lines out of order: name=%d occ=%d concern=%d goal=%d", nameIdx, occIdx, concernIdx, goalIdx)
	}
}

func TestRememberSectionOmitsEmptyCategories(t *testing.T) {
	out := Compose([]memory.Fact{fact("name", "Jon", memory.TypeFact)}, nil)
	if !strings.Contains(out, "Their name is Jon.") {
		t.Error("expected name line")
	}
	if strings.Contains(out, "They work as") {
		t.Error("occupation line should be omitted")
	}
	if strings.Contains(out, "weighing on them") || strings.Contains(out, "working toward") {
		t.Error("empty categories should contribute no line")
	}
}

func TestRememberSectionAbsentWhenNoMemories(t *testing.T) {
	out := Compose(nil, nil)
	if strings.Contains(out, "WHAT YOU REMEMBER") {
		t.Error("no remember section expected for empty memories")
	}
}

func TestStageInstructionSelection(t *testing.T) {
	cases := []struct {
		name  string
		state *conversation.State
		want  string
	}{
		{"nil state", nil, instructionKnown},
		{"completed ignores stage", &conversation.State{OnboardingCompleted: true, CurrentStage: conversation.StageGreeting}, instructionKnown},
		{"greeting", &conversation.State{CurrentStage: conversation.StageGreeting}, stageGreeting},
		{"learning_name", &conversation.State{CurrentStage: conversation.StageLearningName}, stageLearningName},
		{"learning_about", &conversation.State{CurrentStage: conversation.StageLearningAbout}, stageLearningAbout},
		{"ongoing but not completed", &conversation.State{CurrentStage: conversation.StageOngoing}, stageDefault},
		{"unrecognized stage falls back", &conversation.State{CurrentStage: conversation.Stage("future_stage")}, stageDefault},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out := Compose(nil, c.state)
			if !strings.HasSuffix(out, c.want) {
				t.Errorf("expected prompt to end with %q instruction", c.name)
			}
		})
	}
}

func TestStageInstructionIsLastSection(t *testing.T) {
	memories := []memory.Fact{fact("name", "Maya", memory.TypeFact)}
	out := Compose(memories, &conversation.State{CurrentStage: conversation.StageGreeting})
	if !strings.HasSuffix(out, stageGreeting) {
		t.Error("stage instruction must be the final section")
	}
	if strings.Index(out, "WHAT YOU REMEMBER") < strings.Index(out, "HOW YOU TALK") {
		t.Error("remember section must follow the persona preamble")
	}
}

func TestBuildMessagesTruncatesHistory(t *testing.T) {
	var history []conversation.Turn
	for i := 0; i < 10; i++ {
		role := conversation.RoleUser
		if i%2 == 1 {
			role = conversation.RoleAssistant
		}
		history = append(history, conversation.Turn{Role: role, Content: fmt.Sprintf("turn %d", i)})
	}

	messages := BuildMessages("system text", history, "newest")

	// system + 6 history + user
	if len(messages) != 8 {
		t.Fatalf("expected 8 messages, got %d", len(messages))
	}
	if messages[0].Role != llm.RoleSystem || messages[0].Content != "system text" {
		t.Errorf("unexpected head: %+v", messages[0])
	}
	if messages[1].Content != "turn 4" {
		t.Errorf("expected history window to start at turn 4, got %q", messages[1].Content)
	}
	if messages[6].Content != "turn 9" {
		t.Errorf("expected history window to end at turn 9, got %q", messages[6].Content)
	}
	if last := messages[7]; last.Role != llm.RoleUser || last.Content != "newest" {
		t.Errorf("unexpected tail: %+v", last)
	}
}

func TestBuildMessagesShortHistoryKeptWhole(t *testing.T) {
	history := []conversation.Turn{
		{Role: conversation.RoleUser, Content: "hi"},
		{Role: conversation.RoleAssistant, Content: "hey"},
	}
	messages := BuildMessages("sys", history, "how are you")
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	if messages[1].Content != "hi" || messages[2].Content != "hey" {
		t.Errorf("history order not preserved: %+v", messages)
	}
}
