package conversation

import "time"

// Stage is an onboarding stage. A new user moves through the stages one
// exchange at a time; once onboarding completes the stage no longer matters.
type Stage string

const (
	StageGreeting      Stage = "greeting"
	StageLearningName  Stage = "learning_name"
	StageLearningAbout Stage = "learning_about"
	StageOngoing       Stage = "ongoing"
)

// Next returns the stage that follows s in the onboarding sequence.
// StageOngoing is terminal; unknown stages advance straight to it.
func (s Stage) Next() Stage {
	switch s {
	case StageGreeting:
		return StageLearningName
	case StageLearningName:
		return StageLearningAbout
	case StageLearningAbout:
		return StageOngoing
	default:
		return StageOngoing
	}
}

// State is the per-user conversation state. CurrentStage is only
// meaningful while OnboardingCompleted is false.
type State struct {
	UserID              string    `json:"user_id"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CurrentStage        Stage     `json:"current_stage"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Advance moves the state one step along the onboarding sequence.
// Advancing a completed state is a no-op.
func (s *State) Advance() {
	if s.OnboardingCompleted {
		return
	}
	s.CurrentStage = s.CurrentStage.Next()
	if s.CurrentStage == StageOngoing {
		s.OnboardingCompleted = true
	}
}

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single persisted conversation turn.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Turn is the wire form of a conversation turn, as exchanged with the
// chat gateway and the upstream provider.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
