package memory

import "time"

// Type categorizes what kind of thing the companion has learned about a user.
type Type string

const (
	TypeFact        Type = "fact"
	TypePreference  Type = "preference"
	TypeGoal        Type = "goal"
	TypeConcern     Type = "concern"
	TypeAchievement Type = "achievement"
	TypeInterest    Type = "interest"
)

// ValidTypes is the set of recognized memory types.
var ValidTypes = map[Type]bool{
	TypeFact:        true,
	TypePreference:  true,
	TypeGoal:        true,
	TypeConcern:     true,
	TypeAchievement: true,
	TypeInterest:    true,
}

// Fact is a durable piece of knowledge about a user. Keys are unique per
// user within a memory type, but the same key may appear under different
// types (e.g. a "running" interest and a "running" goal).
type Fact struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Key        string    `json:"key"`   // e.g. "name", "occupation"
	Value      string    `json:"value"`
	MemoryType Type      `json:"memory_type"`
	Importance int       `json:"importance"` // 1-5, higher = more important
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListFilter controls which facts to return.
type ListFilter struct {
	MemoryType    Type
	Key           string
	MinImportance int
	Limit         int
}
