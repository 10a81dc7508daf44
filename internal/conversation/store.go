package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lumahq/companion/internal/db"
)

// Store manages persistence of conversation state and message history.
type Store struct {
	db *db.DB
}

// NewStore creates a new conversation store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// GetOrCreateState returns the user's conversation state, creating the
// default greeting state on first contact.
func (s *Store) GetOrCreateState(ctx context.Context, userID string) (*State, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	var st State
	var completed int
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, onboarding_completed, current_stage, created_at, updated_at
		 FROM conversation_state WHERE user_id = ?`, userID,
	).Scan(&st.UserID, &completed, &st.CurrentStage, &st.CreatedAt, &st.UpdatedAt)

	if err == nil {
		st.OnboardingCompleted = completed != 0
		return &st, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("getting conversation state: %w", err)
	}

	now := time.Now().UTC()
	st = State{
		UserID:       userID,
		CurrentStage: StageGreeting,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversation_state (user_id, onboarding_completed, current_stage, created_at, updated_at)
		 VALUES (?, 0, ?, ?, ?)`,
		st.UserID, st.CurrentStage, st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating conversation state: %w", err)
	}
	return &st, nil
}

// SaveState persists the user's conversation state.
func (s *Store) SaveState(ctx context.Context, st *State) error {
	completed := 0
	if st.OnboardingCompleted {
		completed = 1
	}
	st.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx,
		`UPDATE conversation_state SET onboarding_completed = ?, current_stage = ?, updated_at = ?
		 WHERE user_id = ?`,
		completed, st.CurrentStage, st.UpdatedAt, st.UserID,
	)
	if err != nil {
		return fmt.Errorf("saving conversation state: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("conversation state not found for user %s", st.UserID)
	}
	return nil
}

// AppendMessage adds a message to the user's history.
func (s *Store) AppendMessage(ctx context.Context, userID string, role Role, content string) (*Message, error) {
	m := Message{
		ID:        uuid.New().String(),
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_messages (id, user_id, role, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Role, m.Content, m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("appending message: %w", err)
	}
	return &m, nil
}

// Recent returns the last n messages for a user in chronological order.
func (s *Store) Recent(ctx context.Context, userID string, n int) ([]Message, error) {
	if n <= 0 {
		return nil, nil
	}

	// rowid preserves insertion order exactly; timestamps can tie.
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, role, content, created_at FROM
		   (SELECT rowid AS rid, id, user_id, role, content, created_at
		    FROM conversation_messages WHERE user_id = ?
		    ORDER BY rid DESC LIMIT ?)
		 ORDER BY rid ASC`,
		userID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("loading recent messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CountMessages returns the total number of messages stored for a user.
func (s *Store) CountMessages(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM conversation_messages WHERE user_id = ?", userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return count, nil
}

// RecentTurns returns the last n messages as wire turns.
func (s *Store) RecentTurns(ctx context.Context, userID string, n int) ([]Turn, error) {
	messages, err := s.Recent(ctx, userID, n)
	if err != nil {
		return nil, err
	}
	turns := make([]Turn, len(messages))
	for i, m := range messages {
		turns[i] = Turn{Role: m.Role, Content: m.Content}
	}
	return turns, nil
}
