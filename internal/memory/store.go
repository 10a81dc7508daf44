package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lumahq/companion/internal/db"
)

// Store manages persistence of memory facts.
type Store struct {
	db *db.DB
}

// NewStore creates a new memory store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Upsert inserts a fact, or updates its value and importance if the user
// already has a fact with the same type and key.
func (s *Store) Upsert(ctx context.Context, f Fact) (*Fact, error) {
	if f.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	if f.Key == "" {
		return nil, fmt.Errorf("key is required")
	}
	if !ValidTypes[f.MemoryType] {
		return nil, fmt.Errorf("invalid memory type %q", f.MemoryType)
	}
	if f.Importance == 0 {
		f.Importance = 3
	}
	if f.Importance < 1 || f.Importance > 5 {
		return nil, fmt.Errorf("importance must be between 1 and 5, got %d", f.Importance)
	}
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memory_facts (id, user_id, key, value, memory_type, importance, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, memory_type, key)
		 DO UPDATE SET value = excluded.value, importance = excluded.importance, updated_at = excluded.updated_at`,
		f.ID, f.UserID, f.Key, f.Value, f.MemoryType, f.Importance, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting fact: %w", err)
	}
	return &f, nil
}

// GetByID retrieves a fact by its ID.
func (s *Store) GetByID(ctx context.Context, id string) (*Fact, error) {
	var f Fact
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, key, value, memory_type, importance, created_at, updated_at
		 FROM memory_facts WHERE id = ?`, id,
	).Scan(&f.ID, &f.UserID, &f.Key, &f.Value, &f.MemoryType, &f.Importance, &f.CreatedAt, &f.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting fact: %w", err)
	}
	return &f, nil
}

// ListByUser returns a user's facts matching the filter, most important first.
func (s *Store) ListByUser(ctx context.Context, userID string, filter ListFilter) ([]Fact, error) {
	query := `SELECT id, user_id, key, value, memory_type, importance, created_at, updated_at
		 FROM memory_facts WHERE user_id = ?`
	args := []interface{}{userID}

	if filter.MemoryType != "" {
		query += " AND memory_type = ?"
		args = append(args, filter.MemoryType)
	}
	if filter.Key != "" {
		query += " AND key = ?"
		args = append(args, filter.Key)
	}
	if filter.MinImportance > 0 {
		query += " AND importance >= ?"
		args = append(args, filter.MinImportance)
	}

	query += " ORDER BY importance DESC, created_at ASC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing facts: %w", err)
	}
	defer rows.Close()

	var facts []Fact
	for rows.Next() {
		var f Fact
		if err := rows.Scan(&f.ID, &f.UserID, &f.Key, &f.Value, &f.MemoryType, &f.Importance, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning fact: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// Delete removes a fact by its ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM memory_facts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting fact: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("fact not found: %s", id)
	}
	return nil
}

// ListUserIDs returns every user that has at least one stored fact.
// Used to rebuild the recall index at startup.
func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM memory_facts ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountByUser returns the number of facts stored for a user.
func (s *Store) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memory_facts WHERE user_id = ?`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting facts: %w", err)
	}
	return count, nil
}
