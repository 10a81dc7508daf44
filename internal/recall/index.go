// Package recall keeps a semantic index over memory facts, so the
// companion and its tools can surface the memories most relevant to
// what the user is talking about, not just the fixed prompt categories.
package recall

import (
	"context"
	"fmt"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/lumahq/companion/internal/embeddings"
	"github.com/lumahq/companion/internal/memory"
)

const collectionName = "memories"

// Match is a memory fact with its similarity to the query.
type Match struct {
	Fact       memory.Fact `json:"fact"`
	Similarity float32     `json:"similarity"`
}

// Index is an in-memory chromem-go index over memory facts.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewIndex creates an empty recall index backed by the given embedder.
func NewIndex(embedder embeddings.Embedder) (*Index, error) {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, nil, embeddings.ToChromemFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}
	return &Index{db: db, collection: col}, nil
}

// Add indexes one fact, replacing any previous document with the same ID.
func (ix *Index) Add(ctx context.Context, f memory.Fact) error {
	return ix.AddAll(ctx, []memory.Fact{f})
}

// AddAll indexes a batch of facts.
func (ix *Index) AddAll(ctx context.Context, facts []memory.Fact) error {
	if len(facts) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(facts))
	for i, f := range facts {
		docs[i] = chromem.Document{
			ID:      f.ID,
			Content: f.Key + ": " + f.Value,
			Metadata: map[string]string{
				"user_id":     f.UserID,
				"key":         f.Key,
				"value":       f.Value,
				"memory_type": string(f.MemoryType),
				"importance":  strconv.Itoa(f.Importance),
			},
		}
	}
	if err := ix.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("indexing facts: %w", err)
	}
	return nil
}

// Remove drops a fact from the index.
func (ix *Index) Remove(ctx context.Context, id string) error {
	return ix.collection.Delete(ctx, nil, nil, id)
}

// Count returns the number of indexed facts.
func (ix *Index) Count() int {
	return ix.collection.Count()
}

// Search returns up to limit facts for the user ranked by similarity to
// the query.
func (ix *Index) Search(ctx context.Context, userID, query string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 5
	}

	// chromem-go requires nResults <= collection size.
	count := ix.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := ix.collection.Query(ctx, query, limit, map[string]string{"user_id": userID}, nil)
	if err != nil {
		return nil, fmt.Errorf("recall query: %w", err)
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		importance, _ := strconv.Atoi(r.Metadata["importance"])
		matches[i] = Match{
			Fact: memory.Fact{
				ID:         r.ID,
				UserID:     r.Metadata["user_id"],
				Key:        r.Metadata["key"],
				Value:      r.Metadata["value"],
				MemoryType: memory.Type(r.Metadata["memory_type"]),
				Importance: importance,
			},
			Similarity: r.Similarity,
		}
	}
	return matches, nil
}

// LoadFromStore rebuilds the index from everything a store holds for the
// given users. Called at startup; the index itself is not persisted.
func (ix *Index) LoadFromStore(ctx context.Context, store *memory.Store, userIDs []string) error {
	for _, userID := range userIDs {
		facts, err := store.ListByUser(ctx, userID, memory.ListFilter{})
		if err != nil {
			return fmt.Errorf("loading facts for %s: %w", userID, err)
		}
		if err := ix.AddAll(ctx, facts); err != nil {
			return err
		}
	}
	return nil
}
