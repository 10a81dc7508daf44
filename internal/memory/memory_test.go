package memory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/lumahq/companion/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestUpsertAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	f := Fact{
		UserID:     "user-1",
		Key:        "name",
		Value:      "Maya",
		MemoryType: TypeFact,
		Importance: 5,
	}

	saved, err := store.Upsert(ctx, f)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if saved.ID == "" {
		t.Error("expected non-empty ID")
	}

	fetched, err := store.GetByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.Value != "Maya" {
		t.Errorf("expected Maya, got %q", fetched.Value)
	}
}

func TestUpsertReplacesExistingValue(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	store.Upsert(ctx, Fact{UserID: "user-1", Key: "occupation", Value: "nurse", MemoryType: TypeFact})
	store.Upsert(ctx, Fact{UserID: "user-1", Key: "occupation", Value: "nurse practitioner", MemoryType: TypeFact})

	facts, err := store.ListByUser(ctx, "user-1", ListFilter{Key: "occupation"})
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("expected 1 fact after upsert, got %d", len(facts))
	}
	if facts[0].Value != "nurse practitioner" {
		t.Errorf("expected updated value, got %q", facts[0].Value)
	}
}

func TestSameKeyAllowedAcrossTypes(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	store.Upsert(ctx, Fact{UserID: "user-1", Key: "running", Value: "runs daily", MemoryType: TypeInterest})
	store.Upsert(ctx, Fact{UserID: "user-1", Key: "running", Value: "run a marathon", MemoryType: TypeGoal})

	all, _ := store.ListByUser(ctx, "user-1", ListFilter{Key: "running"})
	if len(all) != 2 {
		t.Errorf("expected 2 facts with shared key, got %d", len(all))
	}
}

func TestListFilters(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	store.Upsert(ctx, Fact{UserID: "user-1", Key: "name", Value: "Maya", MemoryType: TypeFact, Importance: 5})
	store.Upsert(ctx, Fact{UserID: "user-1", Key: "work stress", Value: "deadline anxiety", MemoryType: TypeConcern, Importance: 4})
	store.Upsert(ctx, Fact{UserID: "user-1", Key: "sleep", Value: "sleep 8 hours", MemoryType: TypeGoal, Importance: 2})
	store.Upsert(ctx, Fact{UserID: "user-2", Key: "name", Value: "Jon", MemoryType: TypeFact, Importance: 5})

	all, _ := store.ListByUser(ctx, "user-1", ListFilter{})
	if len(all) != 3 {
		t.Fatalf("expected 3 facts for user-1, got %d", len(all))
	}
	// Ordered by importance DESC.
	if all[0].Key != "name" {
		t.Errorf("expected most important fact first, got %q", all[0].Key)
	}

	concerns, _ := store.ListByUser(ctx, "user-1", ListFilter{MemoryType: TypeConcern})
	if len(concerns) != 1 || concerns[0].Value != "deadline anxiety" {
		t.Errorf("unexpected concern filter result: %+v", concerns)
	}

	important, _ := store.ListByUser(ctx, "user-1", ListFilter{MinImportance: 4})
	if len(important) != 2 {
		t.Errorf("expected 2 facts with importance >= 4, got %d", len(important))
	}
}

func TestUpsertRejectsInvalidType(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.Upsert(context.Background(), Fact{UserID: "u", Key: "k", Value: "v", MemoryType: "mood"})
	if err == nil {
		t.Error("expected error for invalid memory type")
	}
}

func TestDelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	saved, _ := store.Upsert(ctx, Fact{UserID: "user-1", Key: "name", Value: "Maya", MemoryType: TypeFact})
	if err := store.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	fetched, _ := store.GetByID(ctx, saved.ID)
	if fetched != nil {
		t.Error("expected fact to be gone after delete")
	}

	if err := store.Delete(ctx, "missing"); err == nil {
		t.Error("expected error deleting unknown fact")
	}
}

func TestRoutes(t *testing.T) {
	store := setupTestStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store)

	// Create via POST.
	body := `{"key":"name","value":"Maya","memory_type":"fact","importance":5}`
	req := httptest.NewRequest("POST", "/api/memories/user-1", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	// List via GET.
	req = httptest.NewRequest("GET", "/api/memories/user-1", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var facts []Fact
	if err := json.Unmarshal(w.Body.Bytes(), &facts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(facts) != 1 || facts[0].Value != "Maya" {
		t.Errorf("unexpected list result: %+v", facts)
	}

	// Missing key rejected.
	req = httptest.NewRequest("POST", "/api/memories/user-1", strings.NewReader(`{"value":"x"}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing key, got %d", w.Code)
	}
}
