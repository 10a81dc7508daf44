package memory

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the memory fact API routes.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/memories", func(r chi.Router) {
		r.Get("/{userID}", handleList(store))
		r.Post("/{userID}", handleUpsert(store))
		r.Delete("/{userID}/{id}", handleDelete(store))
	})
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		filter := ListFilter{}
		if v := r.URL.Query().Get("memory_type"); v != "" {
			filter.MemoryType = Type(v)
		}
		if v := r.URL.Query().Get("key"); v != "" {
			filter.Key = v
		}
		if v := r.URL.Query().Get("min_importance"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.MinImportance = n
			}
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Limit = n
			}
		}

		facts, err := store.ListByUser(r.Context(), userID, filter)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if facts == nil {
			facts = []Fact{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(facts)
	}
}

func handleUpsert(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f Fact
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		f.UserID = chi.URLParam(r, "userID")
		if f.Key == "" || f.Value == "" {
			http.Error(w, `{"error":"key and value are required"}`, http.StatusBadRequest)
			return
		}
		if f.MemoryType == "" {
			f.MemoryType = TypeFact
		}

		saved, err := store.Upsert(r.Context(), f)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(saved)
	}
}

func handleDelete(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := store.Delete(r.Context(), id); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}
