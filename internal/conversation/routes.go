package conversation

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the conversation state API routes. Registered
// as a flat pattern: the orchestrator owns the sibling
// /api/conversations/{userID}/messages route, and a mounted subrouter
// here would conflict with it.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Get("/api/conversations/{userID}", handleGet(store))
}

type conversationView struct {
	State    *State    `json:"state"`
	Messages []Message `json:"messages"`
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}

		state, err := store.GetOrCreateState(r.Context(), userID)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		messages, err := store.Recent(r.Context(), userID, limit)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if messages == nil {
			messages = []Message{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(conversationView{State: state, Messages: messages})
	}
}
