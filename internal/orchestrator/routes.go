package orchestrator

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lumahq/companion/internal/gateway"
)

type sendRequest struct {
	Message string `json:"message"`
}

// RegisterRoutes mounts the orchestrated send endpoint, used by clients
// that keep their conversation state server-side.
func RegisterRoutes(r chi.Router, o *Orchestrator) {
	r.Post("/api/conversations/{userID}/messages", handleSend(o))
}

func handleSend(o *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		var req sendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		result, err := o.SendMessage(r.Context(), userID, req.Message)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, gateway.ErrEmptyMessage) {
				status = http.StatusBadRequest
			}
			http.Error(w, `{"error":"`+err.Error()+`"}`, status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}
