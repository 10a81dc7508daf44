package gateway

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lumahq/companion/internal/llm"
)

// ProviderFunc builds a provider from a request-supplied API key.
type ProviderFunc func(apiKey string) llm.Provider

// Handler serves the chat gateway endpoint. Each request is independent:
// the handler reads context from the body, never from server-side state.
type Handler struct {
	service     *Service
	newProvider ProviderFunc
	opts        Options
}

// NewHandler creates a gateway handler. service may be built around a
// nil provider when no server-side key is configured; newProvider is
// used for keys supplied in the request body.
func NewHandler(service *Service, newProvider ProviderFunc) *Handler {
	return &Handler{service: service, newProvider: newProvider, opts: service.opts}
}

// RegisterRoutes mounts the gateway routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.handleChat)
	r.Options("/api/chat", h.handlePreflight)
}

// handlePreflight short-circuits CORS preflight before any parsing.
func (h *Handler) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	service := h.service
	if req.GroqAPIKey != "" && h.newProvider != nil {
		service = NewService(h.newProvider(req.GroqAPIKey), h.opts)
	}

	reply, err := service.Chat(r.Context(), req)
	if err != nil {
		log.Printf("gateway: chat failed: %v", err)
		status := http.StatusInternalServerError
		if errors.Is(err, ErrEmptyMessage) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ChatResponse{Response: reply})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: true, Message: message})
}
