package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/lumahq/companion/internal/gateway"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type    string `json:"type"` // "response" or "error"
	Content string `json:"content"`
	Stage   string `json:"stage,omitempty"`
}

// handleWebSocket runs a chat loop over one connection. Each incoming
// message is a full orchestrated exchange; errors are transient and do
// not close the connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: read: %v", err)
			}
			return
		}

		if req.UserID == "" {
			s.sendWSError(conn, "user_id is required")
			continue
		}
		if req.Content == "" {
			s.sendWSError(conn, "content is required")
			continue
		}

		result, err := s.orchestrator.SendMessage(r.Context(), req.UserID, req.Content)
		if err != nil {
			if errors.Is(err, gateway.ErrEmptyMessage) {
				s.sendWSError(conn, "content is required")
			} else {
				s.sendWSError(conn, "exchange failed: "+err.Error())
			}
			continue
		}

		s.sendWS(conn, wsResponse{
			Type:    "response",
			Content: result.Reply,
			Stage:   string(result.State.CurrentStage),
		})
	}
}

func (s *Server) sendWS(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("ws: write: %v", err)
	}
}

func (s *Server) sendWSError(conn *websocket.Conn, message string) {
	s.sendWS(conn, wsResponse{Type: "error", Content: message})
}
