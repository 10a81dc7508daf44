package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lumahq/companion/internal/conversation"
	"github.com/lumahq/companion/internal/gateway"
	"github.com/lumahq/companion/internal/memory"
	"github.com/lumahq/companion/internal/orchestrator"
	"github.com/lumahq/companion/internal/recall"
)

// Config holds server configuration.
type Config struct {
	Port int
}

// Server is the companion API server: the chat gateway plus the
// conversation and memory surfaces the mobile client uses.
type Server struct {
	cfg          Config
	router       chi.Router
	httpServer   *http.Server
	orchestrator *orchestrator.Orchestrator
}

// New creates a server and mounts all routes. recallIndex may be nil
// when no embedding provider is configured.
func New(cfg Config, gw *gateway.Handler, orch *orchestrator.Orchestrator, conversations *conversation.Store, memories *memory.Store, recallIndex *recall.Index) *Server {
	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// The mobile app calls from file:// and app-scheme origins, so any
	// origin is allowed.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	gw.RegisterRoutes(r)
	orchestrator.RegisterRoutes(r, orch)
	conversation.RegisterRoutes(r, conversations)
	memory.RegisterRoutes(r, memories)
	if recallIndex != nil {
		recall.RegisterRoutes(r, recallIndex)
	}
	r.Get("/ws/chat", s.handleWebSocket)

	s.router = r
	return s
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("luma server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
