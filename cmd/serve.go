package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lumahq/companion/internal/config"
	"github.com/lumahq/companion/internal/conversation"
	"github.com/lumahq/companion/internal/extractor"
	"github.com/lumahq/companion/internal/gateway"
	"github.com/lumahq/companion/internal/llm"
	"github.com/lumahq/companion/internal/memory"
	"github.com/lumahq/companion/internal/orchestrator"
	"github.com/lumahq/companion/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the companion API server",
	Long:  `Starts the HTTP server the mobile app talks to: the chat gateway, the conversation and memory APIs, and the WebSocket chat loop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort > 0 {
			cfg.Port = servePort
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		conversations := conversation.NewStore(database)
		memories := memory.NewStore(database)

		// A missing API key is not fatal: the gateway still serves
		// requests that carry their own key.
		provider, err := createProviderFromConfig(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			fmt.Fprintf(os.Stderr, "Chat requests must supply their own API key.\n")
			provider = nil
		}

		opts := chatOptionsFromConfig(cfg)
		service := gateway.NewService(provider, opts)
		gw := gateway.NewHandler(service, func(apiKey string) llm.Provider {
			return llm.NewGroqProvider(apiKey, opts.Model, "")
		})

		var ext orchestrator.Extractor
		if cfg.Extraction.Enabled && provider != nil {
			ext = extractor.New(memories, provider, cfg.Extraction.Model)
		}

		recallIndex, err := buildRecallIndex(cmd.Context(), cfg, memories)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: semantic recall disabled: %v\n", err)
		}

		orch := orchestrator.New(conversations, memories, service, ext)
		srv := server.New(server.Config{Port: cfg.Port}, gw, orch, conversations, memories, recallIndex)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "luma server v%s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Provider: %s (%s)\n", cfg.Provider, cfg.Model)
		if recallIndex != nil {
			fmt.Fprintf(os.Stderr, "  Recall index: %d memories\n", recallIndex.Count())
		}
		if envVar := config.APIKeyEnvVar(cfg.Provider); envVar != "" && provider == nil {
			fmt.Fprintf(os.Stderr, "  %s not set\n", envVar)
		}

		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "override the configured port")
	rootCmd.AddCommand(serveCmd)
}
