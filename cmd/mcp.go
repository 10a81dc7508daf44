package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumahq/companion/internal/conversation"
	"github.com/lumahq/companion/internal/memory"
	mcpserver "github.com/lumahq/companion/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the companion's memories and conversation state as tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		conversations := conversation.NewStore(database)
		memories := memory.NewStore(database)

		recallIndex, err := buildRecallIndex(cmd.Context(), cfg, memories)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: semantic recall disabled: %v\n", err)
		}

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintln(os.Stderr, "luma MCP server started on stdio")

		srv := mcpserver.NewServer(memories, conversations, recallIndex)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
