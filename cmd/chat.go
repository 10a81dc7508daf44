package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/lumahq/companion/internal/conversation"
	"github.com/lumahq/companion/internal/extractor"
	"github.com/lumahq/companion/internal/gateway"
	"github.com/lumahq/companion/internal/memory"
	"github.com/lumahq/companion/internal/orchestrator"
)

var chatUser string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the companion from the terminal",
	Long: `Runs an interactive chat session. Conversations and memories persist
in the local database, so the companion picks up where you left off.
When gateway_url is configured, completions go through that remote
gateway instead of calling the provider directly.`,
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

		var completer gateway.Completer
		var ext orchestrator.Extractor
		if cfg.GatewayURL != "" {
			completer = gateway.NewClient(cfg.GatewayURL)
		} else {
			provider, err := createProviderFromConfig(cfg)
			if err != nil {
				return err
			}
			completer = gateway.NewService(provider, chatOptionsFromConfig(cfg))
			if cfg.Extraction.Enabled {
				ext = extractor.New(memories, provider, cfg.Extraction.Model)
			}
		}

		orch := orchestrator.New(conversations, memories, completer, ext)

		fmt.Println("Chatting with Luma. Type 'exit' or press Ctrl-C to leave.")
		fmt.Println()

		for {
			prompt := promptui.Prompt{Label: "you"}
			text, err := prompt.Run()
			if err != nil {
				if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
					fmt.Println("Bye!")
					return nil
				}
				return err
			}

			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			if text == "exit" || text == "quit" {
				fmt.Println("Bye!")
				return nil
			}

			result, err := orch.SendMessage(cmd.Context(), chatUser, text)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Printf("luma> %s\n\n", result.Reply)
		}
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatUser, "user", "local", "user ID to chat as")
	rootCmd.AddCommand(chatCmd)
}
