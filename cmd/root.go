package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "luma",
	Short: "AI wellness companion with persistent memory",
	Long: `Luma is a warm, supportive AI companion. It remembers what users
share across conversations, guides new users through a gentle
onboarding flow, and serves the chat gateway the mobile app talks to.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".luma.yml", "config file path")
}
