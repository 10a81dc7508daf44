package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lumahq/companion/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize luma configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the companion and generates a .luma.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
