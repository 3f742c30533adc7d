package cmd

import (
	"github.com/spf13/cobra"
	"github.com/ziadkadry99/testmorph/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize testmorph configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure testmorph for your project and generates a .testmorph.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
