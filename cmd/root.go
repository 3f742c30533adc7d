package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "testmorph",
	Short: "AI-powered Cypress to Playwright test migration",
	Long: `Testmorph converts Cypress test suites into Playwright using an LLM
as the generation engine, wrapped in an adaptive layer that picks a
conversion strategy per file, runs auxiliary analysis tools, learns
reusable patterns from past conversions, and periodically reflects on
its own performance.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".testmorph.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
