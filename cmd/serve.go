package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/testmorph/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing conversion tools for AI agents like Claude Code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		eng, cleanup, err := openEngine(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		exemplars := 0
		if kb := eng.Knowledge(); kb != nil {
			exemplars = kb.Count()
		}
		fmt.Fprintf(os.Stderr, "testmorph MCP server started on stdio (model=%s, exemplars=%d)\n", cfg.Model, exemplars)

		srv := mcpserver.NewServer(eng)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
