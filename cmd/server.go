package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/testmorph/internal/engine"
	"github.com/ziadkadry99/testmorph/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the conversion HTTP server",
	Long:  `Starts the testmorph HTTP server with a REST API for conversions, similarity search, feedback, and engine status, plus WebSocket conversion progress.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serverPort > 0 {
			cfg.Port = serverPort
		}

		eng, cleanup, err := openEngine(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		hub := engine.NewHub()
		srv := server.New(server.Config{
			Port:     cfg.Port,
			AllowAll: true,
		}, eng, hub)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		exemplars := 0
		if kb := eng.Knowledge(); kb != nil {
			exemplars = kb.Count()
		}

		fmt.Fprintf(os.Stderr, "testmorph server v%s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Database:  %s\n", cfg.DatabasePath())
		fmt.Fprintf(os.Stderr, "  Knowledge: %d exemplars\n", exemplars)

		return srv.Start()
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
