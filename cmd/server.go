package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docchat/internal/server"
	"github.com/ziadkadry99/docchat/internal/session"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the web server with REST API and live chat",
	Long:  `Starts the docchat web server. Each browser gets its own session with separate documents and conversations; idle sessions are dropped after server.session_ttl.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = cfg.Server.Port
		}
		ttl, err := cfg.Server.TTL()
		if err != nil {
			return fmt.Errorf("parsing server.session_ttl: %w", err)
		}

		// Uploads over HTTP report through the request log instead of a bar.
		backend, cleanup, err := buildBackend(cfg, nil)
		if err != nil {
			return err
		}
		defer cleanup()

		srv := server.New(server.Config{
			Port:       port,
			AllowAll:   cfg.Server.AllowAllOrigins,
			SessionTTL: ttl,
		}, backend, session.NewManager(cfg.ModelConfig()))

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "docchat server %s starting on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Model: %s\n", cfg.ModelConfig())
		if ttl > 0 {
			fmt.Fprintf(os.Stderr, "  Session TTL: %s\n", ttl)
		}
		if cfg.UsageDB != "" {
			fmt.Fprintf(os.Stderr, "  Usage ledger: %s\n", cfg.UsageDB)
		}

		if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().Int("port", 0, "port to listen on (default from config)")
	rootCmd.AddCommand(serverCmd)
}
