package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/docchat/internal/mcp"
	"github.com/ziadkadry99/docchat/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve [files...]",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing document upload and question tools for AI agents. Files given as arguments are uploaded before serving.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		backend, cleanup, err := buildBackend(cfg, nil)
		if err != nil {
			return err
		}
		defer cleanup()

		svc := backend.Service(session.NewState("mcp", cfg.ModelConfig()))

		if len(args) > 0 {
			// uploadFiles reports on stderr; stdout carries the protocol.
			if _, err := uploadFiles(cmd.Context(), svc, silentReporter{}, args); err != nil {
				return err
			}
		}

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "docchat MCP server started on stdio (model=%s, documents=%d)\n", svc.ModelConfig().Model, len(svc.ListDocuments()))

		srv := mcpserver.NewServer(svc)
		return srv.Serve()
	},
}

// silentReporter discards progress.
type silentReporter struct{}

func (silentReporter) Start(int)          {}
func (silentReporter) Update(int, string) {}
func (silentReporter) Finish()            {}

func init() {
	rootCmd.AddCommand(serveCmd)
}
