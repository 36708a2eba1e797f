package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docchat/internal/config"
	"github.com/ziadkadry99/docchat/internal/logger"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with your documents using retrieval-augmented generation",
	Long: `docchat ingests text, PDF, CSV, Excel and Word documents into per-document
vector indexes and answers questions grounded in their content. Each
document keeps its own conversation; a general chat mode talks to the
model directly.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	// Credentials may live in a .env file; real environment variables win.
	_ = godotenv.Load()
	exitOnError(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
