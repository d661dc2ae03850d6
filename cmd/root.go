package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/xerochat/internal"
	"github.com/spf13/cobra"
)

var (
	verbose       bool
	configPath    string
	dataDir       string
	storageDriver string
	endpointURL   string
	version       string = "dev"
	commit        string = "unknown"
	date          string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xerochat",
	Short: "Chat with hosted language models from the terminal",
	Long: `A terminal chat client for hosted language models.

Conversations are kept locally as sessions, each with its own model.
Replies are rendered as sanitized Markdown with highlighted code blocks
and typeset math, and can be revealed with a typewriter effect.

Features:
  • Multiple sessions with per-session model selection
  • Image attachments sent alongside text
  • Typewriter reveal with adjustable speed
  • Copy code blocks from replies to the clipboard
  • Export as JSON, JSONL, Markdown, YAML, or HTML and import JSON

Quick Start:
  xerochat chat                          # Start an interactive conversation
  xerochat send "hello"                  # Send one message to the active session
  xerochat list                          # List sessions
  xerochat export --format md            # Export the active session as Markdown`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is config.yaml in the xerochat config directory)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding session data")
	rootCmd.PersistentFlags().StringVar(&storageDriver, "storage", "", "Storage driver: sqlite, file, or memory")
	rootCmd.PersistentFlags().StringVar(&endpointURL, "endpoint", "", "Chat endpoint URL")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
