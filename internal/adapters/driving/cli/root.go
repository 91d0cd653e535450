// Package cli implements the ragchat command line.
//
// Commands reach the core through package-level driving ports. Each port
// is built from the effective settings the first time a command needs it,
// unless a test has already set it.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

var (
	verbose    bool
	configPath string
	ephemeral  bool
)

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Chat with a Bangla/English text through retrieval-augmented generation",
	Long: `ragchat answers questions about a local text corpus.

Build the vector index once with 'ragchat index build', then ask questions
with 'ragchat ask', the interactive 'ragchat chat', the HTTP API started by
'ragchat serve', or an MCP client through 'ragchat mcp serve'.

Conversations are remembered per session in a SQLite database.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default ~/.ragchat/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false,
		"keep conversations in memory instead of the history database")
}

// SetVersion sets the version reported by 'ragchat version'.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the command line and releases what the command opened.
func Execute(ctx context.Context) error {
	defer closeAll()
	return rootCmd.ExecuteContext(ctx)
}
