// Package main provides the sqlchat terminal client.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sqlchat",
	Short: "Chat with a relational database in natural language",
	Long: `sqlchat talks to a sqlchat API server: questions are translated to SQL,
executed against the configured dataset, and answered in natural language.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(newChatCmd(), newCreateDBCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
