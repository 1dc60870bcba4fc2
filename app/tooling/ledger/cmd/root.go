// Package cmd contains the ledger command line client.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	url     string
	nodeURL string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node public api.")
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "node-url", "n", "http://localhost:9080", "Url of the node private api.")
}

var rootCmd = &cobra.Command{
	Use:           "ledger",
	Short:         "Client for a basic proof of work ledger node",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the command specified on the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
