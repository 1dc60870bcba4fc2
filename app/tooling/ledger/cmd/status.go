package cmd

import (
	"fmt"

	"github.com/basicnode/ledger/foundation/blockchain/peer"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the status of the node.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var ps peer.PeerStatus
		if err := get(fmt.Sprintf("%s/v1/node/status", nodeURL), &ps); err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), ps)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
