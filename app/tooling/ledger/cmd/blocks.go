package cmd

import (
	"fmt"

	"github.com/basicnode/ledger/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	from string
	to   string
)

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Print the blocks in the chain.",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := blocks(url, from, to)
		if err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), data)
	},
}

func init() {
	rootCmd.AddCommand(blocksCmd)
	blocksCmd.Flags().StringVarP(&from, "from", "f", "0", "First block number.")
	blocksCmd.Flags().StringVarP(&to, "to", "t", "latest", "Last block number.")
}

// blocks returns the range of blocks from the node.
func blocks(url string, from string, to string) ([]database.BlockData, error) {
	var data []database.BlockData
	if err := get(fmt.Sprintf("%s/v1/blocks/list/%s/%s", url, from, to), &data); err != nil {
		return nil, err
	}

	return data, nil
}
