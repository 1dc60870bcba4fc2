package cmd

import (
	"fmt"

	"github.com/basicnode/ledger/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	sender    string
	recipient string
	amount    uint64
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := send(url, database.NewTx(sender, recipient, amount))
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "transaction added, mempool has %d\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&sender, "sender", "s", "", "Who is sending the amount.")
	sendCmd.Flags().StringVarP(&recipient, "recipient", "r", "", "Who is receiving the amount.")
	sendCmd.Flags().Uint64VarP(&amount, "amount", "a", 0, "Amount to send.")
	sendCmd.MarkFlagRequired("sender")
	sendCmd.MarkFlagRequired("recipient")
}

// send submits the transaction to the node and returns the size of the
// node's mempool.
func send(url string, tx database.Tx) (int, error) {
	var resp struct {
		Mempool int `json:"mempool"`
	}

	if err := post(fmt.Sprintf("%s/v1/tx/submit", url), tx, &resp); err != nil {
		return 0, err
	}

	return resp.Mempool, nil
}
