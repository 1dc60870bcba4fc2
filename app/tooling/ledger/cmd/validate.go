package cmd

import (
	"fmt"

	"github.com/basicnode/ledger/foundation/blockchain/database"
	"github.com/basicnode/ledger/foundation/blockchain/genesis"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Fetch the chain and validate it locally.",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := validate(url)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "chain of %d blocks is valid\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// validate fetches the genesis information and the full chain from the node
// and runs the chain rules over it. It returns the number of blocks.
func validate(url string) (int, error) {
	var gen genesis.Genesis
	if err := get(fmt.Sprintf("%s/v1/genesis/list", url), &gen); err != nil {
		return 0, fmt.Errorf("genesis: %w", err)
	}

	data, err := blocks(url, "0", "latest")
	if err != nil {
		return 0, fmt.Errorf("blocks: %w", err)
	}

	chain, err := database.ToChain(data)
	if err != nil {
		return 0, err
	}

	args := database.ValidateArgs{
		Difficulty: gen.Difficulty,
		GenesisPOW: gen.GenesisPOW,
	}
	if err := chain.Validate(args); err != nil {
		return 0, err
	}

	return len(chain), nil
}
