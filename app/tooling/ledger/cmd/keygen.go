package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/basicnode/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var keyPath string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new node key",
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeID, err := keygen(keyPath)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "node id %s written to %s\n", nodeID, keyPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().StringVarP(&keyPath, "key", "k", "zblock/node.ecdsa", "Path to write the node key.")
}

// keygen writes a new node key and returns the node id for it. An existing
// key is never overwritten.
func keygen(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("key %s already exists", path)
	}

	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	if err := crypto.SaveECDSA(path, privateKey); err != nil {
		return "", err
	}

	return signature.PublicKeyToNodeID(privateKey.PublicKey), nil
}
