// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Set of default values when the genesis file doesn't provide them.
const (
	DefaultDifficulty    = 4
	DefaultTransPerBlock = 10
	maxDifficulty        = 64
)

// Genesis represents the genesis file. These are the chain wide parameters
// every node in the network must agree on.
type Genesis struct {
	Date          time.Time `json:"date"`            // Timestamp of the genesis block.
	ChainID       uint16    `json:"chain_id"`        // The chain id represents an unique id for this running instance.
	Difficulty    uint16    `json:"difficulty"`      // Number of leading hex 0's a block hash needs.
	GenesisPOW    bool      `json:"genesis_pow"`     // The genesis block is mined and must meet the difficulty.
	TransPerBlock uint16    `json:"trans_per_block"` // The maximum number of transactions that can be in a block.
}

// Default returns the genesis information used when no file is provided.
func Default() Genesis {
	return Genesis{
		Date:          time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:       1,
		Difficulty:    DefaultDifficulty,
		GenesisPOW:    true,
		TransPerBlock: DefaultTransPerBlock,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Fields missing from the file
// take the default values.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis file: %w", err)
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the genesis values can run a chain.
func (g Genesis) Validate() error {
	if g.Difficulty > maxDifficulty {
		return fmt.Errorf("difficulty %d is greater than %d", g.Difficulty, maxDifficulty)
	}

	if g.TransPerBlock == 0 {
		return fmt.Errorf("trans_per_block must be greater than 0")
	}

	return nil
}
