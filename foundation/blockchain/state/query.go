package state

import (
	"fmt"

	"github.com/basicnode/ledger/foundation/blockchain/database"
)

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// =============================================================================

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryChainLength returns the number of blocks in the chain.
func (s *State) QueryChainLength() int {
	return s.db.Length()
}

// QueryBlocksByNumber returns the set of blocks based on block numbers. The
// blocks come from one snapshot of the chain.
func (s *State) QueryBlocksByNumber(from uint64, to uint64) ([]database.Block, error) {
	chain, err := s.db.Copy()
	if err != nil {
		return nil, err
	}

	latest := uint64(len(chain) - 1)

	if from == QueryLatest {
		from = latest
		to = from
	}
	if to == QueryLatest || to > latest {
		to = latest
	}

	if from > to {
		return nil, fmt.Errorf("from %d is past to %d", from, to)
	}

	return chain[from : to+1], nil
}

// QueryValidateChain revalidates the whole local chain.
func (s *State) QueryValidateChain() error {
	return s.db.Validate()
}
