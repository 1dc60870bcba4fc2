package state

import (
	"context"
	"errors"

	"github.com/basicnode/ledger/foundation/blockchain/database"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are not enough transactions.
var ErrNoTransactions = errors.New("no transactions in mempool")

// ErrStaleTip is returned when the latest block changed while a block was
// being mined.
var ErrStaleTip = database.ErrStaleTip

// =============================================================================

// Append mines a new block holding the specified transactions on top of the
// latest block and adds it to the chain. The mining can be cancelled with
// the context. ErrStaleTip means the chain moved during the mining and the
// block was dropped.
func (s *State) Append(ctx context.Context, trans []database.Tx) (database.Block, error) {
	if err := s.checkHalted(); err != nil {
		return database.Block{}, err
	}

	for _, tx := range trans {
		if err := tx.Validate(); err != nil {
			return database.Block{}, err
		}
	}

	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	tip, err := s.db.LatestBlock()
	if err != nil {
		return database.Block{}, s.check(err)
	}

	s.evHandler("state: Append: MINING: perform POW: blk[%d]: trans[%d]", tip.Index+1, len(trans))

	// The chain is not locked while mining so peers can keep changing it.
	block, err := database.NewBlock(ctx, database.NewBlockArgs{
		Index:         tip.Index + 1,
		Trans:         trans,
		PrevBlockHash: tip.Hash,
		Difficulty:    s.genesis.Difficulty,
		EvHandler:     database.EventHandler(s.evHandler),
	})
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: Append: MINING: update the chain")

	if err := s.appendLocal(block); err != nil {
		return database.Block{}, err
	}

	s.blockEvent(block)

	return block, nil
}

// MineNewBlock attempts to create a new block with a proper hash that can become
// the next block in the chain.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	// Are there enough transactions in the pool.
	if s.mempool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	trans := s.mempool.PickBest(int(s.genesis.TransPerBlock))

	return s.Append(ctx, trans)
}

// =============================================================================

// appendLocal writes the mined block under the chain lock and takes its
// transactions out of the mempool.
func (s *State) appendLocal(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Append(block); err != nil {
		return s.check(err)
	}

	s.mempool.DeleteAll(block.Trans())

	return nil
}
