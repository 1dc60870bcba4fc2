// Package database handles all the lower level support for maintaining the
// blockchain. It owns the chain rules: hashing, mining, block and chain
// validation, and the mutex guarded chain that is only changed by appending
// the next block or replacing the whole chain.
package database

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/basicnode/ledger/foundation/blockchain/genesis"
)

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Storage interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// Database manages the chain of blocks. Every read and write of the chain
// happens under the mutex so a reader never sees a partial change.
type Database struct {
	mu          sync.RWMutex
	genesis     genesis.Genesis
	latestBlock Block
	length      int
	storage     Storage
	evHandler   EventHandler
}

// New constructs a new database. If the storage is empty the genesis block
// is created and written. If the storage has blocks, they are read and the
// whole chain is validated before it is used.
func New(ctx context.Context, gen genesis.Genesis, storage Storage, evHandler EventHandler) (*Database, error) {
	ev := evHandler.safe()

	db := Database{
		genesis:   gen,
		storage:   storage,
		evHandler: ev,
	}

	chain, err := db.readAll()
	if err != nil {
		return nil, err
	}

	switch len(chain) {
	case 0:
		ev("database: New: creating genesis block")

		block, err := NewGenesisBlock(ctx, gen, ev)
		if err != nil {
			return nil, fmt.Errorf("mining genesis block: %w", err)
		}

		if err := storage.Write(NewBlockData(block)); err != nil {
			return nil, fmt.Errorf("writing genesis block: %w", err)
		}
		chain = Chain{block}

	default:
		ev("database: New: validating stored blocks[%d]", len(chain))

		if err := chain.Validate(db.validateArgs()); err != nil {
			return nil, fmt.Errorf("stored chain: %w", err)
		}
	}

	db.latestBlock = chain[len(chain)-1]
	db.length = len(chain)

	return &db, nil
}

// Close closes the storage.
func (db *Database) Close() error {
	return db.storage.Close()
}

// Genesis returns the genesis information the chain runs with.
func (db *Database) Genesis() genesis.Genesis {
	return db.genesis
}

// LatestBlock returns the latest block. An error means the chain has lost
// its genesis block.
func (db *Database) LatestBlock() (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.length == 0 {
		return Block{}, ErrEmptyChain
	}

	return db.latestBlock, nil
}

// Length returns the number of blocks in the chain.
func (db *Database) Length() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.length
}

// Append validates the block is the next block for the current latest block
// and adds it to the chain. If the block was built on a different parent,
// ErrStaleTip is returned.
func (db *Database) Append(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.length == 0 {
		return ErrEmptyChain
	}

	latest := db.latestBlock
	if block.Index != latest.Index+1 || block.PrevBlockHash != latest.Hash {
		return fmt.Errorf("%w: latest blk[%d][%s]: block blk[%d] parent[%s]", ErrStaleTip, latest.Index, latest.Hash, block.Index, block.PrevBlockHash)
	}

	if err := block.ValidateBlock(latest, db.genesis.Difficulty, db.evHandler); err != nil {
		return err
	}

	if err := db.storage.Write(NewBlockData(block)); err != nil {
		return fmt.Errorf("writing blk[%d]: %w", block.Index, err)
	}

	db.latestBlock = block
	db.length++

	return nil
}

// Replace validates the candidate chain and swaps it in for the entire local
// chain. On any failure the local chain is left as it was.
func (db *Database) Replace(candidate Chain) error {
	if err := candidate.Validate(db.validateArgs()); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	current, err := db.readAll()
	if err != nil {
		return err
	}

	if err := db.writeAll(candidate); err != nil {

		// Put back what we had. If this fails there is no chain left.
		if rerr := db.writeAll(current); rerr != nil {
			db.length = 0
			db.latestBlock = Block{}
			return fmt.Errorf("%w: restoring chain: %s: after: %s", ErrEmptyChain, rerr, err)
		}

		return fmt.Errorf("replacing chain: %w", err)
	}

	db.latestBlock = candidate[len(candidate)-1]
	db.length = len(candidate)

	return nil
}

// Copy returns a copy of the entire chain.
func (db *Database) Copy() (Chain, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	chain, err := db.readAll()
	if err != nil {
		return nil, err
	}

	if len(chain) == 0 {
		return nil, ErrEmptyChain
	}

	return chain, nil
}

// GetBlock locates and returns the specified block by number.
func (db *Database) GetBlock(num uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	blockData, err := db.storage.GetBlock(num)
	if err != nil {
		return Block{}, err
	}

	return ToBlock(blockData)
}

// Validate revalidates the entire local chain.
func (db *Database) Validate() error {
	chain, err := db.Copy()
	if err != nil {
		return err
	}

	return chain.Validate(db.validateArgs())
}

// =============================================================================

// validateArgs returns the chain parameters used for validation.
func (db *Database) validateArgs() ValidateArgs {
	return ValidateArgs{
		Difficulty: db.genesis.Difficulty,
		GenesisPOW: db.genesis.GenesisPOW,
		EvHandler:  db.evHandler,
	}
}

// readAll reads every block from storage.
func (db *Database) readAll() (Chain, error) {
	var chain Chain

	iter := db.storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		block, err := ToBlock(blockData)
		if err != nil {
			return nil, err
		}
		chain = append(chain, block)
	}

	return chain, nil
}

// writeAll resets the storage and writes the specified chain.
func (db *Database) writeAll(chain Chain) error {
	if err := db.storage.Reset(); err != nil {
		return err
	}

	for _, block := range chain {
		if err := db.storage.Write(NewBlockData(block)); err != nil {
			return errors.Join(fmt.Errorf("writing blk[%d]", block.Index), err)
		}
	}

	return nil
}
