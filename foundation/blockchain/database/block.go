package database

import (
	"context"
	"fmt"
	"time"

	"github.com/basicnode/ledger/foundation/blockchain/genesis"
)

// Block represents a group of transactions batched together. A block is
// immutable once mined.
type Block struct {
	Index         uint32 // Position in the chain, 0 for genesis.
	Timestamp     int64  // Seconds since epoch the block was mined.
	PrevBlockHash string // Hash of the previous block in the chain.
	Hash          string // Hash over the other fields including the nonce.
	Nonce         uint64 // Value identified to solve the hash solution.
	trans         []Tx
}

// NewBlockArgs represents the set of arguments required to construct
// and mine a new block.
type NewBlockArgs struct {
	Index         uint32
	Trans         []Tx
	PrevBlockHash string
	Difficulty    uint16
	EvHandler     EventHandler
}

// NewBlock constructs a new Block and performs the work to find a nonce that
// solves the POW puzzle. The timestamp is captured at the time of the call.
func NewBlock(ctx context.Context, args NewBlockArgs) (Block, error) {
	if i, err := validateTrans(args.Trans); err != nil {
		return Block{}, fmt.Errorf("blk[%d]: tx[%d]: %w", args.Index, i, err)
	}

	trans := copyTrans(args.Trans)
	timestamp := time.Now().UTC().Unix()

	nonce, hash, err := Mine(ctx, MineArgs{
		Index:         args.Index,
		Timestamp:     timestamp,
		Trans:         trans,
		PrevBlockHash: args.PrevBlockHash,
		Difficulty:    args.Difficulty,
		EvHandler:     args.EvHandler,
	})
	if err != nil {
		return Block{}, err
	}

	b := Block{
		Index:         args.Index,
		Timestamp:     timestamp,
		PrevBlockHash: args.PrevBlockHash,
		Hash:          hash,
		Nonce:         nonce,
		trans:         trans,
	}

	return b, nil
}

// NewGenesisBlock constructs the genesis block from the genesis information.
// Every node with the same genesis file produces the same genesis block.
func NewGenesisBlock(ctx context.Context, gen genesis.Genesis, evHandler EventHandler) (Block, error) {
	timestamp := gen.Date.UTC().Unix()

	b := Block{
		Index:         0,
		Timestamp:     timestamp,
		PrevBlockHash: ZeroHash,
		trans:         []Tx{},
	}

	switch gen.GenesisPOW {
	case true:
		nonce, hash, err := Mine(ctx, MineArgs{
			Index:         0,
			Timestamp:     timestamp,
			Trans:         b.trans,
			PrevBlockHash: ZeroHash,
			Difficulty:    gen.Difficulty,
			EvHandler:     evHandler,
		})
		if err != nil {
			return Block{}, err
		}
		b.Nonce = nonce
		b.Hash = hash

	default:
		b.Hash = b.CalculateHash()
	}

	return b, nil
}

// Trans returns a copy of the transactions in the block.
func (b Block) Trans() []Tx {
	return copyTrans(b.trans)
}

// CalculateHash recomputes the hash of the block from its fields. This
// never trusts the Hash field.
func (b Block) CalculateHash() string {
	return CalculateHash(b.Index, b.Timestamp, b.trans, b.PrevBlockHash, b.Nonce)
}

// ValidateBlock takes a block and validates it to be the next block after
// the specified previous block.
func (b Block) ValidateBlock(prevBlock Block, difficulty uint16, evHandler EventHandler) error {
	ev := evHandler.safe()

	ev("database: ValidateBlock: validate: blk[%d]: check: block number is the next number", b.Index)

	nextIndex := prevBlock.Index + 1
	if b.Index != nextIndex {
		return linkageError("this block is not the next number, got %d, exp %d", b.Index, nextIndex)
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Index)

	if b.PrevBlockHash != prevBlock.Hash {
		return linkageError("parent block hash doesn't match our known parent, got %s, exp %s", b.PrevBlockHash, prevBlock.Hash)
	}

	return b.validateHash(difficulty, true, ev)
}

// validateHash recomputes the hash and, if required, checks it against the
// difficulty.
func (b Block) validateHash(difficulty uint16, checkPOW bool, ev EventHandler) error {
	ev("database: ValidateBlock: validate: blk[%d]: check: transactions can be hashed", b.Index)

	if i, err := validateTrans(b.trans); err != nil {
		return linkageError("tx[%d]: %s", i, err)
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: block hash does match block content", b.Index)

	hash := b.CalculateHash()
	if hash != b.Hash {
		return linkageError("block hash doesn't match block content, got %s, exp %s", b.Hash, hash)
	}

	if checkPOW {
		ev("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Index)

		if !IsHashSolved(difficulty, hash) {
			return linkageError("%s invalid block hash for difficulty %d", hash, difficulty)
		}
	}

	return nil
}

// =============================================================================

// BlockData represents what is serialized over the network. The field order
// is fixed and any change breaks the protocol.
type BlockData struct {
	Index         uint32 `json:"index"`
	Timestamp     int64  `json:"timestamp"`
	PrevBlockHash string `json:"previous_hash" validate:"required,len=64,hexadecimal"`
	Hash          string `json:"hash" validate:"required,len=64,hexadecimal"`
	Nonce         uint64 `json:"nonce"`
	Trans         []Tx   `json:"transactions" validate:"dive"`
}

// NewBlockData constructs the value to serialize over the network.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Index:         block.Index,
		Timestamp:     block.Timestamp,
		PrevBlockHash: block.PrevBlockHash,
		Hash:          block.Hash,
		Nonce:         block.Nonce,
		Trans:         block.Trans(),
	}
}

// ToBlock converts a BlockData into a Block. Only the structure is checked
// here, the chain rules are checked by validation.
func ToBlock(blockData BlockData) (Block, error) {
	if !isHash(blockData.PrevBlockHash) {
		return Block{}, malformedError("blk[%d]: previous hash %q is not a hash", blockData.Index, blockData.PrevBlockHash)
	}

	if !isHash(blockData.Hash) {
		return Block{}, malformedError("blk[%d]: hash %q is not a hash", blockData.Index, blockData.Hash)
	}

	if i, err := validateTrans(blockData.Trans); err != nil {
		return Block{}, malformedError("blk[%d]: tx[%d]: %s", blockData.Index, i, err)
	}

	b := Block{
		Index:         blockData.Index,
		Timestamp:     blockData.Timestamp,
		PrevBlockHash: blockData.PrevBlockHash,
		Hash:          blockData.Hash,
		Nonce:         blockData.Nonce,
		trans:         copyTrans(blockData.Trans),
	}

	return b, nil
}
