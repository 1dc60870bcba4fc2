package database

// Chain represents an ordered sequence of blocks where the block at
// position i carries the index i.
type Chain []Block

// ValidateArgs represents the chain parameters used to validate a chain.
type ValidateArgs struct {
	Difficulty uint16
	GenesisPOW bool
	EvHandler  EventHandler
}

// Validate walks the entire chain from genesis checking every block is
// linked to its parent, its hash recomputes, and its hash meets the
// difficulty. The first failure is returned as a *ValidationError.
func (c Chain) Validate(args ValidateArgs) error {
	ev := args.EvHandler.safe()

	if len(c) == 0 {
		return ErrEmptyChain
	}

	ev("database: Validate: started: blocks[%d]", len(c))

	genesis := c[0]
	if genesis.Index != 0 {
		return &ValidationError{Index: 0, Err: linkageError("genesis block number is %d", genesis.Index)}
	}

	if genesis.PrevBlockHash != ZeroHash {
		return &ValidationError{Index: 0, Err: linkageError("genesis parent hash is %s", genesis.PrevBlockHash)}
	}

	if err := genesis.validateHash(args.Difficulty, args.GenesisPOW, ev); err != nil {
		return &ValidationError{Index: 0, Err: err}
	}

	for i := 1; i < len(c); i++ {
		if err := c[i].ValidateBlock(c[i-1], args.Difficulty, ev); err != nil {
			return &ValidationError{Index: i, Err: err}
		}
	}

	ev("database: Validate: completed: blocks[%d]", len(c))

	return nil
}

// IsValid returns true when the chain passes validation.
func (c Chain) IsValid(args ValidateArgs) bool {
	return c.Validate(args) == nil
}

// Latest returns the last block in the chain.
func (c Chain) Latest() (Block, error) {
	if len(c) == 0 {
		return Block{}, ErrEmptyChain
	}

	return c[len(c)-1], nil
}

// Genesis returns the first block in the chain.
func (c Chain) Genesis() (Block, error) {
	if len(c) == 0 {
		return Block{}, ErrEmptyChain
	}

	return c[0], nil
}

// Copy returns a deep copy of the chain.
func (c Chain) Copy() Chain {
	cpy := make(Chain, len(c))
	for i, block := range c {
		block.trans = copyTrans(block.trans)
		cpy[i] = block
	}

	return cpy
}

// =============================================================================

// NewChainData constructs the value to serialize over the network.
func NewChainData(c Chain) []BlockData {
	data := make([]BlockData, len(c))
	for i, block := range c {
		data[i] = NewBlockData(block)
	}

	return data
}

// ToChain converts the serialized blocks into a chain. The position of every
// block must match its index.
func ToChain(data []BlockData) (Chain, error) {
	if len(data) == 0 {
		return nil, malformedError("chain has no blocks")
	}

	c := make(Chain, len(data))
	for i, blockData := range data {
		if int(blockData.Index) != i {
			return nil, malformedError("block at position %d has number %d", i, blockData.Index)
		}

		block, err := ToBlock(blockData)
		if err != nil {
			return nil, err
		}
		c[i] = block
	}

	return c, nil
}
