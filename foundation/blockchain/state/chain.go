package state

import (
	"errors"
	"fmt"

	"github.com/basicnode/ledger/foundation/blockchain/database"
)

// Set of errors for handling blocks and chains from peers.
var (
	ErrChainNotLonger  = errors.New("candidate chain is not longer than the local chain")
	ErrGenesisMismatch = errors.New("candidate chain has a different genesis block")
	ErrChainForked     = errors.New("blockchain forked, start resync")
	ErrBlockNotNext    = errors.New("block is not the next block")
)

// Outcome represents what happened to a candidate chain.
type Outcome int

// Set of outcomes for a candidate chain.
const (
	Rejected Outcome = iota
	Adopted
)

// String implements the Stringer interface.
func (o Outcome) String() string {
	if o == Adopted {
		return "adopted"
	}
	return "rejected"
}

// =============================================================================

// ReceiveRemoteChain takes a full chain from a peer and replaces the local
// chain with it when the candidate is valid, shares our genesis block, and
// is longer. On a tie the local chain is kept.
func (s *State) ReceiveRemoteChain(candidate database.Chain) (Outcome, error) {
	if err := s.checkHalted(); err != nil {
		return Rejected, err
	}

	s.evHandler("state: ReceiveRemoteChain: started: blocks[%d]", len(candidate))
	defer s.evHandler("state: ReceiveRemoteChain: completed")

	if len(candidate) == 0 {
		return Rejected, fmt.Errorf("%w: chain has no blocks", database.ErrMalformedCandidate)
	}

	// The candidate is owned by the caller.
	candidate = candidate.Copy()

	if err := candidate.Validate(s.validateArgs()); err != nil {
		s.rejectEvent(candidate, err)
		return Rejected, err
	}

	if candidate[0].Hash != s.genesisHash {
		err := fmt.Errorf("%w: got %s, exp %s", ErrGenesisMismatch, candidate[0].Hash, s.genesisHash)
		s.rejectEvent(candidate, err)
		return Rejected, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.db.Copy()
	if err != nil {
		return Rejected, s.check(err)
	}

	if len(candidate) <= len(current) {
		err := fmt.Errorf("%w: got %d blocks, have %d", ErrChainNotLonger, len(candidate), len(current))
		s.rejectEvent(candidate, err)
		return Rejected, err
	}

	if err := s.db.Replace(candidate); err != nil {
		return Rejected, s.check(err)
	}

	orphaned, adopted := forkTrans(current, candidate)

	s.evHandler("state: ReceiveRemoteChain: adopted: blocks[%d]: orphaned trans[%d]: adopted trans[%d]", len(candidate), len(orphaned), len(adopted))

	s.mempool.DeleteAll(adopted)
	if len(orphaned) > 0 {
		s.mempool.Requeue(orphaned)
	}

	// Anything mined on the old tip is useless now.
	s.signalCancelMining()

	latest, _ := candidate.Latest()
	s.chainEvent("adopted", latest, len(candidate))

	return Adopted, nil
}

// ProcessProposedBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain. If the block
// doesn't build on our latest block, ErrChainForked tells the caller to
// request the full chain from the peer.
func (s *State) ProcessProposedBlock(block database.Block) error {
	if err := s.checkHalted(); err != nil {
		return err
	}

	s.evHandler("state: ProcessProposedBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.PrevBlockHash, block.Hash, len(block.Trans()))
	defer s.evHandler("state: ProcessProposedBlock: completed: newBlk[%s]", block.Hash)

	if err := s.appendRemote(block); err != nil {
		return err
	}

	// The G mining on the old tip needs to stop.
	s.signalCancelMining()

	s.blockEvent(block)

	return nil
}

// =============================================================================

// appendRemote adds the block from a peer to the chain under the chain lock.
func (s *State) appendRemote(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest, err := s.db.LatestBlock()
	if err != nil {
		return s.check(err)
	}

	switch {
	case block.Index <= latest.Index:
		return fmt.Errorf("%w: got blk[%d], latest blk[%d]", ErrBlockNotNext, block.Index, latest.Index)

	case block.Index > latest.Index+1:
		return fmt.Errorf("%w: got blk[%d], latest blk[%d]", ErrChainForked, block.Index, latest.Index)

	case block.PrevBlockHash != latest.Hash:
		return fmt.Errorf("%w: blk[%d] parent[%s], latest[%s]", ErrChainForked, block.Index, block.PrevBlockHash, latest.Hash)
	}

	if err := s.db.Append(block); err != nil {
		return s.check(err)
	}

	s.mempool.DeleteAll(block.Trans())

	return nil
}

// forkTrans finds the point where the two chains split. It returns the
// transactions from the abandoned local blocks that the new chain doesn't
// carry and the transactions from the new blocks.
func forkTrans(current database.Chain, candidate database.Chain) (orphaned []database.Tx, adopted []database.Tx) {
	fork := 0
	for fork < len(current) && fork < len(candidate) && current[fork].Hash == candidate[fork].Hash {
		fork++
	}

	onChain := make(map[database.Tx]int)
	for _, block := range candidate[fork:] {
		for _, tx := range block.Trans() {
			adopted = append(adopted, tx)
			onChain[tx]++
		}
	}

	for _, block := range current[fork:] {
		for _, tx := range block.Trans() {
			if onChain[tx] > 0 {
				onChain[tx]--
				continue
			}
			orphaned = append(orphaned, tx)
		}
	}

	return orphaned, adopted
}

// signalCancelMining tells a running mining operation to stop.
func (s *State) signalCancelMining() {
	if s.Worker != nil {
		s.Worker.SignalCancelMining()
	}
}

// validateArgs returns the chain parameters used for validation.
func (s *State) validateArgs() database.ValidateArgs {
	return database.ValidateArgs{
		Difficulty: s.genesis.Difficulty,
		GenesisPOW: s.genesis.GenesisPOW,
		EvHandler:  database.EventHandler(s.evHandler),
	}
}
