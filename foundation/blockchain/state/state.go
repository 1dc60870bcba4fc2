// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"

	"github.com/basicnode/ledger/foundation/blockchain/database"
	"github.com/basicnode/ledger/foundation/blockchain/genesis"
	"github.com/basicnode/ledger/foundation/blockchain/mempool"
	"github.com/basicnode/ledger/foundation/blockchain/peer"
	"github.com/basicnode/ledger/foundation/blockchain/signature"
)

// ErrHalted is returned by every call that changes the chain once the chain
// has been found without blocks.
var ErrHalted = errors.New("chain halted")

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining, peer updates, and transaction sharing.
type Worker interface {
	Shutdown()
	Sync()
	SignalStartMining()
	SignalCancelMining()
	SignalShareTx(tx database.Tx)
	SignalPeersChanged()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Genesis       genesis.Genesis
	Storage       database.Storage
	Host          string
	NodeKey       *ecdsa.PrivateKey
	KnownPeers    *peer.PeerSet
	MiningEnabled bool
	EvHandler     EventHandler
}

// State manages the blockchain database.
type State struct {
	mu       sync.Mutex // Serializes every change to the chain.
	appendMu sync.Mutex // Serializes local appends, including the mining.

	host          string
	nodeID        string
	nodeKey       *ecdsa.PrivateKey
	miningEnabled bool
	evHandler     EventHandler

	knownPeers  *peer.PeerSet
	genesis     genesis.Genesis
	genesisHash string
	mempool     *mempool.Mempool
	db          *database.Database

	haltMu sync.RWMutex
	halted error

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(ctx context.Context, cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.NodeKey == nil {
		return nil, errors.New("node key is required")
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	// Access the chain for the blockchain. This creates the genesis block
	// when the storage is empty.
	db, err := database.New(ctx, cfg.Genesis, cfg.Storage, database.EventHandler(ev))
	if err != nil {
		return nil, err
	}

	genesisBlock, err := db.GetBlock(0)
	if err != nil {
		return nil, fmt.Errorf("genesis block: %w", err)
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		host:          cfg.Host,
		nodeID:        signature.PublicKeyToNodeID(cfg.NodeKey.PublicKey),
		nodeKey:       cfg.NodeKey,
		miningEnabled: cfg.MiningEnabled,
		evHandler:     ev,

		knownPeers:  knownPeers,
		genesis:     cfg.Genesis,
		genesisHash: genesisBlock.Hash,
		mempool:     mempool.New(),
		db:          db,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Make sure the database is properly closed.
	defer func() {
		s.db.Close()
	}()

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// IsMiningEnabled reports if this node mines blocks.
func (s *State) IsMiningEnabled() bool {
	return s.miningEnabled
}

// =============================================================================

// halt records that the chain can no longer be trusted. Every later call
// that changes the chain fails.
func (s *State) halt(err error) error {
	s.haltMu.Lock()
	if s.halted == nil {
		s.halted = err
	}
	s.haltMu.Unlock()

	s.evHandler("state: HALTED: %s", err)

	return fmt.Errorf("%w: %w", ErrHalted, err)
}

// checkHalted returns an error if the chain was halted.
func (s *State) checkHalted() error {
	s.haltMu.RLock()
	defer s.haltMu.RUnlock()

	if s.halted != nil {
		return fmt.Errorf("%w: %w", ErrHalted, s.halted)
	}

	return nil
}

// check halts the chain when the error means the chain lost its blocks.
func (s *State) check(err error) error {
	if errors.Is(err, database.ErrEmptyChain) {
		return s.halt(err)
	}
	return err
}
