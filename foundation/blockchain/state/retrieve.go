package state

import (
	"github.com/basicnode/ledger/foundation/blockchain/database"
	"github.com/basicnode/ledger/foundation/blockchain/genesis"
	"github.com/basicnode/ledger/foundation/blockchain/peer"
)

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveNodeID returns the id of this node derived from its key.
func (s *State) RetrieveNodeID() string {
	return s.nodeID
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveGenesisHash returns the hash of the genesis block every chain this
// node adopts must start with.
func (s *State) RetrieveGenesisHash() string {
	return s.genesisHash
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() (database.Block, error) {
	return s.db.LatestBlock()
}

// RetrieveChain returns a copy of the full chain. This is the snapshot
// peers receive when they sync with this node.
func (s *State) RetrieveChain() (database.Chain, error) {
	return s.db.Copy()
}

// RetrieveMempool returns a copy of the mempool.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// RetrieveStatus returns the status of this node as reported to peers.
func (s *State) RetrieveStatus() (peer.PeerStatus, error) {
	latest, err := s.db.LatestBlock()
	if err != nil {
		return peer.PeerStatus{}, err
	}

	status := peer.PeerStatus{
		NodeID:            s.nodeID,
		GenesisHash:       s.genesisHash,
		LatestBlockHash:   latest.Hash,
		LatestBlockNumber: latest.Index,
		KnownPeers:        s.RetrieveKnownPeers(),
	}

	return status, nil
}

// RetrieveHalted returns the reason the chain was halted or nil.
func (s *State) RetrieveHalted() error {
	s.haltMu.RLock()
	defer s.haltMu.RUnlock()

	return s.halted
}
