package state

import (
	"github.com/basicnode/ledger/foundation/blockchain/peer"
)

// AddKnownPeer provides the ability to add a new peer. It returns true when
// the peer was not already known. This node is never added.
func (s *State) AddKnownPeer(pr peer.Peer) bool {
	if pr.Match(s.host) {
		return false
	}
	return s.knownPeers.Add(pr)
}

// RemoveKnownPeer removes the peer from the set of known peers.
func (s *State) RemoveKnownPeer(pr peer.Peer) {
	s.knownPeers.Remove(pr)
}
