package state

import (
	"encoding/json"
	"fmt"

	"github.com/basicnode/ledger/foundation/blockchain/database"
)

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(database.NewBlockData(block))
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"block":%s}`, block.Hash, string(blockJSON))
}

// chainEvent provides a specific event about a chain received from a peer.
func (s *State) chainEvent(outcome string, latest database.Block, length int) {
	s.evHandler(`viewer: chain: {"outcome":%q,"length":%d,"latest_hash":%q}`, outcome, length, latest.Hash)
}

// rejectEvent provides a specific event about a candidate chain that was
// not adopted.
func (s *State) rejectEvent(candidate database.Chain, reason error) {
	var hash string
	if latest, err := candidate.Latest(); err == nil {
		hash = latest.Hash
	}

	s.evHandler(`viewer: chain: {"outcome":"rejected","length":%d,"latest_hash":%q,"reason":%q}`, len(candidate), hash, reason.Error())
}
