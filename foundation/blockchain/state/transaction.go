package state

import (
	"github.com/basicnode/ledger/foundation/blockchain/database"
)

// SubmitTransaction accepts a transaction from a user for inclusion. The
// transaction is shared with the known peers.
func (s *State) SubmitTransaction(tx database.Tx) (int, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}

	n := s.mempool.Upsert(tx)
	s.evHandler("state: SubmitTransaction: tx[%s]: mempool[%d]", tx, n)

	if s.Worker != nil {
		s.Worker.SignalShareTx(tx)
		s.Worker.SignalStartMining()
	}

	return n, nil
}

// SubmitNodeTransaction accepts a transaction shared by a peer for inclusion.
// These are not shared again.
func (s *State) SubmitNodeTransaction(tx database.Tx) (int, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}

	n := s.mempool.Upsert(tx)
	s.evHandler("state: SubmitNodeTransaction: tx[%s]: mempool[%d]", tx, n)

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return n, nil
}
