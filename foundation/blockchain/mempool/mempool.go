// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"sync"

	"github.com/basicnode/ledger/foundation/blockchain/database"
)

// Mempool represents the cache of transactions waiting to be mined, kept in
// the order they were received. The same transaction can be present more
// than once.
type Mempool struct {
	mu   sync.RWMutex
	pool []database.Tx
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds a transaction to the end of the mempool and returns the number
// of transactions in the pool.
func (mp *Mempool) Upsert(tx database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx)

	return len(mp.pool)
}

// Requeue puts the transactions back at the front of the mempool, ahead of
// anything received since.
func (mp *Mempool) Requeue(trans []database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	pool := make([]database.Tx, 0, len(trans)+len(mp.pool))
	pool = append(pool, trans...)
	mp.pool = append(pool, mp.pool...)

	return len(mp.pool)
}

// Delete removes the first occurrence of the transaction from the mempool.
// It returns false when the transaction is not in the pool.
func (mp *Mempool) Delete(tx database.Tx) bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for i := range mp.pool {
		if mp.pool[i] == tx {
			mp.pool = append(mp.pool[:i], mp.pool[i+1:]...)
			return true
		}
	}

	return false
}

// DeleteAll removes one occurrence of every transaction specified.
func (mp *Mempool) DeleteAll(trans []database.Tx) {
	for _, tx := range trans {
		mp.Delete(tx)
	}
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
}

// PickBest returns the oldest transactions in the pool for the next block.
// A value of -1 for howMany returns every transaction.
func (mp *Mempool) PickBest(howMany int) []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	if howMany < 0 || howMany > len(mp.pool) {
		howMany = len(mp.pool)
	}

	trans := make([]database.Tx, howMany)
	copy(trans, mp.pool)

	return trans
}

// Copy returns a copy of every transaction in the pool.
func (mp *Mempool) Copy() []database.Tx {
	return mp.PickBest(-1)
}
