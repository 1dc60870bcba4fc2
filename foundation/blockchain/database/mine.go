package database

import (
	"context"
	"errors"
	"math"
)

// ErrNonceExhausted is returned when no nonce solves the block for the
// timestamp it was built with. The caller builds a new block.
var ErrNonceExhausted = errors.New("nonce space exhausted")

// cancelCheckInterval is the number of attempts between checks of the
// context for cancellation.
const cancelCheckInterval = 1 << 10

// EventHandler defines a function that is called when events occur in the
// processing of blocks.
type EventHandler func(v string, args ...any)

// safe returns an event handler that can always be called.
func (ev EventHandler) safe() EventHandler {
	if ev == nil {
		return func(v string, args ...any) {}
	}
	return ev
}

// MineArgs represents the set of arguments required to mine a block.
type MineArgs struct {
	Index         uint32
	Timestamp     int64
	Trans         []Tx
	PrevBlockHash string
	Difficulty    uint16
	EvHandler     EventHandler
}

// Mine performs the proof of work search. The nonce starts at 0 and is
// incremented by 1 until a hash that meets the difficulty is found. The
// search can be cancelled through the context.
func Mine(ctx context.Context, args MineArgs) (uint64, string, error) {
	ev := args.EvHandler.safe()

	ev("database: Mine: MINING: started: blk[%d]: difficulty[%d]", args.Index, args.Difficulty)
	defer ev("database: Mine: MINING: completed: blk[%d]", args.Index)

	for _, tx := range args.Trans {
		ev("database: Mine: MINING: tx[%s]", tx)
	}

	h := newHasher(args.Index, args.Timestamp, args.Trans, args.PrevBlockHash)

	var attempts uint64
	for nonce := uint64(0); ; nonce++ {
		attempts++

		if attempts%cancelCheckInterval == 0 {
			if ctx.Err() != nil {
				ev("database: Mine: MINING: CANCELLED: attempts[%d]", attempts)
				return 0, "", ctx.Err()
			}
		}

		if attempts%1_000_000 == 0 {
			ev("database: Mine: MINING: attempts[%d]", attempts)
		}

		hash := h.hash(nonce)
		if IsHashSolved(args.Difficulty, hash) {
			ev("database: Mine: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", args.PrevBlockHash, hash, attempts)
			return nonce, hash, nil
		}

		if nonce == math.MaxUint64 {
			break
		}
	}

	return 0, "", ErrNonceExhausted
}
