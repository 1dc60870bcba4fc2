// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/basicnode/ledger/business/sys/validate"
	"github.com/basicnode/ledger/business/web/errs"
	"github.com/basicnode/ledger/foundation/blockchain/database"
	"github.com/basicnode/ledger/foundation/blockchain/state"
	"github.com/basicnode/ledger/foundation/events"
	"github.com/basicnode/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints for users.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer func() {
		if dropped, err := h.Evts.Release(v.TraceID); err == nil && dropped > 0 {
			h.Log.Infow("events", "traceid", v.TraceID, "dropped", dropped)
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitTransaction adds a new user transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var st submitTx
	if err := web.Decode(r, &st); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(st); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	tx := st.toTx()

	h.Log.Infow("add user tran", "traceid", v.TraceID, "sender", tx.Sender, "recipient", tx.Recipient, "amount", tx.Amount)
	n, err := h.State.SubmitTransaction(tx)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := mempoolStatus{
		Status:  "transaction added to mempool",
		Mempool: n,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SignalMining asks the node to mine a block from the mempool.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if !h.State.IsMiningEnabled() {
		return errs.NewTrustedf(http.StatusConflict, "mining is disabled on this node")
	}

	if h.State.QueryMempoolLength() == 0 {
		return errs.NewTrusted(state.ErrNoTransactions, http.StatusConflict)
	}

	if h.State.Worker == nil {
		return errs.NewTrustedf(http.StatusServiceUnavailable, "mining worker is not running")
	}

	h.State.Worker.SignalStartMining()

	return web.Respond(ctx, w, status{Status: "mining signalled"}, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	mempool := h.State.RetrieveMempool()
	return web.Respond(ctx, w, mempool, http.StatusOK)
}

// Blocks returns the chain in its wire form. With no range the whole chain
// is returned.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from := uint64(0)
	to := state.QueryLatest

	if fromStr := web.Param(r, "from"); fromStr != "" {
		var err error
		if from, err = parseNumber(fromStr); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
	}

	if toStr := web.Param(r, "to"); toStr != "" {
		var err error
		if to, err = parseNumber(toStr); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
	}

	blocks, err := h.State.QueryBlocksByNumber(from, to)
	if err != nil {
		if errors.Is(err, database.ErrEmptyChain) {
			return err
		}
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, database.NewChainData(blocks), http.StatusOK)
}

// ValidateChain revalidates the local chain from genesis.
func (h Handlers) ValidateChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := validation{
		Valid:  true,
		Blocks: h.State.QueryChainLength(),
	}

	if err := h.State.QueryValidateChain(); err != nil {
		resp.Valid = false
		resp.Error = err.Error()

		var ve *database.ValidationError
		if errors.As(err, &ve) {
			resp.Index = &ve.Index
		}
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// parseNumber converts a block number from the url. The word latest
// represents the latest block.
func parseNumber(s string) (uint64, error) {
	if s == "latest" || s == "" {
		return state.QueryLatest, nil
	}

	num, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid block number %q", s)
	}

	return num, nil
}
