// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/basicnode/ledger/business/sys/validate"
	"github.com/basicnode/ledger/business/web/errs"
	"github.com/basicnode/ledger/foundation/blockchain/database"
	"github.com/basicnode/ledger/foundation/blockchain/peer"
	"github.com/basicnode/ledger/foundation/blockchain/state"
	"github.com/basicnode/ledger/foundation/nameservice"
	"github.com/basicnode/ledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
}

// SubmitNodeTransaction adds a transaction shared by a peer to the mempool.
func (h Handlers) SubmitNodeTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tx database.Tx
	env, err := openEnvelope(r, &tx)
	if err != nil {
		return err
	}

	h.Log.Infow("add node tran", "traceid", v.TraceID, "peer", env.Host, "node", h.NS.Lookup(env.NodeID), "sender", tx.Sender, "recipient", tx.Recipient, "amount", tx.Amount)
	n, err := h.State.SubmitNodeTransaction(tx)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := struct {
		Status  string `json:"status"`
		Mempool int    `json:"mempool"`
	}{
		Status:  "transaction added to mempool",
		Mempool: n,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ProposeBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var blockData database.BlockData
	env, err := openEnvelope(r, &blockData)
	if err != nil {
		return err
	}

	block, err := database.ToBlock(blockData)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	// Ask the state package to validate the proposed block. If the block
	// passes validation, it will be added to the blockchain database.
	h.Log.Infow("propose block", "traceid", v.TraceID, "peer", env.Host, "node", h.NS.Lookup(env.NodeID), "blk", block.Index, "hash", block.Hash)
	err = h.State.ProcessProposedBlock(block)
	switch {
	case err == nil:

	case errors.Is(err, state.ErrBlockNotNext):
		h.Log.Infow("propose block", "traceid", v.TraceID, "status", err)
		return web.Respond(ctx, w, status{Status: "block already known"}, http.StatusOK)

	case errors.Is(err, state.ErrChainForked):

		// The peer has blocks we don't. Sync with it to find out if its
		// chain is longer.
		pr := peer.New(env.Host)
		if validate.Check(pr) == nil {
			h.State.AddKnownPeer(pr)
			if h.State.Worker != nil {
				h.State.Worker.SignalPeersChanged()
			}
		}
		return errs.NewTrusted(err, http.StatusNotAcceptable)

	case errors.Is(err, database.ErrInvalidLinkage):
		return errs.NewTrusted(err, http.StatusNotAcceptable)

	default:
		return err
	}

	return web.Respond(ctx, w, status{Status: "accepted"}, http.StatusOK)
}

// SubmitPeer is called by a node so they can be added to the known peer list.
func (h Handlers) SubmitPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var pr peer.Peer
	if err := web.Decode(r, &pr); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(pr); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if !h.State.AddKnownPeer(pr) {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	h.Log.Infow("adding peer", "traceid", v.TraceID, "host", pr.Host)
	if h.State.Worker != nil {
		h.State.Worker.SignalPeersChanged()
	}

	return web.Respond(ctx, w, status{Status: "peer added"}, http.StatusOK)
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	status, err := h.State.RetrieveStatus()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// Chain returns the full chain this node is running with.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	chain, err := h.State.RetrieveChain()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, database.NewChainData(chain), http.StatusOK)
}

// BlocksByNumber returns all the blocks based on the specified to/from values.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	fromStr := web.Param(r, "from")
	if fromStr == "latest" || fromStr == "" {
		fromStr = fmt.Sprintf("%d", state.QueryLatest)
	}

	toStr := web.Param(r, "to")
	if toStr == "latest" || toStr == "" {
		toStr = fmt.Sprintf("%d", state.QueryLatest)
	}

	from, err := strconv.ParseUint(fromStr, 10, 64)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	to, err := strconv.ParseUint(toStr, 10, 64)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if from > to {
		return errs.NewTrustedf(http.StatusBadRequest, "from %d is greater than to %d", from, to)
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

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txs := h.State.RetrieveMempool()
	return web.Respond(ctx, w, txs, http.StatusOK)
}

// =============================================================================

type status struct {
	Status string `json:"status"`
}

// openEnvelope decodes the signed envelope from the request and its payload
// into the specified value.
func openEnvelope(r *http.Request, payload any) (peer.Envelope, error) {
	var env peer.Envelope
	if err := web.Decode(r, &env); err != nil {
		return peer.Envelope{}, errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(env); err != nil {
		return peer.Envelope{}, errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := env.Open(payload); err != nil {
		return peer.Envelope{}, errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(payload); err != nil {
		return peer.Envelope{}, errs.NewTrusted(err, http.StatusBadRequest)
	}

	return env, nil
}
