package worker

import (
	"github.com/basicnode/ledger/foundation/blockchain/peer"
)

// Sync updates the peer list and adopts the chain of any peer that is
// ahead of this node.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		peerStatus, err := w.state.NetRequestPeerStatus(pr)
		if err != nil {
			w.evHandler("worker: sync: queryPeerStatus: %s: ERROR: %s", pr.Host, err)
			continue
		}

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)

		w.syncChain(pr, peerStatus)
	}
}

// syncChain requests the chain of the peer when the peer is ahead of this
// node and hands it to the state to decide if it wins. A peer running with
// another genesis block is never asked for its chain.
func (w *Worker) syncChain(pr peer.Peer, peerStatus peer.PeerStatus) {
	if peerStatus.GenesisHash != w.state.RetrieveGenesisHash() {
		w.evHandler("worker: sync: %s: different genesis: got %s, exp %s", pr.Host, peerStatus.GenesisHash, w.state.RetrieveGenesisHash())
		return
	}

	latest, err := w.state.RetrieveLatestBlock()
	if err != nil {
		w.evHandler("worker: sync: latestBlock: ERROR: %s", err)
		return
	}

	if peerStatus.LatestBlockNumber <= latest.Index {
		return
	}

	w.evHandler("worker: sync: retrievePeerChain: %s: latestBlockNumber[%d]", pr.Host, peerStatus.LatestBlockNumber)

	chain, err := w.state.NetRequestPeerChain(pr)
	if err != nil {
		w.evHandler("worker: sync: retrievePeerChain: %s: ERROR: %s", pr.Host, err)
		return
	}

	outcome, err := w.state.ReceiveRemoteChain(chain)
	if err != nil {
		w.evHandler("worker: sync: receiveRemoteChain: %s: %s: %s", pr.Host, outcome, err)
		return
	}

	w.evHandler("worker: sync: receiveRemoteChain: %s: %s", pr.Host, outcome)
}
