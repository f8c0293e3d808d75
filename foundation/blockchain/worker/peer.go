package worker

import (
	"context"

	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
)

// peerOperations handles finding new peers.
func (w *Worker) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	for {
		select {
		case <-w.peerTicker.C:
			if !w.isShutdown() {
				w.runPeersOperation()
			}
		case <-w.shut:
			w.evHandler("worker: peerOperations: received shut signal")
			return
		}
	}
}

// runPeersOperation updates the peer list.
func (w *Worker) runPeersOperation() {
	w.evHandler("worker: runPeersOperation: started")
	defer w.evHandler("worker: runPeersOperation: completed")

	ctx := context.Background()

	for _, peer := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		peerStatus, err := w.state.NetRequestPeerStatus(ctx, peer)
		if err != nil {
			w.evHandler("worker: runPeersOperation: queryPeerStatus: %s: ERROR: %s", peer.Host, err)
			continue
		}

		// A peer running a different ledger can never hand us a chain we
		// would accept, so stop talking to it.
		if !w.sameLedger(peerStatus) {
			w.evHandler("worker: runPeersOperation: %s: removing peer: genesis[%s]: difficulty[%d]", peer.Host, peerStatus.GenesisHash, peerStatus.Difficulty)
			w.state.RemoveKnownPeer(peer)
			continue
		}

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)
	}

	// Get the latest peers and let them know this node is available to chat.
	for _, peer := range w.state.RetrieveKnownPeers() {
		if err := w.state.NetRequestAddPeer(ctx, peer); err != nil {
			w.evHandler("worker: runPeersOperation: addPeer: %s: ERROR: %s", peer.Host, err)
		}
	}
}

// sameLedger reports whether the peer shares this node's genesis block and
// proof of work difficulty.
func (w *Worker) sameLedger(ps peer.PeerStatus) bool {
	if ps.GenesisHash != w.state.RetrieveGenesisBlock().Hash().String() {
		return false
	}

	return ps.Difficulty == w.state.RetrieveGenesis().Difficulty
}

// addNewPeers takes the list of known peers and makes sure they are included
// in the nodes list of know peers.
func (w *Worker) addNewPeers(knownPeers []peer.Peer) {
	w.evHandler("worker: runPeersOperation: addNewPeers: started")
	defer w.evHandler("worker: runPeersOperation: addNewPeers: completed")

	for _, peer := range knownPeers {
		if w.state.AddKnownPeer(peer) {
			w.evHandler("worker: runPeersOperation: addNewPeers: add peer nodes: adding peer-node %s", peer)
		}
	}
}
