package state

import (
	"context"
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/consensus"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// ResolveConflicts asks every known peer for its chain and replaces this
// node's chain with the longest valid one, if it is longer than ours. Peers
// that can't be reached or hand back bad chains are ignored, so the only
// error is a failure to store the adopted chain.
func (s *State) ResolveConflicts(ctx context.Context) (bool, error) {
	s.evHandler("state: ResolveConflicts: started")
	defer s.evHandler("state: ResolveConflicts: completed")

	peers := s.RetrieveKnownPeers()
	chains := consensus.Collect(ctx, s.fetcher, peers, s.resolveParallelism, consensus.EventHandler(s.evHandler))

	s.evHandler("state: ResolveConflicts: peers[%d]: answered[%d]", len(peers), len(chains))

	gb := s.RetrieveGenesisBlock()
	for host, chain := range chains {
		if err := consensus.CheckGenesis(chain, gb); err != nil {
			s.evHandler("state: ResolveConflicts: peer[%s]: WARNING: %s", host, err)
			delete(chains, host)
		}
	}

	_, self := s.GetChain()

	adopted, chain := consensus.Resolve(self, chains, s.pow.ValidProof)
	if !adopted {
		s.evHandler("state: ResolveConflicts: our chain is authoritative: blocks[%d]", len(self))
		return false, nil
	}

	return s.adoptChain(chain)
}

// AdoptChain replaces the chain wholesale with the specified chain. The chain
// must be valid, start from this node's genesis block and be longer than the
// current chain. Any mining in progress is cancelled since its proof was
// computed against the old tip.
func (s *State) AdoptChain(chain []database.Block) (bool, error) {
	if err := consensus.CheckShape(consensus.Chain{Length: len(chain), Blocks: chain}); err != nil {
		return false, err
	}

	if err := consensus.CheckGenesis(chain, s.RetrieveGenesisBlock()); err != nil {
		return false, err
	}

	if err := database.ValidateChain(chain, s.pow.ValidProof); err != nil {
		return false, err
	}

	return s.adoptChain(chain)
}

// =============================================================================

// adoptChain performs the replacement of an already validated chain.
func (s *State) adoptChain(chain []database.Block) (bool, error) {

	// If the runMiningOperation function is being executed it needs to stop
	// immediately. The G executing runMiningOperation will not return from the
	// function until done is called. That allows this function to complete
	// its state changes before a new mining operation takes place.
	done := s.Worker.SignalCancelMining()
	defer func() {
		s.evHandler("state: adoptChain: signal runMiningOperation to terminate")
		done()
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Our chain may have grown since the candidate was picked.
	if len(chain) <= len(s.chain) {
		s.evHandler("state: adoptChain: candidate no longer longer: candidate[%d]: ours[%d]", len(chain), len(s.chain))
		return false, nil
	}

	s.evHandler("state: adoptChain: replacing chain: old[%d]: new[%d]", len(s.chain), len(chain))

	if err := s.db.Replace(chain); err != nil {
		s.restoreStorageLocked()
		return false, fmt.Errorf("replace chain: %w", err)
	}

	old := s.chain

	s.chain = make([]database.Block, len(chain))
	copy(s.chain, chain)

	s.reconcileMempoolLocked(old, chain)

	return true, nil
}

// reconcileMempoolLocked fixes up the pool after the chain was replaced.
// Transactions only sealed in our dropped blocks go back in the pool and
// transactions sealed by the adopted blocks leave it. The state lock must
// be held.
func (s *State) reconcileMempoolLocked(old []database.Block, adopted []database.Block) {
	fork := 0
	for fork < len(old) && fork < len(adopted) && old[fork].Hash() == adopted[fork].Hash() {
		fork++
	}

	for _, block := range old[fork:] {
		for _, tx := range block.Trans {
			s.mempool.Upsert(tx)
		}
	}

	var removed int
	for _, block := range adopted[fork:] {
		for _, tx := range block.Trans {
			if s.mempool.Delete(tx) {
				removed++
			}
		}
	}

	s.evHandler("state: reconcileMempoolLocked: fork[%d]: removed[%d]: pending[%d]", fork, removed, s.mempool.Count())
}

// restoreStorageLocked puts storage back in line with the in memory chain
// after a failed replacement. If the old chain can't be written back, the
// in memory chain is reloaded from whatever storage now holds so the two
// never disagree. The state lock must be held.
func (s *State) restoreStorageLocked() {
	err := s.db.Replace(s.chain)
	if err == nil {
		s.evHandler("state: restoreStorageLocked: restored chain: blocks[%d]", len(s.chain))
		return
	}

	s.evHandler("state: restoreStorageLocked: WARNING: restore: %s", err)

	chain, err := s.db.ReadChain()
	if err != nil || len(chain) == 0 {
		s.evHandler("state: restoreStorageLocked: ERROR: reload: blocks[%d]: %v", len(chain), err)
		return
	}

	s.chain = chain
	s.evHandler("state: restoreStorageLocked: reloaded chain: blocks[%d]", len(chain))
}
