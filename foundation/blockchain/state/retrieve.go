package state

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
)

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveGenesisBlock returns the genesis block every chain accepted by
// this node has to start with.
func (s *State) RetrieveGenesisBlock() database.Block {
	return database.NewGenesisBlock(s.genesis.Date, s.genesis.Proof)
}

// RetrieveMempool returns a copy of the mempool in submission order.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// ValidProof validates a proof against the node's difficulty.
func (s *State) ValidProof(lastProof uint64, proof uint64) bool {
	return s.pow.ValidProof(lastProof, proof)
}

// LastBlock returns a copy of the current tip of the chain.
func (s *State) LastBlock() (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastBlockLocked()
}

// GetChain returns the length of the chain and a copy of its blocks. This is
// what peers are handed when they ask for this node's chain.
func (s *State) GetChain() (int, []database.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain := make([]database.Block, len(s.chain))
	copy(chain, s.chain)

	return len(chain), chain
}

// =============================================================================

// lastBlockLocked returns the tip. The state lock must be held.
func (s *State) lastBlockLocked() (database.Block, error) {
	if len(s.chain) == 0 {
		return database.Block{}, database.ErrEmptyChain
	}

	return s.chain[len(s.chain)-1], nil
}
