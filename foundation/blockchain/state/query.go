package state

import "github.com/ardanlabs/powledger/foundation/blockchain/database"

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// =============================================================================

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryBlocksByNumber returns the set of blocks between the from and to
// indexes, both inclusive. QueryLatest can be used for either value.
func (s *State) QueryBlocksByNumber(from uint64, to uint64) []database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := uint64(len(s.chain) - 1)
	if from == QueryLatest {
		from = latest
	}
	if to == QueryLatest || to > latest {
		to = latest
	}

	if from > to {
		return nil
	}

	out := make([]database.Block, 0, to-from+1)
	out = append(out, s.chain[from:to+1]...)

	return out
}
