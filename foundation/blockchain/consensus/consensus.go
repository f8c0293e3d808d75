// Package consensus implements the longest valid chain rule used to reconcile
// this node's chain with the chains held by its peers.
package consensus

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
	"golang.org/x/sync/errgroup"
)

// Set of per peer failures. These never escape a resolution, the peer is
// just left out of consideration.
var (
	ErrPeerUnreachable    = errors.New("peer unreachable")
	ErrMalformedPeerChain = errors.New("malformed peer chain")
)

// DefaultParallelism is the number of peers fetched at the same time when
// no limit is provided.
const DefaultParallelism = 8

// EventHandler defines a function that is called when events
// occur while resolving conflicts.
type EventHandler func(v string, args ...any)

// =============================================================================

// Chain represents a chain as reported by a peer.
type Chain struct {
	Length int              `json:"length"`
	Blocks []database.Block `json:"chain"`
}

// Fetcher interface represents the behavior required to retrieve the chain
// held by a peer.
type Fetcher interface {
	FetchPeerChain(ctx context.Context, pr peer.Peer) (Chain, error)
}

// CheckShape verifies the reported chain is well formed. The reported length
// must match the number of blocks and the block indexes must be dense
// starting at 0.
func CheckShape(chain Chain) error {
	if chain.Length != len(chain.Blocks) {
		return fmt.Errorf("%w: reported length %d, got %d blocks", ErrMalformedPeerChain, chain.Length, len(chain.Blocks))
	}

	if len(chain.Blocks) == 0 {
		return fmt.Errorf("%w: %w", ErrMalformedPeerChain, database.ErrEmptyChain)
	}

	for i, block := range chain.Blocks {
		if block.Index != uint64(i) {
			return fmt.Errorf("%w: block at position %d has index %d", ErrMalformedPeerChain, i, block.Index)
		}
	}

	return nil
}

// CheckGenesis verifies the chain starts from the specified genesis block.
// A chain rooted anywhere else is a different ledger and is invalid here no
// matter how long it is.
func CheckGenesis(chain []database.Block, genesis database.Block) error {
	if len(chain) == 0 {
		return fmt.Errorf("%w: %w", database.ErrInvalidChain, database.ErrEmptyChain)
	}

	if hash, exp := chain[0].Hash(), genesis.Hash(); hash != exp {
		return fmt.Errorf("%w: genesis block %s, exp %s", database.ErrInvalidChain, hash, exp)
	}

	return nil
}

// =============================================================================

// Collect fetches the chain of every specified peer, at most limit at a time.
// Peers that fail to answer or answer with a malformed chain are reported to
// the event handler and left out of the result, which is keyed by peer host.
func Collect(ctx context.Context, fetcher Fetcher, peers []peer.Peer, limit int, ev EventHandler) map[string][]database.Block {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	if limit <= 0 {
		limit = DefaultParallelism
	}

	var mu sync.Mutex
	chains := make(map[string][]database.Block, len(peers))

	var g errgroup.Group
	g.SetLimit(limit)

	for _, pr := range peers {
		g.Go(func() error {
			chain, err := fetcher.FetchPeerChain(ctx, pr)
			if err != nil {
				if !errors.Is(err, ErrMalformedPeerChain) {
					err = fmt.Errorf("%w: %w", ErrPeerUnreachable, err)
				}
				ev("consensus: Collect: peer[%s]: WARNING: %s", pr, err)
				return nil
			}

			if err := CheckShape(chain); err != nil {
				ev("consensus: Collect: peer[%s]: WARNING: %s", pr, err)
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			chains[pr.Host] = chain.Blocks

			return nil
		})
	}

	// Every G returns nil so there is no error to check.
	g.Wait()

	return chains
}

// Resolve applies the longest valid chain rule. A peer chain replaces the
// current best only when it is strictly longer, shares this node's genesis
// block and is valid, so a chain of equal length never replaces this node's
// chain. Peers are visited in host order so the outcome doesn't depend on map
// iteration.
func Resolve(selfChain []database.Block, peerChains map[string][]database.Block, validProof database.ProofValidator) (bool, []database.Block) {
	maxLength := len(selfChain)

	var best []database.Block
	for _, host := range slices.Sorted(maps.Keys(peerChains)) {
		chain := peerChains[host]

		if len(chain) <= maxLength || len(selfChain) == 0 {
			continue
		}

		if CheckGenesis(chain, selfChain[0]) == nil && database.IsValidChain(chain, validProof) {
			maxLength = len(chain)
			best = chain
		}
	}

	if best == nil {
		return false, selfChain
	}

	return true, best
}
