package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// ErrStaleTip is returned when a proof was found against a block that is no
// longer the tip of the chain because the chain was replaced.
var ErrStaleTip = errors.New("chain tip changed while mining")

// =============================================================================

// MineNextBlock solves the proof of work puzzle against the current tip and
// seals the pending transactions into a new block. The puzzle is solved
// without holding the state lock. If the chain is replaced while solving,
// the stale proof is discarded and the puzzle is solved again against the
// new tip.
func (s *State) MineNextBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNextBlock: MINING: started")
	defer s.evHandler("state: MineNextBlock: MINING: completed")

	for {
		tip, err := s.LastBlock()
		if err != nil {
			return database.Block{}, err
		}

		s.evHandler("state: MineNextBlock: MINING: perform POW: tip[%s]", tip)

		t := time.Now()
		proof, err := s.pow.Solve(ctx, tip.Proof)
		if err != nil {
			s.evHandler("state: MineNextBlock: MINING: CANCELLED")
			return database.Block{}, err
		}

		s.evHandler("state: MineNextBlock: MINING: SOLVED: proof[%d]: duration[%v]", proof, time.Since(t))

		if s.testHookAfterSolve != nil {
			s.testHookAfterSolve()
		}

		block, err := s.sealOnTip(tip, proof)
		if err != nil {
			if errors.Is(err, ErrStaleTip) {
				s.evHandler("state: MineNextBlock: MINING: WARNING: %s: discarding proof[%d]", err, proof)
				continue
			}
			return database.Block{}, err
		}

		return block, nil
	}
}

// SealBlock seals the pending transactions into a new block with the
// specified proof and appends it to the chain. If prevHash is nil the hash
// of the current tip is used.
func (s *State) SealBlock(proof uint64, prevHash *database.Digest) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sealLocked(proof, prevHash)
}

// =============================================================================

// sealOnTip seals a new block only if tip is still the last block.
func (s *State) sealOnTip(tip database.Block, proof uint64) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, err := s.lastBlockLocked()
	if err != nil {
		return database.Block{}, err
	}

	if last.Index != tip.Index || last.Hash() != tip.Hash() {
		return database.Block{}, fmt.Errorf("%w: mined on %s, tip is %s", ErrStaleTip, tip, last)
	}

	return s.sealLocked(proof, nil)
}

// sealLocked builds the next block from the mempool and writes it. The state
// lock must be held so no transaction can be added while the pool is drained.
func (s *State) sealLocked(proof uint64, prevHash *database.Digest) (database.Block, error) {
	last, err := s.lastBlockLocked()
	if err != nil {
		return database.Block{}, err
	}

	hash := last.Hash()
	if prevHash != nil {
		hash = *prevHash
	}

	// The recorded time never moves backwards along the chain.
	now := uint64(time.Now().UTC().Unix())
	if now < last.TimeStamp {
		now = last.TimeStamp
	}

	trans := s.mempool.PickAll()

	block := database.Block{
		Index:     uint64(len(s.chain)),
		PrevHash:  hash,
		Proof:     proof,
		TimeStamp: now,
		Trans:     trans,
	}

	s.evHandler("state: sealLocked: write to disk: block[%s]: txs[%d]", block, len(trans))

	if err := s.db.Write(block); err != nil {

		// Nothing can be added to the pool while the lock is held so the
		// transactions go back in their original order.
		for _, tx := range trans {
			s.mempool.Upsert(tx)
		}
		return database.Block{}, fmt.Errorf("write block: %w", err)
	}

	s.chain = append(s.chain, block)

	return block, nil
}
