package state

import "github.com/ardanlabs/powledger/foundation/blockchain/database"

// SubmitTransaction accepts a transaction from a client for inclusion and
// returns the index of the block that will hold it. The transaction is shared
// with the known peers.
func (s *State) SubmitTransaction(sender string, recipient string, amount uint64) (uint64, error) {
	tx := database.NewTx(sender, recipient, amount)
	if err := tx.Validate(); err != nil {
		return 0, err
	}

	next := s.upsertMempool(tx)

	s.Worker.SignalShareTx(tx)
	if s.autoMine {
		s.Worker.SignalStartMining()
	}

	return next, nil
}

// SubmitNodeTransaction accepts a transaction shared by a peer for inclusion.
// It is not shared again.
func (s *State) SubmitNodeTransaction(tx database.Tx) (uint64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}

	next := s.upsertMempool(tx)

	if s.autoMine {
		s.Worker.SignalStartMining()
	}

	return next, nil
}

// =============================================================================

// upsertMempool adds the transaction to the pool under the state lock so
// it can't interleave with a block being sealed.
func (s *State) upsertMempool(tx database.Tx) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mempool.Upsert(tx)
	s.evHandler("state: upsertMempool: tx[%s]", tx)

	return uint64(len(s.chain))
}
