package worker

import (
	"context"
	"errors"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation seals the pending transactions into a new block. Mining
// only starts when something is pending and is restarted afterwards as long
// as the pool isn't empty. An adopted chain may have sealed or handed back
// transactions in the meantime.
func (w *Worker) runMiningOperation() {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	if pending := w.state.QueryMempoolLength(); pending == 0 {
		w.evHandler("worker: runMiningOperation: MINING: nothing pending: Txs[%d]", pending)
		return
	}
	defer w.signalIfPending()

	// A cancel request left over from an adoption that happened while no
	// mining was running doesn't apply to this run.
	select {
	case <-w.cancelMining:
		w.evHandler("worker: runMiningOperation: MINING: drained cancel channel")
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	release := w.watchCancel(ctx, cancel)

	t := time.Now()
	block, err := w.state.MineNextBlock(ctx)
	cancel()

	w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", time.Since(t))

	// The adoption that cancelled this run finishes its state changes before
	// the next run can start.
	if done := <-release; done != nil {
		w.evHandler("worker: runMiningOperation: MINING: termination signal: waiting")
		<-done
		w.evHandler("worker: runMiningOperation: MINING: termination signal: received")
	}

	w.reportMined(block, err)
}

// watchCancel cancels the mining context when an adoption asks mining to
// stop. The returned channel yields the adoption's release channel, or nil
// when mining ended on its own.
func (w *Worker) watchCancel(ctx context.Context, cancel context.CancelFunc) <-chan chan struct{} {
	release := make(chan chan struct{}, 1)

	go func() {
		select {
		case done := <-w.cancelMining:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: requested")
			cancel()
			release <- done

		case <-ctx.Done():
			release <- nil
		}
	}()

	return release
}

// reportMined records the outcome of a mining run.
func (w *Worker) reportMined(block database.Block, err error) {
	switch {
	case err == nil:
		w.evHandler("viewer: block mined: block[%s]: txs[%d]", block, len(block.Trans))

	case errors.Is(err, context.Canceled):
		w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")

	default:
		w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
	}
}

// signalIfPending starts another run when transactions are still waiting.
func (w *Worker) signalIfPending() {
	if pending := w.state.QueryMempoolLength(); pending > 0 {
		w.evHandler("worker: runMiningOperation: MINING: signal new mining operation: Txs[%d]", pending)
		w.SignalStartMining()
	}
}
