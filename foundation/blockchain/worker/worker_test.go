package worker_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_AutoMine(t *testing.T) {
	t.Log("Given the need to mine transactions as they arrive.")
	{
		gen := genesis.Default()
		gen.Difficulty = 2

		ev := func(v string, args ...any) { t.Logf(v, args...) }

		st, err := state.New(state.Config{
			Host:      "localhost:9080",
			Genesis:   gen,
			Storage:   memory.New(),
			AutoMine:  true,
			EvHandler: ev,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the state: %s", failed, err)
		}

		worker.Run(st, worker.Config{EvHandler: ev})
		defer st.Shutdown()

		st.SubmitTransaction("A", "B", 10)
		st.SubmitTransaction("B", "C", 5)

		deadline := time.Now().Add(10 * time.Second)
		for {
			n, chain := st.GetChain()

			var mined int
			for _, block := range chain {
				mined += len(block.Trans)
			}

			if mined == 2 && st.QueryMempoolLength() == 0 {
				t.Logf("\t%s\tShould mine the pending transactions: blocks[%d].", success, n)
				break
			}

			if time.Now().After(deadline) {
				t.Fatalf("\t%s\tShould mine the pending transactions, got %d mined.", failed, mined)
			}

			time.Sleep(10 * time.Millisecond)
		}
	}
}

func Test_SignalCancelMining(t *testing.T) {
	t.Log("Given the need to cancel mining when no mining is running.")
	{
		st, err := state.New(state.Config{Genesis: genesis.Default(), Storage: memory.New()})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the state: %s", failed, err)
		}

		w := worker.Run(st, worker.Config{ResolveInterval: time.Hour})

		for range 3 {
			done := w.SignalCancelMining()
			done()
			done()
		}
		t.Logf("\t%s\tShould not block or panic.", success)

		finished := make(chan struct{})
		go func() {
			st.Shutdown()
			close(finished)
		}()

		select {
		case <-finished:
			t.Logf("\t%s\tShould shut down the worker.", success)
		case <-time.After(5 * time.Second):
			t.Fatalf("\t%s\tShould shut down the worker.", failed)
		}
	}
}

// statusServer starts a node that only answers status and peer requests.
func statusServer(t *testing.T, status peer.PeerStatus) peer.Peer {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/node/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	})
	mux.HandleFunc("POST /v1/node/peers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return peer.New(strings.TrimPrefix(srv.URL, "http://"))
}

func Test_PeerOperationsDropOtherLedgers(t *testing.T) {
	t.Log("Given the need to only keep peers running the same ledger.")
	{
		gen := genesis.Default()
		ours := database.NewGenesisBlock(gen.Date, gen.Proof).Hash().String()
		theirs := database.NewGenesisBlock(gen.Date.Add(time.Hour), gen.Proof).Hash().String()

		same := statusServer(t, peer.PeerStatus{GenesisHash: ours, Difficulty: gen.Difficulty})
		otherGenesis := statusServer(t, peer.PeerStatus{GenesisHash: theirs, Difficulty: gen.Difficulty})
		otherDifficulty := statusServer(t, peer.PeerStatus{GenesisHash: ours, Difficulty: gen.Difficulty + 1})

		peers := peer.NewPeerSet()
		peers.Add(same)
		peers.Add(otherGenesis)
		peers.Add(otherDifficulty)

		ev := func(v string, args ...any) { t.Logf(v, args...) }

		st, err := state.New(state.Config{
			Host:       "localhost:9080",
			Genesis:    gen,
			Storage:    memory.New(),
			KnownPeers: peers,
			EvHandler:  ev,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the state: %s", failed, err)
		}

		worker.Run(st, worker.Config{EvHandler: ev})
		defer st.Shutdown()

		known := st.RetrieveKnownPeers()
		if len(known) != 1 || known[0] != same {
			t.Fatalf("\t%s\tShould only keep %s, got %v.", failed, same, known)
		}
		t.Logf("\t%s\tShould only keep the peer running the same ledger.", success)
	}
}
