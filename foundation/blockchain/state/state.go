// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"fmt"
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/consensus"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/powledger/foundation/blockchain/mempool"
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
	"github.com/ardanlabs/powledger/foundation/blockchain/pow"
)

// EventHandler defines a function that is called when events
// occur in the processing of the blockchain.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining, peer updates, and transaction sharing.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining() (done func())
	SignalShareTx(tx database.Tx)
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Host               string
	Genesis            genesis.Genesis
	Storage            database.Serializer
	KnownPeers         *peer.PeerSet
	Fetcher            consensus.Fetcher
	ResolveParallelism int
	AutoMine           bool
	EvHandler          EventHandler
}

// State manages the blockchain database.
type State struct {
	mu sync.Mutex

	host               string
	evHandler          EventHandler
	genesis            genesis.Genesis
	pow                pow.POW
	resolveParallelism int
	autoMine           bool

	chain      []database.Block
	mempool    *mempool.Mempool
	knownPeers *peer.PeerSet
	db         *database.Database
	fetcher    consensus.Fetcher

	// testHookAfterSolve runs between finding a proof and sealing it.
	testHookAfterSolve func()

	Worker Worker
}

// New constructs a new blockchain for data management. The genesis block is
// sealed here unless the storage already holds a chain, in which case that
// chain is validated and loaded.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	puzzle, err := pow.New(int(cfg.Genesis.Difficulty))
	if err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}

	strg := cfg.Storage
	if strg == nil {
		strg = memory.New()
	}
	db := database.New(strg)

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = NewHTTPFetcher(defaultPeerTimeout)
	}

	chain, err := loadChain(db, cfg.Genesis, puzzle, ev)
	if err != nil {
		return nil, err
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		host:               cfg.Host,
		evHandler:          ev,
		genesis:            cfg.Genesis,
		pow:                puzzle,
		resolveParallelism: cfg.ResolveParallelism,
		autoMine:           cfg.AutoMine,

		chain:      chain,
		mempool:    mempool.New(),
		knownPeers: knownPeers,
		db:         db,
		fetcher:    fetcher,

		Worker: nopWorker{},
	}

	// The Worker is set to a no-op here. The call to worker.Run will assign
	// itself and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	s.Worker.Shutdown()

	// Make sure the database is properly closed.
	return s.db.Close()
}

// =============================================================================

// loadChain reads the chain from storage, sealing and writing the genesis
// block if storage is empty.
func loadChain(db *database.Database, gen genesis.Genesis, puzzle pow.POW, ev EventHandler) ([]database.Block, error) {
	genesisBlock := database.NewGenesisBlock(gen.Date, gen.Proof)

	chain, err := db.ReadChain()
	if err != nil {
		return nil, fmt.Errorf("read chain: %w", err)
	}

	if len(chain) == 0 {
		ev("state: loadChain: sealing genesis block[%s]", genesisBlock)

		if err := db.Write(genesisBlock); err != nil {
			return nil, fmt.Errorf("write genesis: %w", err)
		}
		return []database.Block{genesisBlock}, nil
	}

	ev("state: loadChain: validating stored chain: blocks[%d]", len(chain))

	if chain[0].Hash() != genesisBlock.Hash() {
		return nil, fmt.Errorf("stored genesis block %s does not match configured genesis %s", chain[0].Hash(), genesisBlock.Hash())
	}

	if err := database.ValidateChain(chain, puzzle.ValidProof); err != nil {
		return nil, fmt.Errorf("stored chain: %w", err)
	}

	return chain, nil
}

// nopWorker is used until a real worker registers itself.
type nopWorker struct{}

func (nopWorker) Shutdown()                         {}
func (nopWorker) SignalStartMining()                {}
func (nopWorker) SignalCancelMining() (done func()) { return func() {} }
func (nopWorker) SignalShareTx(tx database.Tx)      {}
