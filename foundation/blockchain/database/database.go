// Package database handles the block and transaction data model, the hashing
// and validation rules binding blocks into a chain, and the lower level support
// for storing the chain.
package database

import (
	"fmt"
	"sync"
)

// Serializer interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Serializer interface {
	Write(block Block) error
	GetBlock(index uint64) (Block, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// =============================================================================

// Database manages the set of blocks written to the configured serializer.
type Database struct {
	mu         sync.Mutex
	serializer Serializer
}

// New constructs a database over the specified serializer.
func New(serializer Serializer) *Database {
	return &Database{
		serializer: serializer,
	}
}

// Close closes the underlying serializer.
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.serializer.Close()
}

// ReadChain reads every stored block starting with the genesis block. An
// empty result means nothing has been written yet.
func (db *Database) ReadChain() ([]Block, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var chain []Block

	iter := db.serializer.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		if block.Index != uint64(len(chain)) {
			return nil, fmt.Errorf("block out of order, got %d, exp %d", block.Index, len(chain))
		}

		chain = append(chain, block)
	}

	return chain, nil
}

// Write adds a new block to the chain.
func (db *Database) Write(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.serializer.Write(block)
}

// Replace clears the stored chain and writes the specified chain in its place.
func (db *Database) Replace(chain []Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.serializer.Reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	for _, block := range chain {
		if err := db.serializer.Write(block); err != nil {
			return fmt.Errorf("write block[%d]: %w", block.Index, err)
		}
	}

	return nil
}

// GetBlock searches the stored chain to locate and return the contents of
// the specified block by index.
func (db *Database) GetBlock(index uint64) (Block, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.serializer.GetBlock(index)
}
