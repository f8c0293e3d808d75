// Package pebbledb implements the ability to read and write blocks to a
// pebble key/value store.
package pebbledb

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/cockroachdb/pebble"
)

// keys: b:<8-byte-big-endian-index>
var (
	blockPrefix = []byte("b:")
	blockEnd    = []byte("b;")
)

// PebbleDB represents the serialization implementation for reading and storing
// blocks in a pebble database. This implements the database.Serializer
// interface.
type PebbleDB struct {
	db *pebble.DB
}

// New opens or creates the pebble database at the specified path.
func New(dbPath string) (*PebbleDB, error) {
	db, err := pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}

	return &PebbleDB{db: db}, nil
}

// Close closes the pebble database.
func (p *PebbleDB) Close() error {
	return p.db.Close()
}

// Write takes the specified database block and stores it under its index.
func (p *PebbleDB) Write(block database.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("marshal block: %w", err)
	}

	if err := p.db.Set(blockKey(block.Index), data, pebble.Sync); err != nil {
		return fmt.Errorf("save block: %w", err)
	}

	return nil
}

// GetBlock locates and returns the contents of the specified block by index.
// pebble.ErrNotFound is returned when the block doesn't exist.
func (p *PebbleDB) GetBlock(index uint64) (database.Block, error) {
	data, closer, err := p.db.Get(blockKey(index))
	if err != nil {
		return database.Block{}, err
	}
	defer closer.Close()

	var block database.Block
	if err := json.Unmarshal(data, &block); err != nil {
		return database.Block{}, fmt.Errorf("unmarshal block[%d]: %w", index, err)
	}

	return block, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with the genesis block.
func (p *PebbleDB) ForEach() database.Iterator {
	return &Iterator{store: p}
}

// Reset deletes every stored block.
func (p *PebbleDB) Reset() error {
	return p.db.DeleteRange(blockPrefix, blockEnd, pebble.Sync)
}

// blockKey forms the key for the specified block index. Big endian keeps
// the blocks in chain order within the store.
func blockKey(index uint64) []byte {
	key := make([]byte, len(blockPrefix)+8)
	copy(key, blockPrefix)
	binary.BigEndian.PutUint64(key[len(blockPrefix):], index)
	return key
}

// =============================================================================

// Iterator represents the iteration implementation for walking through
// the blocks in the store. This implements the database Iterator interface.
type Iterator struct {
	store   *PebbleDB
	current uint64
	eoc     bool
}

// Next retrieves the next block from the store.
func (pi *Iterator) Next() (database.Block, error) {
	if pi.eoc {
		return database.Block{}, errors.New("end of chain")
	}

	block, err := pi.store.GetBlock(pi.current)
	if errors.Is(err, pebble.ErrNotFound) {
		pi.eoc = true
	}

	pi.current++

	return block, err
}

// Done returns the end of chain value.
func (pi *Iterator) Done() bool {
	return pi.eoc
}
