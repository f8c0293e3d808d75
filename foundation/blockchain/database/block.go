package database

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrEmptyChain is returned when a chain that must always hold at least the
// genesis block has no blocks at all. This indicates a construction bug.
var ErrEmptyChain = errors.New("chain has no blocks")

// GenesisPrevHash is the sentinel used as the previous hash of the genesis
// block. It is the SHA-256 digest of the constant "1".
var GenesisPrevHash = Digest(sha256.Sum256([]byte("1")))

// =============================================================================

// Digest represents a SHA-256 hash value.
type Digest [sha256.Size]byte

// String returns the lowercase hex rendering of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// MarshalText implements the encoding.TextMarshaler interface so a digest is
// always serialized as a hex string.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (d *Digest) UnmarshalText(text []byte) error {
	dig, err := ToDigest(string(text))
	if err != nil {
		return err
	}

	*d = dig
	return nil
}

// ToDigest converts a hex string into a digest.
func ToDigest(hexStr string) (Digest, error) {
	var d Digest

	if len(hexStr) != hex.EncodedLen(len(d)) {
		return Digest{}, fmt.Errorf("invalid digest length %d", len(hexStr))
	}

	if _, err := hex.Decode(d[:], []byte(hexStr)); err != nil {
		return Digest{}, fmt.Errorf("invalid digest: %w", err)
	}

	return d, nil
}

// =============================================================================

// Block represents a group of transactions batched together and linked to
// the previous block in the chain. The field order here matches the canonical
// encoding and must not change.
type Block struct {
	Index     uint64 `json:"index"`         // Position in the chain, genesis is 0.
	PrevHash  Digest `json:"previous_hash"` // Hash of the previous block in the chain.
	Proof     uint64 `json:"proof"`         // Value identified to solve the POW puzzle.
	TimeStamp uint64 `json:"timestamp"`     // Time the block was sealed.
	Trans     []Tx   `json:"transactions"`  // Pending transactions at the time of sealing.
}

// NewBlock constructs the next block to be appended after the specified
// previous block.
func NewBlock(prevBlock Block, proof uint64, trans []Tx) Block {
	return Block{
		Index:     prevBlock.Index + 1,
		PrevHash:  prevBlock.Hash(),
		Proof:     proof,
		TimeStamp: uint64(time.Now().UTC().Unix()),
		Trans:     trans,
	}
}

// NewGenesisBlock constructs the first block of a chain.
func NewGenesisBlock(date time.Time, proof uint64) Block {
	return Block{
		Index:     0,
		PrevHash:  GenesisPrevHash,
		Proof:     proof,
		TimeStamp: uint64(date.UTC().Unix()),
		Trans:     []Tx{},
	}
}

// Hash returns the unique hash for the Block.
func (b Block) Hash() Digest {
	return Hash(b)
}

// String implements the Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("%d:%s", b.Index, b.Hash())
}

// =============================================================================

// CanonicalEncode serializes the block into the byte form used for hashing
// and for exchanging blocks between nodes. Keys are emitted in a fixed order
// and transactions keep their stored order.
func CanonicalEncode(b Block) []byte {
	if b.Trans == nil {
		b.Trans = []Tx{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	// Every field is a number, a string, or a hex digest so encoding
	// can't fail.
	if err := enc.Encode(b); err != nil {
		panic(fmt.Sprintf("canonical encode: %s", err))
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}

// Hash returns the SHA-256 digest of the canonical encoding of the block.
func Hash(b Block) Digest {
	return sha256.Sum256(CanonicalEncode(b))
}
