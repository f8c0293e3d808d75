// Package pow implements the proof of work puzzle that binds consecutive
// blocks in the chain.
package pow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// DefaultDifficulty is the number of leading hex 0's a solved hash must have.
// Four zeros means roughly 2^16 attempts per block.
const DefaultDifficulty = 4

// maxDifficulty is the number of hex characters in a SHA-256 hash.
const maxDifficulty = sha256.Size * 2

// checkInterval is how many attempts are made between checks for a
// cancelled context.
const checkInterval = 1 << 10

// =============================================================================

// POW represents the puzzle at a fixed difficulty.
type POW struct {
	difficulty int
}

// New constructs a puzzle with the specified difficulty.
func New(difficulty int) (POW, error) {
	if difficulty < 1 || difficulty > maxDifficulty {
		return POW{}, fmt.Errorf("difficulty must be between 1 and %d, got %d", maxDifficulty, difficulty)
	}

	return POW{difficulty: difficulty}, nil
}

// Default constructs a puzzle with the default difficulty.
func Default() POW {
	return POW{difficulty: DefaultDifficulty}
}

// Difficulty returns the number of leading 0's required.
func (p POW) Difficulty() int {
	return p.difficulty
}

// Solve scans upward from 0 and returns the first proof that solves the puzzle
// against lastProof. The search only stops early if the context is cancelled.
func (p POW) Solve(ctx context.Context, lastProof uint64) (uint64, error) {
	for proof := uint64(0); ; proof++ {
		if proof%checkInterval == 0 && ctx.Err() != nil {
			return 0, ctx.Err()
		}

		if p.ValidProof(lastProof, proof) {
			return proof, nil
		}
	}
}

// ValidProof reports whether the hash of the decimal strings of lastProof
// and proof, concatenated, starts with the required number of 0's.
func (p POW) ValidProof(lastProof uint64, proof uint64) bool {
	guess := strconv.AppendUint(nil, lastProof, 10)
	guess = strconv.AppendUint(guess, proof, 10)

	hash := sha256.Sum256(guess)
	return isHashSolved(p.difficulty, hex.EncodeToString(hash[:]))
}

// =============================================================================

// Solve finds the proof for lastProof at the default difficulty.
func Solve(ctx context.Context, lastProof uint64) (uint64, error) {
	return Default().Solve(ctx, lastProof)
}

// ValidProof validates the proof at the default difficulty.
func ValidProof(lastProof uint64, proof uint64) bool {
	return Default().ValidProof(lastProof, proof)
}

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty int, hash string) bool {
	const match = "0000000000000000000000000000000000000000000000000000000000000000"

	if len(hash) != maxDifficulty {
		return false
	}

	return hash[:difficulty] == match[:difficulty]
}
