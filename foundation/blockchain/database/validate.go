package database

import (
	"errors"
	"fmt"
)

// ErrInvalidChain is returned when a chain fails linkage or proof of work
// validation.
var ErrInvalidChain = errors.New("invalid chain")

// ProofValidator reports whether proof solves the proof of work puzzle
// relative to lastProof.
type ProofValidator func(lastProof uint64, proof uint64) bool

// ValidateChain walks the chain end to end and checks every block is linked
// to its parent by hash and that every proof solves the puzzle against its
// parent's proof. The first failing block is reported.
func ValidateChain(chain []Block, validProof ProofValidator) error {
	if len(chain) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChain, ErrEmptyChain)
	}

	for i := 1; i < len(chain); i++ {
		if err := ValidateBlock(chain[i-1], chain[i], validProof); err != nil {
			return fmt.Errorf("%w: block[%d]: %w", ErrInvalidChain, i, err)
		}
	}

	return nil
}

// IsValidChain reports whether the chain passes ValidateChain. A chain
// holding only a genesis block is valid by definition.
func IsValidChain(chain []Block, validProof ProofValidator) bool {
	return ValidateChain(chain, validProof) == nil
}

// ValidateBlock checks the specified block can follow the previous block.
func ValidateBlock(prevBlock Block, block Block, validProof ProofValidator) error {
	if hash := prevBlock.Hash(); block.PrevHash != hash {
		return fmt.Errorf("parent block hash doesn't match, got %s, exp %s", block.PrevHash, hash)
	}

	if !validProof(prevBlock.Proof, block.Proof) {
		return fmt.Errorf("proof %d does not solve the puzzle for parent proof %d", block.Proof, prevBlock.Proof)
	}

	for _, tx := range block.Trans {
		if err := tx.Validate(); err != nil {
			return err
		}
	}

	return nil
}
