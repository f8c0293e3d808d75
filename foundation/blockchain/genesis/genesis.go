// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// Default values used when no genesis file exists.
const (
	DefaultDifficulty = 4   // Number of leading hex 0's a proof hash needs.
	DefaultProof      = 100 // Proof recorded in the genesis block.
)

// DefaultDate is the creation date recorded in the default genesis block. All
// nodes must share it so their genesis blocks hash the same.
var DefaultDate = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// Genesis represents the genesis file.
type Genesis struct {
	Date       time.Time `json:"date"`       // Timestamp recorded in the genesis block.
	Difficulty uint16    `json:"difficulty"` // How difficult it needs to be to solve the work problem.
	Proof      uint64    `json:"proof"`      // Proof recorded in the genesis block.
}

// Default returns the genesis values used by every node unless a genesis
// file says otherwise.
func Default() Genesis {
	return Genesis{
		Date:       DefaultDate,
		Difficulty: DefaultDifficulty,
		Proof:      DefaultProof,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. If the file does not exist the
// default genesis is returned.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("unmarshal genesis: %w", err)
	}

	if genesis.Difficulty == 0 || genesis.Difficulty > 64 {
		return Genesis{}, fmt.Errorf("invalid difficulty %d", genesis.Difficulty)
	}

	return genesis, nil
}
