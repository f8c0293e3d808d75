package pow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/pow"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Solve(t *testing.T) {
	type table struct {
		difficulty int
		lastProof  uint64
		proof      uint64
	}

	tt := []table{
		{difficulty: 1, lastProof: 0, proof: 3},
		{difficulty: 1, lastProof: 100, proof: 16},
		{difficulty: 2, lastProof: 0, proof: 563},
		{difficulty: 2, lastProof: 100, proof: 226},
		{difficulty: 3, lastProof: 0, proof: 2832},
		{difficulty: 3, lastProof: 100, proof: 6016},
		{difficulty: 4, lastProof: 0, proof: 69732},
		{difficulty: 4, lastProof: 100, proof: 35293},
	}

	t.Log("Given the need to solve the puzzle the same way on every node.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen solving for %d at difficulty %d.", testID, tst.lastProof, tst.difficulty)
			{
				puzzle, err := pow.New(tst.difficulty)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to construct the puzzle: %s", failed, testID, err)
				}

				proof, err := puzzle.Solve(context.Background(), tst.lastProof)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to solve the puzzle: %s", failed, testID, err)
				}

				if proof != tst.proof {
					t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, proof)
					t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, tst.proof)
					t.Fatalf("\t%s\tTest %d:\tShould find the smallest proof.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould find the smallest proof.", success, testID)

				for p := range tst.proof {
					if puzzle.ValidProof(tst.lastProof, p) {
						t.Fatalf("\t%s\tTest %d:\tShould not accept smaller proof %d.", failed, testID, p)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould not accept a smaller proof.", success, testID)
			}
		}
	}
}

func Test_DefaultChain(t *testing.T) {
	exp := []uint64{35293, 35089, 119678, 146502}

	t.Log("Given the need to chain proofs at the default difficulty.")
	{
		last := uint64(100)
		for i, want := range exp {
			proof, err := pow.Solve(context.Background(), last)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to solve proof %d: %s", failed, i, err)
			}

			if proof != want || !pow.ValidProof(last, proof) {
				t.Fatalf("\t%s\tShould get proof %d for %d, got %d.", failed, want, last, proof)
			}

			last = proof
		}
		t.Logf("\t%s\tShould get back the expected proofs.", success)
	}
}

func Test_Difficulty(t *testing.T) {
	t.Log("Given the need to bound the difficulty.")
	{
		for _, d := range []int{0, -1, 65} {
			if _, err := pow.New(d); err == nil {
				t.Fatalf("\t%s\tShould reject difficulty %d.", failed, d)
			}
		}
		t.Logf("\t%s\tShould reject difficulties out of range.", success)

		puzzle, err := pow.New(64)
		if err != nil || puzzle.Difficulty() != 64 {
			t.Fatalf("\t%s\tShould accept the max difficulty: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept the max difficulty.", success)

		if pow.Default().Difficulty() != pow.DefaultDifficulty {
			t.Fatalf("\t%s\tShould default to difficulty %d.", failed, pow.DefaultDifficulty)
		}
		t.Logf("\t%s\tShould default to difficulty %d.", success, pow.DefaultDifficulty)
	}
}

func Test_Cancel(t *testing.T) {
	t.Log("Given the need to stop a search that can't finish.")
	{
		puzzle, err := pow.New(64)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the puzzle: %s", failed, err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := puzzle.Solve(ctx, 100); !errors.Is(err, context.Canceled) {
			t.Fatalf("\t%s\tShould stop with the context error, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould stop with the context error.", success)
	}
}
