package database_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/disk"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/pebbledb"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/powledger/foundation/blockchain/pow"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	genesisJSON  = `{"index":0,"previous_hash":"6b86b273ff34fce19d6b804eff5a3f5747ada4eaa22f1d49c01e52ddb7875b4b","proof":100,"timestamp":1735689600,"transactions":[]}`
	genesisHash  = "11a4d3d154c62a2e9097572ec76ca12f709a78f97e26506caea72c5ab46a7819"
	block1Hash   = "dd4eb2a55b67ebae3d1df95ef93fbea717e6b2af8937b1f995596be57605510d"
	block1Proof  = 35293
	block1TimeTS = 1735689660
)

func genesisBlock() database.Block {
	return database.NewGenesisBlock(genesis.DefaultDate, genesis.DefaultProof)
}

func block1() database.Block {
	return database.Block{
		Index:     1,
		PrevHash:  genesisBlock().Hash(),
		Proof:     block1Proof,
		TimeStamp: block1TimeTS,
		Trans: []database.Tx{
			database.NewTx("A", "B", 10),
			database.NewTx("B", "C", 5),
		},
	}
}

// =============================================================================

func Test_Hash(t *testing.T) {
	t.Log("Given the need to hash blocks the same way on every node.")
	{
		gb := genesisBlock()

		if got := string(database.CanonicalEncode(gb)); got != genesisJSON {
			t.Logf("\t%s\tgot: %s", failed, got)
			t.Logf("\t%s\texp: %s", failed, genesisJSON)
			t.Fatalf("\t%s\tShould encode keys in a fixed order.", failed)
		}
		t.Logf("\t%s\tShould encode keys in a fixed order.", success)

		if h := gb.Hash().String(); h != genesisHash {
			t.Logf("\t%s\tgot: %s", failed, h)
			t.Logf("\t%s\texp: %s", failed, genesisHash)
			t.Fatalf("\t%s\tShould get back the genesis hash.", failed)
		}
		t.Logf("\t%s\tShould get back the genesis hash.", success)

		if h := block1().Hash().String(); h != block1Hash {
			t.Logf("\t%s\tgot: %s", failed, h)
			t.Logf("\t%s\texp: %s", failed, block1Hash)
			t.Fatalf("\t%s\tShould get back the block hash.", failed)
		}
		t.Logf("\t%s\tShould get back the block hash.", success)

		nilTrans := gb
		nilTrans.Trans = nil
		if nilTrans.Hash() != gb.Hash() {
			t.Fatalf("\t%s\tShould hash no transactions the same as an empty list.", failed)
		}
		t.Logf("\t%s\tShould hash no transactions the same as an empty list.", success)

		html := database.Block{Trans: []database.Tx{database.NewTx("<a>", "b&c", 1)}}
		if got := string(database.CanonicalEncode(html)); got != `{"index":0,"previous_hash":"0000000000000000000000000000000000000000000000000000000000000000","proof":0,"timestamp":0,"transactions":[{"amount":1,"recipient":"b&c","sender":"<a>"}]}` {
			t.Fatalf("\t%s\tShould not escape html characters, got %s.", failed, got)
		}
		t.Logf("\t%s\tShould not escape html characters.", success)
	}
}

func Test_HashSensitivity(t *testing.T) {
	type table struct {
		name   string
		mutate func(b *database.Block)
	}

	tt := []table{
		{name: "index", mutate: func(b *database.Block) { b.Index++ }},
		{name: "prevhash", mutate: func(b *database.Block) { b.PrevHash[0] ^= 1 }},
		{name: "proof", mutate: func(b *database.Block) { b.Proof++ }},
		{name: "timestamp", mutate: func(b *database.Block) { b.TimeStamp++ }},
		{name: "amount", mutate: func(b *database.Block) { b.Trans[0].Amount++ }},
		{name: "order", mutate: func(b *database.Block) { b.Trans[0], b.Trans[1] = b.Trans[1], b.Trans[0] }},
		{name: "drop-tx", mutate: func(b *database.Block) { b.Trans = b.Trans[:1] }},
	}

	t.Log("Given the need to detect any change to a block.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen changing the %s.", testID, tst.name)
			{
				f := func(t *testing.T) {
					b := block1()
					tst.mutate(&b)

					if b.Hash() == block1().Hash() {
						t.Fatalf("\t%s\tTest %d:\tShould change the hash.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould change the hash.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_Digest(t *testing.T) {
	t.Log("Given the need to exchange hashes as hex strings.")
	{
		d, err := database.ToDigest(genesisHash)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse a hex digest: %s", failed, err)
		}
		if d != genesisBlock().Hash() {
			t.Fatalf("\t%s\tShould get back the same digest.", failed)
		}
		t.Logf("\t%s\tShould be able to parse a hex digest.", success)

		for _, bad := range []string{"", "abc", genesisHash[:63] + "z"} {
			if _, err := database.ToDigest(bad); err == nil {
				t.Fatalf("\t%s\tShould reject digest %q.", failed, bad)
			}
		}
		t.Logf("\t%s\tShould reject malformed digests.", success)
	}
}

func Test_ValidateChain(t *testing.T) {
	puzzle := pow.Default()

	t.Log("Given the need to validate a chain.")
	{
		chain := []database.Block{genesisBlock(), block1()}

		if err := database.ValidateChain(chain, puzzle.ValidProof); err != nil {
			t.Fatalf("\t%s\tShould accept a valid chain: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept a valid chain.", success)

		if !database.IsValidChain(chain[:1], puzzle.ValidProof) {
			t.Fatalf("\t%s\tShould accept a genesis only chain.", failed)
		}
		t.Logf("\t%s\tShould accept a genesis only chain.", success)

		if err := database.ValidateChain(nil, puzzle.ValidProof); !errors.Is(err, database.ErrEmptyChain) {
			t.Fatalf("\t%s\tShould reject an empty chain, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject an empty chain.", success)

		broken := []database.Block{genesisBlock(), block1()}
		broken[0].TimeStamp++
		if err := database.ValidateChain(broken, puzzle.ValidProof); !errors.Is(err, database.ErrInvalidChain) {
			t.Fatalf("\t%s\tShould reject a broken link, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject a broken link.", success)

		badProof := []database.Block{genesisBlock(), block1()}
		badProof[1].Proof++
		if database.IsValidChain(badProof, puzzle.ValidProof) {
			t.Fatalf("\t%s\tShould reject a proof that does not solve the puzzle.", failed)
		}
		t.Logf("\t%s\tShould reject a proof that does not solve the puzzle.", success)
	}
}

func Test_TxValidate(t *testing.T) {
	type table struct {
		name  string
		tx    database.Tx
		valid bool
	}

	tt := []table{
		{name: "ascii", tx: database.NewTx("A", "B", 10), valid: true},
		{name: "unicode", tx: database.NewTx("josé", "平", 1), valid: true},
		{name: "bad-sender", tx: database.NewTx("\xff", "x", 1)},
		{name: "bad-recipient", tx: database.NewTx("x", "a\xfeb", 1)},
	}

	t.Log("Given the need to only hash transactions that encode without loss.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen checking a %s transaction.", testID, tst.name)
			{
				f := func(t *testing.T) {
					err := tst.tx.Validate()
					if tst.valid && err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould accept the transaction: %s", failed, testID, err)
					}
					if !tst.valid && !errors.Is(err, database.ErrInvalidTx) {
						t.Fatalf("\t%s\tTest %d:\tShould reject the transaction, got %v.", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould report valid %v.", success, testID, tst.valid)
				}

				t.Run(tst.name, f)
			}
		}
	}

	t.Log("Given the need to reject chains holding transactions that can't be encoded.")
	{
		b1 := block1()
		b1.Trans = []database.Tx{database.NewTx("\xff", "x", 1)}

		err := database.ValidateChain([]database.Block{genesisBlock(), b1}, pow.Default().ValidProof)
		if !errors.Is(err, database.ErrInvalidChain) || !errors.Is(err, database.ErrInvalidTx) {
			t.Fatalf("\t%s\tShould reject the chain, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject the chain.", success)
	}
}

// =============================================================================

func Test_Serializers(t *testing.T) {
	type table struct {
		name string
		open func(t *testing.T) database.Serializer
	}

	tt := []table{
		{
			name: "memory",
			open: func(t *testing.T) database.Serializer {
				return memory.New()
			},
		},
		{
			name: "disk",
			open: func(t *testing.T) database.Serializer {
				d, err := disk.New(t.TempDir())
				if err != nil {
					t.Fatalf("\t%s\tShould be able to open disk storage: %s", failed, err)
				}
				return d
			},
		},
		{
			name: "pebble",
			open: func(t *testing.T) database.Serializer {
				p, err := pebbledb.New(t.TempDir())
				if err != nil {
					t.Fatalf("\t%s\tShould be able to open pebble storage: %s", failed, err)
				}
				return p
			},
		},
	}

	t.Log("Given the need to store blocks.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen using %s storage.", testID, tst.name)
			{
				f := func(t *testing.T) {
					db := database.New(tst.open(t))
					defer db.Close()

					chain, err := db.ReadChain()
					if err != nil || len(chain) != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould start empty: %d %v.", failed, testID, len(chain), err)
					}
					t.Logf("\t%s\tTest %d:\tShould start empty.", success, testID)

					exp := []database.Block{genesisBlock(), block1()}
					for _, b := range exp {
						if err := db.Write(b); err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to write block %d: %s", failed, testID, b.Index, err)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould be able to write blocks.", success, testID)

					chain, err = db.ReadChain()
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to read the chain: %s", failed, testID, err)
					}
					if len(chain) != len(exp) {
						t.Fatalf("\t%s\tTest %d:\tShould read back %d blocks, got %d.", failed, testID, len(exp), len(chain))
					}
					for i := range exp {
						if chain[i].Hash() != exp[i].Hash() {
							t.Fatalf("\t%s\tTest %d:\tShould read back block %d unchanged.", failed, testID, i)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould read back the blocks unchanged.", success, testID)

					b, err := db.GetBlock(1)
					if err != nil || b.Hash().String() != block1Hash {
						t.Fatalf("\t%s\tTest %d:\tShould get back block 1: %v.", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get back block 1.", success, testID)

					if _, err := db.GetBlock(5); err == nil {
						t.Fatalf("\t%s\tTest %d:\tShould fail to get a missing block.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould fail to get a missing block.", success, testID)

					other := genesisBlock()
					other.TimeStamp = uint64(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC).Unix())
					if err := db.Replace([]database.Block{other}); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to replace the chain: %s", failed, testID, err)
					}

					chain, err = db.ReadChain()
					if err != nil || len(chain) != 1 || chain[0].Hash() != other.Hash() {
						t.Fatalf("\t%s\tTest %d:\tShould hold only the replacement chain: %d %v.", failed, testID, len(chain), err)
					}
					t.Logf("\t%s\tTest %d:\tShould hold only the replacement chain.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}
