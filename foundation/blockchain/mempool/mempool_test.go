package mempool_test

import (
	"sync"
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestCRUD(t *testing.T) {
	type table struct {
		name string
		txs  []database.Tx
	}

	tt := []table{
		{
			name: "basic",
			txs: []database.Tx{
				database.NewTx("A", "B", 10),
				database.NewTx("B", "C", 5),
				database.NewTx("C", "A", 1),
				database.NewTx("A", "B", 10),
			},
		},
	}

	t.Log("Given the need to validate mempool api.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a set of transaction.", testID)
			{
				f := func(t *testing.T) {
					mp := mempool.New()

					for i, tx := range tst.txs {
						if n := mp.Upsert(tx); n != i+1 {
							t.Fatalf("\t%s\tTest %d:\tShould get back the pool size %d, got %d.", failed, testID, i+1, n)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould be able to add new transactions.", success, testID)

					for i, tx := range mp.Copy() {
						if tx != tst.txs[i] {
							t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, tx)
							t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.txs[i])
							t.Fatalf("\t%s\tTest %d:\tShould keep submission order.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould keep submission order.", success, testID)

					picked := mp.PickAll()
					if len(picked) != len(tst.txs) {
						t.Fatalf("\t%s\tTest %d:\tShould pick every transaction, got %d.", failed, testID, len(picked))
					}
					for i := range picked {
						if picked[i] != tst.txs[i] {
							t.Fatalf("\t%s\tTest %d:\tShould pick in submission order.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould pick every transaction in order.", success, testID)

					if mp.Count() != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould leave the pool empty after picking.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould leave the pool empty after picking.", success, testID)

					mp.Upsert(tst.txs[0])
					mp.Truncate()
					if l := len(mp.Copy()); l != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould be able to truncate mempool.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to truncate mempool.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestDelete(t *testing.T) {
	t.Log("Given the need to remove transactions sealed elsewhere.")
	{
		mp := mempool.New()

		ab := database.NewTx("A", "B", 10)
		bc := database.NewTx("B", "C", 5)
		mp.Upsert(ab)
		mp.Upsert(bc)
		mp.Upsert(ab)

		if !mp.Delete(ab) {
			t.Fatalf("\t%s\tShould be able to delete a pending transaction.", failed)
		}
		t.Logf("\t%s\tShould be able to delete a pending transaction.", success)

		got := mp.Copy()
		if len(got) != 2 || got[0] != bc || got[1] != ab {
			t.Fatalf("\t%s\tShould remove only the first copy, got %v.", failed, got)
		}
		t.Logf("\t%s\tShould remove only the first copy.", success)

		if mp.Delete(database.NewTx("C", "A", 1)) {
			t.Fatalf("\t%s\tShould report a transaction that isn't pending.", failed)
		}
		t.Logf("\t%s\tShould report a transaction that isn't pending.", success)
	}
}

func TestPickAllConcurrent(t *testing.T) {
	t.Log("Given the need to pick transactions while others are being added.")
	{
		const writers = 8
		const perWriter = 500

		mp := mempool.New()

		var wg sync.WaitGroup
		wg.Add(writers)
		for w := 0; w < writers; w++ {
			go func() {
				defer wg.Done()
				for i := 0; i < perWriter; i++ {
					mp.Upsert(database.NewTx("A", "B", uint64(i)))
				}
			}()
		}

		var total int
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

	loop:
		for {
			select {
			case <-done:
				break loop
			default:
				total += len(mp.PickAll())
			}
		}
		total += len(mp.PickAll())

		if total != writers*perWriter {
			t.Fatalf("\t%s\tShould see every transaction exactly once, got %d exp %d.", failed, total, writers*perWriter)
		}
		t.Logf("\t%s\tShould see every transaction exactly once.", success)
	}
}
