package errs_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ardanlabs/powledger/business/web/errs"
	"github.com/ardanlabs/powledger/foundation/blockchain/consensus"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Ledger(t *testing.T) {
	type table struct {
		name   string
		err    error
		status int
	}

	tt := []table{
		{name: "invalid-tx", err: fmt.Errorf("submit: %w", database.ErrInvalidTx), status: http.StatusBadRequest},
		{name: "invalid-chain", err: fmt.Errorf("adopt: %w", database.ErrInvalidChain), status: http.StatusUnprocessableEntity},
		{name: "malformed", err: consensus.ErrMalformedPeerChain, status: http.StatusUnprocessableEntity},
		{name: "stale-tip", err: state.ErrStaleTip, status: http.StatusConflict},
		{name: "cancelled", err: fmt.Errorf("mine: %w", context.Canceled), status: http.StatusServiceUnavailable},
		{name: "trusted", err: errs.NewTrusted(errors.New("bad"), http.StatusTeapot), status: http.StatusTeapot},
		{name: "unknown", err: errors.New("disk full")},
	}

	t.Log("Given the need to map ledger failures to response codes.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling %s.", testID, tst.name)
			{
				f := func(t *testing.T) {
					err := errs.Ledger(tst.err)

					trusted := errs.GetTrusted(err)
					if tst.status == 0 {
						if trusted != nil {
							t.Fatalf("\t%s\tTest %d:\tShould leave unknown errors untrusted, got %d.", failed, testID, trusted.Status)
						}
						t.Logf("\t%s\tTest %d:\tShould leave unknown errors untrusted.", success, testID)
						return
					}

					if trusted == nil || trusted.Status != tst.status {
						t.Fatalf("\t%s\tTest %d:\tShould respond with %d, got %+v.", failed, testID, tst.status, trusted)
					}
					t.Logf("\t%s\tTest %d:\tShould respond with %d.", success, testID, tst.status)

					if !errors.Is(err, tst.err) {
						t.Fatalf("\t%s\tTest %d:\tShould keep the original error reachable.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould keep the original error reachable.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}

	if errs.Ledger(nil) != nil {
		t.Fatalf("\t%s\tShould pass a nil error through.", failed)
	}
}
