package public

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// newTx is what clients submit to add a transaction to the pending pool.
type newTx struct {
	Sender    string `json:"sender" validate:"required"`
	Recipient string `json:"recipient" validate:"required"`
	Amount    uint64 `json:"amount"`
}

// registerNodes is what clients submit to add peers to this node.
type registerNodes struct {
	Nodes []string `json:"nodes" validate:"required,min=1,dive,required"`
}

type txAccepted struct {
	Message string `json:"message"`
	Index   uint64 `json:"index"`
}

type blockForged struct {
	Message string         `json:"message"`
	Block   database.Block `json:"block"`
}

type chain struct {
	Length int              `json:"length"`
	Chain  []database.Block `json:"chain"`
}

type nodesRegistered struct {
	Message    string   `json:"message"`
	TotalNodes []string `json:"total_nodes"`
}

type resolved struct {
	Message  string           `json:"message"`
	Replaced bool             `json:"replaced"`
	Chain    []database.Block `json:"chain"`
}
