package public

import (
	"github.com/basicnode/ledger/foundation/blockchain/database"
)

// submitTx is what a user posts to submit a transaction.
type submitTx struct {
	Sender    string `json:"sender" validate:"required"`
	Recipient string `json:"recipient" validate:"required"`
	Amount    uint64 `json:"amount"`
}

func (st submitTx) toTx() database.Tx {
	return database.NewTx(st.Sender, st.Recipient, st.Amount)
}

type status struct {
	Status string `json:"status"`
}

type mempoolStatus struct {
	Status  string `json:"status"`
	Mempool int    `json:"mempool"`
}

type validation struct {
	Valid  bool   `json:"valid"`
	Blocks int    `json:"blocks"`
	Error  string `json:"error,omitempty"`
	Index  *int   `json:"index,omitempty"`
}
