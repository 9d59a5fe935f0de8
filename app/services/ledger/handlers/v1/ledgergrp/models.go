package ledgergrp

import (
	"github.com/donorchain/ledger/foundation/blockchain/database"
	"github.com/donorchain/ledger/foundation/blockchain/state"
)

type chainInfo struct {
	Blocks []database.BlockData `json:"blocks"`
	Length int                  `json:"length"`
}

type poolInfo struct {
	Transactions []database.BlockTx `json:"transactions"`
	Length       int                `json:"length"`
}

type txInfo struct {
	Index       uint64           `json:"index"`
	Transaction database.BlockTx `json:"transaction"`
}

type submitted struct {
	Status      string           `json:"status"`
	Transaction database.BlockTx `json:"transaction"`
}

type recorded struct {
	Transaction database.Tx        `json:"transaction"`
	Block       database.BlockData `json:"block"`
}

type validity struct {
	state.Validity
	Halted bool `json:"halted"`
}

type verified struct {
	Valid bool `json:"valid"`
}
