package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Disbursement is one confirmed drip, as stored in the optional Postgres
// history.
type Disbursement struct {
	Recipient   string
	Amount      decimal.Decimal
	TxHash      string
	OriginTx    string
	BlockNumber uint64
	SentAt      time.Time
}
