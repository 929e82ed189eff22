package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// OperatorStatus is the single durable counters record. WalletFunded only
// ever increases, one increment per confirmed disbursement; TotalGivenAway
// grows by the exact drip amount each time. Amounts are exact decimals in
// the funding chain's native unit.
type OperatorStatus struct {
	WalletFunded   uint64          `json:"wallet_funded"`
	TotalGivenAway decimal.Decimal `json:"pls_given_away"`
	Balance        decimal.Decimal `json:"balance"`
}

// ZeroStatus returns the record used when no prior state exists.
func ZeroStatus() OperatorStatus {
	return OperatorStatus{
		WalletFunded:   0,
		TotalGivenAway: decimal.Zero,
		Balance:        decimal.Zero,
	}
}

// MarshalJSON ensures OperatorStatus is encoded with stable field names.
func (s OperatorStatus) MarshalJSON() ([]byte, error) {
	type Alias OperatorStatus
	return json.Marshal(Alias(s))
}

// UnmarshalJSON decodes an OperatorStatus from JSON.
func (s *OperatorStatus) UnmarshalJSON(data []byte) error {
	type Alias OperatorStatus
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = OperatorStatus(a)
	return nil
}
