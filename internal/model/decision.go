package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// DecisionKind enumerates eligibility outcomes for a bridge event.
type DecisionKind string

const (
	// DecisionSend means a drip should be dispatched to Target.
	DecisionSend DecisionKind = "send"
	// DecisionSkipWrongDirection means the origin transaction was a
	// to-origin-chain bridging call, so the counterpart is leaving.
	DecisionSkipWrongDirection DecisionKind = "skip_wrong_direction"
	// DecisionSkipFunded means the target already holds enough native
	// currency to pay its own fees.
	DecisionSkipFunded DecisionKind = "skip_funded"
)

// Decision is the outcome of the eligibility check for one event. Target is
// set for DecisionSend; Balance is set for DecisionSkipFunded.
type Decision struct {
	Kind    DecisionKind
	Target  common.Address
	Balance decimal.Decimal
}
