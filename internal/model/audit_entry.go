package model

// Audit outcomes written to the append-only log.
const (
	OutcomeSent           = "sent"
	OutcomeSendFailed     = "send_failed"
	OutcomeWrongDirection = "wrong_direction"
	OutcomeEnoughFee      = "enough_fee"
	OutcomeLookupFailed   = "lookup_failed"
)

// AuditEntry is one line of the audit log. Amount and Balance are decimal
// strings; empty fields are omitted.
type AuditEntry struct {
	Time      string `json:"ts"`
	Recipient string `json:"recipient"`
	Outcome   string `json:"outcome"`
	Amount    string `json:"amount,omitempty"`
	Balance   string `json:"balance,omitempty"`
	TxHash    string `json:"tx_hash,omitempty"`
	Error     string `json:"error,omitempty"`
}
