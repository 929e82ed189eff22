package model

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EventKind identifies which bridge contract event produced a BridgeEvent.
type EventKind string

const (
	// KindInitiated is emitted when tokens start crossing toward the origin chain.
	KindInitiated EventKind = "TokensBridgingInitiated"
	// KindBridged is emitted when tokens arrive on the destination chain.
	KindBridged EventKind = "TokensBridged"
)

// BridgeEvent is the normalized form of a bridge contract log. Counterpart
// is the event sender for Initiated events and the recipient for Bridged
// events. Amount is in the token's smallest unit.
type BridgeEvent struct {
	Kind        EventKind
	Token       common.Address
	Amount      *big.Int
	Counterpart common.Address
	TxHash      common.Hash
	LogIndex    uint
	BlockNumber uint64
}

// Key uniquely identifies the log that produced this event.
func (e BridgeEvent) Key() string {
	return fmt.Sprintf("%s:%d", e.TxHash.Hex(), e.LogIndex)
}
