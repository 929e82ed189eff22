package bridge

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"bridgeDrip/internal/model"
)

// ToOriginSelector is the 4-byte function selector of the bridging call that
// sends tokens back toward the origin chain. Origin transactions starting
// with it mean the counterpart is leaving the destination chain.
var ToOriginSelector = [4]byte{0x23, 0xca, 0xab, 0x49}

// IsToOriginCall reports whether the transaction input invokes the
// to-origin-chain bridging function.
func IsToOriginCall(input []byte) bool {
	return len(input) >= 4 && bytes.Equal(input[:4], ToOriginSelector[:])
}

// Decoder converts bridge contract logs into BridgeEvents.
type Decoder struct {
	bridgeABI   abi.ABI
	initiatedID common.Hash
	bridgedID   common.Hash
}

// NewDecoder builds a decoder for the two bridge event signatures.
func NewDecoder() (*Decoder, error) {
	parsed, err := BridgeABI()
	if err != nil {
		return nil, err
	}

	return &Decoder{
		bridgeABI:   parsed,
		initiatedID: parsed.Events["TokensBridgingInitiated"].ID,
		bridgedID:   parsed.Events["TokensBridged"].ID,
	}, nil
}

// EventTopics returns the topic0 hashes the watcher subscribes to.
func (d *Decoder) EventTopics() []common.Hash {
	return []common.Hash{d.initiatedID, d.bridgedID}
}

// Decode converts a raw log into a BridgeEvent.
func (d *Decoder) Decode(log types.Log) (model.BridgeEvent, error) {
	if len(log.Topics) != 4 {
		return model.BridgeEvent{}, fmt.Errorf("unexpected topic count: %d", len(log.Topics))
	}

	var kind model.EventKind
	var eventName string
	switch log.Topics[0] {
	case d.initiatedID:
		kind = model.KindInitiated
		eventName = "TokensBridgingInitiated"
	case d.bridgedID:
		kind = model.KindBridged
		eventName = "TokensBridged"
	default:
		return model.BridgeEvent{}, fmt.Errorf("unsupported topic0: %s", log.Topics[0].Hex())
	}

	unpacked, err := d.bridgeABI.Unpack(eventName, log.Data)
	if err != nil {
		return model.BridgeEvent{}, fmt.Errorf("unpack %s: %w", eventName, err)
	}
	if len(unpacked) != 1 {
		return model.BridgeEvent{}, fmt.Errorf("unpack %s: unexpected field count %d", eventName, len(unpacked))
	}
	value, ok := unpacked[0].(*big.Int)
	if !ok {
		return model.BridgeEvent{}, fmt.Errorf("unpack %s: value is not uint256", eventName)
	}

	return model.BridgeEvent{
		Kind:        kind,
		Token:       common.BytesToAddress(log.Topics[1].Bytes()),
		Amount:      value,
		Counterpart: common.BytesToAddress(log.Topics[2].Bytes()),
		TxHash:      log.TxHash,
		LogIndex:    log.Index,
		BlockNumber: log.BlockNumber,
	}, nil
}
