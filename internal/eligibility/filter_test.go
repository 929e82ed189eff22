package eligibility

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"bridgeDrip/internal/chain"
	"bridgeDrip/internal/model"
)

type fakeTxReader struct {
	info chain.TxInfo
	err  error
}

func (f fakeTxReader) TransactionInfo(_ context.Context, _ common.Hash) (chain.TxInfo, error) {
	return f.info, f.err
}

type fakeBalanceReader struct {
	balances map[common.Address]*big.Int
}

func (f fakeBalanceReader) BalanceAt(_ context.Context, address common.Address) (*big.Int, error) {
	wei, ok := f.balances[address]
	if !ok {
		return nil, fmt.Errorf("no balance stubbed for %s", address.Hex())
	}
	return wei, nil
}

func ether(s string) *big.Int {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return model.WeiFromNative(d)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

var (
	recipient = common.HexToAddress("0x0000000000000000000000000000000000000bbb")
	sender    = common.HexToAddress("0x0000000000000000000000000000000000000ddd")
)

func bridgedEvent() model.BridgeEvent {
	return model.BridgeEvent{
		Kind:        model.KindBridged,
		Token:       common.HexToAddress("0x0000000000000000000000000000000000000aaa"),
		Amount:      big.NewInt(1000),
		Counterpart: recipient,
		TxHash:      common.HexToHash("0xdeadbeef00000000000000000000000000000000000000000000000000000001"),
	}
}

func TestEvaluateWrongDirection(t *testing.T) {
	txs := fakeTxReader{info: chain.TxInfo{
		Input: common.Hex2Bytes("23caab490000000000000000000000000000000000000000000000000000000000000bbb"),
		From:  sender,
	}}
	balances := fakeBalanceReader{}

	filter := NewFilter(txs, balances, nil, dec("0.1"), nil)

	decision, err := filter.Evaluate(context.Background(), bridgedEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Kind != model.DecisionSkipWrongDirection {
		t.Fatalf("expected wrong-direction skip, got %s", decision.Kind)
	}
	if decision.Target != recipient {
		t.Fatalf("target mismatch: %s", decision.Target.Hex())
	}
}

func TestEvaluateBlacklistRedirect(t *testing.T) {
	blacklist, err := NewBlacklist([]string{recipient.Hex()})
	if err != nil {
		t.Fatalf("new blacklist: %v", err)
	}

	txs := fakeTxReader{info: chain.TxInfo{Input: []byte{0x01, 0x02, 0x03, 0x04}, From: sender}}
	balances := fakeBalanceReader{balances: map[common.Address]*big.Int{
		sender: ether("0"),
	}}

	filter := NewFilter(txs, balances, blacklist, dec("0.1"), nil)

	decision, err := filter.Evaluate(context.Background(), bridgedEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Kind != model.DecisionSend {
		t.Fatalf("expected send, got %s", decision.Kind)
	}
	if decision.Target != sender {
		t.Fatalf("drip must go to origin sender, got %s", decision.Target.Hex())
	}
}

func TestEvaluateSkipsFundedTarget(t *testing.T) {
	txs := fakeTxReader{info: chain.TxInfo{Input: []byte{}, From: sender}}
	balances := fakeBalanceReader{balances: map[common.Address]*big.Int{
		recipient: ether("0.5"),
	}}

	filter := NewFilter(txs, balances, nil, dec("0.1"), nil)

	decision, err := filter.Evaluate(context.Background(), bridgedEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Kind != model.DecisionSkipFunded {
		t.Fatalf("expected funded skip, got %s", decision.Kind)
	}
	if !decision.Balance.Equal(dec("0.5")) {
		t.Fatalf("balance mismatch: %s", decision.Balance)
	}
}

func TestEvaluateSendsToEmptyWallet(t *testing.T) {
	txs := fakeTxReader{info: chain.TxInfo{Input: []byte{}, From: sender}}
	balances := fakeBalanceReader{balances: map[common.Address]*big.Int{
		recipient: big.NewInt(0),
	}}

	filter := NewFilter(txs, balances, nil, dec("0.1"), nil)

	decision, err := filter.Evaluate(context.Background(), bridgedEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Kind != model.DecisionSend {
		t.Fatalf("expected send, got %s", decision.Kind)
	}
	if decision.Target != recipient {
		t.Fatalf("target mismatch: %s", decision.Target.Hex())
	}
}

func TestEvaluateAbortsOnLookupFailure(t *testing.T) {
	txs := fakeTxReader{err: fmt.Errorf("node unavailable")}
	filter := NewFilter(txs, fakeBalanceReader{}, nil, dec("0.1"), nil)

	if _, err := filter.Evaluate(context.Background(), bridgedEvent()); err == nil {
		t.Fatalf("expected error when origin transaction lookup fails")
	}
}

func TestBlacklistRejectsInvalidAddress(t *testing.T) {
	if _, err := NewBlacklist([]string{"not-an-address"}); err == nil {
		t.Fatalf("expected error for invalid address")
	}
}

func TestBlacklistContains(t *testing.T) {
	blacklist, err := NewBlacklist([]string{recipient.Hex(), "", "  "})
	if err != nil {
		t.Fatalf("new blacklist: %v", err)
	}
	if !blacklist.Contains(recipient) {
		t.Fatalf("expected recipient to be blacklisted")
	}
	if blacklist.Contains(sender) {
		t.Fatalf("sender must not be blacklisted")
	}
	if blacklist.Len() != 1 {
		t.Fatalf("blank entries must be dropped, got %d", blacklist.Len())
	}
}
