package dispatch

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	"bridgeDrip/internal/model"
)

type fakeChain struct {
	mu         sync.Mutex
	nonce      uint64
	sent       []*types.Transaction
	sendErr    error
	receiptErr error
}

func (f *fakeChain) PendingNonceAt(_ context.Context, _ common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonce, nil
}

func (f *fakeChain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	f.nonce++
	return nil
}

func (f *fakeChain) WaitForReceipt(_ context.Context, txHash common.Hash, _ time.Duration) (*types.Receipt, error) {
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: txHash}, nil
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls int
	total decimal.Decimal
}

func (f *fakeRecorder) RecordDisbursement(_ context.Context, _ common.Address, amount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.total = f.total.Add(amount)
	return nil
}

type fakeAuditor struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func (f *fakeAuditor) Append(entry model.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditor) byOutcome(outcome string) []model.AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []model.AuditEntry
	for _, entry := range f.entries {
		if entry.Outcome == outcome {
			matched = append(matched, entry)
		}
	}
	return matched
}

func newTestDispatcher(t *testing.T, chain *fakeChain, recorder *fakeRecorder, auditor *fakeAuditor) *Dispatcher {
	t.Helper()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	d, err := NewDispatcher(Config{
		Operator:   crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
		ChainID:    big.NewInt(369),
		DripAmount: decimal.RequireFromString("0.05"),
		GasPrice:   big.NewInt(2_000_000_000_000_000),
		GasLimit:   3_000_000,
	}, chain, recorder, auditor, nil, nil)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	return d
}

var target = common.HexToAddress("0x0000000000000000000000000000000000000bbb")

func testEvent() model.BridgeEvent {
	return model.BridgeEvent{
		Kind:   model.KindBridged,
		TxHash: common.HexToHash("0xdeadbeef00000000000000000000000000000000000000000000000000000001"),
	}
}

func TestDispatchSuccess(t *testing.T) {
	chain := &fakeChain{}
	recorder := &fakeRecorder{}
	auditor := &fakeAuditor{}
	d := newTestDispatcher(t, chain, recorder, auditor)

	if err := d.Dispatch(context.Background(), testEvent(), target); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(chain.sent) != 1 {
		t.Fatalf("expected one transaction, got %d", len(chain.sent))
	}
	tx := chain.sent[0]
	if tx.To() == nil || *tx.To() != target {
		t.Fatalf("recipient mismatch: %v", tx.To())
	}
	wantWei, _ := new(big.Int).SetString("50000000000000000", 10)
	if tx.Value().Cmp(wantWei) != 0 {
		t.Fatalf("value mismatch: %s", tx.Value())
	}
	if tx.Gas() != 3_000_000 {
		t.Fatalf("gas limit mismatch: %d", tx.Gas())
	}

	if recorder.calls != 1 {
		t.Fatalf("recorder calls mismatch: %d", recorder.calls)
	}
	sent := auditor.byOutcome(model.OutcomeSent)
	if len(sent) != 1 {
		t.Fatalf("expected one sent audit entry, got %d", len(sent))
	}
	if sent[0].TxHash == "" {
		t.Fatalf("sent audit entry missing tx hash")
	}
}

func TestConcurrentDispatchesGetDistinctNonces(t *testing.T) {
	chain := &fakeChain{}
	recorder := &fakeRecorder{}
	auditor := &fakeAuditor{}
	d := newTestDispatcher(t, chain, recorder, auditor)

	const drips = 10
	var wg sync.WaitGroup
	for i := 0; i < drips; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.Dispatch(context.Background(), testEvent(), target); err != nil {
				t.Errorf("dispatch: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(chain.sent) != drips {
		t.Fatalf("transaction count mismatch: %d", len(chain.sent))
	}
	seen := make(map[uint64]struct{}, drips)
	for _, tx := range chain.sent {
		if _, dup := seen[tx.Nonce()]; dup {
			t.Fatalf("duplicate nonce %d", tx.Nonce())
		}
		seen[tx.Nonce()] = struct{}{}
	}

	if recorder.calls != drips {
		t.Fatalf("status increments mismatch: %d != %d", recorder.calls, drips)
	}
	if !recorder.total.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("disbursed total mismatch: %s", recorder.total)
	}
}

func TestDispatchSendFailure(t *testing.T) {
	chain := &fakeChain{sendErr: fmt.Errorf("insufficient funds")}
	recorder := &fakeRecorder{}
	auditor := &fakeAuditor{}
	d := newTestDispatcher(t, chain, recorder, auditor)

	if err := d.Dispatch(context.Background(), testEvent(), target); err == nil {
		t.Fatalf("expected error")
	}

	if recorder.calls != 0 {
		t.Fatalf("counters must not move on failure")
	}
	failed := auditor.byOutcome(model.OutcomeSendFailed)
	if len(failed) != 1 {
		t.Fatalf("expected one failure audit entry, got %d", len(failed))
	}
	if failed[0].Error == "" {
		t.Fatalf("failure entry missing error detail")
	}
}

func TestDispatchConfirmationFailure(t *testing.T) {
	chain := &fakeChain{receiptErr: fmt.Errorf("timeout")}
	recorder := &fakeRecorder{}
	auditor := &fakeAuditor{}
	d := newTestDispatcher(t, chain, recorder, auditor)

	if err := d.Dispatch(context.Background(), testEvent(), target); err == nil {
		t.Fatalf("expected error")
	}
	if recorder.calls != 0 {
		t.Fatalf("counters must not move on unconfirmed send")
	}
}

func TestNewDispatcherRejectsMismatchedOperator(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	_, err = NewDispatcher(Config{
		Operator:   target,
		PrivateKey: key,
		ChainID:    big.NewInt(369),
		DripAmount: decimal.RequireFromString("0.05"),
		GasPrice:   big.NewInt(1),
		GasLimit:   21000,
	}, &fakeChain{}, &fakeRecorder{}, &fakeAuditor{}, nil, nil)
	if err == nil {
		t.Fatalf("expected operator/key mismatch error")
	}
}
