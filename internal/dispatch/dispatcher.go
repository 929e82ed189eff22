package dispatch

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bridgeDrip/internal/model"
)

// FundingChain is the funding-chain surface the dispatcher submits through.
type FundingChain interface {
	PendingNonceAt(ctx context.Context, address common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	WaitForReceipt(ctx context.Context, txHash common.Hash, poll time.Duration) (*types.Receipt, error)
}

// Recorder applies a confirmed disbursement to the durable counters.
type Recorder interface {
	RecordDisbursement(ctx context.Context, recipient common.Address, amount decimal.Decimal) error
}

// Auditor appends one entry per dispatch outcome.
type Auditor interface {
	Append(entry model.AuditEntry) error
}

// History optionally stores confirmed disbursements in a database.
type History interface {
	InsertDisbursement(ctx context.Context, d model.Disbursement) error
}

// Config holds the fixed transaction parameters. The drip amount is a
// configured constant, never derived from the event.
type Config struct {
	Operator       common.Address
	PrivateKey     *ecdsa.PrivateKey
	ChainID        *big.Int
	DripAmount     decimal.Decimal
	GasPrice       *big.Int
	GasLimit       uint64
	ReceiptPoll    time.Duration
	ReceiptTimeout time.Duration
}

// Dispatcher executes one funding transaction per SEND decision. Nonce
// assignment and submission are serialized under a single mutex per
// operator account; receipt waiting runs outside it so concurrent drips
// overlap on confirmation.
type Dispatcher struct {
	cfg     Config
	chain   FundingChain
	status  Recorder
	auditor Auditor
	history History
	logger  *zap.Logger

	dripWei *big.Int
	mu      sync.Mutex
}

func NewDispatcher(cfg Config, fundingChain FundingChain, status Recorder, auditor Auditor, history History, logger *zap.Logger) (*Dispatcher, error) {
	if cfg.PrivateKey == nil {
		return nil, fmt.Errorf("operator private key is required")
	}
	if cfg.ChainID == nil {
		return nil, fmt.Errorf("chain id is required")
	}
	if cfg.DripAmount.Sign() <= 0 {
		return nil, fmt.Errorf("drip amount must be positive")
	}
	if derived := crypto.PubkeyToAddress(cfg.PrivateKey.PublicKey); derived != cfg.Operator {
		return nil, fmt.Errorf("operator address %s does not match private key address %s", cfg.Operator.Hex(), derived.Hex())
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		cfg:     cfg,
		chain:   fundingChain,
		status:  status,
		auditor: auditor,
		history: history,
		logger:  logger,
		dripWei: model.WeiFromNative(cfg.DripAmount),
	}, nil
}

// Dispatch sends the fixed drip to target and waits for one confirmation.
// Failures are audited and returned; the event is dropped, counters stay
// untouched, and there is no retry.
func (d *Dispatcher) Dispatch(ctx context.Context, event model.BridgeEvent, target common.Address) error {
	signed, err := d.submit(ctx, target)
	if err != nil {
		d.auditFailure(target, err)
		return err
	}

	txHash := signed.Hash()
	waitCtx := ctx
	if d.cfg.ReceiptTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, d.cfg.ReceiptTimeout)
		defer cancel()
	}

	if _, err := d.chain.WaitForReceipt(waitCtx, txHash, d.cfg.ReceiptPoll); err != nil {
		d.auditFailure(target, err)
		return fmt.Errorf("confirm %s: %w", txHash.Hex(), err)
	}

	d.logger.Info("drip confirmed",
		zap.String("recipient", target.Hex()),
		zap.String("amount", d.cfg.DripAmount.String()),
		zap.String("tx", txHash.Hex()),
	)

	if err := d.auditor.Append(model.AuditEntry{
		Recipient: target.Hex(),
		Outcome:   model.OutcomeSent,
		Amount:    d.cfg.DripAmount.String(),
		TxHash:    txHash.Hex(),
	}); err != nil {
		d.logger.Warn("audit append failed", zap.Error(err))
	}

	if err := d.status.RecordDisbursement(ctx, target, d.cfg.DripAmount); err != nil {
		return fmt.Errorf("record disbursement: %w", err)
	}

	if d.history != nil {
		if err := d.history.InsertDisbursement(ctx, model.Disbursement{
			Recipient: target.Hex(),
			Amount:    d.cfg.DripAmount,
			TxHash:    txHash.Hex(),
			OriginTx:  event.TxHash.Hex(),
			SentAt:    time.Now().UTC(),
		}); err != nil {
			d.logger.Warn("disbursement history insert failed", zap.Error(err))
		}
	}

	return nil
}

// submit builds, signs, and sends the transaction while holding the nonce
// mutex. Two concurrent sends therefore never share a nonce.
func (d *Dispatcher) submit(ctx context.Context, target common.Address) (*types.Transaction, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	nonce, err := d.chain.PendingNonceAt(ctx, d.cfg.Operator)
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}

	tx := types.NewTransaction(nonce, target, d.dripWei, d.cfg.GasLimit, d.cfg.GasPrice, nil)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(d.cfg.ChainID), d.cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	if err := d.chain.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	return signed, nil
}

func (d *Dispatcher) auditFailure(target common.Address, cause error) {
	d.logger.Error("drip failed",
		zap.String("recipient", target.Hex()),
		zap.Error(cause),
	)
	if err := d.auditor.Append(model.AuditEntry{
		Recipient: target.Hex(),
		Outcome:   model.OutcomeSendFailed,
		Amount:    d.cfg.DripAmount.String(),
		Error:     cause.Error(),
	}); err != nil {
		d.logger.Warn("audit append failed", zap.Error(err))
	}
}
