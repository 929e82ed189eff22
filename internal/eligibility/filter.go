package eligibility

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bridgeDrip/internal/bridge"
	"bridgeDrip/internal/chain"
	"bridgeDrip/internal/model"
)

// TxReader looks up origin transactions on the query chain.
type TxReader interface {
	TransactionInfo(ctx context.Context, txHash common.Hash) (chain.TxInfo, error)
}

// BalanceReader reads native balances on the funding chain.
type BalanceReader interface {
	BalanceAt(ctx context.Context, address common.Address) (*big.Int, error)
}

// Filter decides whether a bridge event earns a drip. The checks run in
// order and short-circuit: direction, blacklist redirect, balance
// threshold.
type Filter struct {
	txs        TxReader
	balances   BalanceReader
	blacklist  *Blacklist
	minBalance decimal.Decimal
	logger     *zap.Logger
}

func NewFilter(txs TxReader, balances BalanceReader, blacklist *Blacklist, minBalance decimal.Decimal, logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filter{
		txs:        txs,
		balances:   balances,
		blacklist:  blacklist,
		minBalance: minBalance,
		logger:     logger,
	}
}

// Evaluate resolves the drip target and decides SEND or SKIP for one event.
// A failed origin transaction lookup aborts the event.
func (f *Filter) Evaluate(ctx context.Context, event model.BridgeEvent) (model.Decision, error) {
	info, err := f.txs.TransactionInfo(ctx, event.TxHash)
	if err != nil {
		return model.Decision{}, fmt.Errorf("origin transaction lookup: %w", err)
	}

	if bridge.IsToOriginCall(info.Input) {
		f.logger.Info("wrong direction, skipping",
			zap.String("counterpart", event.Counterpart.Hex()),
			zap.String("tx", event.TxHash.Hex()),
		)
		return model.Decision{Kind: model.DecisionSkipWrongDirection, Target: event.Counterpart}, nil
	}

	target := event.Counterpart
	if f.blacklist != nil && f.blacklist.Contains(target) {
		f.logger.Info("blacklisted recipient, redirecting to origin sender",
			zap.String("recipient", target.Hex()),
			zap.String("sender", info.From.Hex()),
		)
		target = info.From
	}

	wei, err := f.balances.BalanceAt(ctx, target)
	if err != nil {
		return model.Decision{}, fmt.Errorf("balance of %s: %w", target.Hex(), err)
	}

	balance := model.NativeFromWei(wei)
	if balance.GreaterThanOrEqual(f.minBalance) {
		f.logger.Info("already funded, skipping",
			zap.String("target", target.Hex()),
			zap.String("balance", balance.String()),
		)
		return model.Decision{Kind: model.DecisionSkipFunded, Target: target, Balance: balance}, nil
	}

	return model.Decision{Kind: model.DecisionSend, Target: target, Balance: balance}, nil
}
