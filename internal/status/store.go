package status

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bridgeDrip/internal/model"
)

// BalanceReader reads a native-currency balance on the funding chain.
type BalanceReader interface {
	BalanceAt(ctx context.Context, address common.Address) (*big.Int, error)
}

// Store persists the single OperatorStatus record. Writes go through a
// read-modify-write under one mutex and land via tmp+rename, so concurrent
// external readers never observe a half-written file.
type Store struct {
	path     string
	operator common.Address
	chain    BalanceReader
	logger   *zap.Logger

	mu sync.Mutex
}

func NewStore(path string, operator common.Address, chain BalanceReader, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		path:     path,
		operator: operator,
		chain:    chain,
		logger:   logger,
	}
}

// RecordDisbursement applies one confirmed drip to the counters: the funded
// count goes up by one, the total by exactly amount, and the operator
// balance is refreshed from the funding chain.
func (s *Store) RecordDisbursement(ctx context.Context, recipient common.Address, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.load()
	record.WalletFunded++
	record.TotalGivenAway = record.TotalGivenAway.Add(amount)

	wei, err := s.chain.BalanceAt(ctx, s.operator)
	if err != nil {
		// Counters must not be lost over a flaky balance query; keep the
		// previous balance and persist anyway.
		s.logger.Warn("operator balance refresh failed",
			zap.String("operator", s.operator.Hex()),
			zap.Error(err),
		)
	} else {
		record.Balance = model.NativeFromWei(wei)
	}

	if err := s.persist(record); err != nil {
		return err
	}

	s.logger.Info("status updated",
		zap.String("recipient", recipient.Hex()),
		zap.Uint64("wallet_funded", record.WalletFunded),
		zap.String("total_given_away", record.TotalGivenAway.String()),
	)

	return nil
}

// ReadStatus returns the current record. A missing or unreadable file
// yields the zero record.
func (s *Store) ReadStatus() model.OperatorStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// load treats any read or parse failure as "no prior record". That keeps a
// corrupt file from wedging the service, at the cost of resetting counters;
// the warning is the operator's cue to investigate.
func (s *Store) load() model.OperatorStatus {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("status file unreadable, starting from zero", zap.String("path", s.path), zap.Error(err))
		}
		return model.ZeroStatus()
	}

	var record model.OperatorStatus
	if err := json.Unmarshal(data, &record); err != nil {
		s.logger.Warn("status file corrupt, starting from zero", zap.String("path", s.path), zap.Error(err))
		return model.ZeroStatus()
	}

	return record
}

func (s *Store) persist(record model.OperatorStatus) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create status dir: %w", err)
		}
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write status tmp: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename status: %w", err)
	}

	return nil
}
