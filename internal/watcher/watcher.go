package watcher

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"bridgeDrip/internal/bridge"
	"bridgeDrip/internal/chain"
	"bridgeDrip/internal/model"
)

// Sink receives decoded bridge events.
type Sink interface {
	Enqueue(ctx context.Context, event model.BridgeEvent) bool
}

// Config holds watcher settings.
type Config struct {
	Contract      common.Address
	ResubBackoff  time.Duration
	MaxResubDelay time.Duration
}

// Watcher holds a live subscription to the two bridge event signatures,
// starting from the latest block, and feeds decoded events into the sink.
// Subscription faults are logged and answered with a backed-off
// resubscribe; they never terminate the process.
type Watcher struct {
	cfg     Config
	client  *chain.Client
	decoder *bridge.Decoder
	sink    Sink
	logger  *zap.Logger
	seen    map[string]struct{}
}

func New(cfg Config, client *chain.Client, decoder *bridge.Decoder, sink Sink, logger *zap.Logger) *Watcher {
	if cfg.ResubBackoff <= 0 {
		cfg.ResubBackoff = 500 * time.Millisecond
	}
	if cfg.MaxResubDelay <= 0 {
		cfg.MaxResubDelay = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		cfg:     cfg,
		client:  client,
		decoder: decoder,
		sink:    sink,
		logger:  logger,
		seen:    make(map[string]struct{}),
	}
}

// Run subscribes and processes logs until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	delay := w.cfg.ResubBackoff

	for {
		query := ethereum.FilterQuery{
			Addresses: []common.Address{w.cfg.Contract},
			Topics:    [][]common.Hash{w.decoder.EventTopics()},
		}

		logs := make(chan types.Log, 128)
		sub, err := w.client.SubscribeFilterLogs(ctx, query, logs)
		if err != nil {
			w.logger.Warn("subscribe failed", zap.Error(err), zap.Duration("retry_in", delay))
			if !sleep(ctx, delay) {
				return ctx.Err()
			}
			delay = nextDelay(delay, w.cfg.MaxResubDelay)
			continue
		}

		w.logger.Info("listening for bridge events",
			zap.String("contract", w.cfg.Contract.Hex()),
		)
		delay = w.cfg.ResubBackoff

		if err := w.consume(ctx, sub, logs); err != nil {
			w.logger.Warn("subscription dropped", zap.Error(err), zap.Duration("retry_in", delay))
			if !sleep(ctx, delay) {
				return ctx.Err()
			}
			delay = nextDelay(delay, w.cfg.MaxResubDelay)
			continue
		}

		return nil
	}
}

// consume drains the subscription until it errors or ctx ends. A nil
// return means ctx is done and the watcher should stop.
func (w *Watcher) consume(ctx context.Context, sub ethereum.Subscription, logs <-chan types.Log) error {
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			return err
		case log := <-logs:
			w.handle(ctx, log)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, log types.Log) {
	if log.Removed {
		return
	}

	event, err := w.decoder.Decode(log)
	if err != nil {
		w.logger.Error("decode bridge log failed",
			zap.String("tx", log.TxHash.Hex()),
			zap.Error(err),
		)
		return
	}

	if w.isDuplicate(event) {
		w.logger.Debug("duplicate event delivery", zap.String("key", event.Key()))
		return
	}

	w.logger.Info("bridge event",
		zap.String("kind", string(event.Kind)),
		zap.String("token", event.Token.Hex()),
		zap.String("amount", event.Amount.String()),
		zap.String("counterpart", event.Counterpart.Hex()),
		zap.String("tx", event.TxHash.Hex()),
	)

	w.sink.Enqueue(ctx, event)
}

func (w *Watcher) isDuplicate(event model.BridgeEvent) bool {
	key := event.Key()
	if _, ok := w.seen[key]; ok {
		return true
	}
	w.seen[key] = struct{}{}
	return false
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func nextDelay(current, max time.Duration) time.Duration {
	current *= 2
	if current > max {
		return max
	}
	return current
}
