package pipeline

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"bridgeDrip/internal/model"
)

// Decider resolves a bridge event into an eligibility decision.
type Decider interface {
	Evaluate(ctx context.Context, event model.BridgeEvent) (model.Decision, error)
}

// Sender dispatches one drip to the resolved target.
type Sender interface {
	Dispatch(ctx context.Context, event model.BridgeEvent, target common.Address) error
}

// Auditor appends informational entries for skipped events.
type Auditor interface {
	Append(entry model.AuditEntry) error
}

// Pipeline runs the eligibility-then-dispatch flow over a bounded queue
// with a fixed worker pool. Events interleave freely; per-event failures
// never leave the worker that hit them.
type Pipeline struct {
	events  chan model.BridgeEvent
	decider Decider
	sender  Sender
	auditor Auditor
	logger  *zap.Logger
	workers int
	wg      sync.WaitGroup
}

func New(workers, queueSize int, decider Decider, sender Sender, auditor Auditor, logger *zap.Logger) *Pipeline {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		events:  make(chan model.BridgeEvent, queueSize),
		decider: decider,
		sender:  sender,
		auditor: auditor,
		logger:  logger,
		workers: workers,
	}
}

// Start launches the worker pool. Workers drain the queue until Close.
func (p *Pipeline) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for event := range p.events {
				p.process(ctx, event)
			}
		}()
	}
}

// Enqueue pushes an event, blocking while the queue is full. It returns
// false once ctx is done.
func (p *Pipeline) Enqueue(ctx context.Context, event model.BridgeEvent) bool {
	select {
	case p.events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close stops intake and waits for in-flight events to finish.
func (p *Pipeline) Close() {
	close(p.events)
	p.wg.Wait()
}

func (p *Pipeline) process(ctx context.Context, event model.BridgeEvent) {
	decision, err := p.decider.Evaluate(ctx, event)
	if err != nil {
		p.logger.Error("eligibility check failed, dropping event",
			zap.String("tx", event.TxHash.Hex()),
			zap.String("counterpart", event.Counterpart.Hex()),
			zap.Error(err),
		)
		p.audit(model.AuditEntry{
			Recipient: event.Counterpart.Hex(),
			Outcome:   model.OutcomeLookupFailed,
			Error:     err.Error(),
		})
		return
	}

	switch decision.Kind {
	case model.DecisionSend:
		// Dispatch failures are audited and logged by the dispatcher; the
		// event is dropped either way.
		_ = p.sender.Dispatch(ctx, event, decision.Target)
	case model.DecisionSkipWrongDirection:
		p.audit(model.AuditEntry{
			Recipient: decision.Target.Hex(),
			Outcome:   model.OutcomeWrongDirection,
		})
	case model.DecisionSkipFunded:
		p.audit(model.AuditEntry{
			Recipient: decision.Target.Hex(),
			Outcome:   model.OutcomeEnoughFee,
			Balance:   decision.Balance.String(),
		})
	}
}

func (p *Pipeline) audit(entry model.AuditEntry) {
	if p.auditor == nil {
		return
	}
	if err := p.auditor.Append(entry); err != nil {
		p.logger.Warn("audit append failed", zap.Error(err))
	}
}
