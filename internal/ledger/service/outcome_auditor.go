package service

import (
	"context"
	"time"

	"github.com/goodnatureofminers/ledger-replay/internal/ledger/model"
	"github.com/goodnatureofminers/ledger-replay/pkg/batcher"
	"go.uber.org/zap"
)

// OutcomeAuditor batches event outcomes into an OutcomeRepository. Writes are
// best-effort: a failed flush is logged and its rows are dropped.
type OutcomeAuditor struct {
	repo    OutcomeRepository
	logger  *zap.Logger
	batcher *batcher.Batcher[model.EventOutcome]
}

// NewOutcomeAuditor builds an auditor. Non-positive settings fall back to defaults.
func NewOutcomeAuditor(repo OutcomeRepository, logger *zap.Logger, flushSize int, flushInterval time.Duration, rps int) *OutcomeAuditor {
	if flushSize <= 0 {
		flushSize = outcomeFlushSize
	}
	if flushInterval <= 0 {
		flushInterval = outcomeFlushInterval
	}
	if rps <= 0 {
		rps = outcomeFlushRPS
	}

	a := &OutcomeAuditor{
		repo:   repo,
		logger: logger,
	}
	a.batcher = batcher.New[model.EventOutcome](
		logger.Named("outcomeBatcher"),
		a.flush,
		flushSize,
		flushInterval,
		rps,
	)
	return a
}

func (a *OutcomeAuditor) Start(ctx context.Context) {
	a.batcher.Start(ctx)
}

// Stop flushes pending outcomes and waits for the background loop.
func (a *OutcomeAuditor) Stop() {
	a.batcher.Stop()
}

func (a *OutcomeAuditor) Record(ctx context.Context, o model.EventOutcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.batcher.Add(ctx, o)
}

func (a *OutcomeAuditor) flush(ctx context.Context, outcomes []model.EventOutcome) error {
	if err := a.repo.InsertEventOutcomes(ctx, outcomes); err != nil {
		return err
	}
	a.logger.Debug("InsertEventOutcomes", zap.Int("count", len(outcomes)))
	return nil
}
