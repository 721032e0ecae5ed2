// Package service drives a ledger replay from an event source to a snapshot.
package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goodnatureofminers/ledger-replay/internal/ledger"
	"github.com/goodnatureofminers/ledger-replay/internal/ledger/model"
	"github.com/goodnatureofminers/ledger-replay/pkg/workerpool"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorPolicy decides what a rejected event does to the run.
type ErrorPolicy string

const (
	// ErrorPolicyAbort fails the run on the first rejected event.
	ErrorPolicyAbort ErrorPolicy = "abort"
	// ErrorPolicySkip logs a rejected event and keeps going.
	ErrorPolicySkip ErrorPolicy = "skip"
)

func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch p := ErrorPolicy(s); p {
	case ErrorPolicyAbort, ErrorPolicySkip:
		return p, nil
	default:
		return "", fmt.Errorf("unknown error policy %q", s)
	}
}

type ReplayOption func(*ReplayService)

func WithErrorPolicy(p ErrorPolicy) ReplayOption {
	return func(s *ReplayService) { s.policy = p }
}

// WithWorkers shards the replay by client id over n workers. n <= 1 keeps
// the replay sequential.
func WithWorkers(n int) ReplayOption {
	return func(s *ReplayService) { s.workers = n }
}

func WithOutcomeRecorder(r OutcomeRecorder) ReplayOption {
	return func(s *ReplayService) { s.recorder = r }
}

func WithRunID(id string) ReplayOption {
	return func(s *ReplayService) { s.runID = id }
}

type ReplayService struct {
	logger   *zap.Logger
	metrics  ReplayMetrics
	policy   ErrorPolicy
	workers  int
	recorder OutcomeRecorder
	runID    string
}

func NewReplayService(metrics ReplayMetrics, logger *zap.Logger, opts ...ReplayOption) (*ReplayService, error) {
	if metrics == nil {
		return nil, errors.New("replay metrics is required")
	}

	s := &ReplayService{
		metrics: metrics,
		policy:  ErrorPolicyAbort,
		workers: defaultWorkerCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := ParseErrorPolicy(string(s.policy)); err != nil {
		return nil, err
	}
	if s.workers < 1 {
		s.workers = defaultWorkerCount
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}
	s.logger = logger.With(zap.String("run_id", s.runID))
	return s, nil
}

// RunID tags every snapshot and outcome row produced by this service.
func (s *ReplayService) RunID() string {
	return s.runID
}

// Run reads src to the end and returns the final accounts ordered by client
// id. Under ErrorPolicyAbort the first rejected event fails the run and no
// accounts are returned; outcomes are then withheld from the recorder and
// only handed over once the run succeeds. Read errors are always fatal.
func (s *ReplayService) Run(ctx context.Context, src EventSource) (accounts []model.AccountView, err error) {
	started := time.Now()
	t := runState{}
	if s.recorder != nil && s.policy == ErrorPolicyAbort {
		t.pending = &pendingOutcomes{}
	}
	defer func() {
		s.metrics.ObserveRun(err, int(t.events.Load()), accounts, started)
	}()

	if s.recorder != nil {
		recCtx, recCancel := context.WithCancel(ctx)
		s.recorder.Start(recCtx)
		defer func() {
			s.recorder.Stop()
			recCancel()
		}()
	}

	if s.workers > 1 {
		accounts, err = s.replaySharded(ctx, src, &t)
	} else {
		accounts, err = s.replaySequential(ctx, src, &t)
	}
	if err != nil {
		s.logger.Error("replay failed", zap.Uint64("events", t.events.Load()), zap.Error(err))
		return nil, err
	}

	s.flushPending(ctx, t.pending)

	s.logger.Info("replay finished",
		zap.Uint64("events", t.events.Load()),
		zap.Uint64("applied", t.applied.Load()),
		zap.Uint64("ignored", t.ignored.Load()),
		zap.Uint64("locked", t.locked.Load()),
		zap.Uint64("rejected", t.rejected.Load()),
		zap.Int("accounts", len(accounts)),
		zap.Int("workers", s.workers),
		zap.Duration("took", time.Since(started)),
	)
	return accounts, nil
}

// runState is the per-run bookkeeping shared by every shard.
type runState struct {
	tally
	// non-nil while outcomes are withheld until the run succeeds
	pending *pendingOutcomes
}

type pendingOutcomes struct {
	mu       sync.Mutex
	outcomes []model.EventOutcome
}

func (p *pendingOutcomes) add(o model.EventOutcome) {
	p.mu.Lock()
	p.outcomes = append(p.outcomes, o)
	p.mu.Unlock()
}

type tally struct {
	events   atomic.Uint64
	applied  atomic.Uint64
	ignored  atomic.Uint64
	locked   atomic.Uint64
	rejected atomic.Uint64
}

func (t *tally) count(o model.Outcome) {
	switch o {
	case model.OutcomeApplied:
		t.applied.Add(1)
	case model.OutcomeIgnored:
		t.ignored.Add(1)
	case model.OutcomeLocked:
		t.locked.Add(1)
	case model.OutcomeRejected:
		t.rejected.Add(1)
	}
}

func (s *ReplayService) replaySequential(ctx context.Context, src EventSource, t *runState) ([]model.AccountView, error) {
	engine := ledger.NewEngine(nil)
	for {
		ev, seq, err := s.next(ctx, src, t)
		if errors.Is(err, io.EOF) {
			return engine.Snapshot(), nil
		}
		if err != nil {
			return nil, err
		}
		if err := s.apply(ctx, engine, seq, ev, t); err != nil {
			return nil, err
		}
	}
}

type sequencedEvent struct {
	seq   uint64
	event model.Event
}

type shard struct {
	engine *ledger.Engine
	events []sequencedEvent
}

// replaySharded buffers the whole stream, partitions it by client id and
// replays each partition on its own engine. Events of one client keep their
// relative order.
func (s *ReplayService) replaySharded(ctx context.Context, src EventSource, t *runState) ([]model.AccountView, error) {
	shards := make([]*shard, s.workers)
	for i := range shards {
		shards[i] = &shard{engine: ledger.NewEngine(nil)}
	}

	for {
		ev, seq, err := s.next(ctx, src, t)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		sh := shards[int(ev.Client())%len(shards)]
		sh.events = append(sh.events, sequencedEvent{seq: seq, event: ev})
	}

	err := workerpool.Process(ctx, len(shards), shards, func(ctx context.Context, sh *shard) error {
		for _, se := range sh.events {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.apply(ctx, sh.engine, se.seq, se.event, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var accounts []model.AccountView
	for _, sh := range shards {
		accounts = append(accounts, sh.engine.Snapshot()...)
	}
	ledger.SortViews(accounts)
	return accounts, nil
}

func (s *ReplayService) next(ctx context.Context, src EventSource, t *runState) (model.Event, uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	ev, err := src.Next(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, io.EOF
		}
		return nil, 0, fmt.Errorf("read event: %w", err)
	}
	return ev, t.events.Add(1), nil
}

func (s *ReplayService) apply(ctx context.Context, engine *ledger.Engine, seq uint64, ev model.Event, t *runState) error {
	outcome, err := engine.Apply(ev)
	t.count(outcome)
	s.metrics.ObserveEvent(ev.Kind(), outcome)
	s.record(ctx, t.pending, seq, ev, outcome, err)

	if err == nil {
		return nil
	}
	if s.policy == ErrorPolicySkip {
		s.logger.Warn("event rejected",
			zap.Uint64("seq", seq),
			zap.String("kind", string(ev.Kind())),
			zap.Uint16("client", uint16(ev.Client())),
			zap.Uint32("tx", uint32(ev.Tx())),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("event %d: %w", seq, err)
}

// record forwards one outcome to the recorder, or parks it in pending when
// the run may still abort.
func (s *ReplayService) record(ctx context.Context, pending *pendingOutcomes, seq uint64, ev model.Event, outcome model.Outcome, applyErr error) {
	if s.recorder == nil {
		return
	}
	o := model.EventOutcome{
		RunID:   s.runID,
		Seq:     seq,
		Kind:    ev.Kind(),
		Client:  ev.Client(),
		Tx:      ev.Tx(),
		Outcome: outcome,
	}
	if applyErr != nil {
		o.Reason = applyErr.Error()
	}
	if pending != nil {
		pending.add(o)
		return
	}
	s.send(ctx, o)
}

// flushPending hands withheld outcomes to the recorder in event order.
func (s *ReplayService) flushPending(ctx context.Context, pending *pendingOutcomes) {
	if pending == nil {
		return
	}
	slices.SortFunc(pending.outcomes, func(a, b model.EventOutcome) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	for _, o := range pending.outcomes {
		s.send(ctx, o)
	}
}

func (s *ReplayService) send(ctx context.Context, o model.EventOutcome) {
	if err := s.recorder.Record(ctx, o); err != nil {
		s.logger.Warn("outcome not recorded", zap.Uint64("seq", o.Seq), zap.Error(err))
	}
}
