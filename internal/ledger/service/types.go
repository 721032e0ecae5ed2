package service

import (
	"context"
	"time"

	"github.com/goodnatureofminers/ledger-replay/internal/ledger/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// EventSource yields events in arrival order and io.EOF after the last one.
	EventSource interface {
		Next(ctx context.Context) (model.Event, error)
	}
	SnapshotWriter interface {
		WriteSnapshot(ctx context.Context, runID string, accounts []model.AccountView) error
	}
	OutcomeRecorder interface {
		Start(ctx context.Context)
		Stop()
		Record(ctx context.Context, o model.EventOutcome) error
	}

	ReplayMetrics interface {
		ObserveEvent(kind model.EventKind, outcome model.Outcome)
		ObserveRun(err error, events int, snapshot []model.AccountView, started time.Time)
	}

	OutcomeRepository interface {
		InsertEventOutcomes(ctx context.Context, outcomes []model.EventOutcome) error
	}
)
