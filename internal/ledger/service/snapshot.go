package service

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/ledger-replay/internal/ledger/model"
)

// MultiSnapshotWriter hands one snapshot to every sink in order and stops at
// the first failure.
type MultiSnapshotWriter []SnapshotWriter

func (w MultiSnapshotWriter) WriteSnapshot(ctx context.Context, runID string, accounts []model.AccountView) error {
	for i, sink := range w {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sink.WriteSnapshot(ctx, runID, accounts); err != nil {
			return fmt.Errorf("snapshot sink %d: %w", i, err)
		}
	}
	return nil
}
