package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/ledger-replay/internal/ledger/model"
)

const insertAccountsQuery = `
INSERT INTO ledger_accounts (
	run_id,
	client,
	available,
	held,
	total,
	locked
) VALUES`

// InsertAccounts stores the final snapshot of a run.
func (r *Repository) InsertAccounts(ctx context.Context, runID string, accounts []model.AccountView) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("insert_accounts", len(accounts), err, start)
	}()

	if len(accounts) == 0 {
		return nil
	}

	err = insertChunked(ctx, r.conn, insertAccountsQuery, accounts, func(b Batch, acc model.AccountView) error {
		return b.Append(
			runID,
			uint16(acc.Client),
			acc.Available.Decimal(),
			acc.Held.Decimal(),
			acc.Total.Decimal(),
			acc.Locked,
		)
	})
	if err != nil {
		err = fmt.Errorf("insert accounts: %w", err)
		return err
	}
	return nil
}

// WriteSnapshot makes the repository usable as a snapshot sink.
func (r *Repository) WriteSnapshot(ctx context.Context, runID string, accounts []model.AccountView) error {
	return r.InsertAccounts(ctx, runID, accounts)
}
