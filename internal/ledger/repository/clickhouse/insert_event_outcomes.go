package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/ledger-replay/internal/ledger/model"
)

const insertEventOutcomesQuery = `
INSERT INTO ledger_event_outcomes (
	run_id,
	seq,
	kind,
	client,
	tx,
	outcome,
	reason
) VALUES`

// InsertEventOutcomes stores audit rows describing how each event was handled.
func (r *Repository) InsertEventOutcomes(ctx context.Context, outcomes []model.EventOutcome) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("insert_event_outcomes", len(outcomes), err, start)
	}()

	if len(outcomes) == 0 {
		return nil
	}

	err = insertChunked(ctx, r.conn, insertEventOutcomesQuery, outcomes, func(b Batch, o model.EventOutcome) error {
		return b.Append(
			o.RunID,
			o.Seq,
			string(o.Kind),
			uint16(o.Client),
			uint32(o.Tx),
			string(o.Outcome),
			o.Reason,
		)
	})
	if err != nil {
		err = fmt.Errorf("insert event outcomes: %w", err)
		return err
	}
	return nil
}
