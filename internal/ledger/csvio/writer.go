package csvio

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/goodnatureofminers/ledger-replay/internal/ledger/model"
)

var snapshotHeader = []string{"client", "available", "held", "total", "locked"}

// Writer renders account snapshots as CSV.
type Writer struct {
	out io.Writer
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// WriteSnapshot writes a header followed by one row per account, in the given order.
func (w *Writer) WriteSnapshot(ctx context.Context, _ string, accounts []model.AccountView) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cw := csv.NewWriter(w.out)
	if err := cw.Write(snapshotHeader); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}

	row := make([]string, len(snapshotHeader))
	for _, acc := range accounts {
		row[0] = strconv.FormatUint(uint64(acc.Client), 10)
		row[1] = acc.Available.String()
		row[2] = acc.Held.String()
		row[3] = acc.Total.String()
		row[4] = strconv.FormatBool(acc.Locked)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write account %d: %w", acc.Client, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	return nil
}
