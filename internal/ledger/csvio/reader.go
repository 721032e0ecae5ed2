// Package csvio reads ledger events from CSV and writes account snapshots as CSV.
package csvio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goodnatureofminers/ledger-replay/internal/ledger/model"
	"github.com/goodnatureofminers/ledger-replay/pkg/money"
)

// ErrNegativeAmount is returned for a record whose amount is below zero.
var ErrNegativeAmount = errors.New("negative amount")

// Reader yields events from CSV rows of the form "type,client,tx,amount".
// A leading header row is skipped. The amount column may be empty or missing.
type Reader struct {
	csv     *csv.Reader
	started bool
}

func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return &Reader{csv: cr}
}

// Next returns the next event, or io.EOF once the input is exhausted.
func (r *Reader) Next(ctx context.Context) (model.Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := r.csv.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("read csv: %w", err)
		}

		first := !r.started
		r.started = true
		if first && isHeader(record) {
			continue
		}

		ev, err := parseRecord(record)
		if err != nil {
			line, _ := r.csv.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		return ev, nil
	}
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "type")
}

func parseRecord(record []string) (model.Event, error) {
	if len(record) < 3 || len(record) > 4 {
		return nil, fmt.Errorf("expected 3 or 4 fields, got %d", len(record))
	}

	kind, err := model.ParseEventKind(record[0])
	if err != nil {
		return nil, err
	}

	client, err := strconv.ParseUint(strings.TrimSpace(record[1]), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("parse client %q: %w", record[1], err)
	}

	tx, err := strconv.ParseUint(strings.TrimSpace(record[2]), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("parse tx %q: %w", record[2], err)
	}

	amount := money.None
	if len(record) == 4 && strings.TrimSpace(record[3]) != "" {
		a, err := money.Parse(record[3])
		if err != nil {
			return nil, err
		}
		if a.IsNegative() {
			return nil, fmt.Errorf("amount %s: %w", a, ErrNegativeAmount)
		}
		amount = money.Some(a)
	}

	return model.NewEvent(kind, model.ClientID(client), model.TxID(tx), amount)
}
