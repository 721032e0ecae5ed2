// Package clickhouse stores replay snapshots and event outcomes in ClickHouse.
package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Metrics interface {
		Observe(operation string, rows int, err error, started time.Time)
	}
	Batch interface {
		Append(v ...any) error
		Send() error
		Abort() error
	}
	Conn interface {
		PrepareBatch(ctx context.Context, query string) (Batch, error)
		Close() error
	}
)

const rowsPerBatch = 10_000

type Repository struct {
	conn    Conn
	metrics Metrics
}

func NewRepository(dsn string, metrics Metrics) (*Repository, error) {
	if dsn == "" {
		return nil, errors.New("clickhouse dsn is required")
	}
	if metrics == nil {
		return nil, errors.New("clickhouse repository metrics is required")
	}

	options, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse connection: %w", err)
	}

	return &Repository{conn: driverConn{conn: conn}, metrics: metrics}, nil
}

func (r *Repository) Close() error {
	return r.conn.Close()
}

// driverConn narrows driver.Conn to what the repository uses.
type driverConn struct {
	conn driver.Conn
}

func (c driverConn) PrepareBatch(ctx context.Context, query string) (Batch, error) {
	return c.conn.PrepareBatch(ctx, query)
}

func (c driverConn) Close() error {
	return c.conn.Close()
}

// insertChunked sends rows in batches of at most rowsPerBatch.
func insertChunked[T any](ctx context.Context, conn Conn, query string, rows []T, appendRow func(Batch, T) error) error {
	for start := 0; start < len(rows); start += rowsPerBatch {
		end := min(start+rowsPerBatch, len(rows))

		batch, err := conn.PrepareBatch(ctx, query)
		if err != nil {
			return fmt.Errorf("prepare batch: %w", err)
		}
		for _, row := range rows[start:end] {
			if err := appendRow(batch, row); err != nil {
				// releases the connection held by the prepared batch
				_ = batch.Abort()
				return fmt.Errorf("append row: %w", err)
			}
		}
		if err := batch.Send(); err != nil {
			return fmt.Errorf("send batch: %w", err)
		}
	}
	return nil
}
