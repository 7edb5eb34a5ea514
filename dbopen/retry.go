package dbopen

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const maxRetries = 3

// IsBusy reports whether err is an SQLite lock contention error.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// RunTx runs fn in a transaction, retrying the whole transaction with a
// 100/200/300 ms backoff while SQLite reports it is busy.
func RunTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	return retry(ctx, "RunTx", func() error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("dbopen: begin tx: %w", err)
		}
		if err := fn(tx); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("dbopen: commit: %w", err)
		}
		return nil
	})
}

// Exec is db.ExecContext with the same busy retry as RunTx.
func Exec(ctx context.Context, db *sql.DB, query string, args ...any) (sql.Result, error) {
	var result sql.Result
	err := retry(ctx, "Exec", func() error {
		var err error
		result, err = db.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func retry(ctx context.Context, op string, fn func() error) error {
	for i := range maxRetries {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsBusy(err) || i == maxRetries-1 {
			return err
		}
		if err := sleepCtx(ctx, time.Duration(100*(i+1))*time.Millisecond); err != nil {
			return fmt.Errorf("dbopen: %s: context cancelled during retry: %w", op, err)
		}
	}
	return fmt.Errorf("dbopen: %s: max retries exceeded", op)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
