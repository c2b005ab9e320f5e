package storage

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// readPolicy bounds retries of full-table and filtered reads against the
// hosted store. Reads are idempotent, so any transient failure is retried.
type readPolicy struct {
	retries  int
	base     time.Duration
	maxDelay time.Duration
}

var defaultReadPolicy = readPolicy{retries: 2, base: 100 * time.Millisecond, maxDelay: 2 * time.Second}

// transient reports whether err is worth another attempt: the request never
// reached the server, the connection dropped, or the pooler turned us away.
func transient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" { // connection_exception class
		return true
	}
	switch pgErr.Code {
	case "40001", // serialization_failure
		"57P01", // admin_shutdown
		"57P03", // cannot_connect_now
		"53300": // too_many_connections
		return true
	}
	return false
}

// run executes fn until it succeeds, fails permanently, or the retry budget
// is spent. Delays double from base with up to 100% jitter, capped at maxDelay.
func (p readPolicy) run(ctx context.Context, logger *slog.Logger, table string, fn func() error) error {
	delay := p.base
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil || !transient(err) || attempt == p.retries {
			return err
		}
		wait := delay + time.Duration(rand.Int64N(int64(delay)+1)) //nolint:gosec // jitter
		if logger != nil {
			logger.Warn("storage: transient read failure, retrying",
				"table", table, "attempt", attempt+1, "wait_ms", wait.Milliseconds(), "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		delay = min(delay*2, p.maxDelay)
	}
}
