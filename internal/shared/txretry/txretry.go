package txretry

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const (
	// Postgres SQLSTATEs that signal a transient serialization problem
	// rather than a business failure.
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// IsTransient reports whether err is a transaction conflict worth retrying.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	default:
		return false
	}
}

// Do runs fn up to attempts times, backing off exponentially between
// transient transaction conflicts. Business errors abort immediately.
func Do(ctx context.Context, logger *zap.Logger, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	backoff := 25 * time.Millisecond
	var err error
	for i := 1; i <= attempts; i++ {
		err = fn()
		if err == nil || !IsTransient(err) {
			return err
		}
		if i == attempts {
			break
		}

		logger.Warn("transaction conflict, retrying",
			zap.Int("attempt", i),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}
