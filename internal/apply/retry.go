package apply

import (
	"database/sql/driver"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
)

// Policy is the bounded-retry policy injected into the Applier. Tests
// substitute zero-backoff policies; production uses DefaultPolicy.
type Policy struct {
	// MaxAttempts is the total number of tries per batch, including the
	// first. Values below one behave as one.
	MaxAttempts int
	// NewBackOff returns a fresh delay schedule for one batch.
	NewBackOff func() backoff.BackOff
	// IsTransient classifies an error as worth retrying.
	IsTransient func(error) bool
}

// DefaultPolicy returns an exponential-backoff policy with PostgreSQL
// transient-error classification.
func DefaultPolicy(maxAttempts int) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			return b
		},
		IsTransient: IsTransient,
	}
}

// ZeroBackOffPolicy retries immediately. Intended for tests.
func ZeroBackOffPolicy(maxAttempts int, isTransient func(error) bool) Policy {
	if isTransient == nil {
		isTransient = IsTransient
	}
	return Policy{
		MaxAttempts: maxAttempts,
		NewBackOff:  func() backoff.BackOff { return &backoff.ZeroBackOff{} },
		IsTransient: isTransient,
	}
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Transient PostgreSQL error codes: serialization failure, deadlock,
// too many connections, cannot connect now.
var transientPgCodes = map[string]bool{
	"40001": true,
	"40P01": true,
	"53300": true,
	"57P03": true,
}

// IsTransient reports whether err looks like a timing or connectivity
// failure that a retry with identical content may clear. Permanent
// failures such as constraint violations are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 covers connection exceptions.
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" {
			return true
		}
		return transientPgCodes[pgErr.Code]
	}
	return false
}
