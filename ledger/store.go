package ledger

import (
	"context"
	"errors"
)

// ErrHistoryRewritten is returned when an update tries to drop or edit existing history lines.
var ErrHistoryRewritten = errors.New("ledger: history is append-only")

// Stats summarizes the whole ledger.
type Stats struct {
	Accounts int   `db:"accounts"`
	Points   int64 `db:"points"`
}

// Store persists accounts. Implementations serialize Update calls per account
// so concurrent deliveries cannot lose each other's writes.
type Store interface {
	// Get returns the account and whether it exists.
	Get(ctx context.Context, id string) (Account, bool, error)
	// Ensure returns the account, creating and persisting an empty one when missing.
	// The boolean reports whether the account was created by this call.
	Ensure(ctx context.Context, id string) (Account, bool, error)
	// Update applies fn to a copy of the account (created lazily) and persists the result.
	// When fn returns an error nothing is written and that error is returned as is.
	Update(ctx context.Context, id string, fn func(*Account) error) (Account, error)
	// Stats reports ledger-wide totals.
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// checkAppendOnly verifies after keeps before's history as a prefix.
func checkAppendOnly(before, after []string) error {
	if len(after) < len(before) {
		return ErrHistoryRewritten
	}
	for i := range before {
		if before[i] != after[i] {
			return ErrHistoryRewritten
		}
	}
	return nil
}
