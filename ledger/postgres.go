package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/rewardbot/core/logger"
)

// PostgresStore keeps accounts in the accounts/rewards/history tables.
// Update locks the account row for the duration of the transaction.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open connection pool. The schema comes from migrations/.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type accountRow struct {
	Points       int64 `db:"points"`
	SetupRewards bool  `db:"setup_rewards"`
}

const (
	qInsertAccount = `INSERT INTO accounts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	qSelectAccount = `SELECT points, setup_rewards FROM accounts WHERE user_id = $1`
	qLockAccount   = qSelectAccount + ` FOR UPDATE`
	qSelectRewards = `SELECT name, points FROM rewards WHERE user_id = $1 ORDER BY position`
	qSelectHistory = `SELECT entry FROM history WHERE user_id = $1 ORDER BY id`
	qUpdateAccount = `UPDATE accounts SET points = $2, setup_rewards = $3, updated_at = now() WHERE user_id = $1`
	qDeleteRewards = `DELETE FROM rewards WHERE user_id = $1`
	qInsertReward  = `INSERT INTO rewards (user_id, position, name, points) VALUES ($1, $2, $3, $4)`
	qInsertHistory = `INSERT INTO history (user_id, entry) VALUES ($1, $2)`
	qStats         = `SELECT COUNT(*) AS accounts, COALESCE(SUM(points), 0) AS points FROM accounts`
)

// Get loads the account with its rewards and history.
func (s *PostgresStore) Get(ctx context.Context, id string) (Account, bool, error) {
	acc, err := loadAccount(ctx, s.db, qSelectAccount, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, false, nil
	}
	if err != nil {
		return Account{}, false, err
	}
	return acc, true, nil
}

// Ensure inserts an empty account when missing and returns the stored state.
func (s *PostgresStore) Ensure(ctx context.Context, id string) (Account, bool, error) {
	res, err := s.db.ExecContext(ctx, qInsertAccount, id)
	if err != nil {
		return Account{}, false, fmt.Errorf("ledger: insert account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Account{}, false, fmt.Errorf("ledger: insert account: %w", err)
	}
	acc, err := loadAccount(ctx, s.db, qSelectAccount, id)
	if err != nil {
		return Account{}, false, err
	}
	return acc, n > 0, nil
}

// Update runs fn inside a transaction holding the account row lock.
func (s *PostgresStore) Update(ctx context.Context, id string, fn func(*Account) error) (acc Account, err error) {
	start := time.Now()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Account{}, fmt.Errorf("ledger: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, qInsertAccount, id); err != nil {
		return Account{}, fmt.Errorf("ledger: insert account: %w", err)
	}
	before, err := loadAccount(ctx, tx, qLockAccount, id)
	if err != nil {
		return Account{}, err
	}
	after := before.Clone()
	if err = fn(&after); err != nil {
		return Account{}, err
	}
	if err = checkAppendOnly(before.History, after.History); err != nil {
		return Account{}, err
	}
	if err = writeAccount(ctx, tx, id, before, after); err != nil {
		return Account{}, err
	}
	if err = tx.Commit(); err != nil {
		return Account{}, fmt.Errorf("ledger: commit: %w", err)
	}

	logger.LogEvent(ctx, logger.Ledger, slog.LevelDebug, "ledger.save",
		slog.String("status", "ok"),
		slog.String("op", "update"),
		slog.String("driver", "postgres"),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	after.normalize()
	return after, nil
}

// Stats reports the number of accounts and the sum of their balances.
func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.GetContext(ctx, &st, qStats); err != nil {
		return Stats{}, fmt.Errorf("ledger: stats: %w", err)
	}
	return st, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func loadAccount(ctx context.Context, q sqlx.QueryerContext, query, id string) (Account, error) {
	var row accountRow
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, err
		}
		return Account{}, fmt.Errorf("ledger: select account: %w", err)
	}
	acc := NewAccount()
	acc.Points = row.Points
	acc.SetupRewards = row.SetupRewards
	if err := sqlx.SelectContext(ctx, q, &acc.Rewards, qSelectRewards, id); err != nil {
		return Account{}, fmt.Errorf("ledger: select rewards: %w", err)
	}
	if err := sqlx.SelectContext(ctx, q, &acc.History, qSelectHistory, id); err != nil {
		return Account{}, fmt.Errorf("ledger: select history: %w", err)
	}
	acc.normalize()
	return acc, nil
}

func writeAccount(ctx context.Context, tx *sqlx.Tx, id string, before, after Account) error {
	if _, err := tx.ExecContext(ctx, qUpdateAccount, id, after.Points, after.SetupRewards); err != nil {
		return fmt.Errorf("ledger: update account: %w", err)
	}
	if !sameRewards(before.Rewards, after.Rewards) {
		if _, err := tx.ExecContext(ctx, qDeleteRewards, id); err != nil {
			return fmt.Errorf("ledger: clear rewards: %w", err)
		}
		for i, r := range after.Rewards {
			if _, err := tx.ExecContext(ctx, qInsertReward, id, i+1, r.Name, r.Points); err != nil {
				return fmt.Errorf("ledger: insert reward: %w", err)
			}
		}
	}
	for _, entry := range after.History[len(before.History):] {
		if _, err := tx.ExecContext(ctx, qInsertHistory, id, entry); err != nil {
			return fmt.Errorf("ledger: insert history: %w", err)
		}
	}
	return nil
}

func sameRewards(a, b []Reward) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
