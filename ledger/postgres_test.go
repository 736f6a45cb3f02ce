package ledger

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Runs against a migrated database when LEDGER_TEST_POSTGRES_DSN is set, e.g.
// "user=postgres password=postgres host=localhost dbname=rewardbot_test sslmode=disable".
func newTestPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("LEDGER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LEDGER_TEST_POSTGRES_DSN not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := db.Exec(`TRUNCATE history, rewards, accounts`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	s := NewPostgresStore(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	s := newTestPostgresStore(t)
	ctx := context.Background()

	acc, created, err := s.Ensure(ctx, "1")
	if err != nil || !created {
		t.Fatalf("Ensure created=%v err=%v", created, err)
	}
	if acc.Points != 0 || len(acc.Rewards) != 0 || len(acc.History) != 0 {
		t.Fatalf("unexpected new account: %+v", acc)
	}

	svc := NewService(s)
	seedRewards(t, svc, "1", "3 Snack\n9 BingXue")
	if _, err := svc.Add(ctx, "1", "lari", 10); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, _, err := svc.Redeem(ctx, "1", 2); err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if _, _, err := svc.Redeem(ctx, "1", 2); !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("second Redeem err = %v", err)
	}

	got, ok, err := s.Get(ctx, "1")
	if err != nil || !ok {
		t.Fatalf("Get ok=%v err=%v", ok, err)
	}
	if got.Points != 1 || len(got.Rewards) != 2 || len(got.History) != 2 {
		t.Fatalf("unexpected account: %+v", got)
	}
	if got.History[1] != "-9 poin untuk reward: BingXue" {
		t.Fatalf("history = %q", got.History)
	}

	st, err := s.Stats(ctx)
	if err != nil || st.Accounts != 1 || st.Points != 1 {
		t.Fatalf("Stats = %+v, %v", st, err)
	}
}
