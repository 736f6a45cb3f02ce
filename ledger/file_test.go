package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := OpenFile(filepath.Join(t.TempDir(), "data", "ledger.json"))
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	return s
}

func TestOpenFileCreatesEmptyDocument(t *testing.T) {
	s := newTestFileStore(t)
	raw, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var doc map[string]map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	if users, ok := doc["users"]; !ok || len(users) != 0 {
		t.Fatalf("expected empty users object, got %s", raw)
	}
}

func TestFileStoreEnsureCreatesZeroAccount(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)

	acc, created, err := s.Ensure(ctx, "100")
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if !created {
		t.Fatal("expected account to be created")
	}
	if acc.Points != 0 || len(acc.Rewards) != 0 || len(acc.History) != 0 || acc.SetupRewards {
		t.Fatalf("unexpected new account: %+v", acc)
	}

	if _, created, err = s.Ensure(ctx, "100"); err != nil || created {
		t.Fatalf("second Ensure created=%v err=%v", created, err)
	}

	raw, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := `"100": {
      "points": 0,
      "rewards": [],
      "history": [],
      "setup_rewards": false
    }`
	if !strings.Contains(string(raw), want) {
		t.Fatalf("document does not hold empty lists:\n%s", raw)
	}
}

func TestFileStoreUpdatePersists(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)

	_, err := s.Update(ctx, "7", func(a *Account) error {
		a.Points = 12
		a.Rewards = []Reward{{Name: "Ebook", Points: 18}}
		a.History = append(a.History, "+12 poin dari tugas: belajar")
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	reopened, err := OpenFile(s.Path())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	acc, ok, err := reopened.Get(ctx, "7")
	if err != nil || !ok {
		t.Fatalf("Get ok=%v err=%v", ok, err)
	}
	if acc.Points != 12 || len(acc.Rewards) != 1 || acc.Rewards[0].Name != "Ebook" || len(acc.History) != 1 {
		t.Fatalf("unexpected account after reopen: %+v", acc)
	}
}

func TestFileStoreUpdateErrorWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)
	boom := errors.New("boom")

	_, err := s.Update(ctx, "9", func(a *Account) error {
		a.Points = 1000
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if _, ok, _ := s.Get(ctx, "9"); ok {
		t.Fatal("failed update must not create the account")
	}
}

func TestFileStoreHistoryIsAppendOnly(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)
	if _, err := s.Update(ctx, "1", func(a *Account) error {
		a.History = append(a.History, "first")
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err := s.Update(ctx, "1", func(a *Account) error {
		a.History = []string{"rewritten"}
		return nil
	})
	if !errors.Is(err, ErrHistoryRewritten) {
		t.Fatalf("expected ErrHistoryRewritten, got %v", err)
	}
}

func TestFileStoreConcurrentUpdatesKeepEveryIncrement(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)

	const workers, perWorker = 8, 10
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := s.Update(ctx, "42", func(a *Account) error {
					a.Points++
					return nil
				}); err != nil {
					t.Errorf("Update: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	acc, _, err := s.Get(ctx, "42")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if acc.Points != workers*perWorker {
		t.Fatalf("points = %d, want %d", acc.Points, workers*perWorker)
	}
}

func TestFileStoreLoadsLegacyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	legacy := `{"users": {"55": {"points": 4, "rewards": [{"points": 3, "name": "Snack"}], "history": null, "setup_rewards": true}}}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	acc, ok, err := s.Get(context.Background(), "55")
	if err != nil || !ok {
		t.Fatalf("Get ok=%v err=%v", ok, err)
	}
	if acc.Points != 4 || !acc.SetupRewards || acc.History == nil || acc.Rewards[0] != (Reward{Name: "Snack", Points: 3}) {
		t.Fatalf("unexpected legacy account: %+v", acc)
	}
}

func TestFileStoreStats(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)
	for id, pts := range map[string]int64{"a": 5, "b": 7} {
		pts := pts
		if _, err := s.Update(ctx, id, func(a *Account) error {
			a.Points = pts
			return nil
		}); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Accounts != 2 || st.Points != 12 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}
