package ledger

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func newTestService(t *testing.T) (*Service, *FileStore) {
	t.Helper()
	store := newTestFileStore(t)
	return NewService(store), store
}

func TestServiceAccountCreatedOnFirstInteraction(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	acc, err := svc.Account(ctx, "1")
	if err != nil {
		t.Fatalf("Account: %v", err)
	}
	if !reflect.DeepEqual(acc, NewAccount()) {
		t.Fatalf("new account = %+v", acc)
	}
	if _, ok, _ := store.Get(ctx, "1"); !ok {
		t.Fatal("account was not persisted")
	}
}

func TestServiceAdd(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	acc, err := svc.Add(ctx, "1", "  lari pagi ", 5)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	acc, err = svc.Add(ctx, "1", "baca buku", 3)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if acc.Points != 8 {
		t.Fatalf("points = %d, want 8", acc.Points)
	}
	want := []string{"+5 poin dari tugas: lari pagi", "+3 poin dari tugas: baca buku"}
	if !reflect.DeepEqual(acc.History, want) {
		t.Fatalf("history = %q", acc.History)
	}
}

func TestServiceAddRejectsBadInput(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "1", "tidur", 0); !errors.Is(err, ErrInvalidPoints) {
		t.Fatalf("zero amount err = %v", err)
	}
	if _, err := svc.Add(ctx, "1", "tidur", -3); !errors.Is(err, ErrInvalidPoints) {
		t.Fatalf("negative amount err = %v", err)
	}
	if _, err := svc.Add(ctx, "1", "   ", 3); !errors.Is(err, ErrEmptyTask) {
		t.Fatalf("empty task err = %v", err)
	}
	acc, _, _ := store.Get(ctx, "1")
	if acc.Points != 0 || len(acc.History) != 0 {
		t.Fatalf("rejected adds changed state: %+v", acc)
	}
}

func TestServiceRedeem(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedRewards(t, svc, "1", "3 Snack kecil\n9 BingXue")
	if _, err := svc.Add(ctx, "1", "olahraga", 10); err != nil {
		t.Fatalf("Add: %v", err)
	}

	reward, acc, err := svc.Redeem(ctx, "1", 2)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if reward != (Reward{Name: "BingXue", Points: 9}) {
		t.Fatalf("reward = %+v", reward)
	}
	if acc.Points != 1 {
		t.Fatalf("points = %d, want 1", acc.Points)
	}
	if got := acc.History[len(acc.History)-1]; got != "-9 poin untuk reward: BingXue" {
		t.Fatalf("last history line = %q", got)
	}
	if len(acc.History) != 2 {
		t.Fatalf("expected exactly one redeem entry, history = %q", acc.History)
	}

	stored, _, _ := store.Get(ctx, "1")
	if !reflect.DeepEqual(stored, acc) {
		t.Fatalf("stored %+v != returned %+v", stored, acc)
	}
}

func TestServiceRedeemFailuresChangeNothing(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedRewards(t, svc, "1", "3 Snack\n18 Ebook")
	if _, err := svc.Add(ctx, "1", "olahraga", 5); err != nil {
		t.Fatalf("Add: %v", err)
	}
	before, _, _ := store.Get(ctx, "1")

	cases := []struct {
		index int
		want  error
	}{
		{0, ErrInvalidIndex},
		{3, ErrInvalidIndex},
		{-1, ErrInvalidIndex},
		{2, ErrInsufficientPoints},
	}
	for _, c := range cases {
		if _, _, err := svc.Redeem(ctx, "1", c.index); !errors.Is(err, c.want) {
			t.Fatalf("Redeem(%d) err = %v, want %v", c.index, err, c.want)
		}
	}

	after, _, _ := store.Get(ctx, "1")
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("failed redeems changed state:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestServiceRedeemWithoutRewards(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	if _, _, err := svc.Redeem(ctx, "new", 1); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("err = %v", err)
	}
	if _, ok, _ := store.Get(ctx, "new"); !ok {
		t.Fatal("first interaction must still create the account")
	}
}

func TestServiceRewardSetupFlow(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	rewards, handled, err := svc.SubmitRewards(ctx, "1", "3 Snack")
	if err != nil || handled || rewards != nil {
		t.Fatalf("text outside setup mode: rewards=%v handled=%v err=%v", rewards, handled, err)
	}

	if err := svc.BeginRewardSetup(ctx, "1"); err != nil {
		t.Fatalf("BeginRewardSetup: %v", err)
	}
	if on, _ := svc.InRewardSetup(ctx, "1"); !on {
		t.Fatal("expected setup mode")
	}

	rewards, handled, err = svc.SubmitRewards(ctx, "1", "3 Snack kecil\nEbook - 18")
	if err != nil || !handled {
		t.Fatalf("SubmitRewards handled=%v err=%v", handled, err)
	}
	want := []Reward{{"Snack kecil", 3}, {"Ebook", 18}}
	if !reflect.DeepEqual(rewards, want) {
		t.Fatalf("rewards = %+v", rewards)
	}
	acc, _, _ := store.Get(ctx, "1")
	if acc.SetupRewards || !reflect.DeepEqual(acc.Rewards, want) {
		t.Fatalf("stored account = %+v", acc)
	}
}

func TestServiceRewardReplacementIsAtomic(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedRewards(t, svc, "1", "3 Snack")

	if err := svc.BeginRewardSetup(ctx, "1"); err != nil {
		t.Fatalf("BeginRewardSetup: %v", err)
	}
	_, handled, err := svc.SubmitRewards(ctx, "1", "5 Kopi\nbukan angka\n9 Teh")
	if !handled {
		t.Fatal("submission in setup mode must be handled")
	}
	var perr *ParseError
	if !errors.As(err, &perr) || perr.Line != 2 {
		t.Fatalf("expected parse error on line 2, got %v", err)
	}
	if !IsUserError(err) {
		t.Fatal("parse errors are user errors")
	}

	acc, _, _ := store.Get(ctx, "1")
	if !reflect.DeepEqual(acc.Rewards, []Reward{{"Snack", 3}}) {
		t.Fatalf("partial write detected: %+v", acc.Rewards)
	}
	if !acc.SetupRewards {
		t.Fatal("account should stay in setup mode after a rejected list")
	}
}

func TestServiceCancelRewardSetup(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if was, err := svc.CancelRewardSetup(ctx, "1"); err != nil || was {
		t.Fatalf("cancel without setup: was=%v err=%v", was, err)
	}
	if err := svc.BeginRewardSetup(ctx, "1"); err != nil {
		t.Fatalf("BeginRewardSetup: %v", err)
	}
	if was, err := svc.CancelRewardSetup(ctx, "1"); err != nil || !was {
		t.Fatalf("cancel in setup: was=%v err=%v", was, err)
	}
	if on, _ := svc.InRewardSetup(ctx, "1"); on {
		t.Fatal("setup mode still active")
	}
}

func TestIsUserError(t *testing.T) {
	if IsUserError(errors.New("disk full")) {
		t.Fatal("storage errors are not user errors")
	}
	if !IsUserError(ErrInsufficientPoints) {
		t.Fatal("ErrInsufficientPoints is a user error")
	}
	if _, err := ParseRewards(strings.Repeat("1 a\n", MaxRewards+1)); !IsUserError(err) {
		t.Fatalf("%v is a user error", err)
	}
}

func TestInRewardSetupCreatesAccount(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if on, err := svc.InRewardSetup(ctx, "7"); err != nil || on {
		t.Fatalf("InRewardSetup = %v, %v", on, err)
	}
	if _, found, _ := store.Get(ctx, "7"); !found {
		t.Fatal("first plain text must create the account")
	}
}

func seedRewards(t *testing.T, svc *Service, userID, text string) {
	t.Helper()
	ctx := context.Background()
	if err := svc.BeginRewardSetup(ctx, userID); err != nil {
		t.Fatalf("BeginRewardSetup: %v", err)
	}
	if _, _, err := svc.SubmitRewards(ctx, userID, text); err != nil {
		t.Fatalf("SubmitRewards: %v", err)
	}
}
