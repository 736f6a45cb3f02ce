package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/rewardbot/core/config"
	coredatabase "github.com/m3rciful/rewardbot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunWithoutDatabase(t *testing.T) {
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			t.Fatal("connect must not be called without a database config")
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.DB != nil {
		t.Fatal("unexpected DB")
	}
}

func TestRunRejectsIncompleteDatabaseConfig(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   &coredatabase.Config{Host: "localhost"},
		LoggerInit: noLogger,
	})
	if err == nil {
		t.Fatal("expected error for missing database name")
	}
}

func TestRunPropagatesConnectError(t *testing.T) {
	want := errors.New("refused")
	var migrated bool
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   &coredatabase.Config{Host: "db", Name: "rewards", User: "bot"},
		LoggerInit: noLogger,
		Connect: func(_ context.Context, cfg coredatabase.Config) (*sqlx.DB, error) {
			if cfg.Port != "5432" {
				t.Fatalf("defaults not applied: %+v", cfg)
			}
			return nil, want
		},
		Migrate: func(coredatabase.Config) error { migrated = true; return nil },
	})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
	if migrated {
		t.Fatal("migrations ran after a failed connect")
	}
}

func TestRunNilConfig(t *testing.T) {
	if _, err := Run(context.Background(), Options{}); err == nil {
		t.Fatal("expected error")
	}
}
