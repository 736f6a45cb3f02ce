package ledger

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/m3rciful/rewardbot/core/logger"
)

var (
	// ErrInvalidIndex means a reward number is outside the account's reward list.
	ErrInvalidIndex = errors.New("reward number out of range")
	// ErrInsufficientPoints means the balance is lower than the reward cost.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrEmptyTask means /add was called without a task description.
	ErrEmptyTask = errors.New("task name is empty")
)

// Service applies the ledger rules on top of a Store. Every operation first
// ensures the account exists so a user's first interaction always creates it.
type Service struct {
	store Store
}

// NewService builds a Service over store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Account returns the user's account, creating it on first interaction.
func (s *Service) Account(ctx context.Context, userID string) (Account, error) {
	acc, created, err := s.store.Ensure(ctx, userID)
	if err != nil {
		return Account{}, err
	}
	if created {
		logger.LogEvent(ctx, logger.Ledger, slog.LevelInfo, "ledger.account_created",
			slog.String("status", "ok"),
			slog.String("account", userID),
		)
	}
	return acc, nil
}

// BeginRewardSetup switches the account into reward-setup mode.
func (s *Service) BeginRewardSetup(ctx context.Context, userID string) error {
	if _, err := s.Account(ctx, userID); err != nil {
		return err
	}
	_, err := s.store.Update(ctx, userID, func(a *Account) error {
		a.SetupRewards = true
		return nil
	})
	return err
}

// CancelRewardSetup leaves reward-setup mode and reports whether it was active.
func (s *Service) CancelRewardSetup(ctx context.Context, userID string) (bool, error) {
	acc, err := s.Account(ctx, userID)
	if err != nil {
		return false, err
	}
	if !acc.SetupRewards {
		return false, nil
	}
	_, err = s.store.Update(ctx, userID, func(a *Account) error {
		a.SetupRewards = false
		return nil
	})
	return err == nil, err
}

// InRewardSetup reports whether the next plain-text message is a reward list.
func (s *Service) InRewardSetup(ctx context.Context, userID string) (bool, error) {
	acc, err := s.Account(ctx, userID)
	if err != nil {
		return false, err
	}
	return acc.SetupRewards, nil
}

// SubmitRewards replaces the reward list with the parsed text when the account is in
// setup mode. handled is false when setup mode is off and nothing was changed.
// On a parse error the account stays in setup mode and keeps its previous rewards.
func (s *Service) SubmitRewards(ctx context.Context, userID, text string) (rewards []Reward, handled bool, err error) {
	if _, err := s.Account(ctx, userID); err != nil {
		return nil, false, err
	}
	acc, err := s.store.Update(ctx, userID, func(a *Account) error {
		if !a.SetupRewards {
			return errNotInSetup
		}
		parsed, err := ParseRewards(text)
		if err != nil {
			return err
		}
		a.Rewards = parsed
		a.SetupRewards = false
		return nil
	})
	if errors.Is(err, errNotInSetup) {
		return nil, false, nil
	}
	if err != nil {
		s.logRejected(ctx, "set_rewards", err)
		return nil, true, err
	}
	logger.LogEvent(ctx, logger.Ledger, slog.LevelInfo, "ledger.set_rewards",
		slog.String("status", "ok"),
		slog.Int("rewards", len(acc.Rewards)),
	)
	return acc.Rewards, true, nil
}

var errNotInSetup = errors.New("account is not in reward setup")

// Add credits amount points for task and appends one history line.
func (s *Service) Add(ctx context.Context, userID, task string, amount int64) (Account, error) {
	if _, err := s.Account(ctx, userID); err != nil {
		return Account{}, err
	}
	task = strings.TrimSpace(task)
	acc, err := s.store.Update(ctx, userID, func(a *Account) error {
		if task == "" {
			return ErrEmptyTask
		}
		if amount <= 0 || a.Points > math.MaxInt64-amount {
			return ErrInvalidPoints
		}
		a.Points += amount
		a.History = append(a.History, AddEntry(task, amount))
		return nil
	})
	if err != nil {
		s.logRejected(ctx, "add", err)
		return Account{}, err
	}
	logger.LogEvent(ctx, logger.Ledger, slog.LevelInfo, "ledger.add",
		slog.String("status", "ok"),
		slog.Int64("delta", amount),
		slog.Int64("points", acc.Points),
	)
	return acc, nil
}

// Redeem spends the cost of the reward at the 1-based index and appends one history line.
// It changes nothing when the index is out of range or the balance is too low.
func (s *Service) Redeem(ctx context.Context, userID string, index int) (Reward, Account, error) {
	if _, err := s.Account(ctx, userID); err != nil {
		return Reward{}, Account{}, err
	}
	var reward Reward
	acc, err := s.store.Update(ctx, userID, func(a *Account) error {
		if index < 1 || index > len(a.Rewards) {
			return ErrInvalidIndex
		}
		reward = a.Rewards[index-1]
		if a.Points < reward.Points {
			return ErrInsufficientPoints
		}
		a.Points -= reward.Points
		a.History = append(a.History, RedeemEntry(reward))
		return nil
	})
	if err != nil {
		s.logRejected(ctx, "redeem", err)
		return Reward{}, Account{}, err
	}
	logger.LogEvent(ctx, logger.Ledger, slog.LevelInfo, "ledger.redeem",
		slog.String("status", "ok"),
		slog.Int64("delta", -reward.Points),
		slog.Int64("points", acc.Points),
	)
	return reward, acc, nil
}

// Stats reports ledger-wide totals.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.store.Stats(ctx)
}

// IsUserError reports whether err is a rule violation the user can fix, as opposed to a storage failure.
func IsUserError(err error) bool {
	var perr *ParseError
	switch {
	case errors.As(err, &perr):
		return true
	case errors.Is(err, ErrInvalidIndex), errors.Is(err, ErrInsufficientPoints),
		errors.Is(err, ErrInvalidPoints), errors.Is(err, ErrEmptyTask),
		errors.Is(err, ErrNoRewardLines), errors.Is(err, ErrTooManyRewards):
		return true
	}
	return false
}

func (s *Service) logRejected(ctx context.Context, op string, err error) {
	level := slog.LevelError
	status := "fail"
	if IsUserError(err) {
		level = slog.LevelInfo
		status = "skip"
	}
	logger.LogEvent(ctx, logger.Ledger, level, "ledger."+op,
		slog.String("status", status),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
}
