package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// MaxRewards bounds a reward list so /rewards fits one inline keyboard.
	MaxRewards = 50
	// MaxRewardNameLen is the longest reward name, in characters.
	MaxRewardNameLen = 100
)

var (
	// ErrMalformedLine means a reward line has neither "<points> <name>" nor "<name> - <points>" shape.
	ErrMalformedLine = errors.New("malformed reward line")
	// ErrInvalidPoints means a point value is not a positive integer.
	ErrInvalidPoints = errors.New("points must be a positive integer")
	// ErrMissingName means a reward line carries points but no name.
	ErrMissingName = errors.New("reward name is empty")
	// ErrNameTooLong means a reward name exceeds MaxRewardNameLen characters.
	ErrNameTooLong = errors.New("reward name too long")
	// ErrNoRewardLines means a reward submission contained only blank lines.
	ErrNoRewardLines = errors.New("no reward lines")
	// ErrTooManyRewards means a reward submission holds more than MaxRewards lines.
	ErrTooManyRewards = errors.New("too many rewards")
)

// ParseError reports the first bad line of a reward submission.
type ParseError struct {
	Line int // 1-based, counting blank lines
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseRewards reads one reward per line. A line is either "<points> <name>"
// or "<name> - <points>". Blank lines are skipped. Parsing is all-or-nothing:
// the first bad line aborts with a *ParseError and no rewards are returned.
// Lists longer than MaxRewards fail with ErrTooManyRewards.
func ParseRewards(text string) ([]Reward, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	rewards := make([]Reward, 0, len(lines))
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		r, err := parseRewardLine(line)
		if err != nil {
			return nil, &ParseError{Line: i + 1, Text: line, Err: err}
		}
		if len(rewards) == MaxRewards {
			return nil, fmt.Errorf("%w: more than %d", ErrTooManyRewards, MaxRewards)
		}
		rewards = append(rewards, r)
	}
	if len(rewards) == 0 {
		return nil, ErrNoRewardLines
	}
	return rewards, nil
}

func parseRewardLine(line string) (Reward, error) {
	if head, tail, ok := strings.Cut(line, " "); ok {
		if pts, err := strconv.ParseInt(head, 10, 64); err == nil {
			return newReward(tail, pts)
		}
	}
	if idx := strings.LastIndex(line, "-"); idx >= 0 {
		name := strings.TrimSpace(line[:idx])
		// "Snack - -5": the amount carries its own sign.
		if strings.HasSuffix(name, "-") {
			return Reward{}, ErrInvalidPoints
		}
		pts, err := ParsePoints(line[idx+1:])
		if err != nil {
			return Reward{}, err
		}
		return newReward(name, pts)
	}
	if !strings.Contains(line, " ") {
		return Reward{}, ErrMalformedLine
	}
	return Reward{}, ErrInvalidPoints
}

func newReward(name string, pts int64) (Reward, error) {
	name = strings.TrimSpace(name)
	if pts <= 0 {
		return Reward{}, ErrInvalidPoints
	}
	if name == "" {
		return Reward{}, ErrMissingName
	}
	if utf8.RuneCountInString(name) > MaxRewardNameLen {
		return Reward{}, ErrNameTooLong
	}
	return Reward{Name: name, Points: pts}, nil
}

// ParsePoints parses a positive point amount.
func ParsePoints(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v <= 0 {
		return 0, ErrInvalidPoints
	}
	return v, nil
}
