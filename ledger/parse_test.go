package ledger

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseRewards(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Reward
	}{
		{
			name: "points first",
			in:   "3 Snack kecil\n9 BingXue\n18 Ebook",
			want: []Reward{{"Snack kecil", 3}, {"BingXue", 9}, {"Ebook", 18}},
		},
		{
			name: "name dash points",
			in:   "Snack kecil - 3\nBingXue-9",
			want: []Reward{{"Snack kecil", 3}, {"BingXue", 9}},
		},
		{
			name: "hyphen inside name",
			in:   "Es-krim - 5",
			want: []Reward{{"Es-krim", 5}},
		},
		{
			name: "mixed formats and blank lines",
			in:   "\n  3 Snack  \r\n\nNonton film - 25\n",
			want: []Reward{{"Snack", 3}, {"Nonton film", 25}},
		},
		{
			name: "points first keeps dashes in name",
			in:   "12 Kopi - besar",
			want: []Reward{{"Kopi - besar", 12}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRewards(tt.in)
			if err != nil {
				t.Fatalf("ParseRewards: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseRewardsRejectsWholeSubmission(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantLine int
		wantErr  error
	}{
		{"single word", "3 Snack\nEbook", 2, ErrMalformedLine},
		{"non numeric points", "3 Snack\nsatu Ebook", 2, ErrInvalidPoints},
		{"zero points", "0 Gratis", 1, ErrInvalidPoints},
		{"negative points", "-4 Snack", 1, ErrInvalidPoints},
		{"dash without number", "Snack - banyak", 1, ErrInvalidPoints},
		{"missing name", "3 Ebook\n\n- 7", 3, ErrMissingName},
		{"negative points after dash", "Snack - -5", 1, ErrInvalidPoints},
		{"double dash", "Snack--5", 1, ErrInvalidPoints},
		{"name too long", "3 " + strings.Repeat("é", MaxRewardNameLen+1), 1, ErrNameTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRewards(tt.in)
			if got != nil {
				t.Fatalf("expected no rewards on error, got %+v", got)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if perr.Line != tt.wantLine {
				t.Fatalf("line = %d, want %d", perr.Line, tt.wantLine)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseRewardsLimit(t *testing.T) {
	line := "1 Snack\n"
	got, err := ParseRewards(strings.Repeat(line, MaxRewards))
	if err != nil || len(got) != MaxRewards {
		t.Fatalf("%d rewards: got %d, %v", MaxRewards, len(got), err)
	}
	got, err = ParseRewards(strings.Repeat(line, MaxRewards+1))
	if !errors.Is(err, ErrTooManyRewards) || got != nil {
		t.Fatalf("%d rewards: got %+v, %v", MaxRewards+1, got, err)
	}
	name := strings.Repeat("é", MaxRewardNameLen)
	if got, err := ParseRewards("2 " + name); err != nil || got[0].Name != name {
		t.Fatalf("name of %d runes: %+v, %v", MaxRewardNameLen, got, err)
	}
}

func TestParseRewardsEmpty(t *testing.T) {
	if _, err := ParseRewards(" \n\n"); !errors.Is(err, ErrNoRewardLines) {
		t.Fatalf("expected ErrNoRewardLines, got %v", err)
	}
}

func TestParsePoints(t *testing.T) {
	if v, err := ParsePoints(" 42 "); err != nil || v != 42 {
		t.Fatalf("ParsePoints(42) = %d, %v", v, err)
	}
	for _, in := range []string{"", "0", "-1", "1.5", "sepuluh"} {
		if _, err := ParsePoints(in); !errors.Is(err, ErrInvalidPoints) {
			t.Fatalf("ParsePoints(%q) err = %v", in, err)
		}
	}
}
