// Package ledger keeps per-user point balances, reward catalogs and activity history.
package ledger

import "fmt"

// Reward is a named item redeemable for a fixed point cost.
type Reward struct {
	Name   string `json:"name" db:"name"`
	Points int64  `json:"points" db:"points"`
}

// Account is one user's points, reward catalog and history.
type Account struct {
	Points  int64    `json:"points"`
	Rewards []Reward `json:"rewards"`
	History []string `json:"history"`
	// SetupRewards marks that the next plain-text message is a reward list.
	SetupRewards bool `json:"setup_rewards"`
}

// NewAccount returns the state of a never-seen user.
func NewAccount() Account {
	return Account{
		Rewards: []Reward{},
		History: []string{},
	}
}

// Clone returns a deep copy so callers can mutate it without touching stored state.
func (a Account) Clone() Account {
	out := a
	out.Rewards = append(make([]Reward, 0, len(a.Rewards)), a.Rewards...)
	out.History = append(make([]string, 0, len(a.History)), a.History...)
	return out
}

// normalize replaces nil slices so the JSON document always carries empty arrays.
func (a *Account) normalize() {
	if a.Rewards == nil {
		a.Rewards = []Reward{}
	}
	if a.History == nil {
		a.History = []string{}
	}
}

// Document is the persisted ledger: every account keyed by user identifier.
type Document struct {
	Users map[string]Account `json:"users"`
}

// NewDocument returns an empty ledger.
func NewDocument() Document {
	return Document{Users: make(map[string]Account)}
}

func (d *Document) normalize() {
	if d.Users == nil {
		d.Users = make(map[string]Account)
	}
	for id, acc := range d.Users {
		acc.normalize()
		d.Users[id] = acc
	}
}

// AddEntry formats the history line written when points are earned.
func AddEntry(task string, amount int64) string {
	return fmt.Sprintf("+%d poin dari tugas: %s", amount, task)
}

// RedeemEntry formats the history line written when a reward is redeemed.
func RedeemEntry(r Reward) string {
	return fmt.Sprintf("-%d poin untuk reward: %s", r.Points, r.Name)
}
