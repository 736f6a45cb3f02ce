package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/rewardbot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegistryListCommandsHidesAdminAndHidden(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/points", commands.Command{Handler: noop, Description: "Lihat poin"})
	reg.RegisterCommand("/add", commands.Command{Handler: noop, Description: "Tambah poin"})
	reg.RegisterCommand("/stats", commands.Command{Handler: noop, Description: "Statistik", AdminOnly: true})
	reg.RegisterCommand("/debug", commands.Command{Handler: noop, Description: "Debug", Hidden: true})

	visible := reg.ListCommands(true)
	if len(visible) != 2 || visible[0].Text != "add" || visible[1].Text != "points" {
		t.Fatalf("visible = %+v", visible)
	}
	if all := reg.ListCommands(false); len(all) != 4 {
		t.Fatalf("all = %+v", all)
	}
}

func TestRegistryRejectsInvalidAndDuplicateCommands(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("points", commands.Command{Handler: noop, Description: "x"})
	reg.RegisterCommand("/empty", commands.Command{Handler: noop})
	reg.RegisterCommand("/points", commands.Command{Handler: noop, Description: "first"})
	reg.RegisterCommand("/points", commands.Command{Handler: noop, Description: "second"})

	if len(reg.Commands()) != 1 {
		t.Fatalf("commands = %v", reg.Commands())
	}
	if got := reg.Commands()["/points"].Description; got != "first" {
		t.Fatalf("duplicate replaced the original: %q", got)
	}
}

func TestRegistryLookupCommand(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/cancel", commands.Command{Handler: noop, Description: "Batal", Aliases: []string{"batal"}})

	cases := []struct {
		text string
		ok   bool
	}{
		{"/cancel", true},
		{"cancel", true},
		{"/batal", true},
		{"/cancel@reward_bot", true},
		{"/cancel now", true},
		{"/redeem", false},
		{"", false},
	}
	for _, c := range cases {
		key, _, ok := reg.LookupCommand(c.text)
		if ok != c.ok {
			t.Fatalf("LookupCommand(%q) ok = %v, want %v", c.text, ok, c.ok)
		}
		if ok && key != "/cancel" {
			t.Fatalf("LookupCommand(%q) key = %q", c.text, key)
		}
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("redeem", noop); err != nil {
		t.Fatalf("RegisterCallback: %v", err)
	}
	if err := reg.RegisterCallback("redeem", noop); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.RegisterCallback("", noop); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, ok := reg.GetCallback("redeem"); !ok {
		t.Fatal("callback not found")
	}
	if got := reg.ListCallbacks(); len(got) != 1 || got[0] != "redeem" {
		t.Fatalf("ListCallbacks = %v", got)
	}
}
