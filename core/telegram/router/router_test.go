package router

import (
	"context"
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/rewardbot/core/telegram"
	"github.com/m3rciful/rewardbot/core/telegram/callbacks"
	"github.com/m3rciful/rewardbot/core/telegram/commands"
)

type fakeFSM struct {
	active  bool
	err     error
	handled int
}

func (f *fakeFSM) InProgress(context.Context, int64) (bool, error) { return f.active, f.err }

func (f *fakeFSM) ManagerHandler(tele.Context) error {
	f.handled++
	return nil
}

func newTestBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true, Synchronous: true})
	if err != nil {
		t.Fatalf("NewBot: %v", err)
	}
	return b
}

func textUpdate(text string) tele.Update {
	return tele.Update{ID: 1, Message: &tele.Message{
		Text:   text,
		Sender: &tele.User{ID: 10},
		Chat:   &tele.Chat{ID: 10, Type: tele.ChatPrivate},
	}}
}

func TestTextRoutePrefersActiveConversation(t *testing.T) {
	b := newTestBot(t)
	fsm := &fakeFSM{active: true}
	reg := telegram.NewRegistry()
	var cmdCalls int
	reg.RegisterCommand("/points", commands.Command{Description: "x", Handler: func(tele.Context) error { cmdCalls++; return nil }})

	route := TextRoute(fsm, reg, TextOptions{})
	if err := route.Handler(b.NewContext(textUpdate("3 Snack"))); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if fsm.handled != 1 || cmdCalls != 0 {
		t.Fatalf("fsm=%d cmd=%d", fsm.handled, cmdCalls)
	}
}

func TestTextRouteFallsBackToCommandLookup(t *testing.T) {
	b := newTestBot(t)
	reg := telegram.NewRegistry()
	var cmdCalls, adminCalls int
	reg.RegisterCommand("/cancel", commands.Command{Description: "x", Aliases: []string{"batal"},
		Handler: func(tele.Context) error { cmdCalls++; return nil }})
	reg.RegisterCommand("/stats", commands.Command{Description: "x", AdminOnly: true,
		Handler: func(tele.Context) error { adminCalls++; return nil }})

	route := TextRoute(&fakeFSM{}, reg, TextOptions{})
	_ = route.Handler(b.NewContext(textUpdate("batal")))
	_ = route.Handler(b.NewContext(textUpdate("stats")))
	_ = route.Handler(b.NewContext(textUpdate("hello there")))
	if cmdCalls != 1 {
		t.Fatalf("cmdCalls = %d", cmdCalls)
	}
	if adminCalls != 0 {
		t.Fatal("admin commands must not be reachable through plain text")
	}
}

func TestTextRouteReportsFSMErrors(t *testing.T) {
	b := newTestBot(t)
	want := errors.New("store down")
	route := TextRoute(&fakeFSM{err: want}, nil, TextOptions{})
	if err := route.Handler(b.NewContext(textUpdate("x"))); !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
}

func TestCallbackRouteDispatchesByKey(t *testing.T) {
	b := newTestBot(t)
	reg := telegram.NewRegistry()
	var payload string
	if err := reg.RegisterCallback("redeem", func(c tele.Context) error {
		payload = callbacks.Payload(c)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	var missing int
	reg.SetCallbackNotFound(func(tele.Context) error { missing++; return nil })

	route := CallbackRoute(reg)
	cb := func(data string) tele.Context {
		return b.NewContext(tele.Update{ID: 2, Callback: &tele.Callback{
			ID:     "cb",
			Data:   data,
			Sender: &tele.User{ID: 10},
		}})
	}
	if err := route.Handler(cb(callbacks.Data("redeem", "2"))); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if payload != "2" {
		t.Fatalf("payload = %q", payload)
	}
	_ = route.Handler(cb(callbacks.Data("unknown", "")))
	if missing != 1 {
		t.Fatalf("missing = %d", missing)
	}
}

type codedErr struct{}

func (codedErr) Error() string { return "x" }
func (codedErr) Code() string  { return "rate limited" }

type plainErr struct{}

func (*plainErr) Error() string { return "y" }

func TestDeriveErrorCode(t *testing.T) {
	if got := deriveErrorCode(codedErr{}); got != "RATE_LIMITED" {
		t.Fatalf("coded = %q", got)
	}
	if got := deriveErrorCode(&plainErr{}); got != "PLAINERR" {
		t.Fatalf("typed = %q", got)
	}
}
