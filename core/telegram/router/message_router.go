package router

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/rewardbot/core/telegram"
	tghelpers "github.com/m3rciful/rewardbot/core/telegram/helpers"
)

// FSM is a multi-step conversation that claims plain-text messages while in progress.
type FSM interface {
	InProgress(ctx context.Context, userID int64) (bool, error)
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	// UnknownText handles text that is neither part of a conversation nor a command.
	// When nil such text is ignored.
	UnknownText tele.HandlerFunc
}

// TextRoute routes plain text: an active conversation first, then command
// names telebot did not match (aliases, different casing), then UnknownText.
func TextRoute(fsm FSM, reg *tg.Registry, opts TextOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()

		if fsm != nil && c.Sender() != nil {
			active, err := fsm.InProgress(tghelpers.BuildContext(c), c.Sender().ID)
			if err != nil {
				return handleWithSummary(c, "fsm", start, func() error { return err })
			}
			if active {
				return handleWithSummary(c, "fsm", start, func() error {
					return fsm.ManagerHandler(c)
				})
			}
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && !cmd.AdminOnly {
				return handleWithSummary(c, normalizeHandlerName(key), start, func() error {
					return cmd.Handler(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	return tg.Route{Endpoint: tele.OnText, Handler: handler}
}
