package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const sendStatsKey = "send_stats"

// sendStats counts the replies one update produced. Sends may finish on a
// dispatcher worker, so the fields are atomic.
type sendStats struct {
	messages atomic.Int32
	keyboard atomic.Bool
}

func (s *sendStats) record(err error, opts []interface{}) {
	if err != nil {
		return
	}
	s.messages.Add(1)
	if carriesMarkup(opts) {
		s.keyboard.Store(true)
	}
}

func carriesMarkup(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// countingContext records every successful reply made through it.
type countingContext struct {
	tele.Context
	stats *sendStats
}

func (c countingContext) Send(what interface{}, opts ...interface{}) error {
	err := c.Context.Send(what, opts...)
	c.stats.record(err, opts)
	return err
}

func (c countingContext) Reply(what interface{}, opts ...interface{}) error {
	err := c.Context.Reply(what, opts...)
	c.stats.record(err, opts)
	return err
}

func (c countingContext) Edit(what interface{}, opts ...interface{}) error {
	err := c.Context.Edit(what, opts...)
	c.stats.record(err, opts)
	return err
}

func (c countingContext) EditOrSend(what interface{}, opts ...interface{}) error {
	err := c.Context.EditOrSend(what, opts...)
	c.stats.record(err, opts)
	return err
}

// MessageMetricsMiddleware counts the messages a handler sends for its summary log line.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		stats := &sendStats{}
		c.Set(sendStatsKey, stats)
		return next(countingContext{Context: c, stats: stats})
	}
}

// GetCounters reports how many messages the update sent and whether any carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	stats, _ := c.Get(sendStatsKey).(*sendStats)
	if stats == nil {
		return 0, false
	}
	return int(stats.messages.Load()), stats.keyboard.Load()
}
