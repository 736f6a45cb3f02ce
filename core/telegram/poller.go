package telegram

import (
	"time"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10 * time.Second

// BuildLongPoller returns the poller used in longpoll mode; timeoutSeconds <= 0 selects the default.
func BuildLongPoller(timeoutSeconds int) *tele.LongPoller {
	return &tele.LongPoller{Timeout: longPollTimeout(timeoutSeconds)}
}

func longPollTimeout(seconds int) time.Duration {
	if seconds <= 0 {
		return defaultLongPollTimeout
	}
	return time.Duration(seconds) * time.Second
}
