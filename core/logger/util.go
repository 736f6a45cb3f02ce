package logger

import (
	"regexp"
	"strings"
	"time"
)

// Status maps error to a unified status string for logs.
func Status(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// RoundMS rounds duration to the nearest millisecond for consistent logging.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// SummarizeStrings joins up to limit elements and reports whether truncation happened.
func SummarizeStrings(values []string, limit int) (string, bool) {
	if limit <= 0 {
		return "", len(values) > 0
	}
	if len(values) <= limit {
		return strings.Join(values, ", "), false
	}
	return strings.Join(values[:limit], ", "), true
}

var tokenRe = regexp.MustCompile(`(bot|/webhook/)[0-9]+:[A-Za-z0-9_-]+`)

// RedactToken masks Bot API tokens embedded in API URLs and webhook paths.
func RedactToken(s string) string {
	if !strings.Contains(s, ":") {
		return s
	}
	return tokenRe.ReplaceAllString(s, "${1}<redacted>")
}
