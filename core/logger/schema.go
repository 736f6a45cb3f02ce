package logger

import "strings"

// normalizeLevel upper-cases slog level names and folds aliases such as "warning".
func normalizeLevel(level string) string {
	switch l := strings.ToUpper(strings.TrimSpace(level)); l {
	case "":
		return "INFO"
	case "WARNING":
		return "WARN"
	default:
		return l
	}
}

// normalizeStatus lower-cases a status. valid is false for values outside the
// known set; those are logged as given.
func normalizeStatus(status string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(status))
	switch s {
	case "ok", "fail", "skip", "retry", "rate_limited", "cancelled":
		return s, true
	case "canceled":
		return "cancelled", true
	}
	return s, false
}

// normalizeOutcome accepts the terminal outcomes of an operation; anything else is dropped.
func normalizeOutcome(outcome string) (string, bool) {
	s, ok := normalizeStatus(outcome)
	if !ok || s == "skip" || s == "retry" {
		return "", false
	}
	return s, true
}

// defaultKeyOrder puts correlation keys first, then the update, transport and
// ledger fields, then errors. Keys not listed follow alphabetically.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "chat_type",
	"handler", "op", "cb_key", "outcome", "duration_ms",
	"messages", "kb", "payload", "username",
	"mode", "listen", "public_url",
	"method", "path", "http_code", "request_id",
	"driver", "db", "host", "port",
	"account", "points", "delta", "rewards", "accounts",
	"err", "err_code", "err_kind", "cause", "attempts", "rate_limited",
}
