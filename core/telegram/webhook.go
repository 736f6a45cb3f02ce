package telegram

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/rewardbot/core/logger"
)

const (
	maxUpdateBytes = 1 << 20
	secretHeader   = "X-Telegram-Bot-Api-Secret-Token"
)

// UpdateProcessor handles one decoded update; *tele.Bot satisfies it.
type UpdateProcessor interface {
	ProcessUpdate(u tele.Update)
}

// WebhookOptions configures NewWebhookHandler.
type WebhookOptions struct {
	// Token is the path segment Telegram posts to: /webhook/<Token>.
	Token string
	// Secret, when set, must match the X-Telegram-Bot-Api-Secret-Token header.
	Secret string
}

// NewWebhookHandler returns the HTTP surface of the bot: POST /webhook/{token}
// takes one update and answers {"ok":true} after it has been processed;
// GET /healthz reports liveness.
func NewWebhookHandler(p UpdateProcessor, opts WebhookOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(accessLog)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	r.Post("/webhook/{token}", func(w http.ResponseWriter, r *http.Request) {
		if !constantTimeEqual(chi.URLParam(r, "token"), opts.Token) {
			http.NotFound(w, r)
			return
		}
		if opts.Secret != "" && !constantTimeEqual(r.Header.Get(secretHeader), opts.Secret) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var upd tele.Update
		if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateBytes)).Decode(&upd); err != nil {
			logger.LogEvent(r.Context(), logger.HTTP, slog.LevelWarn, "webhook.decode",
				slog.String("status", "fail"),
				slog.String("request_id", chimw.GetReqID(r.Context())),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		p.ProcessUpdate(upd)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true}`)
	})
	return r
}

// accessLog logs the route pattern rather than the raw path so the bot token never reaches the logs.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelDebug
		if status >= http.StatusBadRequest {
			level = slog.LevelWarn
		}
		logger.LogEvent(r.Context(), logger.HTTP, level, "http.request",
			slog.String("status", statusLabel(status)),
			slog.String("method", r.Method),
			slog.String("path", pattern),
			slog.Int("http_code", status),
			slog.String("request_id", chimw.GetReqID(r.Context())),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	})
}

func statusLabel(code int) string {
	if code >= http.StatusBadRequest {
		return "fail"
	}
	return "ok"
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
