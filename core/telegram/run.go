package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/rewardbot/core/config"
	"github.com/m3rciful/rewardbot/core/logger"
	tghelpers "github.com/m3rciful/rewardbot/core/telegram/helpers"
	tgsender "github.com/m3rciful/rewardbot/core/telegram/sender"
)

const shutdownTimeout = 5 * time.Second

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// APIOptions points the bot at a Bot API server; the zero value means api.telegram.org.
type APIOptions struct {
	URL string
	// Offline skips the getMe call at construction time.
	Offline bool
}

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry
	API      APIOptions

	DispatcherOptions tgsender.Options

	Middlewares []Middleware
	Routes      []Route

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// NewBot builds the telebot instance for cfg. In webhook mode updates are
// processed synchronously so the HTTP reply is sent after the handler finished.
func NewBot(cfg *coreconfig.Config, api APIOptions) (*tele.Bot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("telegram: nil config provided")
	}
	poller := BuildLongPoller(cfg.Telegram.LongPollTimeoutSeconds)
	settings := tele.Settings{
		Token:       cfg.Telegram.Token,
		URL:         api.URL,
		Offline:     api.Offline,
		Poller:      poller,
		Client:      BuildHTTPClient(poller.Timeout),
		Synchronous: cfg.Telegram.RunMode == coreconfig.RunModeWebhook,
		OnError:     logHandlerError,
	}
	bot, err := tele.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	return bot, nil
}

// Mount registers middlewares before routes; telebot applies bot.Use only to handlers added afterwards.
func Mount(bot *tele.Bot, middlewares []Middleware, routes []Route) {
	for _, mw := range middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, route := range routes {
		if route.Endpoint != nil && route.Handler != nil {
			bot.Handle(route.Endpoint, route.Handler)
		}
	}
}

// RunTelegram composes and runs a Telegram bot until ctx is done.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := opts.Config
	if cfg == nil {
		return fmt.Errorf("telegram: nil config provided")
	}
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	buildStart := time.Now()
	bot, err := NewBot(cfg, opts.API)
	if err != nil {
		return err
	}
	logger.TG.Info("",
		slog.String("event", "tg.init"),
		slog.String("status", "ok"),
		slog.String("username", bot.Me.Username),
		slog.Duration("duration", logger.RoundMS(time.Since(buildStart))),
	)

	dispatcher := tgsender.NewDispatcher(opts.DispatcherOptions)
	tghelpers.SetDispatcher(dispatcher)
	defer func() {
		dispatcher.Close()
		tghelpers.SetDispatcher(nil)
	}()

	Mount(bot, opts.Middlewares, opts.Routes)
	_ = InitBotCommands(bot, reg)

	rt := Runtime{Bot: bot, Dispatcher: dispatcher, Registry: reg}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		err = serveWebhook(ctx, bot, cfg)
	} else {
		err = runLongPoll(ctx, bot, cfg)
	}

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.WithoutCancel(ctx), rt)
	}
	return errors.Join(err, stopErr)
}

func serveWebhook(ctx context.Context, bot *tele.Bot, cfg *coreconfig.Config) error {
	token := cfg.Telegram.Token
	hook := &tele.Webhook{
		Endpoint:       &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL(token)},
		SecretToken:    cfg.Webhook.Secret,
		AllowedUpdates: []string{"message", "callback_query"},
	}
	if err := bot.SetWebhook(hook); err != nil {
		return fmt.Errorf("telegram: set webhook: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Webhook.Addr(),
		Handler:           NewWebhookHandler(bot, WebhookOptions{Token: token, Secret: cfg.Webhook.Secret}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.TG.Info("",
		slog.String("event", "mode"),
		slog.String("mode", coreconfig.RunModeWebhook),
		slog.String("listen", srv.Addr),
		slog.String("public_url", cfg.Webhook.Domain),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("telegram: webhook server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("telegram: webhook shutdown: %w", err)
	}
	return nil
}

func runLongPoll(ctx context.Context, bot *tele.Bot, cfg *coreconfig.Config) error {
	if err := bot.RemoveWebhook(); err != nil {
		logger.TG.Warn("",
			slog.String("event", "delete_webhook"),
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
	logger.TG.Info("",
		slog.String("event", "mode"),
		slog.String("mode", coreconfig.RunModeLongpoll),
		slog.Duration("timeout", longPollTimeout(cfg.Telegram.LongPollTimeoutSeconds)),
	)

	done := make(chan struct{})
	go func() {
		bot.Start()
		close(done)
	}()
	select {
	case <-ctx.Done():
		bot.Stop()
		<-done
	case <-done:
	}
	return nil
}

func logHandlerError(err error, c tele.Context) {
	ctx := logger.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(c)
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelError, "tg.error",
		slog.String("status", "fail"),
		slog.String("handler", logger.HandlerFrom(ctx)),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
}
