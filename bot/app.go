package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/rewardbot/core/bootstrap"
	corecmd "github.com/m3rciful/rewardbot/core/cmd"
	"github.com/m3rciful/rewardbot/core/logger"
	tg "github.com/m3rciful/rewardbot/core/telegram"
	tghelpers "github.com/m3rciful/rewardbot/core/telegram/helpers"
	"github.com/m3rciful/rewardbot/core/telegram/router"
	"github.com/m3rciful/rewardbot/ledger"
)

// App wires the reward ledger to Telegram commands, callbacks and the setup conversation.
type App struct {
	cfg      *Config
	store    ledger.Store
	svc      *ledger.Service
	registry *tg.Registry
}

// New builds the application over an opened store and registers its commands and callbacks.
func New(cfg *Config, store ledger.Store) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config provided")
	}
	if store == nil {
		return nil, fmt.Errorf("bot: nil store provided")
	}
	a := &App{
		cfg:      cfg,
		store:    store,
		svc:      ledger.NewService(store),
		registry: tg.NewRegistry(),
	}
	if err := a.register(); err != nil {
		return nil, err
	}
	return a, nil
}

// Registry exposes the command and callback registry.
func (a *App) Registry() *tg.Registry { return a.registry }

// Routes returns every bot route: commands, the plain-text handler and callbacks.
func (a *App) Routes() []tg.Route {
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
	})
	routes = append(routes,
		router.TextRoute(rewardSetup{app: a}, a.registry, router.TextOptions{}),
		router.CallbackRoute(a.registry),
	)
	return routes
}

// Middlewares returns the global middleware chain for the bot.
func (a *App) Middlewares() []tg.Middleware {
	return tg.DefaultMiddlewares(&a.cfg.Config, func(c tele.Context) error {
		if c.Callback() != nil {
			return c.Respond(&tele.CallbackResponse{Text: textRateLimited})
		}
		return tghelpers.SendText(c, textRateLimited)
	})
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	return tg.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.registry,
		Middlewares: a.Middlewares(),
		Routes:      a.Routes(),
	}, nil
}

// Close releases the ledger store.
func (a *App) Close() error {
	return a.store.Close()
}

// Bootstrap initializes logging and storage for cfg and returns the runnable app.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("bot: unexpected config type %T", carrier)
	}

	opts := bootstrap.Options{Config: &cfg.Config}
	if cfg.Storage.Driver == DriverPostgres {
		opts.Database = &cfg.Database
	}
	res, err := bootstrap.Run(ctx, opts)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(cfg.Storage, res.DB)
	if err != nil {
		if res.DB != nil {
			_ = res.DB.Close()
		}
		return nil, err
	}
	app, err := New(cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

// OpenStore selects the ledger backend. db must be set for the postgres driver.
func OpenStore(storage StorageConfig, db *sqlx.DB) (ledger.Store, error) {
	switch storage.Driver {
	case DriverPostgres:
		if db == nil {
			return nil, fmt.Errorf("bot: postgres storage without a database connection")
		}
		logger.Ledger.Info("",
			slog.String("event", "ledger.open"),
			slog.String("driver", DriverPostgres),
		)
		return ledger.NewPostgresStore(db), nil
	case DriverJSON, "":
		return ledger.OpenFile(storage.Path)
	}
	return nil, fmt.Errorf("bot: unknown storage driver %q", storage.Driver)
}
