// Package bot wires the diary bot together: stores, sync engine, dispatcher,
// transport, ingestion loop and the optional health endpoint.
package bot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/dmitrijs2005/diarybot/internal/bot/config"
	"github.com/dmitrijs2005/diarybot/internal/bot/dispatcher"
	"github.com/dmitrijs2005/diarybot/internal/bot/health"
	"github.com/dmitrijs2005/diarybot/internal/bot/poller"
	"github.com/dmitrijs2005/diarybot/internal/bot/services"
	"github.com/dmitrijs2005/diarybot/internal/bot/sharedstore"
	"github.com/dmitrijs2005/diarybot/internal/bot/state"
	"github.com/dmitrijs2005/diarybot/internal/bot/storage"
	"github.com/dmitrijs2005/diarybot/internal/bot/transport"
	"github.com/dmitrijs2005/diarybot/internal/bot/webauth"
	"github.com/dmitrijs2005/diarybot/internal/filex"
	"github.com/dmitrijs2005/diarybot/internal/logging"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	local     *sql.DB
	shared    *sql.DB
	transport transport.Transport
	diary     services.DiaryService
	states    *state.Tracker
	loop      *poller.Loop
	health    *health.Server
	started   time.Time
}

// NewApp opens both stores and builds every component. cfg must already be
// validated. Logs go to out.
func NewApp(ctx context.Context, cfg *config.Config, out io.Writer) (*App, error) {
	logger := newLogger(cfg, out)

	if _, err := filex.EnsureParentDir(cfg.DatabasePath); err != nil {
		return nil, fmt.Errorf("db dir error: %w", err)
	}
	local, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	// The web app's database may come up later; sync calls fail soft until then.
	shared, err := sharedstore.Connect(cfg.SharedDriver, cfg.SharedDSN)
	if err != nil {
		_ = local.Close()
		return nil, fmt.Errorf("shared store init error: %w", err)
	}

	tr, err := transport.New(cfg.Transport, transport.Options{
		BaseURL:     cfg.TelegramAPIURL,
		Token:       cfg.Token,
		PollTimeout: cfg.PollTimeout,
	})
	if err != nil {
		_ = local.Close()
		_ = shared.Close()
		return nil, err
	}

	diary := services.NewDiaryService(local, cfg.Location())
	syncer := services.NewSyncService(diary, shared, services.SyncOptions{
		Driver:      cfg.SharedDriver,
		StrictDedup: cfg.StrictDedup,
	}, logger)

	var bridge dispatcher.AuthBridge
	if cfg.APIURL != "" {
		bridge = webauth.NewClient(cfg.APIURL, nil)
	}

	states := state.NewTracker()
	d := dispatcher.New(diary, syncer, states, bridge, logger)

	app := &App{
		config:    cfg,
		logger:    logger,
		local:     local,
		shared:    shared,
		transport: tr,
		diary:     diary,
		states:    states,
		loop:      poller.NewLoop(tr, d, cfg.RetryBackoff, logger),
		started:   time.Now(),
	}
	if cfg.HealthAddr != "" {
		app.health = health.NewServer(cfg.HealthAddr, app.status, logger)
	}
	return app, nil
}

// newLogger picks text output on a terminal and JSON otherwise, unless the
// format is configured explicitly.
func newLogger(cfg *config.Config, out io.Writer) logging.Logger {
	level, _ := logging.ParseLevel(cfg.LogLevel)

	format := cfg.LogFormat
	if format == "" {
		format = "json"
		if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			format = "text"
		}
	}
	return logging.New(out, format, level)
}

func (app *App) status(ctx context.Context) health.Status {
	users, err := app.diary.CountUsers(ctx)
	if err != nil {
		app.logger.Warn(ctx, "status: counting users failed", "error", err)
	}
	return health.Status{
		Cursor:               app.loop.Cursor(),
		Processed:            app.loop.Processed(),
		PendingConversations: app.states.Pending(),
		Users:                users,
		Transport:            app.config.Transport,
		Uptime:               time.Since(app.started).Truncate(time.Second).String(),
	}
}

// checkBot logs who the credential belongs to. A failure is only a warning:
// the loop retries the API on its own.
func (app *App) checkBot(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	me, err := app.transport.GetMe(ctx)
	if err != nil {
		app.logger.Warn(ctx, "bot api check failed", "error", err)
		return
	}
	app.logger.Info(ctx, "connected to bot api", "bot_id", me.ID, "username", me.Username)
}

// Run blocks until ctx is cancelled or SIGINT/SIGTERM arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.logger.Info(ctx, "Starting app...",
		"transport", app.config.Transport,
		"database", app.config.DatabasePath,
		"shared_driver", app.config.SharedDriver,
		"strict_dedup", app.config.StrictDedup)

	app.checkBot(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.loop.Run(ctx) })
	if app.health != nil {
		g.Go(func() error { return app.health.Run(ctx) })
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		app.logger.Error(context.Background(), "app stopped with error", "error", err)
		return err
	}
	app.logger.Info(context.Background(), "app stopped")
	return nil
}

// Close releases both database pools.
func (app *App) Close() error {
	return errors.Join(app.local.Close(), app.shared.Close())
}
