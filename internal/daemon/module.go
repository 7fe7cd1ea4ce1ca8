package daemon

import (
	"context"
	"os"
	"time"

	"github.com/rafaelpm/gram/internal/bus"
	"github.com/rafaelpm/gram/internal/config"
	"github.com/rafaelpm/gram/internal/dispatch"
	"github.com/rafaelpm/gram/internal/feed"
	"github.com/rafaelpm/gram/internal/lock"
	"github.com/rafaelpm/gram/internal/logging"
	"github.com/rafaelpm/gram/internal/session"
	"github.com/rafaelpm/gram/internal/state"
	"github.com/rafaelpm/gram/internal/status"
	"github.com/rafaelpm/gram/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	FeedPath    string // optional override for testing; empty = use config/session default
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideConfig,
			provideStore,
			provideDispatcher,
			provideFeed,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideConfig(logger *zap.Logger) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		return nil, err
	}
	logger.Info("config loaded",
		zap.Int("viewport_limit", cfg.Window.ViewportLimit),
		zap.Int("slice", cfg.Window.Slice))
	return cfg, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.DBPath(p.SessionName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideDispatcher(cfg *config.Config, b *bus.Bus, logger *zap.Logger) *dispatch.Dispatcher {
	limits := state.Limits{
		ViewportLimit: cfg.Window.ViewportLimit,
		Slice:         cfg.Window.Slice,
	}
	return dispatch.New(state.New(limits), b, logger)
}

func provideFeed(p Params, cfg *config.Config, b *bus.Bus, logger *zap.Logger) *feed.Feed {
	return feed.New(feedPath(p, cfg), b, logger, true)
}

func feedPath(p Params, cfg *config.Config) string {
	if p.FeedPath != "" {
		return p.FeedPath
	}
	if cfg.Feed.Path != "" {
		return cfg.Feed.Path
	}
	return session.FeedPath(p.SessionName)
}

func registerLifecycle(lc fx.Lifecycle, p Params, cfg *config.Config, db *store.DB, d *dispatch.Dispatcher, f *feed.Feed, lk *lock.Lock, machine *status.Machine, logger *zap.Logger) {
	snapshotDone := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if err := machine.Transition(status.Restoring); err != nil {
				return err
			}
			restored, err := db.Load(d.Snapshot().Limits())
			if err != nil {
				_ = machine.Transition(status.Error)
				return err
			}
			d.Apply(func(*state.State) *state.State { return restored })
			logger.Info("snapshot restored", zap.Int("chats", len(state.Chats(restored))))

			if err := machine.Transition(status.Ingesting); err != nil {
				return err
			}
			d.Start(context.Background())

			if err := touchFeed(p, cfg); err != nil {
				_ = machine.Transition(status.Error)
				return err
			}
			if err := f.Start(context.Background()); err != nil {
				_ = machine.Transition(status.Error)
				return err
			}
			logger.Info("feed attached")

			interval := time.Duration(cfg.Snapshot.IntervalSeconds) * time.Second
			go snapshotLoop(db, d, interval, snapshotDone, logger)

			return machine.Transition(status.Ready)
		},
		OnStop: func(_ context.Context) error {
			close(snapshotDone)
			f.Stop()
			d.Stop()
			if err := db.Save(d.Snapshot()); err != nil {
				logger.Error("final snapshot failed", zap.Error(err))
			}
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}

// touchFeed makes sure the feed file exists so a fresh session can start
// before any producer has written to it.
func touchFeed(p Params, cfg *config.Config) error {
	f, err := os.OpenFile(feedPath(p, cfg), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	return f.Close()
}

func snapshotLoop(db *store.DB, d *dispatch.Dispatcher, interval time.Duration, done <-chan struct{}, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := db.Save(d.Snapshot()); err != nil {
				logger.Error("periodic snapshot failed", zap.Error(err))
			}
		case <-done:
			return
		}
	}
}
