package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rafaelpm/gram/internal/bus"
	"github.com/rafaelpm/gram/internal/config"
	"github.com/rafaelpm/gram/internal/dispatch"
	"github.com/rafaelpm/gram/internal/feed"
	"github.com/rafaelpm/gram/internal/lock"
	"github.com/rafaelpm/gram/internal/logging"
	"github.com/rafaelpm/gram/internal/session"
	"github.com/rafaelpm/gram/internal/state"
	"github.com/rafaelpm/gram/internal/store"
	"github.com/rafaelpm/gram/internal/tui"
	"go.uber.org/zap"
)

// gramtui runs the whole stack in one process: restore the snapshot,
// attach the feed, and put the TUI on top of the dispatcher.
func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	feedFlag := flag.String("feed", "", "feed path (overrides config)")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := run(sessionName, *feedFlag); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(sessionName, feedOverride string) error {
	if err := session.EnsureDir(sessionName); err != nil {
		return err
	}
	lk, err := lock.Acquire(session.Dir(sessionName))
	if err != nil {
		return err
	}
	defer func() { _ = lk.Release() }()

	// File-only logger; the terminal belongs to the TUI.
	logger, err := logging.NewFileOnly(session.LogPath(sessionName), sessionName)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		return err
	}
	limits := state.Limits{
		ViewportLimit: cfg.Window.ViewportLimit,
		Slice:         cfg.Window.Slice,
	}

	db, err := store.Open(session.DBPath(sessionName))
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if _, err := db.Migrate(); err != nil {
		return err
	}
	restored, err := db.Load(limits)
	if err != nil {
		return err
	}

	b := bus.New()
	d := dispatch.New(restored, b, logger)
	d.Start(context.Background())
	defer d.Stop()

	feedPath := feedOverride
	if feedPath == "" {
		feedPath = cfg.Feed.Path
	}
	if feedPath == "" {
		feedPath = session.FeedPath(sessionName)
	}
	if f, err := os.OpenFile(feedPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); err == nil {
		_ = f.Close()
	}
	fd := feed.New(feedPath, b, logger, true)
	if err := fd.Start(context.Background()); err != nil {
		return err
	}
	defer fd.Stop()

	app := tui.NewApp(d, b, sessionName)
	runErr := app.Run()

	if err := db.Save(d.Snapshot()); err != nil {
		logger.Error("final snapshot failed", zap.Error(err))
	}
	return runErr
}
