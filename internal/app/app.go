package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/five82/stall/internal/auth"
	"github.com/five82/stall/internal/cache"
	"github.com/five82/stall/internal/config"
	"github.com/five82/stall/internal/logtail"
	"github.com/five82/stall/internal/market"
	"github.com/five82/stall/internal/prefs"
	"github.com/five82/stall/internal/state"
	"github.com/five82/stall/internal/ui"
	"golang.org/x/sync/errgroup"
)

// Options configure the stall application.
type Options struct {
	ConfigPath  string
	PrefsPath   string // empty uses default ~/.config/stall/prefs.toml
	SessionPath string // empty uses default ~/.config/stall/session.toml
	PollEvery   int    // seconds; zero uses the config value
}

// Run boots the storefront TUI until the user quits or the context is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.PollEvery > 0 {
		cfg.PollSeconds = opts.PollEvery
	}

	if logFile, err := openLogFile(cfg.LogPath()); err != nil {
		fmt.Fprintf(os.Stderr, "stall: log file unavailable: %v\n", err)
		log.SetOutput(io.Discard)
	} else {
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	var logChanges <-chan struct{}
	if logWatch, err := logtail.Watch(cfg.LogPath()); err != nil {
		log.Printf("log watch unavailable, polling instead: %v", err)
	} else {
		defer func() { _ = logWatch.Close() }()
		logChanges = logWatch.Changes()
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	client, err := market.NewClient(cfg.APIURL)
	if err != nil {
		return fmt.Errorf("init market client: %w", err)
	}

	identity := auth.NewIdentityClient(cfg.IdentityURL, cfg.TokenURL, cfg.APIKey)
	watcher := auth.NewWatcher()
	client.SetTokenSource(watcher.Token)
	store := &state.Store{}

	var saver ItemSaver
	offline, err := cache.Open(cfg.CachePath)
	if err != nil {
		log.Printf("offline cache unavailable: %v", err)
	} else {
		defer func() { _ = offline.Close() }()
		saver = offline
	}

	// The saved session and the first catalog are independent; fetch both
	// before the first frame.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		restoreSession(gctx, watcher, identity, opts.SessionPath, time.Now())
		return nil
	})
	g.Go(func() error {
		if offline != nil {
			seedFromCache(gctx, store, offline)
		}
		_ = refresh(gctx, store, client, saver)
		return nil
	})
	_ = g.Wait()

	defer persistSession(watcher, opts.SessionPath)()
	StartSessionRefresher(ctx, watcher, identity)
	StartPoller(ctx, store, client, saver, cfg.PollInterval())

	uiOpts := ui.Options{
		Context:   ctx,
		Client:    client,
		Store:     store,
		Config:    &cfg,
		Watcher:   watcher,
		Identity:  identity,
		ThemeName: userPrefs.Theme,
		PrefsPath: opts.PrefsPath,

		LogChanges: logChanges,
	}
	return ui.Run(uiOpts)
}

// openLogFile appends to the log file, creating its directory. Log output
// must not reach the terminal while the TUI runs.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// ItemLoader reads the offline copy. *cache.Cache implements it.
type ItemLoader interface {
	LoadItems(ctx context.Context) ([]market.Item, time.Time, error)
}

func seedFromCache(ctx context.Context, store *state.Store, loader ItemLoader) {
	items, savedAt, err := loader.LoadItems(ctx)
	if err != nil {
		log.Printf("read offline cache: %v", err)
		return
	}
	if savedAt.IsZero() {
		return
	}
	store.Seed(items, savedAt)
	log.Printf("seeded %d items from offline cache saved %s", len(items), savedAt.Format(time.RFC3339))
}
