package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/five82/cattlelens/internal/classifier"
	"github.com/five82/cattlelens/internal/config"
	"github.com/five82/cattlelens/internal/history"
	"github.com/five82/cattlelens/internal/prefs"
	"github.com/five82/cattlelens/internal/state"
	"github.com/five82/cattlelens/internal/ui"
)

const historyKeep = 500

// Options configure a cattlelens run.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/cattlelens/prefs.toml
	PollEvery  int    // seconds; zero uses default
	Verbose    bool

	// Headless modes. At most one is honored, in this order.
	ClassifyPath string
	DetectPath   string
	Connectivity bool
	AnalyzePath  string

	Stdout io.Writer // headless output; defaults to os.Stdout
}

func (o Options) headless() bool {
	return o.ClassifyPath != "" || o.DetectPath != "" || o.Connectivity || o.AnalyzePath != ""
}

// Run starts the TUI, or performs a single headless operation, until the
// context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger, logFile, err := openLogger(cfg.LogPath(), level)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()

	client, err := newClassifier(cfg, logger)
	if err != nil {
		return err
	}

	hist := openHistory(ctx, cfg, logger)
	if hist != nil {
		defer func() { _ = hist.Close() }()
	}

	if opts.headless() {
		return runHeadless(ctx, opts, cfg, client, hist, logger)
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)
	store := &state.Store{}

	interval := defaultPollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}
	StartPoller(ctx, store, client, interval, logger)

	logger.Info("starting", "candidates", len(cfg.Endpoints), "history", hist != nil)

	uiOpts := ui.Options{
		Context:   ctx,
		Service:   client,
		Store:     store,
		LogPath:   cfg.LogPath(),
		PollTick:  time.Second,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		Logger:    logger,
	}
	if hist != nil {
		uiOpts.History = hist
	}
	return ui.Run(uiOpts)
}

func newClassifier(cfg config.Config, logger *slog.Logger) (*classifier.Client, error) {
	client, err := classifier.NewClient(classifier.Options{
		Endpoints:           cfg.Endpoints,
		ProbeTimeout:        cfg.ProbeTimeout,
		ClassifyTimeout:     cfg.ClassifyTimeout,
		DetectTimeout:       cfg.DetectTimeout,
		ConnectivityTimeout: cfg.ConnectivityTimeout,
		Logger:              logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init classifier client: %w", err)
	}
	return client, nil
}

// openHistory returns nil when history is disabled or unavailable; the app
// keeps working without it.
func openHistory(ctx context.Context, cfg config.Config, logger *slog.Logger) *history.Repository {
	if !cfg.HistoryEnabled() {
		return nil
	}
	repo, err := history.Open(cfg.HistoryDB)
	if err != nil {
		logger.Warn("history unavailable", "path", cfg.HistoryDB, "error", err)
		return nil
	}
	if removed, err := repo.Prune(ctx, historyKeep); err != nil {
		logger.Warn("history prune failed", "error", err)
	} else if removed > 0 {
		logger.Info("history pruned", "removed", removed)
	}
	return repo
}

func runHeadless(ctx context.Context, opts Options, cfg config.Config, client classifier.Service, hist *history.Repository, logger *slog.Logger) error {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	var store history.Store
	if hist != nil {
		store = hist
	}

	switch {
	case opts.ClassifyPath != "":
		return runClassify(ctx, client, store, opts.ClassifyPath, out, logger)
	case opts.DetectPath != "":
		return runDetect(ctx, client, opts.DetectPath, out)
	case opts.Connectivity:
		return runConnectivity(ctx, client, out)
	default:
		return runAnalyze(ctx, cfg, opts.AnalyzePath, out, logger)
	}
}
