package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/franz/retro-scraper/internal/batch"
	"github.com/franz/retro-scraper/internal/importer"
	"github.com/franz/retro-scraper/internal/media"
	"github.com/franz/retro-scraper/internal/metrics"
	"github.com/franz/retro-scraper/internal/normalize"
	"github.com/franz/retro-scraper/internal/report"
	"github.com/franz/retro-scraper/internal/resolve"
	"github.com/franz/retro-scraper/internal/screenscraper"
	"github.com/franz/retro-scraper/internal/store"
	"github.com/franz/retro-scraper/internal/util"
	"github.com/spf13/viper"
)

// app wires the pipeline for one command invocation
type app struct {
	settings     *Settings
	db           *store.Store
	client       *screenscraper.Client
	events       *report.EventLogger
	cache        *media.Cache
	consoles     *importer.ConsoleImporter
	games        *importer.GameImporter
	orchestrator *batch.Orchestrator
	languages    []string
}

func configureLogging(s *Settings) {
	if level, err := util.ParseLogLevel(s.LogLevel); err == nil {
		util.SetLogLevel(level)
	}
	// --verbose and --quiet override log_level
	util.SetVerbose(s.Verbose)
	util.SetQuiet(s.Quiet)
	if s.NoColor {
		util.SetColors(false)
	}
}

// newApp loads configuration, opens the catalog and builds every component
func newApp() (*app, error) {
	settings, err := loadSettings(viper.GetViper(), true)
	if err != nil {
		return nil, err
	}
	configureLogging(settings)

	policy, err := settings.mediaPolicy()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidConfig, err)
	}

	client, err := screenscraper.NewClient(settings.clientConfig())
	if err != nil {
		return nil, err
	}

	util.InfoLog("Opening database: %s", settings.DB)
	db, err := store.OpenWithOptions(settings.DB, settings.storeOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create event logger with appropriate log level
	logLevel := report.LevelInfo
	if settings.Quiet {
		logLevel = report.LevelWarning
	} else if settings.Verbose {
		logLevel = report.LevelDebug
	}

	events, err := report.NewEventLogger(settings.Artifacts, logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		events = report.NullLogger()
	} else {
		util.DebugLog("Event log: %s", events.Path())
	}

	opts := importer.Options{
		UpdateExisting:  settings.Import.UpdateExisting,
		PreferredRegion: settings.Import.PreferredRegion,
		Priorities:      normalize.DefaultPriorities().Merge(settings.Import.RegionPriority),
	}
	chain := opts.Priorities.Chain(opts.PreferredRegion)

	cache := media.NewCache(policy)
	resolver := resolve.New(db.Queries, client, chain)

	return &app{
		settings:     settings,
		db:           db,
		client:       client,
		events:       events,
		cache:        cache,
		consoles:     importer.NewConsoleImporter(db, client, cache, opts),
		games:        importer.NewGameImporter(db, client, resolver, cache, opts),
		orchestrator: batch.New(settings.batchConfig(), events),
		languages:    normalize.LanguageChain(opts.PreferredRegion),
	}, nil
}

func (a *app) Close() {
	if err := a.events.Close(); err != nil {
		util.WarnLog("Failed to close event log: %v", err)
	}
	if err := a.db.Close(); err != nil {
		util.WarnLog("Failed to close database: %v", err)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM. A running item still
// completes before the batch stops.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func (a *app) importConsole(ctx context.Context, item batch.Item) (*importer.Result, error) {
	return a.consoles.Import(ctx, item.ID)
}

// importGames returns an import function bound to one console
func (a *app) importGames(console *store.Console) batch.ImportFunc {
	return func(ctx context.Context, item batch.Item) (*importer.Result, error) {
		return a.games.Import(ctx, console, item.ID)
	}
}

// gameIDs returns the upstream ids to import for a console: explicit ids
// when given, otherwise the console's full game list. Games already in the
// catalog are dropped unless updates are enabled.
func (a *app) gameIDs(ctx context.Context, console *store.Console, explicit []int64, limit int) ([]int64, error) {
	ids := explicit
	if len(ids) == 0 {
		started := time.Now()
		list, err := util.RetryWithBackoff(ctx, a.settings.fetchRetryConfig(), func() ([]int64, error) {
			return a.client.GameList(ctx, console.UpstreamID)
		}, fmt.Sprintf("game list %d", console.UpstreamID))
		a.events.LogFetch(fmt.Sprintf("game list %d", console.UpstreamID), len(list), time.Since(started), err)
		if err != nil {
			return nil, fmt.Errorf("fetch game list for %s: %w", console.Name, err)
		}
		util.InfoLog("Game list for %s: %s games", console.Name, util.FormatCount(len(list)))
		ids = list
	}

	if !a.settings.Import.UpdateExisting {
		existing, err := a.db.GameUpstreamIDs(ctx, console.ID)
		if err != nil {
			return nil, err
		}
		filtered := make([]int64, 0, len(ids))
		for _, id := range ids {
			if !existing[id] {
				filtered = append(filtered, id)
			}
		}
		if skipped := len(ids) - len(filtered); skipped > 0 {
			util.InfoLog("%s games of %s already imported", util.FormatCount(skipped), console.Name)
		}
		ids = filtered
	}

	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func gameItems(ids []int64, priority int) []batch.Item {
	items := make([]batch.Item, len(ids))
	for i, id := range ids {
		items[i] = batch.Item{ID: id, Category: batch.CategoryGames, Priority: priority}
	}
	return items
}

// finish prints the run summary and writes it next to the event log
func (a *app) finish(command string, stats *batch.Stats, runErr error) error {
	stats.Finish()
	summary := stats.Summary(command, a.events.RunID())
	summary.DatabasePath = a.settings.DB
	summary.EventLogPath = a.events.Path()

	report.PrintSummary(os.Stderr, summary)

	metrics.RecordRun(stats.Duration)
	if a.settings.MetricsFile != "" {
		if err := metrics.WriteTextfile(a.settings.MetricsFile); err != nil {
			util.WarnLog("Failed to write metrics: %v", err)
		}
	}

	if a.settings.Artifacts != "" {
		timestamp := time.Now().Format("20060102-150405")
		outputPath := filepath.Join(a.settings.Artifacts, "reports", timestamp, "summary.md")
		if err := report.WriteMarkdownReport(summary, outputPath); err != nil {
			util.WarnLog("Failed to write run report: %v", err)
		} else {
			util.InfoLog("Report saved to: %s", outputPath)
		}
	}

	if runErr != nil {
		return runErr
	}
	if total := summary.Totals(); total.Failed > 0 {
		util.WarnLog("%d item(s) failed", total.Failed)
	}
	return nil
}
