package main

import (
	"fmt"

	"github.com/franz/retro-scraper/internal/media"
	"github.com/franz/retro-scraper/internal/metrics"
	"github.com/franz/retro-scraper/internal/normalize"
	"github.com/franz/retro-scraper/internal/store"
	"github.com/franz/retro-scraper/internal/util"
	"github.com/spf13/cobra"
)

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Re-scrape the media references of one catalog entity",
	Long: `Fetch the current media list of a game or console and replace its cached
media URLs. Items are checked against the media policy (media.exclude_types,
media.exclude_regions, media.max_size).`,
	RunE: runMedia,
}

func init() {
	rootCmd.AddCommand(mediaCmd)

	mediaCmd.Flags().String("entity", store.EntityGame, "entity type: game or console")
	mediaCmd.Flags().Int64("id", 0, "local catalog id (required)")
	mediaCmd.MarkFlagRequired("id")
}

func runMedia(cmd *cobra.Command, args []string) error {
	entityType, _ := cmd.Flags().GetString("entity")
	id, _ := cmd.Flags().GetInt64("id")

	if entityType != store.EntityGame && entityType != store.EntityConsole {
		return fmt.Errorf("%w: --entity must be %q or %q", util.ErrInvalidConfig, store.EntityGame, store.EntityConsole)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	var (
		upstreamID int64
		label      string
		items      []normalize.MediaItem
	)

	switch entityType {
	case store.EntityGame:
		game, err := a.db.GameByID(ctx, id)
		if err != nil {
			return err
		}
		if game == nil {
			return fmt.Errorf("game %d: %w", id, util.ErrNotFound)
		}
		console, err := a.db.ConsoleByID(ctx, game.ConsoleID)
		if err != nil {
			return err
		}
		if console == nil {
			return fmt.Errorf("console %d of game %d: %w", game.ConsoleID, id, util.ErrNotFound)
		}
		upstreamID, label = game.UpstreamID, game.Title
		items, err = a.games.Media(ctx, console, game.UpstreamID)
		if err != nil {
			return err
		}

	case store.EntityConsole:
		console, err := a.db.ConsoleByID(ctx, id)
		if err != nil {
			return err
		}
		if console == nil {
			return fmt.Errorf("console %d: %w", id, util.ErrNotFound)
		}
		upstreamID, label = console.UpstreamID, console.Name
		items, err = a.consoles.Media(ctx, console.UpstreamID)
		if err != nil {
			return err
		}
	}

	result, err := a.cache.Rescrape(ctx, a.db, entityType, id, upstreamID, items)
	if err != nil {
		return fmt.Errorf("failed to replace media of %s %d: %w", entityType, id, err)
	}
	a.events.LogMedia(entityType, id, result.Kept, len(result.Rejected), len(result.Failed))
	metrics.RecordMedia(result.Kept, len(result.Rejected), len(result.Failed))

	printMediaResult(label, result)
	return nil
}

func printMediaResult(label string, result media.Result) {
	util.SuccessLog("Media of %s: %d kept, %d rejected, %d invalid (%d old rows removed)",
		label, result.Kept, len(result.Rejected), len(result.Failed), result.Deleted)
	for _, r := range result.Rejected {
		util.DebugLog("  rejected %s/%s: %s", r.Item.Type, r.Item.Region, r.Reason)
	}
	for _, f := range result.Failed {
		util.WarnLog("  invalid %s/%s: %s", f.Item.Type, f.Item.Region, f.Reason)
	}
}
