package main

import (
	"fmt"
	"time"

	"github.com/franz/retro-scraper/internal/normalize"
	"github.com/franz/retro-scraper/internal/resolve"
	"github.com/franz/retro-scraper/internal/screenscraper"
	"github.com/franz/retro-scraper/internal/util"
	"github.com/spf13/cobra"
)

var genresCmd = &cobra.Command{
	Use:   "genres",
	Short: "Manage the genre reference table",
}

var genresSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the genre table from the Screenscraper genre list",
	Long: `Download the upstream genre list and upsert it into the catalog.

Games link to genres by upstream id, so run this before importing games.`,
	RunE: runGenresSync,
}

func init() {
	rootCmd.AddCommand(genresCmd)
	genresCmd.AddCommand(genresSyncCmd)
}

func runGenresSync(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	util.InfoLog("=== Synchronizing Genres ===")

	started := time.Now()
	var raw []screenscraper.Genre
	err = util.Retry(ctx, a.settings.fetchRetryConfig(), func() error {
		var err error
		raw, err = a.client.Genres(ctx)
		return err
	}, "genre list")
	a.events.LogFetch("genres", len(raw), time.Since(started), err)
	if err != nil {
		return fmt.Errorf("failed to fetch genres: %w", err)
	}

	genres := make([]normalize.Genre, 0, len(raw))
	for i := range raw {
		g, ok := normalize.NormalizeGenre(&raw[i])
		if !ok {
			util.DebugLog("Skipping genre without id")
			continue
		}
		genres = append(genres, g)
	}

	result, err := resolve.SyncGenres(ctx, a.db, genres, a.languages)
	if err != nil {
		return fmt.Errorf("failed to store genres: %w", err)
	}

	util.SuccessLog("Genres synchronized: %d created, %d updated", result.Created, result.Updated)
	return nil
}
