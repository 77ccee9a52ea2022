package main

import (
	"fmt"
	"time"

	"github.com/franz/retro-scraper/internal/normalize"
	"github.com/franz/retro-scraper/internal/util"
	"github.com/spf13/cobra"
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "Import the games of one console",
	Long: `Import games for one console (Screenscraper system).

Game ids come from --ids, from a name search (--search) or, by default, from
the console's static CSV export. The console is imported first when it is
not yet in the catalog.`,
	RunE: runGames,
}

func init() {
	rootCmd.AddCommand(gamesCmd)

	gamesCmd.Flags().Int64("system", 0, "upstream system id (required)")
	gamesCmd.Flags().Int64Slice("ids", nil, "upstream game ids to import")
	gamesCmd.Flags().String("search", "", "import the results of a name search")
	gamesCmd.Flags().Int("limit", 0, "import at most N games (0 = all)")
	gamesCmd.MarkFlagRequired("system")
}

func runGames(cmd *cobra.Command, args []string) error {
	systemID, _ := cmd.Flags().GetInt64("system")
	explicit, _ := cmd.Flags().GetInt64Slice("ids")
	search, _ := cmd.Flags().GetString("search")
	limit, _ := cmd.Flags().GetInt("limit")

	if systemID <= 0 {
		return fmt.Errorf("%w: --system must be a positive id", util.ErrInvalidConfig)
	}
	if len(explicit) > 0 && search != "" {
		return fmt.Errorf("%w: --ids and --search are mutually exclusive", util.ErrInvalidConfig)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	console, err := a.consoles.EnsureConsole(ctx, systemID)
	if err != nil {
		return fmt.Errorf("failed to import console %d: %w", systemID, err)
	}
	util.InfoLog("=== Importing Games for %s ===", console.Name)

	if search != "" {
		started := time.Now()
		results, err := a.client.SearchGames(ctx, search, systemID)
		a.events.LogFetch("search "+search, len(results), time.Since(started), err)
		if err != nil {
			return fmt.Errorf("search %q failed: %w", search, err)
		}
		for _, r := range results {
			if id := normalize.Int(r.ID); id != nil {
				explicit = append(explicit, *id)
			}
		}
		if len(explicit) == 0 {
			util.WarnLog("No games match %q", search)
			return nil
		}
	}

	ids, err := a.gameIDs(ctx, console, explicit, limit)
	if err != nil {
		return err
	}

	stats, runErr := a.orchestrator.Run(ctx, gameItems(ids, 0), a.importGames(console))
	return a.finish("games", stats, runErr)
}
