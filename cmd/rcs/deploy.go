package main

import (
	"fmt"
	"sort"

	"github.com/franz/retro-scraper/internal/batch"
	"github.com/franz/retro-scraper/internal/report"
	"github.com/franz/retro-scraper/internal/util"
	"github.com/spf13/cobra"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Import the prioritized deployment list from the config file",
	Long: `Import every console of deploy.systems, then their games.

Systems run in priority order (lower first). A system marked critical aborts
the whole deployment when its console import fails and import.strict is set.`,
	RunE: runDeploy,
}

func init() {
	rootCmd.AddCommand(deployCmd)
	deployCmd.Flags().Bool("strict", false, "abort when a critical system fails (overrides import.strict)")
}

func runDeploy(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if strict, _ := cmd.Flags().GetBool("strict"); strict {
		cfg := a.settings.batchConfig()
		cfg.StrictFail = true
		a.orchestrator = batch.New(cfg, a.events)
	}

	systems := append([]DeploySystem(nil), a.settings.Deploy.Systems...)
	if len(systems) == 0 {
		return fmt.Errorf("%w: deploy.systems is empty", util.ErrInvalidConfig)
	}
	sort.SliceStable(systems, func(i, j int) bool {
		return systems[i].Priority < systems[j].Priority
	})

	ctx, cancel := signalContext()
	defer cancel()

	util.InfoLog("=== Deploying %d Systems ===", len(systems))

	consoleItems := make([]batch.Item, len(systems))
	for i, sys := range systems {
		consoleItems[i] = batch.Item{
			ID:       sys.ID,
			Category: batch.CategoryConsoles,
			Priority: sys.Priority,
			Critical: sys.Critical,
		}
	}

	stats, runErr := a.orchestrator.Run(ctx, consoleItems, a.importConsole)
	if runErr != nil {
		return a.finish("deploy", stats, runErr)
	}

	for _, sys := range systems {
		if ctx.Err() != nil {
			stats.Aborted = "interrupted"
			return a.finish("deploy", stats, ctx.Err())
		}

		console, err := a.db.ConsoleByUpstreamID(ctx, sys.ID)
		if err != nil {
			return a.finish("deploy", stats, err)
		}
		if console == nil {
			util.WarnLog("Skipping games of system %d: console was not imported", sys.ID)
			continue
		}

		ids, err := a.gameIDs(ctx, console, sys.Games, sys.MaxGames)
		if err != nil {
			util.ErrorLog("%v", err)
			stats.RecordFailure(batch.CategoryGames, listError(sys.ID, console.Name, err))
			continue
		}
		if len(ids) == 0 {
			util.InfoLog("Nothing to import for %s", console.Name)
			continue
		}

		util.InfoLog("=== Importing %s games for %s ===", util.FormatCount(len(ids)), console.Name)
		gameStats, err := a.orchestrator.Run(ctx, gameItems(ids, sys.Priority), a.importGames(console))
		stats.Merge(gameStats)
		if err != nil {
			return a.finish("deploy", stats, err)
		}
	}

	return a.finish("deploy", stats, nil)
}

// listError records a game list that could not be fetched
func listError(systemID int64, name string, err error) report.ItemError {
	return report.ItemError{
		Category:   batch.CategoryGames,
		UpstreamID: systemID,
		Label:      name + " game list",
		Attempts:   1,
		Error:      err.Error(),
	}
}
