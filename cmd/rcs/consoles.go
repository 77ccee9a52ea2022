package main

import (
	"fmt"
	"strconv"

	"github.com/franz/retro-scraper/internal/batch"
	"github.com/franz/retro-scraper/internal/util"
	"github.com/spf13/cobra"
)

var consolesCmd = &cobra.Command{
	Use:   "consoles [system ids...]",
	Short: "Import consoles from the Screenscraper system list",
	Long: `Import consoles (Screenscraper "systems") into the catalog.

Without arguments every system of the upstream list is imported. Existing
consoles are left untouched unless import.update_existing is set.`,
	RunE: runConsoles,
}

func init() {
	rootCmd.AddCommand(consolesCmd)
}

func runConsoles(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	util.InfoLog("=== Importing Consoles ===")

	if len(ids) == 0 {
		ids, err = a.consoles.SystemIDs(ctx)
		if err != nil {
			return fmt.Errorf("failed to list systems: %w", err)
		}
		util.InfoLog("Upstream lists %s systems", util.FormatCount(len(ids)))
	}

	items := make([]batch.Item, len(ids))
	for i, id := range ids {
		items[i] = batch.Item{ID: id, Category: batch.CategoryConsoles}
	}

	stats, runErr := a.orchestrator.Run(ctx, items, a.importConsole)
	return a.finish("consoles", stats, runErr)
}

// parseIDs parses positional upstream ids
func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
