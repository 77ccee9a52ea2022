package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/franz/retro-scraper/internal/report"
	"github.com/franz/retro-scraper/internal/store"
	"github.com/franz/retro-scraper/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a catalog summary report from the database",
	Long: `Generate a catalog report in Markdown format.

The report includes:
- Row counts for consoles, games, companies, families and genres
- Games without a genre link
- Cached media URLs
- Games per console

The report is written to stdout unless --out is given.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("out", "", "output file (default: stdout)")
}

func runReport(cmd *cobra.Command, args []string) error {
	dbPath := viper.GetString("db")
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("database %s: %w", dbPath, err)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	rep, err := report.GenerateCatalogReport(context.Background(), db, dbPath)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	outputPath, _ := cmd.Flags().GetString("out")
	if outputPath == "" {
		return report.WriteCatalogMarkdown(os.Stdout, rep)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	if err := report.WriteCatalogMarkdown(f, rep); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	util.SuccessLog("Report saved to: %s", outputPath)
	util.InfoLog("  Consoles: %s", util.FormatCount(int(rep.Counts.Consoles)))
	util.InfoLog("  Games: %s", util.FormatCount(int(rep.Counts.Games)))
	if rep.Counts.GamesNoGenre > 0 {
		util.WarnLog("  Games without genre: %s", util.FormatCount(int(rep.Counts.GamesNoGenre)))
	}
	return nil
}
