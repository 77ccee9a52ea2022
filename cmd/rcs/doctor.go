package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/franz/retro-scraper/internal/screenscraper"
	"github.com/franz/retro-scraper/internal/store"
	"github.com/franz/retro-scraper/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to ensure rcs can operate correctly.

This command checks:
- Configuration and Screenscraper credentials
- SQLite version compatibility
- Database accessibility and integrity
- Upstream reachability (skipped with --offline)

Use this command to troubleshoot issues before running an import.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().Bool("offline", false, "skip the upstream reachability check")
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== RCS Doctor - System Diagnostics ===")
	util.InfoLog("")

	var results []checkResult
	settings, configCheck := checkConfig(viper.GetViper())
	results = append(results, configCheck, checkSQLite(), checkDatabase(viper.GetString("db")))

	offline, _ := cmd.Flags().GetBool("offline")
	if !offline && settings != nil {
		results = append(results, checkUpstream(settings.clientConfig()))
	}

	util.InfoLog("")
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	var failures, warnings int
	for _, r := range results {
		switch {
		case r.error:
			failures++
			util.ErrorLog("[✗] %s", r.line())
		case r.warning:
			warnings++
			util.WarnLog("[⚠] %s", r.line())
		default:
			util.SuccessLog("[✓] %s", r.line())
		}
	}

	util.InfoLog("")
	switch {
	case failures > 0:
		util.ErrorLog("❌ %d check(s) failed, fix them before importing.", failures)
		return fmt.Errorf("%d diagnostic check(s) failed", failures)
	case warnings > 0:
		util.WarnLog("⚠️  %d warning(s), imports can run but review them first.", warnings)
	default:
		util.SuccessLog("✅ Ready to import.")
	}
	return nil
}

func (r checkResult) line() string {
	if r.message == "" {
		return r.name
	}
	return r.name + ": " + r.message
}

func passed(name, format string, args ...interface{}) checkResult {
	return checkResult{name: name, message: fmt.Sprintf(format, args...)}
}

func warned(name, format string, args ...interface{}) checkResult {
	return checkResult{name: name, message: fmt.Sprintf(format, args...), warning: true}
}

func failed(name, format string, args ...interface{}) checkResult {
	return checkResult{name: name, message: fmt.Sprintf(format, args...), error: true}
}

func checkConfig(v *viper.Viper) (*Settings, checkResult) {
	const name = "Configuration"

	settings, err := loadSettings(v, true)
	if err != nil {
		return nil, failed(name, "%v", err)
	}

	ss := settings.Screenscraper
	if ss.UserID == "" {
		return settings, warned(name, "developer %s, region %s (no user account, lower quota)", ss.DevID, settings.Import.PreferredRegion)
	}
	return settings, passed(name, "developer %s, user %s, region %s", ss.DevID, ss.UserID, settings.Import.PreferredRegion)
}

// checkSQLite reports the embedded modernc.org/sqlite version
func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return failed("SQLite", "unable to determine version")
	}
	return passed("SQLite", "version %s (built-in)", version)
}

func checkDatabase(dbPath string) checkResult {
	const name = "Database"

	if dbPath == "" {
		return warned(name, "no database path specified (use --db flag or config)")
	}

	info, err := os.Stat(dbPath)
	switch {
	case os.IsNotExist(err):
		return passed(name, "%s (will be created on first run)", dbPath)
	case err != nil:
		return failed(name, "cannot access %s: %v", dbPath, err)
	case !info.Mode().IsRegular():
		return failed(name, "%s is not a regular file", dbPath)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return failed(name, "cannot open %s: %v", dbPath, err)
	}
	defer db.Close()

	if err := db.CheckIntegrity(); err != nil {
		return failed(name, "integrity check failed: %v", err)
	}
	version, err := db.SchemaVersion()
	if err != nil {
		return failed(name, "cannot read schema version: %v", err)
	}
	counts, err := db.CatalogCounts(context.Background())
	if err != nil {
		return failed(name, "cannot read catalog: %v", err)
	}

	summary := fmt.Sprintf("%s (%s, schema v%d, %d consoles, %d games)",
		dbPath, util.FormatBytes(info.Size()), version, counts.Consoles, counts.Games)
	if counts.Games > 0 && counts.Genres == 0 {
		return warned(name, "%s; genre table is empty, run `rcs genres sync`", summary)
	}
	return passed(name, "%s", summary)
}

// checkUpstream lists the upstream systems with the configured credentials
func checkUpstream(cfg *screenscraper.Config) checkResult {
	const name = "Screenscraper"

	client, err := screenscraper.NewClient(cfg)
	if err != nil {
		return failed(name, "%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout+5*time.Second)
	defer cancel()

	started := time.Now()
	systems, err := client.Systems(ctx)
	if err != nil {
		return failed(name, "system list request failed: %v", err)
	}
	return passed(name, "%d systems listed in %s", len(systems), util.FormatDuration(time.Since(started)))
}
