package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/franz/retro-scraper/internal/store"
	"github.com/franz/retro-scraper/internal/util"
)

// CategoryCounts are the per-category outcome counters of a run
type CategoryCounts struct {
	Processed int
	Created   int
	Updated   int
	Exists    int
	Skipped   int
	Failed    int
}

// Succeeded counts items present in the catalog after the run
func (c CategoryCounts) Succeeded() int {
	return c.Created + c.Updated + c.Exists
}

// Add accumulates o into c
func (c *CategoryCounts) Add(o CategoryCounts) {
	c.Processed += o.Processed
	c.Created += o.Created
	c.Updated += o.Updated
	c.Exists += o.Exists
	c.Skipped += o.Skipped
	c.Failed += o.Failed
}

// CategorySummary names one category's counters
type CategorySummary struct {
	Name   string
	Counts CategoryCounts
}

// ItemError is one failed item
type ItemError struct {
	Category   string
	UpstreamID int64
	Label      string
	Attempts   int
	Error      string
}

// ErrorSummary represents an error with its count
type ErrorSummary struct {
	Error string
	Count int
}

// RunSummary is the end-of-run report of a batch command
type RunSummary struct {
	RunID       string
	Command     string
	GeneratedAt time.Time
	StartedAt   time.Time
	Duration    time.Duration
	Categories  []CategorySummary
	Retries     int
	Errors      []ItemError
	Aborted     string // reason the run stopped early, if it did

	DatabasePath string
	EventLogPath string
}

// Totals sums every category
func (r *RunSummary) Totals() CategoryCounts {
	var total CategoryCounts
	for _, c := range r.Categories {
		total.Add(c.Counts)
	}
	return total
}

// TopErrors groups failures by message, most frequent first
func (r *RunSummary) TopErrors(limit int) []ErrorSummary {
	counts := make(map[string]int)
	for _, e := range r.Errors {
		counts[e.Error]++
	}

	errors := make([]ErrorSummary, 0, len(counts))
	for msg, count := range counts {
		errors = append(errors, ErrorSummary{Error: msg, Count: count})
	}
	sort.Slice(errors, func(i, j int) bool {
		if errors[i].Count != errors[j].Count {
			return errors[i].Count > errors[j].Count
		}
		return errors[i].Error < errors[j].Error
	})

	if len(errors) > limit {
		errors = errors[:limit]
	}
	return errors
}

// PrintSummary writes the operator summary shown at the end of every batch run
func PrintSummary(w io.Writer, r *RunSummary) {
	total := r.Totals()

	fmt.Fprintf(w, "\n=== %s summary ===\n", r.Command)
	if r.Aborted != "" {
		fmt.Fprintf(w, "ABORTED: %s\n", r.Aborted)
	}
	fmt.Fprintf(w, "Processed: %s  Succeeded: %s  Skipped: %s  Failed: %s  (%s)\n",
		util.FormatCount(total.Processed), util.FormatCount(total.Succeeded()),
		util.FormatCount(total.Skipped), util.FormatCount(total.Failed), util.FormatDuration(r.Duration))

	for _, c := range r.Categories {
		if c.Counts.Processed == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-9s created %d, updated %d, existing %d, skipped %d, failed %d\n",
			c.Name+":", c.Counts.Created, c.Counts.Updated, c.Counts.Exists, c.Counts.Skipped, c.Counts.Failed)
	}
	if r.Retries > 0 {
		fmt.Fprintf(w, "Retries: %d\n", r.Retries)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "Errors:\n")
		for _, e := range r.Errors {
			label := ""
			if e.Label != "" {
				label = " (" + e.Label + ")"
			}
			fmt.Fprintf(w, "  - %s %d%s after %d attempt(s): %s\n", e.Category, e.UpstreamID, label, e.Attempts, e.Error)
		}
	}
	if r.EventLogPath != "" {
		fmt.Fprintf(w, "Event log: %s\n", r.EventLogPath)
	}
}

// WriteMarkdownReport writes the run summary as Markdown
func WriteMarkdownReport(r *RunSummary, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var md strings.Builder
	total := r.Totals()

	md.WriteString(fmt.Sprintf("# Retro Scraper - %s Run\n\n", r.Command))
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04:05")))
	if r.RunID != "" {
		md.WriteString(fmt.Sprintf("**Run:** `%s`\n\n", r.RunID))
	}
	if r.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", r.DatabasePath))
	}
	if r.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", r.EventLogPath))
	}
	if r.Aborted != "" {
		md.WriteString(fmt.Sprintf("> **Aborted:** %s\n\n", r.Aborted))
	}

	md.WriteString("---\n\n")

	md.WriteString("## 📊 Overview\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Processed | %s |\n", util.FormatCount(total.Processed)))
	md.WriteString(fmt.Sprintf("| Succeeded | %s |\n", util.FormatCount(total.Succeeded())))
	md.WriteString(fmt.Sprintf("| Skipped | %s |\n", util.FormatCount(total.Skipped)))
	md.WriteString(fmt.Sprintf("| Failed | %s |\n", util.FormatCount(total.Failed)))
	if r.Retries > 0 {
		md.WriteString(fmt.Sprintf("| Retries | %d |\n", r.Retries))
	}
	md.WriteString(fmt.Sprintf("| Duration | %s |\n", util.FormatDuration(r.Duration)))
	md.WriteString("\n")

	md.WriteString("## 🎮 By Category\n\n")
	md.WriteString("| Category | Processed | Created | Updated | Existing | Skipped | Failed |\n")
	md.WriteString("|----------|-----------|---------|---------|----------|---------|--------|\n")
	for _, c := range r.Categories {
		md.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d | %d | %d |\n",
			c.Name, c.Counts.Processed, c.Counts.Created, c.Counts.Updated, c.Counts.Exists, c.Counts.Skipped, c.Counts.Failed))
	}
	md.WriteString("\n")

	if len(r.Errors) > 0 {
		md.WriteString("## ⚠️ Top Errors\n\n")
		md.WriteString("| Count | Error |\n")
		md.WriteString("|-------|-------|\n")
		for _, e := range r.TopErrors(10) {
			md.WriteString(fmt.Sprintf("| %d | %s |\n", e.Count, escapeCell(e.Error)))
		}
		md.WriteString("\n")

		md.WriteString("## ❌ Failed Items\n\n")
		md.WriteString("| Category | Upstream ID | Label | Attempts | Error |\n")
		md.WriteString("|----------|-------------|-------|----------|-------|\n")
		for _, e := range r.Errors {
			md.WriteString(fmt.Sprintf("| %s | %d | %s | %d | %s |\n",
				e.Category, e.UpstreamID, escapeCell(e.Label), e.Attempts, escapeCell(truncate(e.Error, 120))))
		}
		md.WriteString("\n")
	}

	md.WriteString("---\n\n")
	md.WriteString("*Generated by retro-scraper*\n")

	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

// CatalogReport summarizes the catalog database contents
type CatalogReport struct {
	GeneratedAt  time.Time
	DatabasePath string
	Counts       store.Counts
	PerConsole   []store.ConsoleGameCount
}

// GenerateCatalogReport gathers catalog counts from the database
func GenerateCatalogReport(ctx context.Context, db *store.Store, dbPath string) (*CatalogReport, error) {
	counts, err := db.CatalogCounts(ctx)
	if err != nil {
		return nil, err
	}
	perConsole, err := db.GamesPerConsole(ctx)
	if err != nil {
		return nil, err
	}
	return &CatalogReport{
		GeneratedAt:  time.Now(),
		DatabasePath: dbPath,
		Counts:       *counts,
		PerConsole:   perConsole,
	}, nil
}

// WriteCatalogMarkdown writes the catalog report as Markdown to w
func WriteCatalogMarkdown(w io.Writer, rep *CatalogReport) error {
	var md strings.Builder

	md.WriteString("# Retro Scraper - Catalog Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", rep.GeneratedAt.Format("2006-01-02 15:04:05")))
	if rep.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", rep.DatabasePath))
	}

	md.WriteString("## 📊 Overview\n\n")
	md.WriteString("| Table | Rows |\n")
	md.WriteString("|-------|------|\n")
	md.WriteString(fmt.Sprintf("| Consoles | %s |\n", util.FormatCount(int(rep.Counts.Consoles))))
	md.WriteString(fmt.Sprintf("| Games | %s |\n", util.FormatCount(int(rep.Counts.Games))))
	md.WriteString(fmt.Sprintf("| Games without genre | %s |\n", util.FormatCount(int(rep.Counts.GamesNoGenre))))
	md.WriteString(fmt.Sprintf("| Corporations | %s |\n", util.FormatCount(int(rep.Counts.Corporations))))
	md.WriteString(fmt.Sprintf("| Families | %s |\n", util.FormatCount(int(rep.Counts.Families))))
	md.WriteString(fmt.Sprintf("| Genres | %s |\n", util.FormatCount(int(rep.Counts.Genres))))
	md.WriteString(fmt.Sprintf("| Cached media URLs | %s |\n", util.FormatCount(int(rep.Counts.MediaEntries))))
	md.WriteString("\n")

	if len(rep.PerConsole) > 0 {
		md.WriteString("## 🎮 Games per Console\n\n")
		md.WriteString("| Console | Games |\n")
		md.WriteString("|---------|-------|\n")
		for _, c := range rep.PerConsole {
			md.WriteString(fmt.Sprintf("| %s | %s |\n", escapeCell(c.Name), util.FormatCount(int(c.Games))))
		}
		md.WriteString("\n")
	}

	_, err := io.WriteString(w, md.String())
	return err
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", "\\|"), "\n", " ")
}

// truncate shortens s to at most maxLen bytes, marking the cut
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
