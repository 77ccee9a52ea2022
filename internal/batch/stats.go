package batch

import (
	"time"

	"github.com/franz/retro-scraper/internal/report"
)

// Stats aggregates the outcome of a run
type Stats struct {
	StartedAt time.Time
	Duration  time.Duration
	Retries   int
	Errors    []report.ItemError
	Aborted   string

	order      []string
	categories map[string]*report.CategoryCounts
}

func newStats() *Stats {
	return &Stats{
		StartedAt:  time.Now(),
		categories: make(map[string]*report.CategoryCounts),
	}
}

// Finish sets Duration to the wall-clock time since StartedAt
func (s *Stats) Finish() {
	s.Duration = time.Since(s.StartedAt)
}

// RecordFailure counts a failure that happened outside an item run, such as
// a game list that could not be fetched
func (s *Stats) RecordFailure(category string, e report.ItemError) {
	c := s.category(category)
	c.Processed++
	c.Failed++
	s.Errors = append(s.Errors, e)
}

func (s *Stats) category(name string) *report.CategoryCounts {
	if c, ok := s.categories[name]; ok {
		return c
	}
	c := &report.CategoryCounts{}
	s.categories[name] = c
	s.order = append(s.order, name)
	return c
}

// Category returns the counters of one category
func (s *Stats) Category(name string) report.CategoryCounts {
	if c, ok := s.categories[name]; ok {
		return *c
	}
	return report.CategoryCounts{}
}

// Totals sums every category
func (s *Stats) Totals() report.CategoryCounts {
	var total report.CategoryCounts
	for _, name := range s.order {
		total.Add(*s.categories[name])
	}
	return total
}

// Merge folds another run's statistics into s, as when a deployment runs
// consoles then games. Duration spans the first start to the last end.
func (s *Stats) Merge(other *Stats) {
	if other == nil {
		return
	}
	end := s.StartedAt.Add(s.Duration)
	if otherEnd := other.StartedAt.Add(other.Duration); otherEnd.After(end) {
		end = otherEnd
	}
	if other.StartedAt.Before(s.StartedAt) {
		s.StartedAt = other.StartedAt
	}
	s.Duration = end.Sub(s.StartedAt)
	s.Retries += other.Retries
	s.Errors = append(s.Errors, other.Errors...)
	if s.Aborted == "" {
		s.Aborted = other.Aborted
	}
	for _, name := range other.order {
		s.category(name).Add(*other.categories[name])
	}
}

// Summary converts the statistics into an operator report
func (s *Stats) Summary(command, runID string) *report.RunSummary {
	summary := &report.RunSummary{
		RunID:       runID,
		Command:     command,
		GeneratedAt: time.Now(),
		StartedAt:   s.StartedAt,
		Duration:    s.Duration,
		Retries:     s.Retries,
		Errors:      s.Errors,
		Aborted:     s.Aborted,
	}
	for _, name := range s.order {
		summary.Categories = append(summary.Categories, report.CategorySummary{
			Name:   name,
			Counts: *s.categories[name],
		})
	}
	return summary
}
