// internal/collector/collector.go
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github-trending-tracker/internal/model"
	"github-trending-tracker/internal/store"
)

// PageSource produces trending entries from the rendered trending page.
type PageSource interface {
	Fetch(ctx context.Context, period model.Period, language string) ([]model.TrendingEntry, error)
}

// SearchSource produces trending entries from the search API fallback.
type SearchSource interface {
	SearchTrending(ctx context.Context, period model.Period) ([]model.TrendingEntry, error)
}

// Collector orchestrates adapter selection and reconciles the results into
// the store.
type Collector struct {
	store  store.Store
	page   PageSource
	search SearchSource
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Collector.
func New(st store.Store, page PageSource, search SearchSource, logger *slog.Logger) *Collector {
	return &Collector{
		store:  st,
		page:   page,
		search: search,
		logger: logger,
		now:    time.Now,
	}
}

// Result reports one period's collection outcome. Entries carries the
// collected listing so the daily caller can feed the notification fan-out.
type Result struct {
	Count   int                   `json:"count"`
	Source  string                `json:"source"`
	Date    string                `json:"date"`
	Entries []model.TrendingEntry `json:"-"`
}

// Collect runs the pipeline for one period: scrape, fall back to the search
// API on scrape failure, then upsert repository, snapshot and star-history
// rows per entry. All entries in one run share a single date and timestamp.
// An empty listing is returned as-is without touching the store. A store
// error aborts the run; rows already written stand, and re-running is safe
// because every write is an idempotent upsert.
func (c *Collector) Collect(ctx context.Context, period model.Period) (Result, error) {
	source := model.SourceScrape
	entries, err := c.page.Fetch(ctx, period, "")
	if err != nil {
		c.logger.Warn("Scrape failed, falling back to search API", "period", period, "error", err)
		entries, err = c.search.SearchTrending(ctx, period)
		if err != nil {
			return Result{}, fmt.Errorf("collect %s: both sources failed: %w", period, err)
		}
		source = model.SourceAPI
	}

	now := c.now()
	today := now.Format("2006-01-02")
	if len(entries) == 0 {
		c.logger.Info("Empty trending listing, nothing to reconcile", "period", period, "source", source)
		return Result{Source: source, Date: today}, nil
	}

	for _, entry := range entries {
		repoID, err := c.store.UpsertRepository(ctx, store.UpsertRepositoryParams{
			FullName:    entry.FullName,
			Owner:       entry.Owner,
			Name:        entry.Name,
			Description: entry.Description,
			Language:    entry.Language,
			Stars:       entry.Stars,
			Forks:       entry.Forks,
			UpdatedAt:   now,
		})
		if err != nil {
			return Result{}, fmt.Errorf("upsert repository %s: %w", entry.FullName, err)
		}

		if err := c.store.UpsertSnapshot(ctx, store.UpsertSnapshotParams{
			RepoID:      repoID,
			Date:        today,
			Period:      period,
			Rank:        entry.Rank,
			StarsToday:  entry.StarsToday,
			Source:      source,
			CollectedAt: now,
		}); err != nil {
			return Result{}, fmt.Errorf("upsert snapshot %s: %w", entry.FullName, err)
		}

		if err := c.store.UpsertStarHistory(ctx, repoID, today, entry.Stars); err != nil {
			return Result{}, fmt.Errorf("upsert star history %s: %w", entry.FullName, err)
		}
	}

	c.logger.Info("Collection finished", "period", period, "source", source, "count", len(entries))
	return Result{Count: len(entries), Source: source, Date: today, Entries: entries}, nil
}
