// internal/store/store.go
package store

import (
	"context"
	"time"

	"github-trending-tracker/internal/model"
)

// Store is the persistence interface. The collector, notifier, analyzer and
// API handlers depend only on this interface; only Postgres and main touch
// the pgx pool.
type Store interface {
	// UpsertRepository inserts a repository keyed by full_name or, on
	// conflict, overwrites its mutable fields. Returns the row id.
	UpsertRepository(ctx context.Context, p UpsertRepositoryParams) (int64, error)
	// UpsertSnapshot inserts a trending snapshot keyed by
	// (repo_id, date, period) or overwrites rank/stars_today/source/collected_at.
	UpsertSnapshot(ctx context.Context, p UpsertSnapshotParams) error
	// UpsertStarHistory inserts a star-history point keyed by (repo_id, date)
	// or overwrites the star count.
	UpsertStarHistory(ctx context.Context, repoID int64, date string, stars int) error

	ListTrending(ctx context.Context, q TrendingQuery) ([]model.TrendingRow, error)
	GetRepositoryByFullName(ctx context.Context, fullName string) (model.Repository, error)
	// GetLatestAnalysis returns nil (no error) when the repository has no
	// analysis yet.
	GetLatestAnalysis(ctx context.Context, repoID int64) (*model.Analysis, error)
	ListSnapshots(ctx context.Context, repoID int64, limit int) ([]model.TrendingSnapshot, error)
	ListStarHistory(ctx context.Context, repoID int64, limit int) ([]model.StarHistoryPoint, error)

	// ListAnalysisCandidates returns repositories with no analysis row or one
	// analyzed before staleBefore, ordered by repository id, capped at limit.
	ListAnalysisCandidates(ctx context.Context, staleBefore time.Time, limit int) ([]AnalysisCandidate, error)
	// ReplaceAnalysis deletes any prior analysis rows for the repository and
	// inserts the given one, in a single transaction.
	ReplaceAnalysis(ctx context.Context, a model.Analysis) error

	ListSubscriptions(ctx context.Context) ([]model.WebhookSubscription, error)
	ListActiveSubscriptions(ctx context.Context) ([]model.WebhookSubscription, error)
	CreateSubscription(ctx context.Context, p CreateSubscriptionParams) (model.WebhookSubscription, error)
	SetSubscriptionActive(ctx context.Context, id int64, active bool) (model.WebhookSubscription, error)
	DeleteSubscription(ctx context.Context, id int64) error

	Ping(ctx context.Context) error
}

// UpsertRepositoryParams carries the fields overwritten on every collection.
type UpsertRepositoryParams struct {
	FullName    string
	Owner       string
	Name        string
	Description *string
	Language    *string
	Stars       int
	Forks       int
	UpdatedAt   time.Time
}

// UpsertSnapshotParams identifies and fills one (repo, date, period) snapshot.
type UpsertSnapshotParams struct {
	RepoID      int64
	Date        string
	Period      model.Period
	Rank        int
	StarsToday  int
	Source      string
	CollectedAt time.Time
}

// TrendingQuery selects listing rows. Date and Language are optional; empty
// values match everything.
type TrendingQuery struct {
	Period   model.Period
	Date     string
	Language string
	Limit    int
}

// AnalysisCandidate is a repository due for (re)analysis.
type AnalysisCandidate struct {
	RepoID   int64
	Owner    string
	Name     string
	FullName string
}

// CreateSubscriptionParams creates a webhook subscription. New subscriptions
// start inactive pending approval.
type CreateSubscriptionParams struct {
	URL       string
	Platform  string
	Filters   *string
	CreatedAt time.Time
}
