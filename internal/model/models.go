// internal/model/models.go
package model

import "time"

// Period is the trending window granularity.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// AllPeriods lists every period in collection order.
var AllPeriods = []Period{PeriodDaily, PeriodWeekly, PeriodMonthly}

// Valid reports whether p is one of the known periods.
func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// Collection sources recorded on trending snapshots.
const (
	SourceScrape = "scrape"
	SourceAPI    = "api"
)

// TrendingEntry is the adapter output shape shared by the scrape and
// search-API adapters. Rank is 1-based position in the listing.
type TrendingEntry struct {
	FullName    string  `json:"fullName"`
	Owner       string  `json:"owner"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Language    *string `json:"language"`
	Stars       int     `json:"stars"`
	Forks       int     `json:"forks"`
	StarsToday  int     `json:"starsToday"`
	Rank        int     `json:"rank"`
	URL         string  `json:"url"`
}

// Repository is a stored repository row, unique by FullName.
type Repository struct {
	ID          int64      `json:"id"`
	FullName    string     `json:"fullName"`
	Owner       string     `json:"owner"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Language    *string    `json:"language"`
	Stars       int        `json:"stars"`
	Forks       int        `json:"forks"`
	Topics      *string    `json:"topics"`
	Homepage    *string    `json:"homepage"`
	License     *string    `json:"license"`
	CreatedAt   *time.Time `json:"createdAt"`
	PushedAt    *time.Time `json:"pushedAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TrendingSnapshot is one dated per-period ranking record for a repository,
// unique by (RepoID, Date, Period). Date is a calendar date, "2006-01-02".
type TrendingSnapshot struct {
	ID          int64     `json:"id"`
	RepoID      int64     `json:"repoId"`
	Date        string    `json:"date"`
	Period      Period    `json:"period"`
	Rank        *int      `json:"rank"`
	StarsToday  *int      `json:"starsToday"`
	Source      string    `json:"source"`
	CollectedAt time.Time `json:"collectedAt"`
}

// StarHistoryPoint records the absolute star count observed on a date,
// unique by (RepoID, Date).
type StarHistoryPoint struct {
	ID     int64  `json:"id"`
	RepoID int64  `json:"repoId"`
	Date   string `json:"date"`
	Stars  int    `json:"stars"`
}

// Analysis is the stored LLM analysis row. At most one live row exists per
// repository; list-valued fields are kept JSON-serialized as written.
type Analysis struct {
	ID              int64     `json:"id"`
	RepoID          int64     `json:"repoId"`
	SummaryKo       string    `json:"summaryKo"`
	SummaryEn       string    `json:"summaryEn"`
	TechStack       string    `json:"-"`
	Category        string    `json:"category"`
	UseCases        string    `json:"-"`
	SimilarProjects string    `json:"-"`
	Highlights      string    `json:"-"`
	Difficulty      string    `json:"difficulty"`
	ModelVersion    string    `json:"modelVersion"`
	AnalyzedAt      time.Time `json:"analyzedAt"`
}

// AnalysisResult is the structured object expected from the LLM.
type AnalysisResult struct {
	SummaryKo       string   `json:"summary_ko"`
	SummaryEn       string   `json:"summary_en"`
	TechStack       []string `json:"tech_stack"`
	Category        string   `json:"category"`
	UseCases        []string `json:"use_cases"`
	SimilarProjects []string `json:"similar_projects"`
	Highlights      []string `json:"highlights"`
	Difficulty      string   `json:"difficulty"`
}

// RepoInfo is the repository metadata slice of RepoContent.
type RepoInfo struct {
	FullName    string
	Description *string
	Stars       int
	Forks       int
	Language    *string
	Topics      []string
	License     *string
	Homepage    *string
	CreatedAt   *time.Time
	PushedAt    *time.Time
}

// RepoContent is the input to the analysis prompt. Every field except Info
// is best-effort: a failed sub-fetch leaves the zero value.
type RepoContent struct {
	Info      RepoInfo
	Readme    string
	FileTree  []string
	Manifest  map[string]any
	Languages map[string]int64
}

// WebhookSubscription is an outbound notification target.
type WebhookSubscription struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	Platform  string    `json:"platform"`
	Filters   *string   `json:"filters"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// WebhookFilters is the decoded per-subscription filter spec.
type WebhookFilters struct {
	Language string `json:"language,omitempty"`
	MinStars int    `json:"minStars,omitempty"`
}

// TrendingRow is a trending listing row: snapshot joined with its repository
// and, when present, the analysis summary/category.
type TrendingRow struct {
	Rank        *int      `json:"rank"`
	StarsToday  *int      `json:"starsToday"`
	Date        string    `json:"snapshotDate"`
	FullName    string    `json:"fullName"`
	Owner       string    `json:"owner"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Language    *string   `json:"language"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	Category    *string   `json:"category"`
	Summary     *string   `json:"summary"`
	CollectedAt time.Time `json:"collectedAt"`
}
