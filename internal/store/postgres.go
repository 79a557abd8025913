// internal/store/postgres.go
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github-trending-tracker/internal/errors"
	"github-trending-tracker/internal/model"
)

// Postgres implements Store on a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a Store backed by the given pool. The caller owns the
// pool's lifecycle.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) UpsertRepository(ctx context.Context, arg UpsertRepositoryParams) (int64, error) {
	var id int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO repositories (full_name, owner, name, description, language, stars, forks, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (full_name) DO UPDATE SET
			description = EXCLUDED.description,
			language = EXCLUDED.language,
			stars = EXCLUDED.stars,
			forks = EXCLUDED.forks,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`, arg.FullName, arg.Owner, arg.Name, arg.Description, arg.Language, arg.Stars, arg.Forks, arg.UpdatedAt).Scan(&id)
	return id, err
}

func (p *Postgres) UpsertSnapshot(ctx context.Context, arg UpsertSnapshotParams) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO trending_snapshots (repo_id, date, period, rank, stars_today, source, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (repo_id, date, period) DO UPDATE SET
			rank = EXCLUDED.rank,
			stars_today = EXCLUDED.stars_today,
			source = EXCLUDED.source,
			collected_at = EXCLUDED.collected_at
	`, arg.RepoID, arg.Date, string(arg.Period), arg.Rank, arg.StarsToday, arg.Source, arg.CollectedAt)
	return err
}

func (p *Postgres) UpsertStarHistory(ctx context.Context, repoID int64, date string, stars int) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO star_history (repo_id, date, stars)
		VALUES ($1, $2, $3)
		ON CONFLICT (repo_id, date) DO UPDATE SET stars = EXCLUDED.stars
	`, repoID, date, stars)
	return err
}

func (p *Postgres) ListTrending(ctx context.Context, q TrendingQuery) ([]model.TrendingRow, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.pool.Query(ctx, `
		SELECT s.rank, s.stars_today, s.date, s.collected_at,
		       r.full_name, r.owner, r.name, r.description, r.language, r.stars, r.forks,
		       a.category, a.summary_ko
		FROM trending_snapshots s
		JOIN repositories r ON r.id = s.repo_id
		LEFT JOIN analyses a ON a.repo_id = r.id
		WHERE s.period = $1
		  AND ($2 = '' OR s.date = $2)
		  AND ($3 = '' OR r.language = $3)
		ORDER BY s.date DESC, s.rank ASC
		LIMIT $4
	`, string(q.Period), q.Date, q.Language, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.TrendingRow{}
	for rows.Next() {
		var t model.TrendingRow
		if err := rows.Scan(&t.Rank, &t.StarsToday, &t.Date, &t.CollectedAt,
			&t.FullName, &t.Owner, &t.Name, &t.Description, &t.Language, &t.Stars, &t.Forks,
			&t.Category, &t.Summary); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *Postgres) GetRepositoryByFullName(ctx context.Context, fullName string) (model.Repository, error) {
	var r model.Repository
	err := p.pool.QueryRow(ctx, `
		SELECT id, full_name, owner, name, description, language, stars, forks,
		       topics, homepage, license, created_at, pushed_at, updated_at
		FROM repositories
		WHERE full_name = $1
	`, fullName).Scan(&r.ID, &r.FullName, &r.Owner, &r.Name, &r.Description, &r.Language,
		&r.Stars, &r.Forks, &r.Topics, &r.Homepage, &r.License, &r.CreatedAt, &r.PushedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Repository{}, apperrors.ErrNotFound
	}
	return r, err
}

func (p *Postgres) GetLatestAnalysis(ctx context.Context, repoID int64) (*model.Analysis, error) {
	var a model.Analysis
	err := p.pool.QueryRow(ctx, `
		SELECT id, repo_id, COALESCE(summary_ko, ''), COALESCE(summary_en, ''),
		       COALESCE(tech_stack, '[]'), COALESCE(category, ''), COALESCE(use_cases, '[]'),
		       COALESCE(similar_projects, '[]'), COALESCE(highlights, '[]'),
		       COALESCE(difficulty, ''), COALESCE(model_version, ''), analyzed_at
		FROM analyses
		WHERE repo_id = $1
		ORDER BY analyzed_at DESC
		LIMIT 1
	`, repoID).Scan(&a.ID, &a.RepoID, &a.SummaryKo, &a.SummaryEn, &a.TechStack, &a.Category,
		&a.UseCases, &a.SimilarProjects, &a.Highlights, &a.Difficulty, &a.ModelVersion, &a.AnalyzedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (p *Postgres) ListSnapshots(ctx context.Context, repoID int64, limit int) ([]model.TrendingSnapshot, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, repo_id, date, period, rank, stars_today, source, collected_at
		FROM trending_snapshots
		WHERE repo_id = $1
		ORDER BY date DESC
		LIMIT $2
	`, repoID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.TrendingSnapshot{}
	for rows.Next() {
		var s model.TrendingSnapshot
		var period string
		if err := rows.Scan(&s.ID, &s.RepoID, &s.Date, &period, &s.Rank, &s.StarsToday, &s.Source, &s.CollectedAt); err != nil {
			return nil, err
		}
		s.Period = model.Period(period)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) ListStarHistory(ctx context.Context, repoID int64, limit int) ([]model.StarHistoryPoint, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, repo_id, date, stars
		FROM star_history
		WHERE repo_id = $1
		ORDER BY date ASC
		LIMIT $2
	`, repoID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.StarHistoryPoint{}
	for rows.Next() {
		var h model.StarHistoryPoint
		if err := rows.Scan(&h.ID, &h.RepoID, &h.Date, &h.Stars); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (p *Postgres) ListAnalysisCandidates(ctx context.Context, staleBefore time.Time, limit int) ([]AnalysisCandidate, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT r.id, r.owner, r.name, r.full_name
		FROM repositories r
		LEFT JOIN analyses a ON a.repo_id = r.id
		WHERE a.id IS NULL OR a.analyzed_at < $1
		ORDER BY r.id
		LIMIT $2
	`, staleBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []AnalysisCandidate{}
	for rows.Next() {
		var c AnalysisCandidate
		if err := rows.Scan(&c.RepoID, &c.Owner, &c.Name, &c.FullName); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) ReplaceAnalysis(ctx context.Context, a model.Analysis) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM analyses WHERE repo_id = $1`, a.RepoID); err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO analyses (repo_id, summary_ko, summary_en, tech_stack, category,
		                      use_cases, similar_projects, highlights, difficulty,
		                      model_version, analyzed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, a.RepoID, a.SummaryKo, a.SummaryEn, a.TechStack, a.Category,
		a.UseCases, a.SimilarProjects, a.Highlights, a.Difficulty,
		a.ModelVersion, a.AnalyzedAt)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *Postgres) ListSubscriptions(ctx context.Context) ([]model.WebhookSubscription, error) {
	return p.querySubscriptions(ctx, `
		SELECT id, url, platform, filters, is_active, created_at
		FROM webhook_subscriptions
		ORDER BY id
	`)
}

func (p *Postgres) ListActiveSubscriptions(ctx context.Context) ([]model.WebhookSubscription, error) {
	return p.querySubscriptions(ctx, `
		SELECT id, url, platform, filters, is_active, created_at
		FROM webhook_subscriptions
		WHERE is_active
		ORDER BY id
	`)
}

func (p *Postgres) querySubscriptions(ctx context.Context, sql string) ([]model.WebhookSubscription, error) {
	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.WebhookSubscription{}
	for rows.Next() {
		var s model.WebhookSubscription
		if err := rows.Scan(&s.ID, &s.URL, &s.Platform, &s.Filters, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) CreateSubscription(ctx context.Context, arg CreateSubscriptionParams) (model.WebhookSubscription, error) {
	var s model.WebhookSubscription
	err := p.pool.QueryRow(ctx, `
		INSERT INTO webhook_subscriptions (url, platform, filters, is_active, created_at)
		VALUES ($1, $2, $3, FALSE, $4)
		RETURNING id, url, platform, filters, is_active, created_at
	`, arg.URL, arg.Platform, arg.Filters, arg.CreatedAt).
		Scan(&s.ID, &s.URL, &s.Platform, &s.Filters, &s.IsActive, &s.CreatedAt)
	return s, err
}

func (p *Postgres) SetSubscriptionActive(ctx context.Context, id int64, active bool) (model.WebhookSubscription, error) {
	var s model.WebhookSubscription
	err := p.pool.QueryRow(ctx, `
		UPDATE webhook_subscriptions SET is_active = $2
		WHERE id = $1
		RETURNING id, url, platform, filters, is_active, created_at
	`, id, active).Scan(&s.ID, &s.URL, &s.Platform, &s.Filters, &s.IsActive, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.WebhookSubscription{}, apperrors.ErrNotFound
	}
	return s, err
}

func (p *Postgres) DeleteSubscription(ctx context.Context, id int64) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM webhook_subscriptions WHERE id = $1`, id)
	return err
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
