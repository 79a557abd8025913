// internal/github/client.go
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	apperrors "github-trending-tracker/internal/errors"
	"github-trending-tracker/internal/model"
)

const (
	searchPerPage = 30
	readmeMaxLen  = 15000
	fileTreeMax   = 200
)

// Client is a wrapper around the go-github client. It serves two consumers:
// the collection pipeline (trending fallback via the search API) and the
// analyzer (repository content extraction).
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance. The token is
// optional; without one requests run unauthenticated at a lower rate limit.
func NewClient(token string, logger *slog.Logger) *Client {
	var tc *github.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		tc = github.NewClient(oauth2.NewClient(context.Background(), ts))
	} else {
		tc = github.NewClient(nil)
	}
	return &Client{gh: tc, logger: logger}
}

// SearchTrending approximates a trending listing from the search API: the 30
// most-starred repositories created after the period's date threshold. The
// API has no stars-today delta, so StarsToday is always 0.
func (c *Client) SearchTrending(ctx context.Context, period model.Period) ([]model.TrendingEntry, error) {
	query := fmt.Sprintf("created:>%s", dateThreshold(period, time.Now()))
	opts := &github.SearchOptions{
		Sort:        "stars",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: searchPerPage},
	}

	c.logger.Debug("Querying search API", "query", query, "period", period)
	result, resp, err := c.gh.Search.Repositories(ctx, query, opts)
	if err != nil {
		if resp != nil && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
			return nil, &apperrors.FetchError{URL: "search/repositories", StatusCode: resp.StatusCode}
		}
		return nil, err
	}

	entries := make([]model.TrendingEntry, 0, len(result.Repositories))
	for i, repo := range result.Repositories {
		entries = append(entries, model.TrendingEntry{
			FullName:    repo.GetFullName(),
			Owner:       repo.GetOwner().GetLogin(),
			Name:        repo.GetName(),
			Description: repo.Description,
			Language:    repo.Language,
			Stars:       repo.GetStargazersCount(),
			Forks:       repo.GetForksCount(),
			StarsToday:  0,
			Rank:        i + 1,
			URL:         repo.GetHTMLURL(),
		})
	}
	return entries, nil
}

// dateThreshold computes the creation-date cutoff for a period: 1, 7 or 30
// days before now, date-only.
func dateThreshold(period model.Period, now time.Time) string {
	days := 1
	switch period {
	case model.PeriodWeekly:
		days = 7
	case model.PeriodMonthly:
		days = 30
	}
	return now.AddDate(0, 0, -days).Format("2006-01-02")
}

// FetchRepoContent gathers the analysis input for a repository. Only the
// metadata fetch is required; README, file tree, manifest and language
// breakdown are each best-effort and fall back to their zero value.
func (c *Client) FetchRepoContent(ctx context.Context, owner, name string) (model.RepoContent, error) {
	repo, resp, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		if resp != nil && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
			return model.RepoContent{}, &apperrors.FetchError{URL: owner + "/" + name, StatusCode: resp.StatusCode}
		}
		return model.RepoContent{}, err
	}

	content := model.RepoContent{Info: toRepoInfo(repo)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		readme, _, err := c.gh.Repositories.GetReadme(gctx, owner, name, nil)
		if err != nil {
			c.logger.Debug("README fetch failed", "repo", owner+"/"+name, "error", err)
			return nil
		}
		text, err := readme.GetContent()
		if err != nil {
			return nil
		}
		if len(text) > readmeMaxLen {
			text = text[:readmeMaxLen]
		}
		content.Readme = text
		return nil
	})
	g.Go(func() error {
		tree, _, err := c.gh.Git.GetTree(gctx, owner, name, "HEAD", true)
		if err != nil {
			c.logger.Debug("Tree fetch failed", "repo", owner+"/"+name, "error", err)
			return nil
		}
		paths := []string{}
		for _, e := range tree.Entries {
			if e.GetType() != "blob" {
				continue
			}
			paths = append(paths, e.GetPath())
			if len(paths) == fileTreeMax {
				break
			}
		}
		content.FileTree = paths
		return nil
	})
	g.Go(func() error {
		file, _, _, err := c.gh.Repositories.GetContents(gctx, owner, name, "package.json", nil)
		if err != nil || file == nil {
			return nil
		}
		raw, err := file.GetContent()
		if err != nil {
			return nil
		}
		var manifest map[string]any
		if err := json.Unmarshal([]byte(raw), &manifest); err != nil {
			return nil
		}
		content.Manifest = manifest
		return nil
	})
	g.Go(func() error {
		langs, _, err := c.gh.Repositories.ListLanguages(gctx, owner, name)
		if err != nil {
			c.logger.Debug("Languages fetch failed", "repo", owner+"/"+name, "error", err)
			return nil
		}
		breakdown := make(map[string]int64, len(langs))
		for lang, bytes := range langs {
			breakdown[lang] = int64(bytes)
		}
		content.Languages = breakdown
		return nil
	})
	_ = g.Wait() // sub-fetches never return errors

	return content, nil
}

// toRepoInfo translates a github.Repository to the internal metadata shape.
func toRepoInfo(r *github.Repository) model.RepoInfo {
	info := model.RepoInfo{
		FullName:    r.GetFullName(),
		Description: r.Description,
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		Language:    r.Language,
		Topics:      r.Topics,
		Homepage:    r.Homepage,
	}
	if l := r.GetLicense(); l != nil {
		info.License = l.SPDXID
	}
	if c := r.CreatedAt; c != nil {
		t := c.Time
		info.CreatedAt = &t
	}
	if p := r.PushedAt; p != nil {
		t := p.Time
		info.PushedAt = &t
	}
	return info
}
