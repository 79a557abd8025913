// internal/notifier/webhook.go
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	apperrors "github-trending-tracker/internal/errors"
	"github-trending-tracker/internal/model"
	"github-trending-tracker/internal/store"
)

const (
	maxBlockRepos   = 10
	maxGenericRepos = 25
)

// Notifier delivers daily trending notifications to webhook subscribers.
type Notifier struct {
	store  store.Store
	client *http.Client
	logger *slog.Logger
}

// New creates a Notifier.
func New(st store.Store, logger *slog.Logger) *Notifier {
	return &Notifier{
		store:  st,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Send fans the daily listing out to every active subscription. Each
// subscriber is handled independently: its filters are applied, subscribers
// whose filtered list is empty are skipped, and a delivery failure is logged
// without affecting the others. Send never returns an error.
func (n *Notifier) Send(ctx context.Context, repos []model.TrendingEntry, date string) {
	subs, err := n.store.ListActiveSubscriptions(ctx)
	if err != nil {
		n.logger.Error("Failed to load webhook subscriptions", "error", err)
		return
	}

	for _, sub := range subs {
		filtered := applyFilters(repos, parseFilters(sub.Filters))
		if len(filtered) == 0 {
			continue
		}
		payload := buildPayload(sub.Platform, filtered, date)
		if err := n.post(ctx, sub.URL, payload); err != nil {
			n.logger.Error("Webhook delivery failed", "subscription_id", sub.ID, "url", sub.URL, "error", err)
			continue
		}
		n.logger.Info("Webhook delivered", "subscription_id", sub.ID, "platform", sub.Platform, "repos", len(filtered))
	}
}

// parseFilters decodes a subscription's filter spec. Missing or malformed
// JSON means no filtering.
func parseFilters(raw *string) model.WebhookFilters {
	if raw == nil || *raw == "" {
		return model.WebhookFilters{}
	}
	var f model.WebhookFilters
	if err := json.Unmarshal([]byte(*raw), &f); err != nil {
		return model.WebhookFilters{}
	}
	return f
}

func applyFilters(repos []model.TrendingEntry, f model.WebhookFilters) []model.TrendingEntry {
	result := repos
	if f.Language != "" {
		result = filter(result, func(r model.TrendingEntry) bool {
			return r.Language != nil && *r.Language == f.Language
		})
	}
	if f.MinStars > 0 {
		result = filter(result, func(r model.TrendingEntry) bool {
			return r.Stars >= f.MinStars
		})
	}
	return result
}

func filter(repos []model.TrendingEntry, keep func(model.TrendingEntry) bool) []model.TrendingEntry {
	out := []model.TrendingEntry{}
	for _, r := range repos {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type string    `json:"type"`
	Text slackText `json:"text"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title  string         `json:"title"`
	Fields []discordField `json:"fields"`
}

// buildPayload renders the platform-specific notification body. Unknown
// platform tags (including "generic") get the plain JSON shape.
func buildPayload(platform string, repos []model.TrendingEntry, date string) any {
	title := "GitHub Trending - " + date

	switch platform {
	case "slack":
		blocks := []slackBlock{{Type: "header", Text: slackText{Type: "plain_text", Text: title}}}
		for _, repo := range capped(repos, maxBlockRepos) {
			blocks = append(blocks, slackBlock{
				Type: "section",
				Text: slackText{
					Type: "mrkdwn",
					Text: fmt.Sprintf("*<https://github.com/%s|%s>* %d stars\n%s",
						repo.FullName, repo.FullName, repo.Stars, deref(repo.Description, "")),
				},
			})
		}
		return map[string]any{"blocks": blocks}

	case "discord":
		fields := []discordField{}
		for _, repo := range capped(repos, maxBlockRepos) {
			fields = append(fields, discordField{
				Name:   fmt.Sprintf("%s - %d stars", repo.FullName, repo.Stars),
				Value:  deref(repo.Description, "No description"),
				Inline: false,
			})
		}
		return map[string]any{"embeds": []discordEmbed{{Title: title, Fields: fields}}}

	default:
		return map[string]any{"date": date, "repos": capped(repos, maxGenericRepos)}
	}
}

func (n *Notifier) post(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apperrors.FetchError{URL: url, StatusCode: resp.StatusCode}
	}
	return nil
}

func capped(repos []model.TrendingEntry, max int) []model.TrendingEntry {
	if len(repos) > max {
		return repos[:max]
	}
	return repos
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
