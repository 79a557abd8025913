// internal/notifier/webhook_test.go
package notifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github-trending-tracker/internal/model"
	"github-trending-tracker/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func strPtr(s string) *string { return &s }

func repoList() []model.TrendingEntry {
	return []model.TrendingEntry{
		{FullName: "a/one", Language: strPtr("Rust"), Stars: 50},
		{FullName: "b/two", Language: strPtr("Rust"), Stars: 150},
		{FullName: "c/three", Language: strPtr("Rust"), Stars: 300},
		{FullName: "d/four", Language: strPtr("Go"), Stars: 500},
		{FullName: "e/five", Language: strPtr("Python"), Stars: 1000},
	}
}

func subscription(id int64, url, platform string, filters *string) model.WebhookSubscription {
	return model.WebhookSubscription{
		ID: id, URL: url, Platform: platform, Filters: filters,
		IsActive: true, CreatedAt: time.Now(),
	}
}

func TestNotifier_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("applies language and star filters", func(t *testing.T) {
		var body []byte
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			body, _ = io.ReadAll(r.Body)
		}))
		defer server.Close()

		mockStore := new(store.Mock)
		mockStore.On("ListActiveSubscriptions", ctx).Return([]model.WebhookSubscription{
			subscription(1, server.URL, "generic", strPtr(`{"language":"Rust","minStars":100}`)),
		}, nil).Once()

		New(mockStore, testLogger()).Send(ctx, repoList(), "2026-08-31")

		var payload struct {
			Date  string                `json:"date"`
			Repos []model.TrendingEntry `json:"repos"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "2026-08-31", payload.Date)
		require.Len(t, payload.Repos, 2)
		assert.Equal(t, "b/two", payload.Repos[0].FullName)
		assert.Equal(t, "c/three", payload.Repos[1].FullName)
		mockStore.AssertExpectations(t)
	})

	t.Run("skips a subscriber whose filtered list is empty", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
		}))
		defer server.Close()

		mockStore := new(store.Mock)
		mockStore.On("ListActiveSubscriptions", ctx).Return([]model.WebhookSubscription{
			subscription(1, server.URL, "generic", strPtr(`{"language":"Haskell"}`)),
		}, nil).Once()

		New(mockStore, testLogger()).Send(ctx, repoList(), "2026-08-31")

		assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "no empty notification is ever sent")
	})

	t.Run("malformed filters mean no filtering", func(t *testing.T) {
		var body []byte
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ = io.ReadAll(r.Body)
		}))
		defer server.Close()

		mockStore := new(store.Mock)
		mockStore.On("ListActiveSubscriptions", ctx).Return([]model.WebhookSubscription{
			subscription(1, server.URL, "generic", strPtr(`{not json`)),
		}, nil).Once()

		New(mockStore, testLogger()).Send(ctx, repoList(), "2026-08-31")

		var payload struct {
			Repos []model.TrendingEntry `json:"repos"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Len(t, payload.Repos, 5)
	})

	t.Run("one failing subscriber does not block the others", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer failing.Close()

		var delivered int32
		healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&delivered, 1)
		}))
		defer healthy.Close()

		mockStore := new(store.Mock)
		mockStore.On("ListActiveSubscriptions", ctx).Return([]model.WebhookSubscription{
			subscription(1, failing.URL, "generic", nil),
			subscription(2, healthy.URL, "generic", nil),
		}, nil).Once()

		New(mockStore, testLogger()).Send(ctx, repoList(), "2026-08-31")

		assert.Equal(t, int32(1), atomic.LoadInt32(&delivered))
	})
}

func TestBuildPayload(t *testing.T) {
	date := "2026-08-31"

	t.Run("slack renders a header and up to 10 sections", func(t *testing.T) {
		repos := make([]model.TrendingEntry, 12)
		for i := range repos {
			repos[i] = model.TrendingEntry{FullName: "o/r", Stars: i, Description: strPtr("desc")}
		}

		payload := buildPayload("slack", repos, date)
		raw, err := json.Marshal(payload)
		require.NoError(t, err)

		var decoded struct {
			Blocks []struct {
				Type string `json:"type"`
				Text struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"text"`
			} `json:"blocks"`
		}
		require.NoError(t, json.Unmarshal(raw, &decoded))
		require.Len(t, decoded.Blocks, 11)
		assert.Equal(t, "header", decoded.Blocks[0].Type)
		assert.Equal(t, "GitHub Trending - 2026-08-31", decoded.Blocks[0].Text.Text)
		assert.Equal(t, "section", decoded.Blocks[1].Type)
		assert.Contains(t, decoded.Blocks[1].Text.Text, "*<https://github.com/o/r|o/r>*")
	})

	t.Run("discord falls back to No description", func(t *testing.T) {
		payload := buildPayload("discord", []model.TrendingEntry{{FullName: "o/r", Stars: 42}}, date)
		raw, err := json.Marshal(payload)
		require.NoError(t, err)

		var decoded struct {
			Embeds []struct {
				Title  string `json:"title"`
				Fields []struct {
					Name   string `json:"name"`
					Value  string `json:"value"`
					Inline bool   `json:"inline"`
				} `json:"fields"`
			} `json:"embeds"`
		}
		require.NoError(t, json.Unmarshal(raw, &decoded))
		require.Len(t, decoded.Embeds, 1)
		assert.Equal(t, "GitHub Trending - 2026-08-31", decoded.Embeds[0].Title)
		require.Len(t, decoded.Embeds[0].Fields, 1)
		assert.Equal(t, "o/r - 42 stars", decoded.Embeds[0].Fields[0].Name)
		assert.Equal(t, "No description", decoded.Embeds[0].Fields[0].Value)
		assert.False(t, decoded.Embeds[0].Fields[0].Inline)
	})

	t.Run("unknown platforms get the generic shape capped at 25", func(t *testing.T) {
		repos := make([]model.TrendingEntry, 30)
		for i := range repos {
			repos[i] = model.TrendingEntry{FullName: "o/r"}
		}

		payload := buildPayload("teams", repos, date)
		raw, err := json.Marshal(payload)
		require.NoError(t, err)

		var decoded struct {
			Date  string                `json:"date"`
			Repos []model.TrendingEntry `json:"repos"`
		}
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, date, decoded.Date)
		assert.Len(t, decoded.Repos, 25)
	})
}
