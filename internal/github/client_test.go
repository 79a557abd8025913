// internal/github/client_test.go
package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	gh "github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github-trending-tracker/internal/errors"
	"github-trending-tracker/internal/model"
)

// setupTestClient creates a httptest server and a client pointing to it.
func setupTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	client := NewClient("", logger)

	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	testClient := gh.NewClient(server.Client())
	testClient.BaseURL = base
	client.gh = testClient

	return client, server
}

func TestClient_SearchTrending(t *testing.T) {
	t.Run("maps search results to ranked entries", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/search/repositories", r.URL.Path)
			q := r.URL.Query()
			assert.Contains(t, q.Get("q"), "created:>")
			assert.Equal(t, "stars", q.Get("sort"))
			assert.Equal(t, "desc", q.Get("order"))
			assert.Equal(t, "30", q.Get("per_page"))

			fmt.Fprintln(w, `{"total_count": 2, "items": [
				{"full_name": "a/first", "name": "first", "owner": {"login": "a"},
				 "description": "top repo", "language": "Go",
				 "stargazers_count": 900, "forks_count": 40, "html_url": "https://github.com/a/first"},
				{"full_name": "b/second", "name": "second", "owner": {"login": "b"},
				 "stargazers_count": 500, "forks_count": 10, "html_url": "https://github.com/b/second"}
			]}`)
		})
		client, _ := setupTestClient(t, handler)

		entries, err := client.SearchTrending(context.Background(), model.PeriodDaily)

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "a/first", entries[0].FullName)
		assert.Equal(t, "a", entries[0].Owner)
		assert.Equal(t, 900, entries[0].Stars)
		assert.Equal(t, 1, entries[0].Rank)
		assert.Equal(t, 0, entries[0].StarsToday, "the search API has no stars-today delta")
		assert.Equal(t, 2, entries[1].Rank)
		assert.Nil(t, entries[1].Description)
	})

	t.Run("returns FetchError on a non-success status", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprintln(w, `{"message": "rate limited"}`)
		})
		client, _ := setupTestClient(t, handler)

		_, err := client.SearchTrending(context.Background(), model.PeriodDaily)

		var fetchErr *apperrors.FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, http.StatusForbidden, fetchErr.StatusCode)
	})
}

func TestDateThreshold(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-08-30", dateThreshold(model.PeriodDaily, now))
	assert.Equal(t, "2026-08-24", dateThreshold(model.PeriodWeekly, now))
	assert.Equal(t, "2026-08-01", dateThreshold(model.PeriodMonthly, now))
}

func TestClient_FetchRepoContent(t *testing.T) {
	readme := base64.StdEncoding.EncodeToString([]byte("# readme"))

	t.Run("combines best-effort sub-fetches", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/repos/o/r":
				fmt.Fprintln(w, `{"full_name": "o/r", "description": "a repo", "language": "Go",
					"stargazers_count": 10, "forks_count": 2, "topics": ["cli"],
					"license": {"spdx_id": "MIT"}, "created_at": "2024-01-01T00:00:00Z"}`)
			case "/repos/o/r/readme":
				fmt.Fprintf(w, `{"content": "%s", "encoding": "base64"}`, readme)
			case "/repos/o/r/git/trees/HEAD":
				fmt.Fprintln(w, `{"tree": [
					{"path": "main.go", "type": "blob"},
					{"path": "internal", "type": "tree"},
					{"path": "go.mod", "type": "blob"}
				]}`)
			case "/repos/o/r/languages":
				fmt.Fprintln(w, `{"Go": 1000, "Makefile": 50}`)
			default:
				// package.json lookup fails; the manifest stays absent.
				w.WriteHeader(http.StatusNotFound)
			}
		})
		client, _ := setupTestClient(t, handler)

		content, err := client.FetchRepoContent(context.Background(), "o", "r")

		require.NoError(t, err)
		assert.Equal(t, "o/r", content.Info.FullName)
		require.NotNil(t, content.Info.License)
		assert.Equal(t, "MIT", *content.Info.License)
		assert.Equal(t, "# readme", content.Readme)
		assert.Equal(t, []string{"main.go", "go.mod"}, content.FileTree)
		assert.Nil(t, content.Manifest)
		assert.Equal(t, map[string]int64{"Go": 1000, "Makefile": 50}, content.Languages)
	})

	t.Run("a failing metadata fetch aborts the extraction", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		client, _ := setupTestClient(t, handler)

		_, err := client.FetchRepoContent(context.Background(), "o", "r")

		var fetchErr *apperrors.FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode)
	})
}
