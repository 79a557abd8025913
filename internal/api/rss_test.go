// internal/api/rss_test.go
package api

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github-trending-tracker/internal/model"
)

func strPtr(s string) *string { return &s }

func TestRenderRSS(t *testing.T) {
	collected := time.Date(2026, 8, 31, 6, 15, 0, 0, time.UTC)

	t.Run("escapes every reserved character exactly once", func(t *testing.T) {
		rows := []model.TrendingRow{{
			FullName:    "o/r",
			Stars:       10,
			Date:        "2026-08-31",
			Description: strPtr(`Some <b>"bold"</b> & more`),
			CollectedAt: collected,
		}}

		feed := renderRSS(rows, "https://trending.example.com")

		want := "<description>Some &lt;b&gt;&quot;bold&quot;&lt;/b&gt; &amp; more</description>"
		assert.Equal(t, 1, strings.Count(feed, want))
		assert.NotContains(t, feed, "&amp;lt;")
		assert.NotContains(t, feed, "&amp;quot;")
	})

	t.Run("prefers the analysis summary over the description", func(t *testing.T) {
		rows := []model.TrendingRow{{
			FullName:    "o/r",
			Stars:       10,
			Date:        "2026-08-31",
			Description: strPtr("plain description"),
			Summary:     strPtr("it's an <AI> summary"),
			CollectedAt: collected,
		}}

		feed := renderRSS(rows, "https://trending.example.com")

		assert.Contains(t, feed, "<description>it&apos;s an &lt;AI&gt; summary</description>")
		assert.NotContains(t, feed, "plain description")
	})

	t.Run("renders item metadata", func(t *testing.T) {
		rows := []model.TrendingRow{{
			FullName:    "golang/go",
			Stars:       120000,
			Date:        "2026-08-31",
			CollectedAt: collected,
		}}

		feed := renderRSS(rows, "https://trending.example.com")

		assert.Contains(t, feed, "<title>golang/go - 120000 stars</title>")
		assert.Contains(t, feed, "<link>https://github.com/golang/go</link>")
		assert.Contains(t, feed, "<pubDate>Mon, 31 Aug 2026 06:15:00 GMT</pubDate>")
		assert.Contains(t, feed, "<guid>https://trending.example.com/repo/golang/go#2026-08-31</guid>")
	})

	t.Run("an empty listing is still a valid channel", func(t *testing.T) {
		feed := renderRSS(nil, "https://trending.example.com")

		require.Contains(t, feed, `<rss version="2.0"`)
		assert.Contains(t, feed, "<title>GitHub Trending with AI Analysis</title>")
		assert.NotContains(t, feed, "<item>")
	})
}
