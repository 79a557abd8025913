// internal/api/rss.go
package api

import (
	"fmt"
	"net/http"
	"strings"

	"github-trending-tracker/internal/model"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// renderRSS renders trending rows as an RSS 2.0 document. Item descriptions
// prefer the analysis summary over the repository description; the guid pins
// an item to its snapshot date.
func renderRSS(rows []model.TrendingRow, appURL string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">` + "\n")
	b.WriteString("  <channel>\n")
	b.WriteString("    <title>GitHub Trending with AI Analysis</title>\n")
	fmt.Fprintf(&b, "    <link>%s</link>\n", appURL)
	b.WriteString("    <description>AI-powered GitHub trending repository analysis</description>\n")
	fmt.Fprintf(&b, `    <atom:link href="%s/feed/rss.xml" rel="self" type="application/rss+xml"/>`+"\n", appURL)
	b.WriteString("    <language>ko</language>\n")

	for _, row := range rows {
		description := ""
		if row.Summary != nil && *row.Summary != "" {
			description = *row.Summary
		} else if row.Description != nil {
			description = *row.Description
		}

		b.WriteString("    <item>\n")
		fmt.Fprintf(&b, "      <title>%s - %d stars</title>\n", escapeXML(row.FullName), row.Stars)
		fmt.Fprintf(&b, "      <link>https://github.com/%s</link>\n", row.FullName)
		fmt.Fprintf(&b, "      <description>%s</description>\n", escapeXML(description))
		fmt.Fprintf(&b, "      <pubDate>%s</pubDate>\n", row.CollectedAt.UTC().Format(http.TimeFormat))
		fmt.Fprintf(&b, "      <guid>%s/repo/%s#%s</guid>\n", appURL, row.FullName, row.Date)
		b.WriteString("    </item>\n")
	}

	b.WriteString("  </channel>\n")
	b.WriteString("</rss>\n")
	return b.String()
}

// escapeXML escapes the five reserved characters in a single pass, so
// already-produced entities are never escaped twice.
func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
