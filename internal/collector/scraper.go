// internal/collector/scraper.go
package collector

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	apperrors "github-trending-tracker/internal/errors"
	"github-trending-tracker/internal/model"
)

// The trending page serves a different (sparser) markup to non-browser
// agents, so requests identify as a desktop browser.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

var digitsRe = regexp.MustCompile(`(\d+)`)

// Scraper fetches and parses the rendered trending page.
type Scraper struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewScraper creates a Scraper against the given trending page base URL.
func NewScraper(baseURL string, logger *slog.Logger) *Scraper {
	return &Scraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		logger:  logger,
	}
}

// Fetch retrieves the trending page for a period (optionally narrowed to one
// language) and parses it into ranked entries. A non-success response yields
// *errors.FetchError; entry blocks without a repository link are skipped.
func (s *Scraper) Fetch(ctx context.Context, period model.Period, language string) ([]model.TrendingEntry, error) {
	pageURL := s.baseURL
	if language != "" {
		pageURL += "/" + url.PathEscape(language)
	}
	pageURL += "?since=" + string(period)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperrors.FetchError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	entries := []model.TrendingEntry{}
	doc.Find("article.Box-row").Each(func(i int, el *goquery.Selection) {
		href, ok := el.Find("h2 a").Attr("href")
		if !ok {
			return
		}
		fullName := strings.TrimPrefix(strings.TrimSpace(href), "/")
		owner, name, ok := strings.Cut(fullName, "/")
		if !ok || owner == "" || name == "" {
			return
		}

		entries = append(entries, model.TrendingEntry{
			FullName:    fullName,
			Owner:       owner,
			Name:        name,
			Description: optionalText(el.Find("p.col-9")),
			Language:    optionalText(el.Find(`[itemprop="programmingLanguage"]`)),
			Stars:       parseCount(el.Find(`a[href$="/stargazers"]`).Text()),
			Forks:       parseCount(el.Find(`a[href$="/forks"]`).Text()),
			StarsToday:  parseCount(el.Find("span.d-inline-block.float-sm-right").Text()),
			Rank:        i + 1,
			URL:         "https://github.com/" + fullName,
		})
	})

	s.logger.Debug("Parsed trending page", "period", period, "entries", len(entries))
	return entries, nil
}

// parseCount extracts the first integer group from free text, with thousands
// separators stripped. Missing digits yield 0.
func parseCount(text string) int {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	match := digitsRe.FindString(cleaned)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}

func optionalText(sel *goquery.Selection) *string {
	text := strings.TrimSpace(sel.Text())
	if text == "" {
		return nil
	}
	return &text
}
