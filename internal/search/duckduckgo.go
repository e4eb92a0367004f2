package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"KeywordDigest/internal/domain"
)

const (
	htmlEndpoint = "https://html.duckduckgo.com/html/"
	userAgent    = "Mozilla/5.0 (compatible; keyword-digest-bot/1.0)"
)

// HTMLBackend scrapes the DuckDuckGo HTML endpoint.
type HTMLBackend struct {
	client   *http.Client
	endpoint string
	region   string
}

var _ Backend = (*HTMLBackend)(nil)

// NewHTMLBackend wires an HTTP client; region hints follow DuckDuckGo's
// kl parameter format (e.g. "kr-kr").
func NewHTMLBackend(client *http.Client, region string) *HTMLBackend {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTMLBackend{client: client, endpoint: htmlEndpoint, region: region}
}

// Name identifies the backend inside the fallback chain.
func (b *HTMLBackend) Name() string {
	return "duckduckgo"
}

// Search posts the query and parses result blocks out of the response page.
func (b *HTMLBackend) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	form := url.Values{}
	form.Set("q", query)
	if b.region != "" {
		form.Set("kl", b.region)
	}
	// p=-2 disables safe search.
	form.Set("p", "-2")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var results []domain.SearchResult
	doc.Find("div.result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		link := s.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		snippet := strings.TrimSpace(s.Find(".result__snippet").First().Text())

		target := resolveRedirect(href)
		if title == "" || target == "" {
			return true
		}

		results = append(results, domain.SearchResult{
			Query:   query,
			Title:   title,
			URL:     target,
			Snippet: snippet,
			Source:  b.Name(),
		})
		return len(results) < maxResults
	})

	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links to the real
// target URL.
func resolveRedirect(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	if parsed.Scheme == "" && parsed.Host != "" {
		parsed.Scheme = "https"
		return parsed.String()
	}

	return href
}
