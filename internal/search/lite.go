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

const liteEndpoint = "https://lite.duckduckgo.com/lite/"

// LiteBackend scrapes the stripped-down DuckDuckGo Lite endpoint. It serves
// as the secondary strategy when the HTML endpoint is degraded or empty.
type LiteBackend struct {
	client   *http.Client
	endpoint string
	region   string
}

var _ Backend = (*LiteBackend)(nil)

// NewLiteBackend wires an HTTP client for the Lite endpoint.
func NewLiteBackend(client *http.Client, region string) *LiteBackend {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &LiteBackend{client: client, endpoint: liteEndpoint, region: region}
}

// Name identifies the backend inside the fallback chain.
func (b *LiteBackend) Name() string {
	return "duckduckgo-lite"
}

// Search fetches the Lite results table; each hit is one link row followed by
// a snippet row.
func (b *LiteBackend) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	if b.region != "" {
		params.Set("kl", b.region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo lite returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var results []domain.SearchResult
	doc.Find("a.result-link").EachWithBreak(func(i int, link *goquery.Selection) bool {
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		snippet := strings.TrimSpace(link.Closest("tr").Next().Find("td.result-snippet").Text())

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
