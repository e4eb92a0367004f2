// Package extract pulls plain article text out of candidate URLs. Strategies
// are tried in order: readability first, then a generic paragraph scrape; a
// strategy's output only counts when it yields more than a minimal amount of
// text.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"KeywordDigest/internal/domain"
	"KeywordDigest/internal/ports"
)

const (
	// Minimum extracted text length, in characters, for a strategy to count.
	minTextLength = 80

	userAgent    = "Mozilla/5.0 (compatible; keyword-digest-bot/1.0)"
	maxBodyBytes = 4 << 20
)

// Fetcher downloads a page once and runs the extraction strategies over it.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

var _ ports.Extractor = (*Fetcher)(nil)

// NewFetcher wires an HTTP client with the per-URL timeout.
func NewFetcher(timeout time.Duration, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Extract returns best-effort article text and a detected publication date.
// Every failure degrades to empty content with the "failed" marker; it never
// returns an error, so one bad URL cannot abort a run.
func (f *Fetcher) Extract(ctx context.Context, pageURL string) domain.ExtractedContent {
	body, err := f.fetch(ctx, pageURL)
	if err != nil {
		f.warn("fetch failed", "url", pageURL, "error", err)
		return domain.ExtractedContent{Method: domain.MethodFailed}
	}

	if content, ok := extractReadable(body, pageURL); ok {
		return content
	}
	if content, ok := extractParagraphs(body); ok {
		return content
	}

	f.warn("no extraction strategy produced text", "url", pageURL)
	return domain.ExtractedContent{Method: domain.MethodFailed}
}

func (f *Fetcher) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}

	return body, nil
}

// extractReadable runs the readability algorithm over the document.
func extractReadable(body []byte, pageURL string) (domain.ExtractedContent, bool) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = nil
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return domain.ExtractedContent{}, false
	}

	text := strings.TrimSpace(article.TextContent)
	if utf8.RuneCountInString(text) <= minTextLength {
		return domain.ExtractedContent{}, false
	}

	publishedAt := ""
	if article.PublishedTime != nil {
		publishedAt = article.PublishedTime.Format(time.RFC3339)
	}

	return domain.ExtractedContent{
		Text:        text,
		Method:      domain.MethodReadability,
		PublishedAt: publishedAt,
	}, true
}

// extractParagraphs is the generic fallback: join the text of every <p> tag.
func extractParagraphs(body []byte) (domain.ExtractedContent, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.ExtractedContent{}, false
	}

	var paragraphs []string
	doc.Find("p").Each(func(i int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	text := strings.TrimSpace(strings.Join(paragraphs, "\n"))
	if utf8.RuneCountInString(text) <= minTextLength {
		return domain.ExtractedContent{}, false
	}

	return domain.ExtractedContent{
		Text:        text,
		Method:      domain.MethodParagraphs,
		PublishedAt: publishedFromDoc(doc),
	}, true
}

// Meta tags checked, in order, for a publication date.
var publishedMetaKeys = []struct {
	attr  string
	value string
}{
	{"property", "article:published_time"},
	{"property", "og:published_time"},
	{"name", "pubdate"},
	{"name", "publishdate"},
	{"name", "publication_date"},
	{"name", "date"},
	{"name", "dc.date"},
	{"itemprop", "datePublished"},
}

func publishedFromDoc(doc *goquery.Document) string {
	for _, key := range publishedMetaKeys {
		selector := fmt.Sprintf("meta[%s=%q]", key.attr, key.value)
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if trimmed := strings.TrimSpace(content); trimmed != "" {
				return trimmed
			}
		}
	}

	timeTag := doc.Find("time").First()
	if datetime, ok := timeTag.Attr("datetime"); ok {
		if trimmed := strings.TrimSpace(datetime); trimmed != "" {
			return trimmed
		}
	}
	return strings.TrimSpace(timeTag.Text())
}

func (f *Fetcher) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
