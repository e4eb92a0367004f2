package ports

import (
	"context"
	"time"

	"KeywordDigest/internal/domain"
)

// Searcher runs one query against a web search backend.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error)
}

// Extractor pulls best-effort plain text plus a detected publication date
// for a URL. Failure is reported through the content itself (empty text,
// method "failed"), never as an error.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) domain.ExtractedContent
}

// Summarizer generates a digest summary for one selected article.
// Failures degrade to a labeled fallback summary inside the result.
type Summarizer interface {
	Summarize(ctx context.Context, coreKeyword string, article domain.ScoredArticle) domain.SummaryResult
}

// Mailer formats and delivers the digest email.
type Mailer interface {
	SendDigest(ctx context.Context, runAt time.Time, articles []domain.SummarizedArticle) error
}

// SentHistory persists previously sent articles for deduplication.
type SentHistory interface {
	Init(ctx context.Context) error
	LoadRecent(ctx context.Context, windowDays int) (map[string]struct{}, []string, error)
	Save(ctx context.Context, sentAt time.Time, articles []domain.SummarizedArticle) error
}
