package domain

import "time"

// SearchResult is a single hit returned by a search backend. Results may
// repeat across queries; deduplication happens later on the canonical URL.
type SearchResult struct {
	Query       string
	Title       string
	URL         string
	Snippet     string
	Source      string
	PublishedAt string
}

// ExtractedContent is the best-effort plain text pulled from an article URL.
// Text is empty when every strategy failed; Method records which strategy
// produced the text and is used for diagnostics only.
type ExtractedContent struct {
	Text        string
	Method      string
	PublishedAt string
}

// Extraction method markers.
const (
	MethodReadability = "readability"
	MethodParagraphs  = "paragraphs"
	MethodFailed      = "failed"
)

// ScoredArticle is a candidate that survived the full selection funnel.
// Immutable once the final score is assigned.
type ScoredArticle struct {
	Result           SearchResult
	CanonicalURL     string
	ExtractedText    string
	ExtractionMethod string
	Score            int
	PublishedAt      string
}

// SummaryReason classifies the outcome of one summarization attempt.
type SummaryReason string

const (
	SummaryOK          SummaryReason = "ok"
	SummaryEmptyOutput SummaryReason = "empty_output"
	SummaryAPIError    SummaryReason = "api_error"
)

// SummaryResult carries generated text or a labeled fallback.
type SummaryResult struct {
	Text    string
	Success bool
	Reason  SummaryReason
}

// SummarizedArticle is the unit that gets emailed and persisted.
type SummarizedArticle struct {
	Title       string
	URL         string
	Score       int
	Summary     string
	PublishedAt string
}

// SentRecord mirrors one row of the sent-history store.
type SentRecord struct {
	URL       string
	Title     string
	SentAtUTC time.Time
}

// RunReport aggregates counters for one pipeline execution. It exists only
// for the duration of the run and is logged at the end.
type RunReport struct {
	RunAt              time.Time
	SearchedCount      int
	CandidateCount     int
	SelectedCount      int
	SummarizedCount    int
	SummaryOKCount     int
	SummaryFailedCount int
	FailureReasons     map[SummaryReason]int
	FailedURLs         []string
	SentEmail          bool
	DryRun             bool
}
