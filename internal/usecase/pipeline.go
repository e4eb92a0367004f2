// Package usecase drives a single digest run: search, rank, extract,
// summarize, deliver, persist.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"KeywordDigest/internal/config"
	"KeywordDigest/internal/domain"
	"KeywordDigest/internal/ports"
	"KeywordDigest/internal/rank"
	"KeywordDigest/internal/search"
)

const failedURLSampleLimit = 5

// PipelineDeps lists the collaborators the pipeline orchestrates.
type PipelineDeps struct {
	Searcher   ports.Searcher
	Extractor  ports.Extractor
	Summarizer ports.Summarizer
	Mailer     ports.Mailer
	History    ports.SentHistory
	Logger     *slog.Logger
}

// Pipeline runs the whole digest flow once per invocation.
type Pipeline struct {
	cfg  config.Config
	deps PipelineDeps
}

func NewPipeline(cfg config.Config, deps PipelineDeps) *Pipeline {
	return &Pipeline{cfg: cfg, deps: deps}
}

// Run executes one digest cycle. With dryRun set the selection and
// summarization happen as usual but nothing is emailed or persisted.
func (p *Pipeline) Run(ctx context.Context, dryRun bool) (domain.RunReport, error) {
	runAt := time.Now().In(p.cfg.Location())
	report := domain.RunReport{
		RunAt:          runAt,
		FailureReasons: make(map[domain.SummaryReason]int),
		DryRun:         dryRun,
	}

	if err := p.deps.History.Init(ctx); err != nil {
		return report, fmt.Errorf("init sent history: %w", err)
	}

	selected, searched, candidates, err := p.collectCandidates(ctx)
	if err != nil {
		return report, err
	}
	report.SearchedCount = searched
	report.CandidateCount = candidates
	report.SelectedCount = len(selected)

	summarized := p.summarizeAll(ctx, selected, &report)
	report.SummarizedCount = len(summarized)

	if dryRun {
		p.deps.Logger.Info("dry run, skipping email and history save",
			"selected", report.SelectedCount, "summarized", report.SummarizedCount)
		return report, nil
	}

	if err := p.deps.Mailer.SendDigest(ctx, runAt, summarized); err != nil {
		return report, fmt.Errorf("send digest: %w", err)
	}
	report.SentEmail = true

	if err := p.deps.History.Save(ctx, runAt.UTC(), summarized); err != nil {
		return report, fmt.Errorf("save sent history: %w", err)
	}

	return report, nil
}

// collectCandidates gathers search results across all expanded queries,
// deduplicates by canonical URL, pre-ranks on title+snippet, and then runs
// the expensive extraction pass over the top candidates until MaxItems
// articles clear the final threshold.
func (p *Pipeline) collectCandidates(ctx context.Context) (selected []domain.ScoredArticle, searched, candidates int, err error) {
	queries := search.BuildQueries(p.cfg.Keyword.Core, p.cfg.Keyword.Related)

	seen := make(map[string]struct{})
	var raw []domain.SearchResult
	var unique []domain.ScoredArticle

	for _, query := range queries {
		results, searchErr := p.deps.Searcher.Search(ctx, query, p.cfg.Search.ResultsPerQuery)
		if searchErr != nil {
			p.deps.Logger.Warn("search query failed", "query", query, "error", searchErr)
			continue
		}
		raw = append(raw, results...)
		for _, result := range results {
			canonical := rank.CanonicalURL(result.URL)
			if canonical == "" {
				continue
			}
			if _, dup := seen[canonical]; dup {
				continue
			}
			seen[canonical] = struct{}{}
			unique = append(unique, domain.ScoredArticle{Result: result, CanonicalURL: canonical})
		}
	}
	searched = len(raw)

	var preRanked []domain.ScoredArticle
	for _, article := range unique {
		score := rank.ScoreRelevance(p.cfg.Keyword.Core, p.cfg.Keyword.Related,
			article.Result.Title, article.Result.Snippet, "")
		if score < p.cfg.Pipeline.PreScoreThreshold {
			continue
		}
		article.Score = score
		preRanked = append(preRanked, article)
	}
	candidates = len(preRanked)

	sort.SliceStable(preRanked, func(i, j int) bool {
		return preRanked[i].Score > preRanked[j].Score
	})

	fetchLimit := p.cfg.Pipeline.MaxItems*5
	if alt := p.cfg.Pipeline.MaxItems + 10; alt > fetchLimit {
		fetchLimit = alt
	}
	if len(preRanked) > fetchLimit {
		preRanked = preRanked[:fetchLimit]
	}

	sentURLs, sentTitles, err := p.deps.History.LoadRecent(ctx, p.cfg.Pipeline.DedupeDays)
	if err != nil {
		return nil, searched, candidates, fmt.Errorf("load sent history: %w", err)
	}

	acceptedTitles := append([]string(nil), sentTitles...)

	for _, article := range preRanked {
		if _, alreadySent := sentURLs[article.CanonicalURL]; alreadySent {
			continue
		}
		if rank.IsSimilarTitle(article.Result.Title, acceptedTitles, rank.SimilarityThreshold) {
			p.deps.Logger.Debug("skipping near-duplicate title", "title", article.Result.Title)
			continue
		}

		content := p.deps.Extractor.Extract(ctx, article.Result.URL)
		article.ExtractedText = content.Text
		article.ExtractionMethod = content.Method

		finalScore := rank.ScoreRelevance(p.cfg.Keyword.Core, p.cfg.Keyword.Related,
			article.Result.Title, article.Result.Snippet, content.Text)
		if finalScore < p.cfg.Pipeline.FinalScoreThreshold {
			continue
		}
		article.Score = finalScore

		article.PublishedAt = content.PublishedAt
		if article.PublishedAt == "" {
			article.PublishedAt = article.Result.PublishedAt
		}

		acceptedTitles = append(acceptedTitles, article.Result.Title)
		selected = append(selected, article)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Score > selected[j].Score
	})
	if len(selected) > p.cfg.Pipeline.MaxItems {
		selected = selected[:p.cfg.Pipeline.MaxItems]
	}

	return selected, searched, candidates, nil
}

// summarizeAll produces one digest entry per selected article. Summarization
// failures degrade to the excerpt fallback produced by the summarizer, so
// every selected article still ships.
func (p *Pipeline) summarizeAll(ctx context.Context, selected []domain.ScoredArticle, report *domain.RunReport) []domain.SummarizedArticle {
	summarized := make([]domain.SummarizedArticle, 0, len(selected))

	for _, article := range selected {
		result := p.deps.Summarizer.Summarize(ctx, p.cfg.Keyword.Core, article)
		if result.Success {
			report.SummaryOKCount++
		} else {
			report.SummaryFailedCount++
			report.FailureReasons[result.Reason]++
			if len(report.FailedURLs) < failedURLSampleLimit {
				report.FailedURLs = append(report.FailedURLs, article.CanonicalURL)
			}
			p.deps.Logger.Warn("summarization fell back to excerpt",
				"url", article.CanonicalURL, "reason", string(result.Reason))
		}

		summarized = append(summarized, domain.SummarizedArticle{
			Title:       article.Result.Title,
			URL:         article.CanonicalURL,
			Score:       article.Score,
			Summary:     result.Text,
			PublishedAt: article.PublishedAt,
		})
	}

	return summarized
}
