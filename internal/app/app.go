// Package app assembles the pipeline from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"KeywordDigest/internal/config"
	"KeywordDigest/internal/domain"
	"KeywordDigest/internal/extract"
	"KeywordDigest/internal/llm"
	"KeywordDigest/internal/mailer"
	"KeywordDigest/internal/search"
	"KeywordDigest/internal/storage"
	"KeywordDigest/internal/usecase"
)

// Application owns every wired component for one process lifetime.
type Application struct {
	pipeline *usecase.Pipeline
	store    *storage.Store
	logger   *slog.Logger
}

// New builds the full dependency graph. The HTML search backend is primary
// and the Lite endpoint is the fallback.
func New(cfg config.Config, logger *slog.Logger) (*Application, error) {
	store, err := storage.NewStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open sent history store: %w", err)
	}

	searchClient := &http.Client{Timeout: 20 * time.Second}
	searcher := search.NewChain(logger,
		search.NewHTMLBackend(searchClient, cfg.Search.Region),
		search.NewLiteBackend(searchClient, cfg.Search.Region),
	)

	pipeline := usecase.NewPipeline(cfg, usecase.PipelineDeps{
		Searcher:   searcher,
		Extractor:  extract.NewFetcher(cfg.FetchTimeout(), logger),
		Summarizer: llm.NewSummarizer(cfg.OpenAI, logger),
		Mailer:     mailer.NewMailer(cfg.SMTP, cfg.Keyword.Core, cfg.Timezone),
		History:    store,
		Logger:     logger,
	})

	return &Application{pipeline: pipeline, store: store, logger: logger}, nil
}

// Run performs a single digest cycle.
func (a *Application) Run(ctx context.Context, dryRun bool) (domain.RunReport, error) {
	return a.pipeline.Run(ctx, dryRun)
}

// Close releases held resources.
func (a *Application) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing sent history store", "error", err)
	}
}
