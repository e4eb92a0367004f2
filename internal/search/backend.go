// Package search dispatches queries to web search backends and normalizes
// their rows into domain.SearchResult values.
package search

import (
	"context"
	"log/slog"

	"KeywordDigest/internal/domain"
	"KeywordDigest/internal/ports"
)

// Backend captures a single search strategy (DuckDuckGo HTML, Lite, etc.).
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error)
}

// Chain offers each query to its backends in order and returns the first
// non-empty row set. A backend error or an empty result moves on to the next
// backend; when every backend comes up empty the query simply contributes
// zero rows.
type Chain struct {
	backends []Backend
	logger   *slog.Logger
}

var _ ports.Searcher = (*Chain)(nil)

// NewChain wires an ordered backend list.
func NewChain(logger *slog.Logger, backends ...Backend) *Chain {
	return &Chain{backends: backends, logger: logger}
}

// Search runs one query through the fallback chain.
func (c *Chain) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	for _, backend := range c.backends {
		results, err := backend.Search(ctx, query, maxResults)
		if err != nil {
			c.warn("search backend failed", "backend", backend.Name(), "query", query, "error", err)
			continue
		}
		if len(results) == 0 {
			c.warn("search backend returned no rows", "backend", backend.Name(), "query", query)
			continue
		}
		return results, nil
	}

	return nil, nil
}

func (c *Chain) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
