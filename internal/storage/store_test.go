package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"KeywordDigest/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "digest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Init(context.Background()))
	return store
}

func TestInitIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	require.NoError(t, store.Init(context.Background()))
}

func TestSaveAndLoadRecent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	sentAt := time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)
	articles := []domain.SummarizedArticle{
		{URL: "https://a.com/1", Title: "첫 기사", Score: 120, Summary: "요약"},
		{URL: "https://a.com/2", Title: "둘째 기사", Score: 90, Summary: "요약"},
	}
	require.NoError(t, store.Save(ctx, sentAt, articles))

	store.now = func() time.Time { return sentAt.Add(24 * time.Hour) }

	urls, titles, err := store.LoadRecent(ctx, 7)
	require.NoError(t, err)
	require.Len(t, urls, 2)
	require.Contains(t, urls, "https://a.com/1")
	require.ElementsMatch(t, []string{"첫 기사", "둘째 기사"}, titles)
}

func TestLoadRecentWindowBoundaryInclusive(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	// Exactly at the cutoff: included.
	onBoundary := now.AddDate(0, 0, -7)
	require.NoError(t, store.Save(ctx, onBoundary, []domain.SummarizedArticle{
		{URL: "https://a.com/boundary", Title: "boundary"},
	}))

	// One second older than the cutoff: excluded.
	require.NoError(t, store.Save(ctx, onBoundary.Add(-time.Second), []domain.SummarizedArticle{
		{URL: "https://a.com/stale", Title: "stale"},
	}))

	urls, titles, err := store.LoadRecent(ctx, 7)
	require.NoError(t, err)
	require.Contains(t, urls, "https://a.com/boundary")
	require.NotContains(t, urls, "https://a.com/stale")
	require.Equal(t, []string{"boundary"}, titles)
}

func TestSaveUpsertsOnURLConflict(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	first := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, first, []domain.SummarizedArticle{
		{URL: "https://a.com/1", Title: "old title"},
	}))

	second := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, second, []domain.SummarizedArticle{
		{URL: "https://a.com/1", Title: "new title"},
	}))

	store.now = func() time.Time { return second }

	urls, titles, err := store.LoadRecent(ctx, 7)
	require.NoError(t, err)
	require.Len(t, urls, 1)
	require.Equal(t, []string{"new title"}, titles)

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM sent_articles").Scan(&count))
	require.Equal(t, 1, count)
}

func TestSaveEmptyIsNoOp(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	require.NoError(t, store.Save(context.Background(), time.Now(), nil))
}
