package collector

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ashare-data-collector/internal/provider"
)

func newsFeed(n int) []provider.Row {
	rows := make([]provider.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, provider.Row{
			"标题":   fmt.Sprintf("标题 %d", i),
			"摘要":   fmt.Sprintf("摘要 %d", i),
			"发布时间": "2024-01-05 14:30:05",
			"链接":   fmt.Sprintf("https://example.com/news/%d", i),
		})
	}
	return rows
}

func newNewsCollectorForTest(t *testing.T, market *fakeMarket, repo *fakeNewsRepo, cfg NewsConfig) *NewsCollector {
	t.Helper()
	return NewNewsCollector(market, repo, nil, nil, testLogger(t), cfg)
}

func TestNewsCollectCapsAdmittedItems(t *testing.T) {
	market := &fakeMarket{
		globalNews: func(ctx context.Context) ([]provider.Row, error) {
			return newsFeed(25), nil
		},
	}
	repo := &fakeNewsRepo{}
	c := newNewsCollectorForTest(t, market, repo, NewsConfig{})

	outcome := c.Collect(context.Background())

	assert.Equal(t, StateDone, outcome.State)
	assert.Equal(t, DefaultNewsMaxProcess, outcome.RowsWritten)
	assert.Len(t, repo.upserted, DefaultNewsMaxProcess)
}

func TestNewsCollectSkipsAlreadyStoredURLs(t *testing.T) {
	market := &fakeMarket{
		globalNews: func(ctx context.Context) ([]provider.Row, error) {
			return newsFeed(6), nil
		},
	}
	repo := &fakeNewsRepo{existing: map[string]bool{
		"https://example.com/news/0": true,
		"https://example.com/news/1": true,
		"https://example.com/news/2": true,
	}}
	c := newNewsCollectorForTest(t, market, repo, NewsConfig{})

	outcome := c.Collect(context.Background())

	assert.Equal(t, 3, outcome.RowsWritten)
	require.Len(t, repo.upserted, 3)
	assert.Equal(t, "https://example.com/news/3", repo.upserted[0].URL)
}

func TestNewsCollectStopsEarlyOnAllDuplicateFeed(t *testing.T) {
	feed := newsFeed(150)
	existing := make(map[string]bool, len(feed))
	for _, row := range feed {
		existing[row.Str("链接")] = true
	}
	market := &fakeMarket{
		globalNews: func(ctx context.Context) ([]provider.Row, error) {
			return feed, nil
		},
	}
	repo := &fakeNewsRepo{existing: existing}
	c := newNewsCollectorForTest(t, market, repo, NewsConfig{DuplicateCutoff: 100})

	outcome := c.Collect(context.Background())

	assert.Equal(t, StateDone, outcome.State)
	assert.Zero(t, outcome.RowsWritten)
	assert.Equal(t, 100, repo.existsCalls, "pass stops at the duplicate cutoff")
}

func TestNewsCollectNothingNewIsSuccess(t *testing.T) {
	market := &fakeMarket{
		globalNews: func(ctx context.Context) ([]provider.Row, error) {
			return newsFeed(0), nil
		},
	}
	repo := &fakeNewsRepo{}
	c := newNewsCollectorForTest(t, market, repo, NewsConfig{})

	outcome := c.Collect(context.Background())
	assert.Equal(t, StateDone, outcome.State)
	assert.True(t, outcome.Succeeded())
}

func TestNewsCollectFailsWhenFeedUnavailable(t *testing.T) {
	market := &fakeMarket{
		globalNews: func(ctx context.Context) ([]provider.Row, error) {
			return nil, fmt.Errorf("provider request failed after 3 attempts")
		},
	}
	c := newNewsCollectorForTest(t, market, &fakeNewsRepo{}, NewsConfig{})

	outcome := c.Collect(context.Background())
	assert.Equal(t, StateFailed, outcome.State)
	assert.False(t, outcome.Succeeded())
}

func TestNewsCollectReadmitsItemsAfterFailedUpsert(t *testing.T) {
	market := &fakeMarket{
		globalNews: func(ctx context.Context) ([]provider.Row, error) {
			return newsFeed(4), nil
		},
	}
	repo := &fakeNewsRepo{upsertErr: fmt.Errorf("write news_item: connection reset")}
	c := newNewsCollectorForTest(t, market, repo, NewsConfig{})
	c.cache = newFakeNewsCache()

	outcome := c.Collect(context.Background())
	require.Equal(t, StateFailed, outcome.State)
	assert.Empty(t, repo.upserted)

	repo.upsertErr = nil
	outcome = c.Collect(context.Background())
	assert.Equal(t, StateDone, outcome.State)
	assert.Equal(t, 4, outcome.RowsWritten, "items from the failed pass are picked up again")
	assert.Len(t, repo.upserted, 4)
}
