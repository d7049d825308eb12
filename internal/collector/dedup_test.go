package collector

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ashare-data-collector/pkg/common"
)

func TestNewsDeduperAdmitsOnlyUnseenURLs(t *testing.T) {
	repo := &fakeNewsRepo{existing: map[string]bool{
		"https://example.com/old-1": true,
		"https://example.com/old-2": true,
	}}
	d := NewNewsDeduper(repo, nil, testLogger(t), 0)
	ctx := context.Background()

	urls := []string{
		"https://example.com/old-1",
		"https://example.com/old-2",
		"https://example.com/new-1",
		"https://example.com/new-2",
		"https://example.com/new-3",
	}
	admitted := 0
	for _, url := range urls {
		ok, err := d.Admit(ctx, url)
		require.NoError(t, err)
		if ok {
			admitted++
		}
	}

	assert.Equal(t, 3, admitted)
	assert.Equal(t, 3, d.Admitted())
}

func TestNewsDeduperRejectsRepeatsWithinRun(t *testing.T) {
	repo := &fakeNewsRepo{}
	d := NewNewsDeduper(repo, nil, testLogger(t), 0)
	ctx := context.Background()

	ok, err := d.Admit(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.Admit(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, repo.existsCalls, "repeat resolved from the in-run set")
}

func TestNewsDeduperStopsAfterConsecutiveDuplicates(t *testing.T) {
	existing := make(map[string]bool)
	for i := 0; i < 150; i++ {
		existing[fmt.Sprintf("https://example.com/%d", i)] = true
	}
	repo := &fakeNewsRepo{existing: existing}
	d := NewNewsDeduper(repo, nil, testLogger(t), 100)
	ctx := context.Background()

	processed := 0
	for i := 0; i < 150 && !d.ShouldStop(); i++ {
		_, err := d.Admit(ctx, fmt.Sprintf("https://example.com/%d", i))
		require.NoError(t, err)
		processed++
	}

	assert.Equal(t, 100, processed, "stops at the duplicate cutoff")
	assert.True(t, d.ShouldStop())
}

func TestNewsDeduperNeverStopsOnceSomethingAdmitted(t *testing.T) {
	existing := make(map[string]bool)
	for i := 0; i < 150; i++ {
		existing[fmt.Sprintf("https://example.com/%d", i)] = true
	}
	repo := &fakeNewsRepo{existing: existing}
	d := NewNewsDeduper(repo, nil, testLogger(t), 100)
	ctx := context.Background()

	ok, err := d.Admit(ctx, "https://example.com/fresh")
	require.NoError(t, err)
	require.True(t, ok)

	for i := 0; i < 150; i++ {
		_, err := d.Admit(ctx, fmt.Sprintf("https://example.com/%d", i))
		require.NoError(t, err)
	}
	assert.False(t, d.ShouldStop(), "early exit only applies to all-duplicate passes")
}

func TestNewsDeduperMarksCacheOnlyAfterStore(t *testing.T) {
	cache := newFakeNewsCache()
	repo := &fakeNewsRepo{}
	d := NewNewsDeduper(repo, cache, testLogger(t), 0)
	ctx := context.Background()

	ok, err := d.Admit(ctx, "https://example.com/fresh")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, cache.marked, "admitted URLs are not cached before the store succeeds")

	d.MarkStored(ctx)
	_, marked := cache.marked[common.RedisKeyNewsURLPrefix+"https://example.com/fresh"]
	assert.True(t, marked)

	next := NewNewsDeduper(repo, cache, testLogger(t), 0)
	ok, err = next.Admit(ctx, "https://example.com/fresh")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, repo.existsCalls, "cached URL rejected without a database lookup")
}

func TestNewsDeduperCachesKnownURLsImmediately(t *testing.T) {
	cache := newFakeNewsCache()
	repo := &fakeNewsRepo{existing: map[string]bool{"https://example.com/old": true}}
	d := NewNewsDeduper(repo, cache, testLogger(t), 0)

	ok, err := d.Admit(context.Background(), "https://example.com/old")
	require.NoError(t, err)
	assert.False(t, ok)
	_, marked := cache.marked[common.RedisKeyNewsURLPrefix+"https://example.com/old"]
	assert.True(t, marked, "URLs the database already holds are safe to cache at once")
}
