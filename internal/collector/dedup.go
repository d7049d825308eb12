package collector

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"ashare-data-collector/pkg/common"
	"ashare-data-collector/pkg/logger"
)

// DefaultDuplicateCutoff is the consecutive-duplicate count after which a
// news pass stops early when nothing new has been admitted yet.
const DefaultDuplicateCutoff = 100

// NewsDeduper admits news URLs at most once. Lookup order is in-run set,
// Redis fast path, then the news table. A Redis outage degrades to the
// database lookup instead of failing the pass.
type NewsDeduper struct {
	store  newsExistenceStore
	cache  newsURLCache
	log    *logger.Logger
	cutoff int

	seen               map[string]struct{}
	pending            []string
	admits             int
	consecutiveRejects int
}

// newsExistenceStore is the slice of NewsRepository the deduper needs.
type newsExistenceStore interface {
	Exists(ctx context.Context, url string) (bool, error)
}

// newsURLCache is the slice of the redis client the deduper needs.
type newsURLCache interface {
	Exists(ctx context.Context, keys ...string) *goredis.IntCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd
}

// NewNewsDeduper creates a deduper for one news pass. cache may be nil
// when Redis is not configured. A cutoff <= 0 uses the default.
func NewNewsDeduper(store newsExistenceStore, cache newsURLCache, log *logger.Logger, cutoff int) *NewsDeduper {
	if cutoff <= 0 {
		cutoff = DefaultDuplicateCutoff
	}
	return &NewsDeduper{
		store:  store,
		cache:  cache,
		log:    log,
		cutoff: cutoff,
		seen:   make(map[string]struct{}),
	}
}

// Admit reports whether the URL is new. Admitted URLs are remembered for
// the rest of the pass; they reach Redis only through MarkStored, once
// the caller has actually persisted them. URLs the database already
// holds are marked right away.
func (d *NewsDeduper) Admit(ctx context.Context, url string) (bool, error) {
	if url == "" {
		d.consecutiveRejects++
		return false, nil
	}

	if _, ok := d.seen[url]; ok {
		d.consecutiveRejects++
		return false, nil
	}

	if d.cacheHas(ctx, url) {
		d.seen[url] = struct{}{}
		d.consecutiveRejects++
		return false, nil
	}

	exists, err := d.store.Exists(ctx, url)
	if err != nil {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	if exists {
		d.seen[url] = struct{}{}
		d.cacheMark(ctx, url)
		d.consecutiveRejects++
		return false, nil
	}

	d.seen[url] = struct{}{}
	d.pending = append(d.pending, url)
	d.admits++
	d.consecutiveRejects = 0
	return true, nil
}

// MarkStored marks the admitted URLs in Redis. Call it only after the
// items were upserted; marking earlier would let a failed upsert hide
// the items from every later pass until the cache entries expire.
func (d *NewsDeduper) MarkStored(ctx context.Context) {
	for _, url := range d.pending {
		d.cacheMark(ctx, url)
	}
	d.pending = nil
}

// ShouldStop reports whether the pass has seen enough consecutive
// duplicates, with nothing admitted, to assume the rest of the feed is
// already stored.
func (d *NewsDeduper) ShouldStop() bool {
	return d.admits == 0 && d.consecutiveRejects >= d.cutoff
}

// Admitted returns how many URLs the pass has admitted so far.
func (d *NewsDeduper) Admitted() int {
	return d.admits
}

func (d *NewsDeduper) cacheHas(ctx context.Context, url string) bool {
	if d.cache == nil {
		return false
	}
	n, err := d.cache.Exists(ctx, common.RedisKeyNewsURLPrefix+url).Result()
	if err != nil {
		d.log.Warn("news dedup cache lookup failed, falling back to database",
			logger.ErrorField(err))
		return false
	}
	return n > 0
}

func (d *NewsDeduper) cacheMark(ctx context.Context, url string) {
	if d.cache == nil {
		return
	}
	err := d.cache.SetNX(ctx, common.RedisKeyNewsURLPrefix+url, 1, common.RedisNewsURLTTL).Err()
	if err != nil {
		d.log.Warn("news dedup cache mark failed",
			logger.ErrorField(err))
	}
}
