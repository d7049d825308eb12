package collector

import (
	"context"
	"fmt"
	"time"

	"ashare-data-collector/internal/entity"
	"ashare-data-collector/internal/provider"
	"ashare-data-collector/internal/repository"
	"ashare-data-collector/pkg/logger"
	"ashare-data-collector/pkg/redis"
	"ashare-data-collector/pkg/utils"
)

// DefaultNewsMaxProcess caps admitted news items per pass. The feed is
// polled frequently, so a small cap keeps each pass cheap while still
// draining everything new over a day.
const DefaultNewsMaxProcess = 10

// DefaultNewsRetention is how long stored news items are kept.
const DefaultNewsRetention = 7 * 24 * time.Hour

// ContentEnricher fetches and extracts the article body for a news URL.
type ContentEnricher interface {
	Extract(ctx context.Context, url string) (string, error)
}

// NewsConfig tunes one news pass.
type NewsConfig struct {
	MaxProcessCount int           `mapstructure:"max_process_count"`
	DuplicateCutoff int           `mapstructure:"duplicate_cutoff"`
	Retention       time.Duration `mapstructure:"retention"`
	EnrichContent   bool          `mapstructure:"enrich_content"`
}

// NewsCollector pulls the global news feed, admits unseen URLs, optionally
// enriches them with the full article body, and stores them.
type NewsCollector struct {
	market provider.MarketData
	repo   repository.NewsRepository
	cache  newsURLCache
	log    *logger.Logger
	enrich ContentEnricher
	cfg    NewsConfig
	now    func() time.Time
}

// NewNewsCollector creates a new NewsCollector. cache and enrich may be
// nil; dedup then relies on the database alone and items keep only the
// feed summary.
func NewNewsCollector(
	market provider.MarketData,
	repo repository.NewsRepository,
	cache *redis.Client,
	enrich ContentEnricher,
	log *logger.Logger,
	cfg NewsConfig,
) *NewsCollector {
	if cfg.MaxProcessCount <= 0 {
		cfg.MaxProcessCount = DefaultNewsMaxProcess
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultNewsRetention
	}
	c := &NewsCollector{
		market: market,
		repo:   repo,
		log:    log,
		enrich: enrich,
		cfg:    cfg,
		now:    utils.TimeNowCST,
	}
	if cache != nil {
		c.cache = cache
	}
	return c
}

// Collect runs one news pass. The pass walks the feed newest-first,
// admits URLs through the deduplicator, and stops early once the feed is
// clearly exhausted (a long run of consecutive duplicates with nothing
// new admitted) or the per-pass cap is reached.
func (c *NewsCollector) Collect(ctx context.Context) Outcome {
	tr := newTracker("news_item")

	tr.to(StateFetching)
	rows, err := c.market.GlobalNews(ctx)
	if err != nil {
		return tr.fail(fmt.Errorf("fetch global news: %w", err))
	}

	tr.to(StateFiltering)
	deduper := NewNewsDeduper(c.repo, c.cache, c.log, c.cfg.DuplicateCutoff)
	items := make([]entity.NewsItem, 0, c.cfg.MaxProcessCount)
	dropped := 0
	for _, row := range rows {
		if !utils.ShouldContinue(ctx, c.log) {
			break
		}
		if len(items) >= c.cfg.MaxProcessCount {
			break
		}
		if deduper.ShouldStop() {
			c.log.Debug("news feed exhausted, stopping early",
				logger.IntField("admitted", deduper.Admitted()))
			break
		}

		item, ok := normalizeNewsRow(row, c.now())
		if !ok {
			dropped++
			continue
		}
		admitted, err := deduper.Admit(ctx, item.URL)
		if err != nil {
			return tr.fail(err)
		}
		if !admitted {
			continue
		}

		c.enrichContent(ctx, &item)
		items = append(items, item)
	}

	if len(items) == 0 {
		// Nothing new is the common case for a frequently polled feed.
		return tr.finish(0, dropped, nil)
	}

	tr.to(StateUpserting)
	written, err := c.repo.Upsert(ctx, items)
	if err == nil {
		deduper.MarkStored(ctx)
	}
	return tr.finish(written, dropped, err)
}

// Purge deletes stored news older than the retention window.
func (c *NewsCollector) Purge(ctx context.Context) (int64, error) {
	deleted, err := c.repo.DeleteOlderThan(ctx, c.cfg.Retention)
	if err != nil {
		return 0, fmt.Errorf("purge news: %w", err)
	}
	if deleted > 0 {
		c.log.Info("purged expired news",
			logger.Field("deleted", deleted))
	}
	return deleted, nil
}

// enrichContent is best effort: extraction failures keep the feed summary
// and never fail the item.
func (c *NewsCollector) enrichContent(ctx context.Context, item *entity.NewsItem) {
	if !c.cfg.EnrichContent || c.enrich == nil {
		return
	}
	content, err := c.enrich.Extract(ctx, item.URL)
	if err != nil {
		c.log.Debug("news content extraction failed",
			logger.StringField("url", item.URL),
			logger.ErrorField(err))
		return
	}
	if content == "" {
		return
	}
	content = utils.CleanToValidUTF8(content)
	item.Content = &content
}
