package collector

import (
	"context"
	"fmt"
	"time"

	"ashare-data-collector/internal/entity"
	"ashare-data-collector/internal/provider"
	"ashare-data-collector/internal/repository"
	"ashare-data-collector/pkg/logger"
	"ashare-data-collector/pkg/utils"
)

const (
	spotSnapshotRetries = 3
	spotSnapshotDelay   = 5 * time.Minute
)

// DailyQuoteCollector collects per-stock daily bars. Historical windows go
// through the per-stock history endpoint with watermark resume; the daily
// refresh prefers one whole-market snapshot call over thousands of
// per-stock calls.
type DailyQuoteCollector struct {
	market provider.MarketData
	quotes repository.DailyQuoteRepository
	stocks repository.StockBasicRepository
	log    *logger.Logger
	sleep  func(time.Duration)
	now    func() time.Time
}

// NewDailyQuoteCollector creates a new DailyQuoteCollector.
func NewDailyQuoteCollector(
	market provider.MarketData,
	quotes repository.DailyQuoteRepository,
	stocks repository.StockBasicRepository,
	log *logger.Logger,
) *DailyQuoteCollector {
	return &DailyQuoteCollector{
		market: market,
		quotes: quotes,
		stocks: stocks,
		log:    log,
		sleep:  time.Sleep,
		now:    utils.TimeNowCST,
	}
}

// CollectStockHistory collects one stock's bars for [start, end]. With
// resume enabled the window start is moved past the latest persisted
// trade date, and the call is skipped entirely when the window is already
// covered.
func (c *DailyQuoteCollector) CollectStockHistory(ctx context.Context, stockCode string, start, end time.Time, resume bool) Outcome {
	tr := newTracker("daily_quote:" + stockCode)

	effectiveStart := utils.TruncateToDay(start)
	if resume {
		latest, err := c.quotes.LatestTradeDate(ctx, stockCode)
		if err != nil {
			return tr.fail(fmt.Errorf("resolve watermark for %s: %w", stockCode, err))
		}
		resolved, action := ResolveStart(latest, start, end)
		if action == ActionSkip {
			c.log.Debug("window already persisted, skipping",
				logger.StringField("stock_code", stockCode))
			return tr.finish(0, 0, nil)
		}
		effectiveStart = resolved
	}

	tr.to(StateFetching)
	rows, err := c.market.StockDailyHistory(ctx, stockCode,
		utils.FormatCompactDate(effectiveStart), utils.FormatCompactDate(end))
	if err != nil {
		return tr.fail(fmt.Errorf("fetch history for %s: %w", stockCode, err))
	}

	tr.to(StateNormalizing)
	records, dropped := normalizeDailyQuote(stockCode, rows, c.now())
	if len(records) == 0 {
		// No bars in the window is normal for suspended or young stocks.
		return tr.finish(0, dropped, nil)
	}

	tr.to(StateUpserting)
	written, err := c.quotes.Upsert(ctx, records)
	return tr.finish(written, dropped, err)
}

// CollectAllHistory walks the active universe and collects each stock's
// window sequentially under the given pacing profile. Per-stock failures
// are logged and counted; they never abort the sweep.
func (c *DailyQuoteCollector) CollectAllHistory(ctx context.Context, start, end time.Time, resume bool, pacing PacingConfig) Outcome {
	tr := newTracker("daily_quote")

	codes, err := c.stocks.GetActiveCodes(ctx)
	if err != nil {
		return tr.fail(fmt.Errorf("load active universe: %w", err))
	}
	if len(codes) == 0 {
		return tr.fail(fmt.Errorf("active universe is empty, collect stock_basic first"))
	}

	tr.to(StateFetching)
	pacer := NewPacer(pacing)
	var written, dropped, failures int
	for i, code := range codes {
		if !utils.ShouldContinue(ctx, c.log) {
			break
		}
		outcome := c.CollectStockHistory(ctx, code, start, end, resume)
		written += outcome.RowsWritten
		dropped += outcome.RowsDropped
		if outcome.Err != nil {
			failures++
			c.log.Warn("stock history collection failed",
				logger.StringField("stock_code", code),
				logger.ErrorField(outcome.Err))
		}
		pacer.Wait(i)
	}

	c.log.Info("daily quote sweep finished",
		logger.IntField("stocks", len(codes)),
		logger.IntField("failures", failures),
		logger.IntField("written", written))

	if failures == len(codes) {
		return tr.fail(fmt.Errorf("all %d stocks failed", failures))
	}
	var sweepErr error
	if failures > 0 {
		sweepErr = fmt.Errorf("%d of %d stocks failed", failures, len(codes))
	}
	return tr.finish(written, dropped, sweepErr)
}

// CollectLatest refreshes today's bars from the whole-market snapshot.
// The snapshot endpoint is flaky around market close, so it is retried a
// few times with a long fixed delay before giving up.
func (c *DailyQuoteCollector) CollectLatest(ctx context.Context) Outcome {
	tr := newTracker("daily_quote")

	tr.to(StateFetching)
	var rows []provider.Row
	var err error
	for attempt := 1; attempt <= spotSnapshotRetries; attempt++ {
		rows, err = c.market.SpotSnapshot(ctx)
		if err == nil && len(rows) > 0 {
			break
		}
		if err == nil {
			err = fmt.Errorf("snapshot returned zero rows")
		}
		c.log.Warn("spot snapshot attempt failed",
			logger.IntField("attempt", attempt),
			logger.ErrorField(err))
		if attempt < spotSnapshotRetries {
			c.sleep(spotSnapshotDelay)
		}
	}
	if err != nil {
		return tr.fail(fmt.Errorf("fetch spot snapshot: %w", err))
	}

	tr.to(StateNormalizing)
	tradeDate := utils.TruncateToDay(c.now())
	records, dropped := normalizeSpotQuote(rows, tradeDate, c.now())

	tr.to(StateFiltering)
	universe, err := c.stocks.GetActiveCodeSet(ctx)
	if err != nil {
		return tr.fail(fmt.Errorf("load active universe: %w", err))
	}
	filtered := make([]entity.DailyQuote, 0, len(records))
	for _, rec := range records {
		if _, ok := universe[rec.StockCode]; !ok {
			dropped++
			continue
		}
		filtered = append(filtered, rec)
	}
	if len(filtered) == 0 {
		return tr.fail(fmt.Errorf("snapshot had no rows in the active universe"))
	}

	tr.to(StateUpserting)
	written, err := c.quotes.Upsert(ctx, filtered)
	return tr.finish(written, dropped, err)
}
