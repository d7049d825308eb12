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

// indexDataCloseHour is the hour (CST) after which an empty same-day index
// series stops being treated as "provider has not published yet".
const indexDataCloseHour = 20

// TrackedIndex is one market index the collector follows.
type TrackedIndex struct {
	Code string `mapstructure:"code"`
	Name string `mapstructure:"name"`
}

// DefaultIndices are the benchmarks tracked when none are configured.
func DefaultIndices() []TrackedIndex {
	return []TrackedIndex{
		{Code: "sh000001", Name: "上证指数"},
		{Code: "sz399001", Name: "深证成指"},
		{Code: "sz399006", Name: "创业板指"},
		{Code: "sh000300", Name: "沪深300"},
		{Code: "sh000905", Name: "中证500"},
	}
}

// IndexCollector collects daily levels for the tracked indices. The
// provider returns each index's full history in one call, so resume is a
// client-side filter rather than a narrower request.
type IndexCollector struct {
	market  provider.MarketData
	repo    repository.IndexQuoteRepository
	log     *logger.Logger
	indices []TrackedIndex
	now     func() time.Time
}

// NewIndexCollector creates a new IndexCollector.
func NewIndexCollector(market provider.MarketData, repo repository.IndexQuoteRepository, log *logger.Logger, indices []TrackedIndex) *IndexCollector {
	if len(indices) == 0 {
		indices = DefaultIndices()
	}
	return &IndexCollector{
		market:  market,
		repo:    repo,
		log:     log,
		indices: indices,
		now:     utils.TimeNowCST,
	}
}

// Collect fetches every tracked index and upserts the rows inside
// [start, end]. The second return value asks the caller to schedule one
// delayed retry: it is true when the window ends today, every index came
// back without a row for today, and it is a weekday before the provider's
// usual evening publish time. That pattern almost always means the data is
// late, not absent.
func (c *IndexCollector) Collect(ctx context.Context, start, end time.Time, resume bool) (Outcome, bool) {
	tr := newTracker("index_data")

	start = utils.TruncateToDay(start)
	end = utils.TruncateToDay(end)
	today := utils.TruncateToDay(c.now())

	tr.to(StateFetching)
	var written, dropped, failures, queried int
	sawToday := false
	for _, idx := range c.indices {
		if !utils.ShouldContinue(ctx, c.log) {
			break
		}

		effectiveStart := start
		if resume {
			latest, err := c.repo.LatestTradeDate(ctx, idx.Code)
			if err != nil {
				failures++
				c.log.Warn("index watermark lookup failed",
					logger.StringField("index_code", idx.Code),
					logger.ErrorField(err))
				continue
			}
			resolved, action := ResolveStart(latest, start, end)
			if action == ActionSkip {
				// Already covered through the window end, which
				// includes today when end == today.
				sawToday = sawToday || !end.Before(today)
				continue
			}
			effectiveStart = resolved
		}
		queried++

		rows, err := c.market.IndexDaily(ctx, idx.Code)
		if err != nil {
			failures++
			c.log.Warn("index series fetch failed",
				logger.StringField("index_code", idx.Code),
				logger.ErrorField(err))
			continue
		}

		records, droppedRows := normalizeIndexQuote(idx.Code, idx.Name, rows, c.now())
		dropped += droppedRows

		kept := make([]entity.IndexQuote, 0, len(records))
		for _, rec := range records {
			if rec.TradeDate.Equal(today) {
				sawToday = true
			}
			if rec.TradeDate.Before(effectiveStart) || rec.TradeDate.After(end) {
				continue
			}
			kept = append(kept, rec)
		}
		if len(kept) == 0 {
			continue
		}

		n, err := c.repo.Upsert(ctx, kept)
		written += n
		if err != nil {
			failures++
			c.log.Warn("index upsert failed",
				logger.StringField("index_code", idx.Code),
				logger.ErrorField(err))
		}
	}

	retryWanted := queried > 0 &&
		failures == 0 &&
		!sawToday &&
		end.Equal(today) &&
		utils.IsWeekday(today) &&
		c.now().Hour() < indexDataCloseHour

	var err error
	switch {
	case failures == len(c.indices):
		return tr.fail(fmt.Errorf("all %d indices failed", failures)), false
	case failures > 0:
		err = fmt.Errorf("%d of %d indices failed", failures, len(c.indices))
	}
	return tr.finish(written, dropped, err), retryWanted
}
