package collector

import (
	"context"
	"fmt"
	"time"

	"ashare-data-collector/internal/provider"
	"ashare-data-collector/internal/repository"
	"ashare-data-collector/pkg/logger"
	"ashare-data-collector/pkg/utils"
)

// TradeCalendarCollector materializes the trading calendar as a full
// day-by-day span so downstream queries never have to guess whether a
// missing row means holiday or missing data.
type TradeCalendarCollector struct {
	market    provider.MarketData
	repo      repository.TradeCalendarRepository
	log       *logger.Logger
	startYear int
	endYear   int
	now       func() time.Time
}

// NewTradeCalendarCollector creates a new TradeCalendarCollector covering
// [startYear, endYear]. Zero values default to a two-year window around
// the current year.
func NewTradeCalendarCollector(market provider.MarketData, repo repository.TradeCalendarRepository, log *logger.Logger, startYear, endYear int) *TradeCalendarCollector {
	c := &TradeCalendarCollector{
		market:    market,
		repo:      repo,
		log:       log,
		startYear: startYear,
		endYear:   endYear,
		now:       utils.TimeNowCST,
	}
	if c.startYear == 0 {
		c.startYear = c.now().Year() - 1
	}
	if c.endYear == 0 {
		c.endYear = c.now().Year() + 1
	}
	return c
}

// Collect fetches the trading-day list and upserts the expanded span.
func (c *TradeCalendarCollector) Collect(ctx context.Context) Outcome {
	tr := newTracker("trade_calendar")

	tr.to(StateFetching)
	rows, err := c.market.TradeDates(ctx)
	if err != nil {
		return tr.fail(fmt.Errorf("fetch trade dates: %w", err))
	}

	tr.to(StateNormalizing)
	records, dropped := normalizeTradeCalendar(rows, c.startYear, c.endYear, c.now())
	if len(records) == 0 {
		return tr.fail(fmt.Errorf("calendar span [%d, %d] produced no rows", c.startYear, c.endYear))
	}

	tr.to(StateUpserting)
	written, err := c.repo.Upsert(ctx, records)
	return tr.finish(written, dropped, err)
}
