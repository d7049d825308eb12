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

// StockBasicCollector refreshes the A-share stock master list.
type StockBasicCollector struct {
	market provider.MarketData
	repo   repository.StockBasicRepository
	log    *logger.Logger
	now    func() time.Time
}

// NewStockBasicCollector creates a new StockBasicCollector.
func NewStockBasicCollector(market provider.MarketData, repo repository.StockBasicRepository, log *logger.Logger) *StockBasicCollector {
	return &StockBasicCollector{
		market: market,
		repo:   repo,
		log:    log,
		now:    utils.TimeNowCST,
	}
}

// Collect fetches the full code/name listing and upserts it.
func (c *StockBasicCollector) Collect(ctx context.Context) Outcome {
	tr := newTracker("stock_basic")

	tr.to(StateFetching)
	rows, err := c.market.StockList(ctx)
	if err != nil {
		return tr.fail(fmt.Errorf("fetch stock list: %w", err))
	}

	tr.to(StateNormalizing)
	records, dropped := normalizeStockBasic(rows, c.now())
	if len(records) == 0 {
		return tr.fail(fmt.Errorf("stock list normalized to zero records from %d rows", len(rows)))
	}

	tr.to(StateUpserting)
	written, err := c.repo.Upsert(ctx, records)
	outcome := tr.finish(written, dropped, err)
	c.log.Info("stock master refreshed",
		logger.IntField("written", written),
		logger.IntField("dropped", dropped),
		logger.StringField("state", outcome.StateText))
	return outcome
}
