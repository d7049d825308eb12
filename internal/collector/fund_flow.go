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

// FundFlowCollector collects the cross-border fund-flow summary and the
// per-stock fund-flow rankings. Each lookback indicator is collected and
// upserted independently so one bad indicator never loses the others.
type FundFlowCollector struct {
	market provider.MarketData
	repo   repository.FundFlowRepository
	stocks repository.StockBasicRepository
	log    *logger.Logger
	now    func() time.Time
}

// NewFundFlowCollector creates a new FundFlowCollector.
func NewFundFlowCollector(
	market provider.MarketData,
	repo repository.FundFlowRepository,
	stocks repository.StockBasicRepository,
	log *logger.Logger,
) *FundFlowCollector {
	return &FundFlowCollector{
		market: market,
		repo:   repo,
		stocks: stocks,
		log:    log,
		now:    utils.TimeNowCST,
	}
}

// CollectSummary fetches and upserts the cross-border summary table.
func (c *FundFlowCollector) CollectSummary(ctx context.Context) Outcome {
	tr := newTracker("fund_flow_summary")

	tr.to(StateFetching)
	rows, err := c.market.FundFlowSummary(ctx)
	if err != nil {
		return tr.fail(fmt.Errorf("fetch fund flow summary: %w", err))
	}

	tr.to(StateNormalizing)
	records, dropped := normalizeFundFlowSummary(rows, c.now())
	if len(records) == 0 {
		return tr.fail(fmt.Errorf("fund flow summary normalized to zero records from %d rows", len(rows)))
	}

	tr.to(StateUpserting)
	written, err := c.repo.UpsertSummary(ctx, records)
	return tr.finish(written, dropped, err)
}

// CollectRanks collects every lookback indicator for today. Ranking rows
// whose code is outside the active stock universe are dropped so the
// table never references an unknown stock.
func (c *FundFlowCollector) CollectRanks(ctx context.Context) Outcome {
	tr := newTracker("fund_flow_rank")

	universe, err := c.stocks.GetActiveCodeSet(ctx)
	if err != nil {
		return tr.fail(fmt.Errorf("load active universe: %w", err))
	}
	if len(universe) == 0 {
		return tr.fail(fmt.Errorf("active universe is empty, collect stock_basic first"))
	}

	tradeDate := utils.TruncateToDay(c.now())
	var written, dropped, failures int
	for _, indicator := range entity.FundFlowIndicators {
		if !utils.ShouldContinue(ctx, c.log) {
			break
		}
		n, d, err := c.collectRank(ctx, indicator, tradeDate, universe)
		written += n
		dropped += d
		if err != nil {
			failures++
			c.log.Warn("fund flow rank collection failed",
				logger.StringField("indicator", indicator),
				logger.ErrorField(err))
		}
	}

	if failures == len(entity.FundFlowIndicators) {
		return tr.fail(fmt.Errorf("all %d indicators failed", failures))
	}
	var sweepErr error
	if failures > 0 {
		sweepErr = fmt.Errorf("%d of %d indicators failed", failures, len(entity.FundFlowIndicators))
	}
	return tr.finish(written, dropped, sweepErr)
}

func (c *FundFlowCollector) collectRank(ctx context.Context, indicator string, tradeDate time.Time, universe map[string]struct{}) (int, int, error) {
	rows, err := c.market.FundFlowRank(ctx, indicator)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch indicator %s: %w", indicator, err)
	}

	records, dropped := normalizeFundFlowRank(indicator, rows, tradeDate, c.now())

	kept := make([]entity.FundFlowRank, 0, len(records))
	for _, rec := range records {
		if _, ok := universe[rec.StockCode]; !ok {
			dropped++
			continue
		}
		kept = append(kept, rec)
	}
	if len(kept) == 0 {
		return 0, dropped, fmt.Errorf("indicator %s had no rows in the active universe", indicator)
	}

	written, err := c.repo.UpsertRank(ctx, kept)
	if err != nil {
		return written, dropped, fmt.Errorf("upsert indicator %s: %w", indicator, err)
	}
	return written, dropped, nil
}
