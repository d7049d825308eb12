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

// HotRankCollector snapshots the daily popularity rankings. Both rankings
// are point-in-time snapshots keyed by today's date; re-running replaces
// the day's rows.
type HotRankCollector struct {
	market provider.MarketData
	repo   repository.HotRankRepository
	log    *logger.Logger
	now    func() time.Time
}

// NewHotRankCollector creates a new HotRankCollector.
func NewHotRankCollector(market provider.MarketData, repo repository.HotRankRepository, log *logger.Logger) *HotRankCollector {
	return &HotRankCollector{
		market: market,
		repo:   repo,
		log:    log,
		now:    utils.TimeNowCST,
	}
}

// CollectHotRank snapshots the popularity ranking.
func (c *HotRankCollector) CollectHotRank(ctx context.Context) Outcome {
	tr := newTracker("stock_hot_rank")

	tr.to(StateFetching)
	rows, err := c.market.HotRank(ctx)
	if err != nil {
		return tr.fail(fmt.Errorf("fetch hot rank: %w", err))
	}

	tr.to(StateNormalizing)
	records, dropped := normalizeHotRank(rows, utils.TruncateToDay(c.now()), c.now())
	if len(records) == 0 {
		return tr.fail(fmt.Errorf("hot rank normalized to zero records from %d rows", len(rows)))
	}

	tr.to(StateUpserting)
	written, err := c.repo.UpsertHotRank(ctx, records)
	return tr.finish(written, dropped, err)
}

// CollectHotUp snapshots the rising-popularity ranking.
func (c *HotRankCollector) CollectHotUp(ctx context.Context) Outcome {
	tr := newTracker("stock_hot_up")

	tr.to(StateFetching)
	rows, err := c.market.HotUp(ctx)
	if err != nil {
		return tr.fail(fmt.Errorf("fetch hot up: %w", err))
	}

	tr.to(StateNormalizing)
	records, dropped := normalizeHotUp(rows, utils.TruncateToDay(c.now()), c.now())
	if len(records) == 0 {
		return tr.fail(fmt.Errorf("hot up normalized to zero records from %d rows", len(rows)))
	}

	tr.to(StateUpserting)
	written, err := c.repo.UpsertHotUp(ctx, records)
	return tr.finish(written, dropped, err)
}
