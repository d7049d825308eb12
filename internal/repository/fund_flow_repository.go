package repository

import (
	"context"

	"gorm.io/gorm"

	"ashare-data-collector/internal/entity"
)

// FundFlowRepository manages fund-flow summaries and per-stock rankings.
type FundFlowRepository interface {
	UpsertSummary(ctx context.Context, rows []entity.FundFlowSummary) (int, error)
	UpsertRank(ctx context.Context, rows []entity.FundFlowRank) (int, error)
}

// NewFundFlowRepository creates a new FundFlowRepository.
func NewFundFlowRepository(db *gorm.DB) FundFlowRepository {
	return &fundFlowRepository{db: db}
}

type fundFlowRepository struct {
	db *gorm.DB
}

func (r *fundFlowRepository) UpsertSummary(ctx context.Context, rows []entity.FundFlowSummary) (int, error) {
	return Upsert(ctx, r.db, []string{"trade_date", "type", "sector", "direction"}, rows)
}

func (r *fundFlowRepository) UpsertRank(ctx context.Context, rows []entity.FundFlowRank) (int, error) {
	return Upsert(ctx, r.db, []string{"stock_code", "indicator", "trade_date"}, rows)
}
