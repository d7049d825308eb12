package repository

import (
	"context"

	"gorm.io/gorm"

	"ashare-data-collector/internal/entity"
)

// HotRankRepository manages the daily popularity ranking snapshots.
type HotRankRepository interface {
	UpsertHotRank(ctx context.Context, rows []entity.HotRankEntry) (int, error)
	UpsertHotUp(ctx context.Context, rows []entity.HotUpEntry) (int, error)
}

// NewHotRankRepository creates a new HotRankRepository.
func NewHotRankRepository(db *gorm.DB) HotRankRepository {
	return &hotRankRepository{db: db}
}

type hotRankRepository struct {
	db *gorm.DB
}

func (r *hotRankRepository) UpsertHotRank(ctx context.Context, rows []entity.HotRankEntry) (int, error) {
	return Upsert(ctx, r.db, []string{"trade_date", "current_rank"}, rows)
}

func (r *hotRankRepository) UpsertHotUp(ctx context.Context, rows []entity.HotUpEntry) (int, error) {
	return Upsert(ctx, r.db, []string{"trade_date", "current_rank"}, rows)
}
