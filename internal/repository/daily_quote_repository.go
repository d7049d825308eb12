package repository

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"ashare-data-collector/internal/entity"
)

// DailyQuoteRepository manages per-stock daily quote rows. The latest
// persisted trade date doubles as the resume watermark; there is no
// separate watermark table.
type DailyQuoteRepository interface {
	Upsert(ctx context.Context, rows []entity.DailyQuote) (int, error)
	LatestTradeDate(ctx context.Context, stockCode string) (*time.Time, error)
}

// NewDailyQuoteRepository creates a new DailyQuoteRepository.
func NewDailyQuoteRepository(db *gorm.DB) DailyQuoteRepository {
	return &dailyQuoteRepository{db: db}
}

type dailyQuoteRepository struct {
	db *gorm.DB
}

func (r *dailyQuoteRepository) Upsert(ctx context.Context, rows []entity.DailyQuote) (int, error) {
	return Upsert(ctx, r.db, []string{"stock_code", "trade_date"}, rows)
}

func (r *dailyQuoteRepository) LatestTradeDate(ctx context.Context, stockCode string) (*time.Time, error) {
	var latest sql.NullTime
	err := r.db.WithContext(ctx).
		Model(&entity.DailyQuote{}).
		Where("stock_code = ?", stockCode).
		Select("MAX(trade_date)").
		Scan(&latest).Error
	if err != nil {
		return nil, err
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}
