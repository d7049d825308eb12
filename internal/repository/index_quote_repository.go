package repository

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"ashare-data-collector/internal/entity"
)

// IndexQuoteRepository manages daily index levels.
type IndexQuoteRepository interface {
	Upsert(ctx context.Context, rows []entity.IndexQuote) (int, error)
	LatestTradeDate(ctx context.Context, indexCode string) (*time.Time, error)
}

// NewIndexQuoteRepository creates a new IndexQuoteRepository.
func NewIndexQuoteRepository(db *gorm.DB) IndexQuoteRepository {
	return &indexQuoteRepository{db: db}
}

type indexQuoteRepository struct {
	db *gorm.DB
}

func (r *indexQuoteRepository) Upsert(ctx context.Context, rows []entity.IndexQuote) (int, error) {
	return Upsert(ctx, r.db, []string{"index_code", "trade_date"}, rows)
}

func (r *indexQuoteRepository) LatestTradeDate(ctx context.Context, indexCode string) (*time.Time, error) {
	var latest sql.NullTime
	err := r.db.WithContext(ctx).
		Model(&entity.IndexQuote{}).
		Where("index_code = ?", indexCode).
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
