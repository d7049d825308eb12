package repository

import (
	"context"

	"gorm.io/gorm"

	"ashare-data-collector/internal/entity"
)

// TradeCalendarRepository manages the generated trading calendar.
type TradeCalendarRepository interface {
	Upsert(ctx context.Context, rows []entity.TradeCalendarDay) (int, error)
}

// NewTradeCalendarRepository creates a new TradeCalendarRepository.
func NewTradeCalendarRepository(db *gorm.DB) TradeCalendarRepository {
	return &tradeCalendarRepository{db: db}
}

type tradeCalendarRepository struct {
	db *gorm.DB
}

func (r *tradeCalendarRepository) Upsert(ctx context.Context, rows []entity.TradeCalendarDay) (int, error) {
	return Upsert(ctx, r.db, []string{"calendar_date"}, rows)
}
