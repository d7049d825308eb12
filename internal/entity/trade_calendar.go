package entity

import (
	"time"

	"ashare-data-collector/pkg/common"
)

// TradeCalendarDay covers every calendar day of the configured span,
// not only the trading days the provider returns.
type TradeCalendarDay struct {
	CalendarDate time.Time `gorm:"primaryKey;type:date" json:"calendar_date"`
	IsTradeDay   bool      `gorm:"not null" json:"is_trade_day"`
	WeekDay      int       `gorm:"not null" json:"week_day"`
	IsHoliday    bool      `gorm:"default:false" json:"is_holiday"`
	UpdateTime   time.Time `gorm:"not null" json:"update_time"`
}

func (TradeCalendarDay) TableName() string { return common.TableTradeCalendar }
