package entity

import (
	"time"

	"ashare-data-collector/pkg/common"
)

// DailyQuote is one trading day of OHLCV data for a single stock.
type DailyQuote struct {
	StockCode    string    `gorm:"primaryKey;type:varchar(10)" json:"stock_code"`
	TradeDate    time.Time `gorm:"primaryKey;type:date" json:"trade_date"`
	Open         *float64  `json:"open,omitempty"`
	High         *float64  `json:"high,omitempty"`
	Low          *float64  `json:"low,omitempty"`
	Close        *float64  `json:"close,omitempty"`
	Change       *float64  `json:"change,omitempty"`
	PctChg       *float64  `gorm:"column:pct_chg" json:"pct_chg,omitempty"`
	Volume       *float64  `json:"volume,omitempty"`
	Amount       *float64  `json:"amount,omitempty"`
	TurnoverRate *float64  `json:"turnover_rate,omitempty"`
	UpdateTime   time.Time `gorm:"not null" json:"update_time"`
}

func (DailyQuote) TableName() string { return common.TableDailyQuote }
