package entity

import (
	"time"

	"ashare-data-collector/pkg/common"
)

// IndexQuote is one trading day of a tracked market index.
// Change and PctChg are derived day-over-day within the fetched series.
type IndexQuote struct {
	IndexCode  string    `gorm:"primaryKey;type:varchar(10)" json:"index_code"`
	TradeDate  time.Time `gorm:"primaryKey;type:date" json:"trade_date"`
	IndexName  string    `gorm:"type:varchar(32)" json:"index_name"`
	Open       *float64  `json:"open,omitempty"`
	High       *float64  `json:"high,omitempty"`
	Low        *float64  `json:"low,omitempty"`
	Close      *float64  `json:"close,omitempty"`
	Volume     *float64  `json:"volume,omitempty"`
	Change     *float64  `json:"change,omitempty"`
	PctChg     *float64  `gorm:"column:pct_chg" json:"pct_chg,omitempty"`
	UpdateTime time.Time `gorm:"not null" json:"update_time"`
}

func (IndexQuote) TableName() string { return common.TableIndexQuote }
