package entity

import (
	"time"

	"ashare-data-collector/pkg/common"
)

// HotRankEntry is one row of the daily popularity ranking snapshot.
type HotRankEntry struct {
	TradeDate   time.Time `gorm:"primaryKey;type:date" json:"trade_date"`
	CurrentRank int       `gorm:"primaryKey" json:"current_rank"`
	StockCode   string    `gorm:"type:varchar(10);not null" json:"stock_code"`
	StockName   string    `gorm:"type:varchar(64)" json:"stock_name"`
	LatestPrice *float64  `json:"latest_price,omitempty"`
	Change      *float64  `json:"change,omitempty"`
	PctChg      *float64  `gorm:"column:pct_chg" json:"pct_chg,omitempty"`
	UpdateTime  time.Time `gorm:"not null" json:"update_time"`
}

func (HotRankEntry) TableName() string { return common.TableHotRank }

// HotUpEntry is one row of the daily rising-popularity ranking snapshot.
type HotUpEntry struct {
	TradeDate   time.Time `gorm:"primaryKey;type:date" json:"trade_date"`
	CurrentRank int       `gorm:"primaryKey" json:"current_rank"`
	RankChange  int       `json:"rank_change"`
	StockCode   string    `gorm:"type:varchar(10);not null" json:"stock_code"`
	StockName   string    `gorm:"type:varchar(64)" json:"stock_name"`
	LatestPrice *float64  `json:"latest_price,omitempty"`
	Change      *float64  `json:"change,omitempty"`
	PctChg      *float64  `gorm:"column:pct_chg" json:"pct_chg,omitempty"`
	UpdateTime  time.Time `gorm:"not null" json:"update_time"`
}

func (HotUpEntry) TableName() string { return common.TableHotUp }
