package entity

import (
	"time"

	"ashare-data-collector/pkg/common"
)

// StockBasic is the A-share stock master record. Nearly every collector
// reads it to obtain the valid stock-code universe.
type StockBasic struct {
	StockCode  string    `gorm:"primaryKey;type:varchar(10)" json:"stock_code"`
	StockName  string    `gorm:"type:varchar(64);not null" json:"stock_name"`
	Exchange   string    `gorm:"type:varchar(4)" json:"exchange"`
	IsST       bool      `gorm:"column:is_st;default:false" json:"is_st"`
	Status     *string   `gorm:"type:varchar(16)" json:"status,omitempty"`
	TotalShare *float64  `json:"total_share,omitempty"`
	FloatShare *float64  `json:"float_share,omitempty"`
	UpdateTime time.Time `gorm:"not null" json:"update_time"`
}

func (StockBasic) TableName() string { return common.TableStockBasic }

// StatusDelisted marks stocks excluded from active collection lists.
const StatusDelisted = "退市"
