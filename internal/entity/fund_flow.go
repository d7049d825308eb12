package entity

import (
	"time"

	"ashare-data-collector/pkg/common"
)

// FundFlowSummary is one cross-border fund-flow summary row
// (per trade date, channel type, sector and direction).
type FundFlowSummary struct {
	TradeDate    time.Time `gorm:"primaryKey;type:date" json:"trade_date"`
	Type         string    `gorm:"primaryKey;type:varchar(16)" json:"type"`
	Sector       string    `gorm:"primaryKey;type:varchar(16)" json:"sector"`
	Direction    string    `gorm:"primaryKey;type:varchar(16)" json:"direction"`
	Status       *string   `gorm:"type:varchar(16)" json:"status,omitempty"`
	NetBuyAmount *float64  `json:"net_buy_amount,omitempty"`
	NetInflow    *float64  `json:"net_inflow,omitempty"`
	DayBalance   *float64  `json:"day_balance,omitempty"`
	UpCount      *int      `json:"up_count,omitempty"`
	FlatCount    *int      `json:"flat_count,omitempty"`
	DownCount    *int      `json:"down_count,omitempty"`
	RelatedIndex string    `gorm:"type:varchar(32)" json:"related_index"`
	IndexPctChg  *float64  `gorm:"column:index_pct_chg" json:"index_pct_chg,omitempty"`
	UpdateTime   time.Time `gorm:"not null" json:"update_time"`
}

func (FundFlowSummary) TableName() string { return common.TableFundFlowSummary }

// Fund-flow rank lookback indicators accepted by the provider.
const (
	FundFlowIndicatorToday = "今日"
	FundFlowIndicator3Day  = "3日"
	FundFlowIndicator5Day  = "5日"
	FundFlowIndicator10Day = "10日"
)

// FundFlowIndicators lists the lookback windows collected independently.
var FundFlowIndicators = []string{
	FundFlowIndicatorToday,
	FundFlowIndicator3Day,
	FundFlowIndicator5Day,
	FundFlowIndicator10Day,
}

// FundFlowRank is one per-stock fund-flow ranking row for one lookback
// indicator. Rows must reference an existing StockBasic.StockCode.
type FundFlowRank struct {
	StockCode        string    `gorm:"primaryKey;type:varchar(10)" json:"stock_code"`
	Indicator        string    `gorm:"primaryKey;type:varchar(8)" json:"indicator"`
	TradeDate        time.Time `gorm:"primaryKey;type:date" json:"trade_date"`
	Rank             int       `json:"rank"`
	StockName        string    `gorm:"type:varchar(64)" json:"stock_name"`
	LatestPrice      *float64  `json:"latest_price,omitempty"`
	PctChg           *float64  `gorm:"column:pct_chg" json:"pct_chg,omitempty"`
	MainNetAmount    *float64  `json:"main_net_amount,omitempty"`
	MainNetRate      *float64  `json:"main_net_rate,omitempty"`
	SuperLargeAmount *float64  `json:"super_large_amount,omitempty"`
	SuperLargeRate   *float64  `json:"super_large_rate,omitempty"`
	LargeAmount      *float64  `json:"large_amount,omitempty"`
	LargeRate        *float64  `json:"large_rate,omitempty"`
	MediumAmount     *float64  `json:"medium_amount,omitempty"`
	MediumRate       *float64  `json:"medium_rate,omitempty"`
	SmallAmount      *float64  `json:"small_amount,omitempty"`
	SmallRate        *float64  `json:"small_rate,omitempty"`
	UpdateTime       time.Time `gorm:"not null" json:"update_time"`
}

func (FundFlowRank) TableName() string { return common.TableFundFlowRank }
