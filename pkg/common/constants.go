package common

import "time"

const (
	// RedisKeyNewsURLPrefix namespaces the news URL dedup keys.
	RedisKeyNewsURLPrefix = "collector:news:url:"
	// RedisNewsURLTTL matches the news retention window.
	RedisNewsURLTTL = 7 * 24 * time.Hour

	// StockUniverseCacheKey is the go-cache key for the active stock-code set.
	StockUniverseCacheKey = "collector:stock-universe"
)

// Table names for upsert targets.
const (
	TableStockBasic      = "stock_basic"
	TableDailyQuote      = "daily_quote"
	TableIndexQuote      = "index_data"
	TableTradeCalendar   = "trade_calendar"
	TableHotRank         = "stock_hot_rank"
	TableHotUp           = "stock_hot_up"
	TableFundFlowSummary = "fund_flow_summary"
	TableFundFlowRank    = "fund_flow_rank"
	TableNewsItem        = "news_item"
	TableCollectionRun   = "collection_run"
)
