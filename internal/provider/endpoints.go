package provider

import (
	"context"
	"net/url"
)

// MarketData is the set of provider queries the collectors consume.
// Implementations return provider-native rows; mapping to canonical
// records is the normalizer's job.
type MarketData interface {
	// StockList returns the full A-share code/name list.
	StockList(ctx context.Context) ([]Row, error)
	// StockDailyHistory returns daily bars for one stock in [start, end] (YYYYMMDD).
	StockDailyHistory(ctx context.Context, symbol, startDate, endDate string) ([]Row, error)
	// IndexDaily returns the full daily series of one index.
	IndexDaily(ctx context.Context, symbol string) ([]Row, error)
	// SpotSnapshot returns the full-universe realtime snapshot.
	SpotSnapshot(ctx context.Context) ([]Row, error)
	// TradeDates returns the historical trading-day list.
	TradeDates(ctx context.Context) ([]Row, error)
	// HotRank returns the current popularity ranking.
	HotRank(ctx context.Context) ([]Row, error)
	// HotUp returns the current rising-popularity ranking.
	HotUp(ctx context.Context) ([]Row, error)
	// FundFlowSummary returns the cross-border fund-flow summary.
	FundFlowSummary(ctx context.Context) ([]Row, error)
	// FundFlowRank returns the per-stock fund-flow ranking for one
	// lookback indicator (今日/3日/5日/10日).
	FundFlowRank(ctx context.Context, indicator string) ([]Row, error)
	// GlobalNews returns the latest global financial news feed, newest first.
	GlobalNews(ctx context.Context) ([]Row, error)
}

var _ MarketData = (*Client)(nil)

func (c *Client) StockList(ctx context.Context) ([]Row, error) {
	return c.fetchWithRetry(ctx, "stock_info_a_code_name", nil)
}

func (c *Client) StockDailyHistory(ctx context.Context, symbol, startDate, endDate string) ([]Row, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("period", "daily")
	params.Set("start_date", startDate)
	params.Set("end_date", endDate)
	params.Set("adjust", "")
	return c.fetchWithRetry(ctx, "stock_zh_a_hist", params)
}

func (c *Client) IndexDaily(ctx context.Context, symbol string) ([]Row, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	return c.fetchWithRetry(ctx, "stock_zh_index_daily", params)
}

func (c *Client) SpotSnapshot(ctx context.Context) ([]Row, error) {
	return c.fetchWithRetry(ctx, "stock_zh_a_spot_em", nil)
}

func (c *Client) TradeDates(ctx context.Context) ([]Row, error) {
	return c.fetchWithRetry(ctx, "tool_trade_date_hist_sina", nil)
}

func (c *Client) HotRank(ctx context.Context) ([]Row, error) {
	return c.fetchWithRetry(ctx, "stock_hot_rank_em", nil)
}

func (c *Client) HotUp(ctx context.Context) ([]Row, error) {
	return c.fetchWithRetry(ctx, "stock_hot_up_em", nil)
}

func (c *Client) FundFlowSummary(ctx context.Context) ([]Row, error) {
	return c.fetchWithRetry(ctx, "stock_hsgt_fund_flow_summary_em", nil)
}

func (c *Client) FundFlowRank(ctx context.Context, indicator string) ([]Row, error) {
	params := url.Values{}
	params.Set("indicator", indicator)
	return c.fetchWithRetry(ctx, "stock_individual_fund_flow_rank", params)
}

func (c *Client) GlobalNews(ctx context.Context) ([]Row, error) {
	return c.fetchWithRetry(ctx, "stock_info_global_em", nil)
}
