package collector

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"ashare-data-collector/internal/entity"
	"ashare-data-collector/internal/provider"
	"ashare-data-collector/pkg/logger"
	"ashare-data-collector/pkg/utils"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "json")
	require.NoError(t, err)
	return log
}

// fakeMarket implements provider.MarketData with swappable funcs. Unset
// funcs return an empty payload.
type fakeMarket struct {
	stockList         func(ctx context.Context) ([]provider.Row, error)
	stockDailyHistory func(ctx context.Context, symbol, startDate, endDate string) ([]provider.Row, error)
	indexDaily        func(ctx context.Context, symbol string) ([]provider.Row, error)
	spotSnapshot      func(ctx context.Context) ([]provider.Row, error)
	tradeDates        func(ctx context.Context) ([]provider.Row, error)
	hotRank           func(ctx context.Context) ([]provider.Row, error)
	hotUp             func(ctx context.Context) ([]provider.Row, error)
	fundFlowSummary   func(ctx context.Context) ([]provider.Row, error)
	fundFlowRank      func(ctx context.Context, indicator string) ([]provider.Row, error)
	globalNews        func(ctx context.Context) ([]provider.Row, error)
}

var _ provider.MarketData = (*fakeMarket)(nil)

func (f *fakeMarket) StockList(ctx context.Context) ([]provider.Row, error) {
	if f.stockList == nil {
		return nil, nil
	}
	return f.stockList(ctx)
}

func (f *fakeMarket) StockDailyHistory(ctx context.Context, symbol, startDate, endDate string) ([]provider.Row, error) {
	if f.stockDailyHistory == nil {
		return nil, nil
	}
	return f.stockDailyHistory(ctx, symbol, startDate, endDate)
}

func (f *fakeMarket) IndexDaily(ctx context.Context, symbol string) ([]provider.Row, error) {
	if f.indexDaily == nil {
		return nil, nil
	}
	return f.indexDaily(ctx, symbol)
}

func (f *fakeMarket) SpotSnapshot(ctx context.Context) ([]provider.Row, error) {
	if f.spotSnapshot == nil {
		return nil, nil
	}
	return f.spotSnapshot(ctx)
}

func (f *fakeMarket) TradeDates(ctx context.Context) ([]provider.Row, error) {
	if f.tradeDates == nil {
		return nil, nil
	}
	return f.tradeDates(ctx)
}

func (f *fakeMarket) HotRank(ctx context.Context) ([]provider.Row, error) {
	if f.hotRank == nil {
		return nil, nil
	}
	return f.hotRank(ctx)
}

func (f *fakeMarket) HotUp(ctx context.Context) ([]provider.Row, error) {
	if f.hotUp == nil {
		return nil, nil
	}
	return f.hotUp(ctx)
}

func (f *fakeMarket) FundFlowSummary(ctx context.Context) ([]provider.Row, error) {
	if f.fundFlowSummary == nil {
		return nil, nil
	}
	return f.fundFlowSummary(ctx)
}

func (f *fakeMarket) FundFlowRank(ctx context.Context, indicator string) ([]provider.Row, error) {
	if f.fundFlowRank == nil {
		return nil, nil
	}
	return f.fundFlowRank(ctx, indicator)
}

func (f *fakeMarket) GlobalNews(ctx context.Context) ([]provider.Row, error) {
	if f.globalNews == nil {
		return nil, nil
	}
	return f.globalNews(ctx)
}

type fakeStockRepo struct {
	codes     []string
	upserted  [][]entity.StockBasic
	upsertErr error
}

func (f *fakeStockRepo) Upsert(ctx context.Context, rows []entity.StockBasic) (int, error) {
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	f.upserted = append(f.upserted, rows)
	return len(rows), nil
}

func (f *fakeStockRepo) GetActiveCodes(ctx context.Context) ([]string, error) {
	return f.codes, nil
}

func (f *fakeStockRepo) GetActiveCodeSet(ctx context.Context) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(f.codes))
	for _, code := range f.codes {
		set[code] = struct{}{}
	}
	return set, nil
}

type fakeQuoteRepo struct {
	latest    map[string]time.Time
	upserted  [][]entity.DailyQuote
	upsertErr error
}

func (f *fakeQuoteRepo) Upsert(ctx context.Context, rows []entity.DailyQuote) (int, error) {
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	f.upserted = append(f.upserted, rows)
	return len(rows), nil
}

func (f *fakeQuoteRepo) LatestTradeDate(ctx context.Context, stockCode string) (*time.Time, error) {
	if f.latest == nil {
		return nil, nil
	}
	t, ok := f.latest[stockCode]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeQuoteRepo) writtenRows() int {
	n := 0
	for _, batch := range f.upserted {
		n += len(batch)
	}
	return n
}

type fakeIndexRepo struct {
	latest   map[string]time.Time
	upserted [][]entity.IndexQuote
}

func (f *fakeIndexRepo) Upsert(ctx context.Context, rows []entity.IndexQuote) (int, error) {
	f.upserted = append(f.upserted, rows)
	return len(rows), nil
}

func (f *fakeIndexRepo) LatestTradeDate(ctx context.Context, indexCode string) (*time.Time, error) {
	if f.latest == nil {
		return nil, nil
	}
	t, ok := f.latest[indexCode]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

type fakeCalendarRepo struct {
	upserted [][]entity.TradeCalendarDay
}

func (f *fakeCalendarRepo) Upsert(ctx context.Context, rows []entity.TradeCalendarDay) (int, error) {
	f.upserted = append(f.upserted, rows)
	return len(rows), nil
}

type fakeHotRepo struct {
	hotRank [][]entity.HotRankEntry
	hotUp   [][]entity.HotUpEntry
}

func (f *fakeHotRepo) UpsertHotRank(ctx context.Context, rows []entity.HotRankEntry) (int, error) {
	f.hotRank = append(f.hotRank, rows)
	return len(rows), nil
}

func (f *fakeHotRepo) UpsertHotUp(ctx context.Context, rows []entity.HotUpEntry) (int, error) {
	f.hotUp = append(f.hotUp, rows)
	return len(rows), nil
}

type fakeFundFlowRepo struct {
	summaries [][]entity.FundFlowSummary
	ranks     [][]entity.FundFlowRank
}

func (f *fakeFundFlowRepo) UpsertSummary(ctx context.Context, rows []entity.FundFlowSummary) (int, error) {
	f.summaries = append(f.summaries, rows)
	return len(rows), nil
}

func (f *fakeFundFlowRepo) UpsertRank(ctx context.Context, rows []entity.FundFlowRank) (int, error) {
	f.ranks = append(f.ranks, rows)
	return len(rows), nil
}

type fakeNewsRepo struct {
	existing    map[string]bool
	existsCalls int
	upserted    []entity.NewsItem
	upsertErr   error
	deleted     int64
}

func (f *fakeNewsRepo) Upsert(ctx context.Context, rows []entity.NewsItem) (int, error) {
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	f.upserted = append(f.upserted, rows...)
	return len(rows), nil
}

func (f *fakeNewsRepo) Exists(ctx context.Context, url string) (bool, error) {
	f.existsCalls++
	return f.existing[url], nil
}

func (f *fakeNewsRepo) DeleteOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	return f.deleted, nil
}

// fakeNewsCache is an in-memory stand-in for the redis dedup cache.
type fakeNewsCache struct {
	marked map[string]struct{}
}

func newFakeNewsCache() *fakeNewsCache {
	return &fakeNewsCache{marked: make(map[string]struct{})}
}

func (f *fakeNewsCache) Exists(ctx context.Context, keys ...string) *goredis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.marked[key]; ok {
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func (f *fakeNewsCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd {
	_, existed := f.marked[key]
	f.marked[key] = struct{}{}
	return goredis.NewBoolResult(!existed, nil)
}

func mustDate(t *testing.T, compact string) time.Time {
	t.Helper()
	d, err := utils.ParseCompactDate(compact)
	require.NoError(t, err)
	return d
}
