package collector

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ashare-data-collector/internal/entity"
	"ashare-data-collector/internal/provider"
)

func rankRow(indicator, code string) provider.Row {
	return provider.Row{
		"序号": 1.0, "代码": code, "名称": "测试",
		indicator + "主力净流入-净额": 1.0e7,
	}
}

func TestCollectRanksIndicatorsAreIndependent(t *testing.T) {
	var fetched []string
	market := &fakeMarket{
		fundFlowRank: func(ctx context.Context, indicator string) ([]provider.Row, error) {
			fetched = append(fetched, indicator)
			if indicator == entity.FundFlowIndicator5Day {
				return nil, fmt.Errorf("provider request failed")
			}
			return []provider.Row{rankRow(indicator, "000001")}, nil
		},
	}
	repo := &fakeFundFlowRepo{}
	stocks := &fakeStockRepo{codes: []string{"000001"}}
	c := NewFundFlowCollector(market, repo, stocks, testLogger(t))

	outcome := c.CollectRanks(context.Background())

	assert.Equal(t, entity.FundFlowIndicators, fetched,
		"one failing indicator does not stop the others")
	assert.Equal(t, StatePartial, outcome.State)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, 3, outcome.RowsWritten)
}

func TestCollectRanksFiltersUnknownStocks(t *testing.T) {
	market := &fakeMarket{
		fundFlowRank: func(ctx context.Context, indicator string) ([]provider.Row, error) {
			return []provider.Row{
				rankRow(indicator, "000001"),
				rankRow(indicator, "999999"),
			}, nil
		},
	}
	repo := &fakeFundFlowRepo{}
	stocks := &fakeStockRepo{codes: []string{"000001"}}
	c := NewFundFlowCollector(market, repo, stocks, testLogger(t))

	outcome := c.CollectRanks(context.Background())

	assert.Equal(t, StatePartial, outcome.State, "dropped rows make the pass partial")
	assert.Equal(t, len(entity.FundFlowIndicators), outcome.RowsWritten)
	assert.Equal(t, len(entity.FundFlowIndicators), outcome.RowsDropped)
	for _, batch := range repo.ranks {
		for _, rec := range batch {
			assert.Equal(t, "000001", rec.StockCode)
		}
	}
}

func TestCollectSummaryRequiresKeyColumns(t *testing.T) {
	market := &fakeMarket{
		fundFlowSummary: func(ctx context.Context) ([]provider.Row, error) {
			return []provider.Row{
				{"交易日": "2024-01-10", "类型": "北向", "板块": "沪股通", "资金方向": "流入", "成交净买额": 1.0e8},
				{"交易日": "2024-01-10", "类型": "北向"},
			}, nil
		},
	}
	repo := &fakeFundFlowRepo{}
	c := NewFundFlowCollector(market, repo, &fakeStockRepo{}, testLogger(t))

	outcome := c.CollectSummary(context.Background())

	require.Equal(t, StatePartial, outcome.State)
	assert.Equal(t, 1, outcome.RowsWritten)
	assert.Equal(t, 1, outcome.RowsDropped)
}

func TestStockBasicCollectMarksSTAndExchange(t *testing.T) {
	market := &fakeMarket{
		stockList: func(ctx context.Context) ([]provider.Row, error) {
			return []provider.Row{
				{"code": "600000", "name": "浦发银行"},
				{"code": "000004", "name": "*ST国华"},
				{"name": "缺代码"},
			}, nil
		},
	}
	stocks := &fakeStockRepo{}
	c := NewStockBasicCollector(market, stocks, testLogger(t))

	outcome := c.Collect(context.Background())

	assert.Equal(t, StatePartial, outcome.State)
	assert.Equal(t, 2, outcome.RowsWritten)
	require.Len(t, stocks.upserted, 1)

	records := stocks.upserted[0]
	assert.Equal(t, "SH", records[0].Exchange)
	assert.False(t, records[0].IsST)
	assert.Equal(t, "SZ", records[1].Exchange)
	assert.True(t, records[1].IsST)
}
