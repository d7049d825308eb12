package collector

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ashare-data-collector/internal/provider"
	"ashare-data-collector/pkg/utils"
)

func TestParseFloatDegradesToNil(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want *float64
	}{
		{"plain float", 12.5, float64Ptr(12.5)},
		{"numeric string", "12.5", float64Ptr(12.5)},
		{"padded string", " 7 ", float64Ptr(7)},
		{"empty string", "", nil},
		{"dash placeholder", "-", nil},
		{"nan token", "nan", nil},
		{"none token", "None", nil},
		{"garbage string", "abc", nil},
		{"nan value", math.NaN(), nil},
		{"positive infinity", math.Inf(1), nil},
		{"negative infinity", math.Inf(-1), nil},
		{"nil value", nil, nil},
		{"bool value", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFloat(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.want, *got)
			}
		})
	}
}

func TestParseStringMapsNullTokensToNil(t *testing.T) {
	assert.Nil(t, parseString("nan"))
	assert.Nil(t, parseString("  "))
	assert.Nil(t, parseString(nil))
	require.NotNil(t, parseString(" 平安银行 "))
	assert.Equal(t, "平安银行", *parseString(" 平安银行 "))
}

func TestNormalizeDailyQuoteDropsOnlyUnkeyedRows(t *testing.T) {
	now := utils.TimeNowCST()
	rows := []provider.Row{
		{"日期": "2024-01-05", "开盘": 10.0, "收盘": 10.5, "成交量": "nan", "涨跌幅": 5.0},
		{"日期": "not-a-date", "开盘": 11.0},
		{"日期": "2024-01-08", "开盘": "abc", "收盘": 10.8},
	}

	records, dropped := normalizeDailyQuote("000001", rows, now)
	require.Len(t, records, 2)
	assert.Equal(t, 1, dropped)

	first := records[0]
	assert.Equal(t, "000001", first.StockCode)
	assert.True(t, first.TradeDate.Equal(mustDate(t, "20240105")))
	assert.Equal(t, 10.5, *first.Close)
	assert.Nil(t, first.Volume, "nan volume degrades to NULL")

	assert.Nil(t, records[1].Open, "unparseable open degrades to NULL")
	assert.Equal(t, 10.8, *records[1].Close)
}

func TestNormalizeIndexQuoteDerivesDayOverDayChange(t *testing.T) {
	now := utils.TimeNowCST()
	// Out of order on purpose: derivation must sort by date first.
	rows := []provider.Row{
		{"date": "2024-01-08", "close": 110.0},
		{"date": "2024-01-05", "close": 100.0},
		{"date": "2024-01-09", "close": 99.0},
	}

	records, dropped := normalizeIndexQuote("sh000001", "上证指数", rows, now)
	require.Len(t, records, 3)
	assert.Zero(t, dropped)

	assert.Nil(t, records[0].Change, "first day of the window has no baseline")
	require.NotNil(t, records[1].Change)
	assert.InDelta(t, 10.0, *records[1].Change, 1e-9)
	assert.InDelta(t, 10.0, *records[1].PctChg, 1e-9)
	assert.InDelta(t, -11.0, *records[2].Change, 1e-9)
	assert.InDelta(t, -10.0, *records[2].PctChg, 1e-9)
}

func TestNormalizeTradeCalendarCoversFullSpan(t *testing.T) {
	now := utils.TimeNowCST()
	rows := []provider.Row{
		{"trade_date": "2024-01-02"},
		{"trade_date": "2024-01-03"},
	}

	records, dropped := normalizeTradeCalendar(rows, 2024, 2024, now)
	assert.Zero(t, dropped)
	require.Len(t, records, 366, "2024 is a leap year")

	byDate := make(map[string]int, len(records))
	for i, rec := range records {
		byDate[utils.FormatCompactDate(rec.CalendarDate)] = i
	}

	jan1 := records[byDate["20240101"]]
	assert.False(t, jan1.IsTradeDay)
	assert.Equal(t, 1, jan1.WeekDay, "2024-01-01 is a Monday")
	assert.True(t, jan1.IsHoliday, "non-trading weekday is a holiday")

	jan2 := records[byDate["20240102"]]
	assert.True(t, jan2.IsTradeDay)
	assert.False(t, jan2.IsHoliday)

	jan6 := records[byDate["20240106"]]
	assert.False(t, jan6.IsTradeDay)
	assert.Equal(t, 6, jan6.WeekDay, "2024-01-06 is a Saturday")
	assert.False(t, jan6.IsHoliday, "ordinary weekend is not a holiday")

	sunday := records[byDate["20240107"]]
	assert.Equal(t, 7, sunday.WeekDay, "Sunday maps to 7")
}

func TestNormalizeFundFlowRankUsesIndicatorPrefixedColumns(t *testing.T) {
	now := utils.TimeNowCST()
	tradeDate := mustDate(t, "20240105")
	rows := []provider.Row{
		{
			"序号":          1.0,
			"代码":          "000001",
			"名称":          "平安银行",
			"最新价":         10.5,
			"3日涨跌幅":       2.5,
			"3日主力净流入-净额":  1.5e8,
			"3日主力净流入-净占比": 12.3,
			"3日小单净流入-净额":  -2.0e7,
		},
		{"名称": "缺代码"},
	}

	records, dropped := normalizeFundFlowRank("3日", rows, tradeDate, now)
	require.Len(t, records, 1)
	assert.Equal(t, 1, dropped)

	rec := records[0]
	assert.Equal(t, "3日", rec.Indicator)
	assert.Equal(t, 1, rec.Rank)
	assert.InDelta(t, 2.5, *rec.PctChg, 1e-9)
	assert.InDelta(t, 1.5e8, *rec.MainNetAmount, 1e-3)
	assert.InDelta(t, -2.0e7, *rec.SmallAmount, 1e-3)
	assert.Nil(t, rec.LargeAmount)
}

func TestNormalizeHotCodeStripsExchangePrefix(t *testing.T) {
	assert.Equal(t, "000001", normalizeHotCode("SZ000001"))
	assert.Equal(t, "600000", normalizeHotCode("SH600000"))
	assert.Equal(t, "000001", normalizeHotCode("000001"))
	assert.Equal(t, "832000", normalizeHotCode("BJ832000"))
}

func TestParsePubTimeFallbackChain(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, utils.GetCSTLocation())

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"datetime with fraction", "2024-01-05 14:30:05.123", "2024-01-05T14:30:05"},
		{"datetime", "2024-01-05 14:30:05", "2024-01-05T14:30:05"},
		{"bare date", "2024-01-05", "2024-01-05T00:00:00"},
		{"month-day assumes current year", "01-05 14:30:05", "2024-01-05T14:30:05"},
		{"unparseable", "soon", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePubTime(tt.in, now)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Format("2006-01-02T15:04:05"))
		})
	}
}

func TestNormalizeNewsRowRequiresURL(t *testing.T) {
	now := utils.TimeNowCST()

	item, ok := normalizeNewsRow(provider.Row{
		"标题":   "测试标题",
		"摘要":   "测试摘要",
		"发布时间": "2024-01-05 14:30:05",
		"链接":   "https://example.com/news/1",
	}, now)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/news/1", item.URL)
	assert.Equal(t, "测试标题", item.Tag)
	require.NotNil(t, item.PubDateTime)

	_, ok = normalizeNewsRow(provider.Row{"标题": "无链接"}, now)
	assert.False(t, ok)
}

func TestDeriveExchange(t *testing.T) {
	assert.Equal(t, "SH", deriveExchange("600000"))
	assert.Equal(t, "SZ", deriveExchange("000001"))
	assert.Equal(t, "SZ", deriveExchange("300750"))
	assert.Equal(t, "BJ", deriveExchange("832000"))
	assert.Equal(t, "", deriveExchange("T00001"))
}

func float64Ptr(f float64) *float64 { return &f }
