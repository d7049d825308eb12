package collector

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"ashare-data-collector/internal/entity"
	"ashare-data-collector/internal/provider"
	"ashare-data-collector/pkg/utils"
)

// The normalizers below are total: any unparseable field degrades to nil
// (stored as SQL NULL), and a row is dropped only when a key column (code
// or date) cannot be recovered. They never return an error.

// nullTokens are provider placeholders that mean "no value".
var nullTokens = map[string]struct{}{
	"":     {},
	"-":    {},
	"--":   {},
	"nan":  {},
	"none": {},
	"null": {},
}

func isNullToken(s string) bool {
	_, ok := nullTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// parseFloat coerces a raw provider value to *float64. NaN and infinities
// map to nil so they never reach the database.
func parseFloat(v interface{}) *float64 {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		return &t
	case float32:
		f := float64(t)
		return parseFloat(f)
	case int:
		f := float64(t)
		return &f
	case int64:
		f := float64(t)
		return &f
	case string:
		if isNullToken(t) {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// parseInt coerces a raw provider value to *int, truncating fractions.
func parseInt(v interface{}) *int {
	f := parseFloat(v)
	if f == nil {
		return nil
	}
	i := int(*f)
	return &i
}

func intOrZero(v interface{}) int {
	if i := parseInt(v); i != nil {
		return *i
	}
	return 0
}

// parseString trims the value and maps null tokens to nil.
func parseString(v interface{}) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if isNullToken(s) {
		return nil
	}
	return &s
}

func stringOrEmpty(v interface{}) string {
	if s := parseString(v); s != nil {
		return *s
	}
	return ""
}

var dateLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	utils.CompactDateLayout,
}

// parseDate recovers a calendar day from the formats the provider emits:
// ISO dates, compact dates, datetimes, and epoch milliseconds.
func parseDate(v interface{}) (time.Time, bool) {
	loc := utils.GetCSTLocation()
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if isNullToken(s) {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.ParseInLocation(layout, s, loc); err == nil {
				return utils.TruncateToDay(parsed), true
			}
		}
		return time.Time{}, false
	case float64:
		// epoch milliseconds
		if t <= 0 || math.IsNaN(t) || math.IsInf(t, 0) {
			return time.Time{}, false
		}
		return utils.TruncateToDay(time.UnixMilli(int64(t)).In(loc)), true
	default:
		return time.Time{}, false
	}
}

// deriveExchange maps a bare stock code to its listing exchange.
func deriveExchange(code string) string {
	switch {
	case strings.HasPrefix(code, "6"):
		return "SH"
	case strings.HasPrefix(code, "0"), strings.HasPrefix(code, "3"):
		return "SZ"
	case strings.HasPrefix(code, "4"), strings.HasPrefix(code, "8"), strings.HasPrefix(code, "9"):
		return "BJ"
	default:
		return ""
	}
}

// normalizeStockBasic builds master records from the code/name listing.
func normalizeStockBasic(rows []provider.Row, now time.Time) ([]entity.StockBasic, int) {
	out := make([]entity.StockBasic, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		code := stringOrEmpty(row.Get("code"))
		name := stringOrEmpty(row.Get("name"))
		if code == "" {
			dropped++
			continue
		}
		out = append(out, entity.StockBasic{
			StockCode:  code,
			StockName:  name,
			Exchange:   deriveExchange(code),
			IsST:       strings.Contains(strings.ToUpper(name), "ST"),
			UpdateTime: now,
		})
	}
	return out, dropped
}

// normalizeDailyQuote converts the per-stock history payload. Rows without
// a parseable trade date are dropped and counted.
func normalizeDailyQuote(stockCode string, rows []provider.Row, now time.Time) ([]entity.DailyQuote, int) {
	out := make([]entity.DailyQuote, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		tradeDate, ok := parseDate(row.Get("日期"))
		if !ok {
			dropped++
			continue
		}
		out = append(out, entity.DailyQuote{
			StockCode:    stockCode,
			TradeDate:    tradeDate,
			Open:         parseFloat(row.Get("开盘")),
			High:         parseFloat(row.Get("最高")),
			Low:          parseFloat(row.Get("最低")),
			Close:        parseFloat(row.Get("收盘")),
			Change:       parseFloat(row.Get("涨跌额")),
			PctChg:       parseFloat(row.Get("涨跌幅")),
			Volume:       parseFloat(row.Get("成交量")),
			Amount:       parseFloat(row.Get("成交额")),
			TurnoverRate: parseFloat(row.Get("换手率")),
			UpdateTime:   now,
		})
	}
	return out, dropped
}

// normalizeSpotQuote converts the whole-market snapshot into DailyQuote
// rows for the given trade date.
func normalizeSpotQuote(rows []provider.Row, tradeDate, now time.Time) ([]entity.DailyQuote, int) {
	out := make([]entity.DailyQuote, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		code := stringOrEmpty(row.Get("代码"))
		if code == "" {
			dropped++
			continue
		}
		out = append(out, entity.DailyQuote{
			StockCode:    code,
			TradeDate:    tradeDate,
			Open:         parseFloat(row.Get("今开")),
			High:         parseFloat(row.Get("最高")),
			Low:          parseFloat(row.Get("最低")),
			Close:        parseFloat(row.Get("最新价")),
			Change:       parseFloat(row.Get("涨跌额")),
			PctChg:       parseFloat(row.Get("涨跌幅")),
			Volume:       parseFloat(row.Get("成交量")),
			Amount:       parseFloat(row.Get("成交额")),
			TurnoverRate: parseFloat(row.Get("换手率")),
			UpdateTime:   now,
		})
	}
	return out, dropped
}

// normalizeIndexQuote converts one index's daily series and derives Change
// and PctChg day-over-day within the fetched window. The first row of the
// window has no previous close, so both stay nil there.
func normalizeIndexQuote(code, name string, rows []provider.Row, now time.Time) ([]entity.IndexQuote, int) {
	out := make([]entity.IndexQuote, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		tradeDate, ok := parseDate(row.Get("date"))
		if !ok {
			dropped++
			continue
		}
		out = append(out, entity.IndexQuote{
			IndexCode:  code,
			TradeDate:  tradeDate,
			IndexName:  name,
			Open:       parseFloat(row.Get("open")),
			High:       parseFloat(row.Get("high")),
			Low:        parseFloat(row.Get("low")),
			Close:      parseFloat(row.Get("close")),
			Volume:     parseFloat(row.Get("volume")),
			UpdateTime: now,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].TradeDate.Before(out[j].TradeDate)
	})
	for i := 1; i < len(out); i++ {
		prev, cur := out[i-1].Close, out[i].Close
		if prev == nil || cur == nil || *prev == 0 {
			continue
		}
		change := *cur - *prev
		pct := change / *prev * 100
		out[i].Change = &change
		out[i].PctChg = &pct
	}
	return out, dropped
}

// normalizeTradeCalendar expands the provider's trading-day list into a
// full calendar span: every day of [startYear, endYear] gets a row, with
// non-trading weekdays flagged as holidays.
func normalizeTradeCalendar(rows []provider.Row, startYear, endYear int, now time.Time) ([]entity.TradeCalendarDay, int) {
	tradeDays := make(map[string]struct{}, len(rows))
	dropped := 0
	for _, row := range rows {
		d, ok := parseDate(row.Get("trade_date"))
		if !ok {
			dropped++
			continue
		}
		tradeDays[utils.FormatCompactDate(d)] = struct{}{}
	}

	loc := utils.GetCSTLocation()
	from := time.Date(startYear, 1, 1, 0, 0, 0, 0, loc)
	to := time.Date(endYear, 12, 31, 0, 0, 0, 0, loc)

	var out []entity.TradeCalendarDay
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		_, isTradeDay := tradeDays[utils.FormatCompactDate(d)]
		weekDay := int(d.Weekday())
		if weekDay == 0 {
			weekDay = 7
		}
		out = append(out, entity.TradeCalendarDay{
			CalendarDate: d,
			IsTradeDay:   isTradeDay,
			WeekDay:      weekDay,
			IsHoliday:    !isTradeDay && utils.IsWeekday(d),
			UpdateTime:   now,
		})
	}
	return out, dropped
}

// normalizeHotRank converts the popularity ranking snapshot.
func normalizeHotRank(rows []provider.Row, tradeDate, now time.Time) ([]entity.HotRankEntry, int) {
	out := make([]entity.HotRankEntry, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		rank := parseInt(row.Get("当前排名"))
		code := normalizeHotCode(stringOrEmpty(row.Get("代码")))
		if rank == nil || code == "" {
			dropped++
			continue
		}
		out = append(out, entity.HotRankEntry{
			TradeDate:   tradeDate,
			CurrentRank: *rank,
			StockCode:   code,
			StockName:   stringOrEmpty(row.Get("股票名称")),
			LatestPrice: parseFloat(row.Get("最新价")),
			Change:      parseFloat(row.Get("涨跌额")),
			PctChg:      parseFloat(row.Get("涨跌幅")),
			UpdateTime:  now,
		})
	}
	return out, dropped
}

// normalizeHotUp converts the rising-popularity snapshot.
func normalizeHotUp(rows []provider.Row, tradeDate, now time.Time) ([]entity.HotUpEntry, int) {
	out := make([]entity.HotUpEntry, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		rank := parseInt(row.Get("当前排名"))
		code := normalizeHotCode(stringOrEmpty(row.Get("代码")))
		if rank == nil || code == "" {
			dropped++
			continue
		}
		out = append(out, entity.HotUpEntry{
			TradeDate:   tradeDate,
			CurrentRank: *rank,
			RankChange:  intOrZero(row.Get("排名较昨日变动")),
			StockCode:   code,
			StockName:   stringOrEmpty(row.Get("股票名称")),
			LatestPrice: parseFloat(row.Get("最新价")),
			Change:      parseFloat(row.Get("涨跌额")),
			PctChg:      parseFloat(row.Get("涨跌幅")),
			UpdateTime:  now,
		})
	}
	return out, dropped
}

// normalizeHotCode strips the exchange prefix the ranking endpoints attach
// (SZ000001 -> 000001) so codes join against the stock master.
func normalizeHotCode(code string) string {
	code = strings.TrimSpace(code)
	if len(code) > 2 {
		prefix := strings.ToUpper(code[:2])
		if prefix == "SZ" || prefix == "SH" || prefix == "BJ" {
			return code[2:]
		}
	}
	return code
}

// normalizeFundFlowSummary converts the cross-border fund-flow summary.
func normalizeFundFlowSummary(rows []provider.Row, now time.Time) ([]entity.FundFlowSummary, int) {
	out := make([]entity.FundFlowSummary, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		tradeDate, ok := parseDate(row.Get("交易日"))
		typ := stringOrEmpty(row.Get("类型"))
		sector := stringOrEmpty(row.Get("板块"))
		direction := stringOrEmpty(row.Get("资金方向"))
		if !ok || typ == "" || sector == "" || direction == "" {
			dropped++
			continue
		}
		out = append(out, entity.FundFlowSummary{
			TradeDate:    tradeDate,
			Type:         typ,
			Sector:       sector,
			Direction:    direction,
			Status:       parseString(row.Get("交易状态")),
			NetBuyAmount: parseFloat(row.Get("成交净买额")),
			NetInflow:    parseFloat(row.Get("资金净流入")),
			DayBalance:   parseFloat(row.Get("当日资金余额")),
			UpCount:      parseInt(row.Get("上涨数")),
			FlatCount:    parseInt(row.Get("持平数")),
			DownCount:    parseInt(row.Get("下跌数")),
			RelatedIndex: stringOrEmpty(row.Get("相关指数")),
			IndexPctChg:  parseFloat(row.Get("指数涨跌幅")),
			UpdateTime:   now,
		})
	}
	return out, dropped
}

// normalizeFundFlowRank converts one lookback indicator's ranking payload.
// Column headers embed the indicator as a prefix (今日主力净流入-净额,
// 3日主力净流入-净额, ...), so the mapping is built per indicator.
func normalizeFundFlowRank(indicator string, rows []provider.Row, tradeDate, now time.Time) ([]entity.FundFlowRank, int) {
	out := make([]entity.FundFlowRank, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		code := stringOrEmpty(row.Get("代码"))
		if code == "" {
			dropped++
			continue
		}
		out = append(out, entity.FundFlowRank{
			StockCode:        code,
			Indicator:        indicator,
			TradeDate:        tradeDate,
			Rank:             intOrZero(row.Get("序号")),
			StockName:        stringOrEmpty(row.Get("名称")),
			LatestPrice:      parseFloat(row.Get("最新价")),
			PctChg:           parseFloat(row.Get(indicator + "涨跌幅")),
			MainNetAmount:    parseFloat(row.Get(indicator + "主力净流入-净额")),
			MainNetRate:      parseFloat(row.Get(indicator + "主力净流入-净占比")),
			SuperLargeAmount: parseFloat(row.Get(indicator + "超大单净流入-净额")),
			SuperLargeRate:   parseFloat(row.Get(indicator + "超大单净流入-净占比")),
			LargeAmount:      parseFloat(row.Get(indicator + "大单净流入-净额")),
			LargeRate:        parseFloat(row.Get(indicator + "大单净流入-净占比")),
			MediumAmount:     parseFloat(row.Get(indicator + "中单净流入-净额")),
			MediumRate:       parseFloat(row.Get(indicator + "中单净流入-净占比")),
			SmallAmount:      parseFloat(row.Get(indicator + "小单净流入-净额")),
			SmallRate:        parseFloat(row.Get(indicator + "小单净流入-净占比")),
			UpdateTime:       now,
		})
	}
	return out, dropped
}

var pubTimeLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var pubTimeYearlessLayouts = []string{
	"01-02 15:04:05",
	"01-02 15:04",
	"01-02",
}

// parsePubTime walks the publication-time fallback chain: full datetime
// with fraction, full datetime, bare date, then month-day assuming the
// current year. Unrecognized strings yield nil; the raw text is still
// stored alongside.
func parsePubTime(raw string, now time.Time) *time.Time {
	raw = strings.TrimSpace(raw)
	if isNullToken(raw) {
		return nil
	}
	loc := utils.GetCSTLocation()
	for _, layout := range pubTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t
		}
	}
	for _, layout := range pubTimeYearlessLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			t = time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
			return &t
		}
	}
	return nil
}

// normalizeNewsRow converts one global-news row. Rows without a URL are
// useless for dedup and are rejected.
func normalizeNewsRow(row provider.Row, now time.Time) (entity.NewsItem, bool) {
	url := stringOrEmpty(row.Get("链接"))
	if url == "" {
		return entity.NewsItem{}, false
	}
	pubTime := stringOrEmpty(row.Get("发布时间"))
	return entity.NewsItem{
		URL:         url,
		Tag:         utils.CleanToValidUTF8(stringOrEmpty(row.Get("标题"))),
		Summary:     utils.CleanToValidUTF8(stringOrEmpty(row.Get("摘要"))),
		PubTime:     pubTime,
		PubDateTime: parsePubTime(pubTime, now),
		CreateTime:  now,
	}, true
}
