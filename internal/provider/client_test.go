package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ashare-data-collector/pkg/logger"
)

func testClient(t *testing.T, baseURL string) (*Client, *[]time.Duration) {
	t.Helper()
	log, err := logger.New("error", "json")
	require.NoError(t, err)

	c := NewClient(Config{
		BaseURL:             baseURL,
		Timeout:             5 * time.Second,
		MaxRequestPerMinute: 600000,
		RetryCount:          3,
		RetryDelay:          5 * time.Second,
	}, log)

	var sleeps []time.Duration
	c.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return c, &sleeps
}

func TestFetchRetriesUntilSuccess(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"code":"000001","name":"平安银行"}]`))
	}))
	defer srv.Close()

	c, sleeps := testClient(t, srv.URL)
	rows, err := c.StockList(context.Background())

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "000001", rows[0].Str("code"))
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, *sleeps,
		"fixed delay between attempts")
}

func TestFetchFailsAfterRetryExhaustion(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL)
	_, err := c.HotRank(context.Background())

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestFetchRetriesMalformedResponses(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		_, _ = w.Write([]byte(`{"detail":"not an array"}`))
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL)
	_, err := c.SpotSnapshot(context.Background())

	require.Error(t, err)
	assert.Equal(t, 3, attempts, "malformed payloads are retried like any other failure")
}

func TestStockDailyHistoryPassesWindowParams(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL)
	_, err := c.StockDailyHistory(context.Background(), "000001", "20240101", "20240110")

	require.NoError(t, err)
	assert.Equal(t, "/api/public/stock_zh_a_hist", gotPath)
	assert.Equal(t, "000001", gotQuery["symbol"][0])
	assert.Equal(t, "20240101", gotQuery["start_date"][0])
	assert.Equal(t, "20240110", gotQuery["end_date"][0])
	assert.Equal(t, "daily", gotQuery["period"][0])
}

func TestFundFlowRankPassesIndicator(t *testing.T) {
	var gotIndicator string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIndicator = r.URL.Query().Get("indicator")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL)
	_, err := c.FundFlowRank(context.Background(), "3日")

	require.NoError(t, err)
	assert.Equal(t, "3日", gotIndicator)
}
