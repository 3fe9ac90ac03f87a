package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quoteSummaryBody = `{
  "quoteSummary": {
    "result": [{
      "price": {
        "symbol": "AAPL",
        "shortName": "Apple Inc.",
        "longName": "Apple Inc.",
        "exchangeName": "NasdaqGS",
        "marketCap": {"raw": 2900000000000, "fmt": "2.9T"}
      },
      "summaryDetail": {
        "trailingPE": {"raw": 29.5, "fmt": "29.50"},
        "forwardPE": {"raw": 27.1, "fmt": "27.10"}
      },
      "assetProfile": {
        "sector": "Technology",
        "website": "https://www.apple.com",
        "longBusinessSummary": "Apple designs consumer electronics.",
        "fullTimeEmployees": 161000
      },
      "earnings": {
        "financialsChart": {
          "yearly": [
            {"date": 2022, "revenue": {"raw": 394000000000}, "earnings": {"raw": 99800000000}},
            {"date": 2023, "revenue": {"raw": 383000000000}, "earnings": {"raw": 97000000000}}
          ]
        }
      }
    }],
    "error": null
  }
}`

const timeseriesBody = `{
  "timeseries": {
    "result": [
      {
        "meta": {"symbol": ["AAPL"], "type": ["annualTotalRevenue"]},
        "annualTotalRevenue": [
          {"asOfDate": "2022-09-30", "reportedValue": {"raw": 394000000000}},
          {"asOfDate": "2023-09-30", "reportedValue": {"raw": 383000000000}}
        ]
      },
      {
        "meta": {"symbol": ["AAPL"], "type": ["annualNetIncome"]},
        "annualNetIncome": [
          {"asOfDate": "2022-09-30", "reportedValue": {"raw": 99800000000}},
          {"asOfDate": "2023-09-30", "reportedValue": {"raw": 97000000000}}
        ]
      }
    ],
    "error": null
  }
}`

type providerCounts struct {
	quoteSummary int
	timeseries   int
}

func newTestYahooService(t *testing.T) (*yahooServiceImpl, *providerCounts) {
	t.Helper()
	counts := &providerCounts{}

	mux := http.NewServeMux()
	mux.HandleFunc("/v10/finance/quoteSummary/", func(w http.ResponseWriter, r *http.Request) {
		counts.quoteSummary++
		w.Write([]byte(quoteSummaryBody))
	})
	mux.HandleFunc("/ws/fundamentals-timeseries/v1/finance/timeseries/", func(w http.ResponseWriter, r *http.Request) {
		counts.timeseries++
		w.Write([]byte(timeseriesBody))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	s := &yahooServiceImpl{
		httpClient:     server.Client(),
		summaryCache:   cache.New(time.Minute, time.Minute),
		cacheTTL:       time.Minute,
		isInitialized:  true,
		crumb:          "test-crumb",
		sessionBaseURL: server.URL,
		crumbURL:       server.URL + "/v1/test/getcrumb",
		queryBaseURL:   server.URL,
	}
	return s, counts
}

func TestYahooLookupDecodesSnapshot(t *testing.T) {
	s, _ := newTestYahooService(t)

	snapshot, err := s.Lookup(context.Background(), "AAPL")
	require.NoError(t, err)

	info := snapshot.Info
	assert.Equal(t, "Apple Inc.", info.ShortName)
	assert.Equal(t, 2.9e12, *info.MarketCap)
	assert.Equal(t, 29.5, *info.TrailingPE)
	assert.Equal(t, "Technology", *info.Sector)
	assert.Equal(t, "https://www.apple.com", *info.Website)
	assert.Equal(t, "NasdaqGS", *info.Exchange)
	assert.Equal(t, int64(161000), *info.FullTimeEmployees)

	require.NotNil(t, snapshot.Financials)
	assert.Equal(t, []string{"2022-09-30", "2023-09-30"}, snapshot.Financials.Periods)
	require.Len(t, snapshot.Financials.Rows, 2)
	assert.Equal(t, "Total Revenue", snapshot.Financials.Rows[0].Label)
	assert.Equal(t, 3.83e11, *snapshot.Financials.Rows[0].Values[1])
	assert.Equal(t, "Net Income", snapshot.Financials.Rows[1].Label)

	require.Len(t, snapshot.Earnings, 2)
	assert.Equal(t, "2023", snapshot.Earnings[1].Date)
	assert.Equal(t, 9.7e10, *snapshot.Earnings[1].Earnings)
}

func TestYahooLookupCachesQuoteSummaryOnly(t *testing.T) {
	s, counts := newTestYahooService(t)

	_, err := s.Lookup(context.Background(), "AAPL")
	require.NoError(t, err)
	_, err = s.Lookup(context.Background(), "AAPL")
	require.NoError(t, err)

	// the metadata response is cached; the statement is re-fetched each time
	assert.Equal(t, 1, counts.quoteSummary)
	assert.Equal(t, 2, counts.timeseries)
}

func TestYahooLookupSurvivesMissingTimeseries(t *testing.T) {
	counts := &providerCounts{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v10/finance/quoteSummary/", func(w http.ResponseWriter, r *http.Request) {
		counts.quoteSummary++
		w.Write([]byte(quoteSummaryBody))
	})
	mux.HandleFunc("/ws/fundamentals-timeseries/v1/finance/timeseries/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	s := &yahooServiceImpl{
		httpClient:     server.Client(),
		summaryCache:   cache.New(time.Minute, time.Minute),
		cacheTTL:       time.Minute,
		isInitialized:  true,
		crumb:          "test-crumb",
		sessionBaseURL: server.URL,
		crumbURL:       server.URL + "/v1/test/getcrumb",
		queryBaseURL:   server.URL,
	}

	snapshot, err := s.Lookup(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Nil(t, snapshot.Financials)
	assert.Equal(t, "Apple Inc.", snapshot.Info.ShortName)
}

func TestYahooLookupFailsWhenQuoteSummaryEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteSummary": {"result": [], "error": null}}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	s := &yahooServiceImpl{
		httpClient:     server.Client(),
		summaryCache:   cache.New(time.Minute, time.Minute),
		cacheTTL:       time.Minute,
		isInitialized:  true,
		crumb:          "test-crumb",
		sessionBaseURL: server.URL,
		crumbURL:       server.URL + "/v1/test/getcrumb",
		queryBaseURL:   server.URL,
	}

	_, err := s.Lookup(context.Background(), "ZZZZ")
	assert.Error(t, err)
}
