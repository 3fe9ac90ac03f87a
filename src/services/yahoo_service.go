package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/stockscope/backend/src/logger"
	"github.com/username/stockscope/backend/src/models"
	"golang.org/x/net/publicsuffix"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Annual line items requested from the fundamentals timeseries, in statement
// order, mapped to the row labels the resolver matches against.
var annualStatementItems = []struct {
	Type  string
	Label string
}{
	{"annualTotalRevenue", "Total Revenue"},
	{"annualGrossProfit", "Gross Profit"},
	{"annualOperatingIncome", "Operating Income"},
	{"annualNetIncome", "Net Income"},
}

// --- API Response Structs ---

// yahooNumber is Yahoo's {"raw": ..., "fmt": ...} wrapper. Raw stays nil when
// the field is absent or null.
type yahooNumber struct {
	Raw *float64 `json:"raw"`
}

type yahooQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				Symbol       string      `json:"symbol"`
				ShortName    string      `json:"shortName"`
				LongName     string      `json:"longName"`
				ExchangeName string      `json:"exchangeName"`
				MarketCap    yahooNumber `json:"marketCap"`
			} `json:"price"`
			SummaryDetail struct {
				TrailingPE yahooNumber `json:"trailingPE"`
				ForwardPE  yahooNumber `json:"forwardPE"`
			} `json:"summaryDetail"`
			AssetProfile struct {
				Sector              string `json:"sector"`
				Website             string `json:"website"`
				LongBusinessSummary string `json:"longBusinessSummary"`
				FullTimeEmployees   *int64 `json:"fullTimeEmployees"`
			} `json:"assetProfile"`
			Earnings struct {
				FinancialsChart struct {
					Yearly []struct {
						Date     json.Number `json:"date"`
						Revenue  yahooNumber `json:"revenue"`
						Earnings yahooNumber `json:"earnings"`
					} `json:"yearly"`
				} `json:"financialsChart"`
			} `json:"earnings"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"quoteSummary"`
}

type yahooTimeseriesResponse struct {
	Timeseries struct {
		Result []json.RawMessage `json:"result"`
		Error  any               `json:"error"`
	} `json:"timeseries"`
}

type timeseriesMeta struct {
	Meta struct {
		Type []string `json:"type"`
	} `json:"meta"`
}

type timeseriesValue struct {
	AsOfDate      string      `json:"asOfDate"`
	ReportedValue yahooNumber `json:"reportedValue"`
}

// --- Service Implementation ---

type yahooServiceImpl struct {
	httpClient    *http.Client
	summaryCache  *cache.Cache
	cacheTTL      time.Duration
	isInitialized bool
	crumb         string
	mu            sync.Mutex

	// base URLs are fields so tests can point the client at a local server
	sessionBaseURL string
	crumbURL       string
	queryBaseURL   string
}

func NewYahooService(timeout, cacheTTL time.Duration) MarketDataService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	s := &yahooServiceImpl{
		httpClient:     &http.Client{Jar: jar, Timeout: timeout},
		summaryCache:   cache.New(cacheTTL, 2*cacheTTL),
		cacheTTL:       cacheTTL,
		sessionBaseURL: "https://fc.yahoo.com",
		crumbURL:       "https://query1.finance.yahoo.com/v1/test/getcrumb",
		queryBaseURL:   "https://query1.finance.yahoo.com",
	}

	go s.initializeSession()

	return s
}

func (s *yahooServiceImpl) initializeSession() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isInitialized && s.crumb != "" {
		return
	}

	logger.L.Info("Initializing Yahoo Finance session and fetching crumb...")

	req1, _ := http.NewRequest("GET", s.sessionBaseURL, nil)
	req1.Header.Set("User-Agent", userAgent)
	if resp1, err := s.httpClient.Do(req1); err == nil {
		io.Copy(io.Discard, resp1.Body)
		resp1.Body.Close()
	}

	req2, _ := http.NewRequest("GET", s.crumbURL, nil)
	req2.Header.Set("User-Agent", userAgent)
	resp2, err := s.httpClient.Do(req2)
	if err != nil {
		logger.L.Error("Failed to fetch crumb", "error", err)
		return
	}
	defer resp2.Body.Close()

	if resp2.StatusCode == http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp2.Body)
		s.crumb = string(bodyBytes)
		s.isInitialized = true
		logger.L.Info("Yahoo session initialized successfully")
	} else {
		logger.L.Warn("Failed to fetch crumb", "status", resp2.Status)
	}
}

func (s *yahooServiceImpl) ensureSession() {
	s.mu.Lock()
	needsInit := !s.isInitialized || s.crumb == ""
	s.mu.Unlock()

	if needsInit {
		s.initializeSession()
	}
}

func (s *yahooServiceImpl) invalidateSession() {
	s.mu.Lock()
	s.isInitialized = false
	s.mu.Unlock()
}

// Lookup fetches company metadata, the annual statement, and the earnings
// fallback table for one symbol. Metadata failure fails the lookup; a missing
// statement or earnings table only degrades the snapshot.
func (s *yahooServiceImpl) Lookup(ctx context.Context, symbol string) (*models.ProviderSnapshot, error) {
	s.ensureSession()

	info, earnings, err := s.fetchQuoteSummary(ctx, symbol)
	if err != nil {
		return nil, err
	}

	snapshot := &models.ProviderSnapshot{Info: info, Earnings: earnings}

	stmt, err := s.fetchAnnualFinancials(ctx, symbol)
	if err != nil {
		logger.L.Warn("Could not fetch annual financials", "symbol", symbol, "error", err)
	} else {
		snapshot.Financials = stmt
	}

	return snapshot, nil
}

// fetchQuoteSummary hits the v10 quoteSummary endpoint. Raw response bodies
// are cached per symbol so repeat lookups inside the TTL skip the network.
// The annual statement is fetched separately and never cached.
func (s *yahooServiceImpl) fetchQuoteSummary(ctx context.Context, symbol string) (models.CompanyInfo, []models.EarningsPeriod, error) {
	var info models.CompanyInfo

	cacheKey := "quoteSummary/" + symbol
	var body []byte
	if cached, found := s.summaryCache.Get(cacheKey); found {
		body = cached.([]byte)
		logger.L.Debug("quoteSummary cache hit", "symbol", symbol)
	} else {
		url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=price,summaryDetail,assetProfile,defaultKeyStatistics,earnings&crumb=%s",
			s.queryBaseURL, symbol, s.crumb)
		fetched, err := s.getJSON(ctx, url)
		if err != nil {
			return info, nil, fmt.Errorf("failed to call quoteSummary API: %w", err)
		}
		body = fetched
		s.summaryCache.Set(cacheKey, body, s.cacheTTL)
	}

	var data yahooQuoteSummaryResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return info, nil, fmt.Errorf("failed to decode quoteSummary response: %w", err)
	}
	if len(data.QuoteSummary.Result) == 0 {
		return info, nil, fmt.Errorf("quoteSummary returned no result for %s", symbol)
	}

	res := data.QuoteSummary.Result[0]
	info = models.CompanyInfo{
		Symbol:            res.Price.Symbol,
		ShortName:         res.Price.ShortName,
		LongName:          res.Price.LongName,
		MarketCap:         res.Price.MarketCap.Raw,
		TrailingPE:        res.SummaryDetail.TrailingPE.Raw,
		ForwardPE:         res.SummaryDetail.ForwardPE.Raw,
		FullTimeEmployees: res.AssetProfile.FullTimeEmployees,
	}
	if res.AssetProfile.Sector != "" {
		info.Sector = &res.AssetProfile.Sector
	}
	if res.AssetProfile.Website != "" {
		info.Website = &res.AssetProfile.Website
	}
	if res.Price.ExchangeName != "" {
		info.Exchange = &res.Price.ExchangeName
	}
	if res.AssetProfile.LongBusinessSummary != "" {
		info.LongBusinessSummary = &res.AssetProfile.LongBusinessSummary
	}

	var earnings []models.EarningsPeriod
	for _, yearly := range res.Earnings.FinancialsChart.Yearly {
		earnings = append(earnings, models.EarningsPeriod{
			Date:     yearly.Date.String(),
			Revenue:  yearly.Revenue.Raw,
			Earnings: yearly.Earnings.Raw,
		})
	}

	return info, earnings, nil
}

// fetchAnnualFinancials assembles a FinancialStatement from the fundamentals
// timeseries endpoint: one row per requested line item, columns keyed by
// asOfDate in the order the provider reports them.
func (s *yahooServiceImpl) fetchAnnualFinancials(ctx context.Context, symbol string) (*models.FinancialStatement, error) {
	types := ""
	for i, item := range annualStatementItems {
		if i > 0 {
			types += ","
		}
		types += item.Type
	}
	period2 := time.Now().Unix()
	period1 := time.Now().AddDate(-6, 0, 0).Unix()
	url := fmt.Sprintf("%s/ws/fundamentals-timeseries/v1/finance/timeseries/%s?type=%s&period1=%d&period2=%d&crumb=%s",
		s.queryBaseURL, symbol, types, period1, period2, s.crumb)

	body, err := s.getJSON(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to call timeseries API: %w", err)
	}

	var data yahooTimeseriesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to decode timeseries response: %w", err)
	}
	if data.Timeseries.Error != nil {
		return nil, fmt.Errorf("timeseries API returned an error: %v", data.Timeseries.Error)
	}

	// values per line-item type, keyed by asOfDate
	valuesByType := make(map[string]map[string]*float64)
	var periods []string
	seenPeriods := make(map[string]bool)

	for _, raw := range data.Timeseries.Result {
		var meta timeseriesMeta
		if err := json.Unmarshal(raw, &meta); err != nil || len(meta.Meta.Type) == 0 {
			continue
		}
		itemType := meta.Meta.Type[0]

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		var values []timeseriesValue
		if err := json.Unmarshal(fields[itemType], &values); err != nil {
			continue
		}

		byDate := make(map[string]*float64)
		for _, v := range values {
			if v.AsOfDate == "" {
				continue
			}
			byDate[v.AsOfDate] = v.ReportedValue.Raw
			if !seenPeriods[v.AsOfDate] {
				seenPeriods[v.AsOfDate] = true
				periods = append(periods, v.AsOfDate)
			}
		}
		valuesByType[itemType] = byDate
	}

	if len(periods) == 0 {
		return nil, fmt.Errorf("timeseries returned no annual periods for %s", symbol)
	}

	stmt := &models.FinancialStatement{Periods: periods}
	for _, item := range annualStatementItems {
		byDate, ok := valuesByType[item.Type]
		if !ok {
			continue
		}
		row := models.StatementRow{Label: item.Label, Values: make([]*float64, len(periods))}
		for i, period := range periods {
			row.Values[i] = byDate[period]
		}
		stmt.Rows = append(stmt.Rows, row)
	}

	return stmt, nil
}

func (s *yahooServiceImpl) getJSON(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		s.invalidateSession()
		return nil, fmt.Errorf("status 401 (Unauthorized) - crumb invalid")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned non-OK status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
