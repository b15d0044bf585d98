package data

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBarsBaseURL = "https://data.alpaca.markets"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=data_test -destination=mock_http_client_test.go -source=bars.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Bar is one daily OHLCV bar.
type Bar struct {
	Time   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume int64     `json:"v"`
}

type barsResponse struct {
	Symbol        string  `json:"symbol"`
	Bars          []Bar   `json:"bars"`
	NextPageToken *string `json:"next_page_token"`
}

// BarsError represents an error from the bars API.
type BarsError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter string // For rate limit errors
}

func (e *BarsError) Error() string {
	return e.Message
}

// BarsClient fetches daily bars over HTTP and turns them into volatility estimates.
type BarsClient struct {
	keyID      string
	secretKey  string
	baseURL    string
	httpClient HTTPClient
	cache      *ResponseCache
	now        func() time.Time
}

type BarsClientOption func(*BarsClient)

func WithBaseURL(baseURL string) BarsClientOption {
	return func(c *BarsClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(httpClient HTTPClient) BarsClientOption {
	return func(c *BarsClient) {
		c.httpClient = httpClient
	}
}

// WithCache enables caching of fetched bars. A nil cache disables it.
func WithCache(cache *ResponseCache) BarsClientOption {
	return func(c *BarsClient) {
		c.cache = cache
	}
}

// WithClock overrides the time used to compute lookback windows.
func WithClock(now func() time.Time) BarsClientOption {
	return func(c *BarsClient) {
		c.now = now
	}
}

func NewBarsClient(keyID, secretKey string, options ...BarsClientOption) *BarsClient {
	c := &BarsClient{
		keyID:      keyID,
		secretKey:  secretKey,
		baseURL:    defaultBarsBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

var _ VolatilityProvider = (*BarsClient)(nil)

// HistoricalVolatility implements VolatilityProvider. Failures are logged and reported as
// an absent value.
func (c *BarsClient) HistoricalVolatility(ctx context.Context, ticker string, lookbackDays int) (float64, bool) {
	if lookbackDays <= 0 {
		log.Printf("[Bars] Invalid lookback %d days for %s", lookbackDays, ticker)
		return 0, false
	}
	end := c.now().UTC()
	start := end.AddDate(0, 0, -lookbackDays)

	bars, err := c.FetchBars(ctx, ticker, start, end)
	if err != nil {
		log.Printf("[Bars] Volatility unavailable for %s: %v", ticker, err)
		return 0, false
	}
	vol, err := EstimateVolatility(Closes(bars))
	if err != nil {
		log.Printf("[Bars] Volatility unavailable for %s: %v", ticker, err)
		return 0, false
	}
	log.Printf("[Bars] %s historical volatility %.4f from %d bars (lookback=%dd)", ticker, vol, len(bars), lookbackDays)
	return vol, true
}

// FetchBars returns daily bars for symbol in [start, end], following pagination.
func (c *BarsClient) FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if start.After(end) {
		return nil, fmt.Errorf("start must be before end")
	}
	if c.keyID == "" || c.secretKey == "" {
		return nil, &BarsError{
			Code:    "MISSING_API_KEY",
			Message: "API key id and secret are required",
		}
	}

	cacheKey := GenerateCacheKey(symbol, start, end)
	if cached, found := c.cache.Get(cacheKey); found {
		log.Printf("[Bars] Cache hit: %d bars (symbol=%s, start=%s, end=%s)",
			len(cached), symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
		return cached, nil
	}

	var (
		all   []Bar
		token string
	)
	for {
		page, err := c.fetchPage(ctx, symbol, start, end, token)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Bars...)
		if page.NextPageToken == nil || *page.NextPageToken == "" {
			break
		}
		token = *page.NextPageToken
	}

	log.Printf("[Bars] Success: received %d bars (symbol=%s)", len(all), symbol)
	c.cache.Set(cacheKey, all)
	return all, nil
}

func (c *BarsClient) fetchPage(ctx context.Context, symbol string, start, end time.Time, pageToken string) (*barsResponse, error) {
	u, err := url.Parse(fmt.Sprintf("%s/v2/stocks/%s/bars", c.baseURL, url.PathEscape(symbol)))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("timeframe", "1Day")
	q.Set("start", start.Format("2006-01-02"))
	q.Set("end", end.Format("2006-01-02"))
	q.Set("adjustment", "all")
	q.Set("limit", "10000")
	if pageToken != "" {
		q.Set("page_token", pageToken)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("APCA-API-KEY-ID", c.keyID)
	req.Header.Set("APCA-API-SECRET-KEY", c.secretKey)
	req.Header.Set("Accept", "application/json")

	log.Printf("[Bars] Request: GET %s (symbol=%s, start=%s, end=%s)",
		u.Path, symbol, q.Get("start"), q.Get("end"))

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(started)
	if err != nil {
		log.Printf("[Bars] Request failed: %v (duration: %v)", err, duration)
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &BarsError{
			StatusCode: resp.StatusCode,
			Code:       "UNAUTHORIZED",
			Message:    "Unauthorized: invalid API key or insufficient permissions",
		}
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		return nil, &BarsError{
			StatusCode: resp.StatusCode,
			Code:       "RATE_LIMIT_EXCEEDED",
			Message:    fmt.Sprintf("Rate limit exceeded. Retry after: %s", retryAfter),
			RetryAfter: retryAfter,
		}
	default:
		return nil, &BarsError{
			StatusCode: resp.StatusCode,
			Code:       "API_ERROR",
			Message:    fmt.Sprintf("API returned status %d", resp.StatusCode),
		}
	}

	var page barsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &page, nil
}

// Closes extracts close prices in bar order.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
