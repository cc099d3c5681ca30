package alphavantage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"RegimeScan/internal/domain/models"
	drepo "RegimeScan/internal/domain/repository"
	"RegimeScan/internal/service/ratelimit"
	"RegimeScan/pkg/cache"
	xhttp "RegimeScan/pkg/http"
	applogger "RegimeScan/pkg/logger"

	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://www.alphavantage.co/query"

// ErrNoData is returned when the API has no daily series for a symbol,
// which is how Alpha Vantage signals unknown tickers and throttled keys.
var ErrNoData = errors.New("alphavantage: no daily series for symbol")

// Client wraps Alpha Vantage's TIME_SERIES_DAILY endpoint. Responses are
// cached so repeated scans of the same symbol within the TTL do not spend
// API quota, and a shared token bucket keeps requests under the free-tier
// per-minute budget.
type Client struct {
	apiKey    string
	baseURL   string
	http      *xhttp.Client
	cache     cache.Service
	cacheTTL  time.Duration
	limiter   *ratelimit.Limiter
	maxPerMin float64
	l         *applogger.Logger
}

type Option func(*Client)

// WithCache attaches a cache for fetched series.
func WithCache(c cache.Service, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.cacheTTL = ttl
	}
}

// WithLogger injects a structured logger.
func WithLogger(l *applogger.Logger) Option {
	return func(cl *Client) { cl.l = l }
}

// WithBaseURL overrides the endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(cl *Client) { cl.baseURL = u }
}

// New creates an Alpha Vantage client.
func New(apiKey string, timeout time.Duration, maxPerMinute float64, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxPerMinute <= 0 {
		maxPerMinute = 5 // free tier
	}
	c := &Client{
		apiKey:    apiKey,
		baseURL:   defaultBaseURL,
		http:      xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter:   ratelimit.New(),
		maxPerMin: maxPerMinute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// dailyResponse mirrors the TIME_SERIES_DAILY payload. Prices arrive as
// strings keyed by numbered field names.
type dailyResponse struct {
	Series map[string]struct {
		Open   string `json:"1. open"`
		High   string `json:"2. high"`
		Low    string `json:"3. low"`
		Close  string `json:"4. close"`
		Volume string `json:"5. volume"`
	} `json:"Time Series (Daily)"`
}

// DailyBars fetches the full daily history for symbol, sorted by date
// ascending.
func (c *Client) DailyBars(ctx context.Context, symbol string) ([]models.DailyBar, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}

	cacheKey := cache.GenerateKey("av:daily", symbol)
	if c.cache != nil {
		var cached []models.DailyBar
		if err := c.cache.Get(ctx, cacheKey, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	if err := c.limiter.Wait(ctx, c.apiKey, c.maxPerMin, c.maxPerMin/60.0); err != nil {
		return nil, fmt.Errorf("alphavantage rate limit: %w", err)
	}

	start := time.Now()
	var resp dailyResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL,
		QueryParams: map[string][]string{
			"function":   {"TIME_SERIES_DAILY"},
			"symbol":     {symbol},
			"apikey":     {c.apiKey},
			"outputsize": {"full"},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("alphavantage query %s: %w", symbol, err)
	}
	if len(resp.Series) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	bars := make([]models.DailyBar, 0, len(resp.Series))
	for date, row := range resp.Series {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue // skip malformed keys rather than failing the series
		}
		bar := models.DailyBar{Date: day, Symbol: symbol}
		if bar.Open, err = parsePrice(row.Open); err != nil {
			return nil, fmt.Errorf("parse open %s %s: %w", symbol, date, err)
		}
		if bar.High, err = parsePrice(row.High); err != nil {
			return nil, fmt.Errorf("parse high %s %s: %w", symbol, date, err)
		}
		if bar.Low, err = parsePrice(row.Low); err != nil {
			return nil, fmt.Errorf("parse low %s %s: %w", symbol, date, err)
		}
		if bar.Close, err = parsePrice(row.Close); err != nil {
			return nil, fmt.Errorf("parse close %s %s: %w", symbol, date, err)
		}
		if bar.Volume, err = parsePrice(row.Volume); err != nil {
			return nil, fmt.Errorf("parse volume %s %s: %w", symbol, date, err)
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	if c.l != nil {
		c.l.Info("alphavantage daily series fetched",
			applogger.String("symbol", symbol),
			applogger.Int("bars", len(bars)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}

	if c.cache != nil && c.cacheTTL > 0 {
		if err := c.cache.Set(ctx, cacheKey, bars, c.cacheTTL); err != nil && c.l != nil {
			c.l.Warn("alphavantage cache set failed", applogger.Error(err))
		}
	}
	return bars, nil
}

// parsePrice decodes a decimal price string without accumulating float
// parse error, then converts for storage.
func parsePrice(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

var _ drepo.PriceSource = (*Client)(nil)
