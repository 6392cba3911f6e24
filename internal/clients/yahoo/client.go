// Package yahoo provides a client for the Yahoo Finance chart API
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/stockinfo/internal/common"
	"github.com/bobmcallan/stockinfo/internal/interfaces"
	"github.com/bobmcallan/stockinfo/internal/models"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
	DefaultTimezone  = "Asia/Seoul"

	sourceName = "yahoo"
)

// Client implements the PriceSource interface using the v8 chart endpoint
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	location   *time.Location
	autoAdjust bool
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithTimezone sets the exchange time zone used to place period boundaries.
// A blank name keeps DefaultTimezone.
func WithTimezone(name string) ClientOption {
	return func(c *Client) {
		c.location = loadLocation(name)
	}
}

// WithAutoAdjust scales open/high/low/close by the adjusted close ratio
func WithAutoAdjust(enabled bool) ClientOption {
	return func(c *Client) {
		c.autoAdjust = enabled
	}
}

// NewClient creates a new Yahoo Finance chart client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:     common.NewSilentLogger(),
		location:   loadLocation(DefaultTimezone),
		autoAdjust: true,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// loadLocation resolves an IANA zone name. time.LoadLocation maps "" to UTC,
// so a blank name is treated as the exchange default.
func loadLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		// Fallback to KST fixed zone if tzdata is unavailable (e.g., minimal container)
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// GetDailyHistory retrieves daily bars for [from, to). from and to are
// calendar dates; the boundaries are placed at midnight exchange time.
// An unknown symbol or a range without trading yields an empty series.
func (c *Client) GetDailyHistory(ctx context.Context, symbol string, from, to time.Time) (*models.PriceSeries, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	period1 := c.midnight(from)
	period2 := c.midnight(to)

	params := url.Values{}
	params.Set("period1", strconv.FormatInt(period1.Unix(), 10))
	params.Set("period2", strconv.FormatInt(period2.Unix(), 10))
	params.Set("interval", "1d")
	params.Set("events", "div,splits")
	params.Set("includeAdjustedClose", "true")

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("symbol", symbol).Int64("period1", period1.Unix()).Int64("period2", period2.Unix()).Msg("Yahoo chart request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Error().Err(err).Str("symbol", symbol).Dur("elapsed", elapsed).Msg("Yahoo chart request failed")
		return nil, &models.UpstreamError{Source: sourceName, Message: "chart request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.UpstreamError{Source: sourceName, StatusCode: resp.StatusCode, Message: "read body", Err: err}
	}

	var chart chartResponse
	decodeErr := json.Unmarshal(body, &chart)

	if resp.StatusCode != http.StatusOK {
		// Unknown symbols come back as 404 with a structured "Not Found" error.
		if decodeErr == nil && chart.Chart.Error != nil && chart.Chart.Error.Code == "Not Found" {
			c.logger.Info().Str("symbol", symbol).Str("description", chart.Chart.Error.Description).Msg("Yahoo chart symbol not found")
			return &models.PriceSeries{Symbol: symbol}, nil
		}
		c.logger.Warn().Str("symbol", symbol).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("Yahoo chart non-OK response")
		return nil, &models.UpstreamError{
			Source:     sourceName,
			StatusCode: resp.StatusCode,
			Message:    truncate(string(body), 200),
		}
	}

	if decodeErr != nil {
		return nil, &models.UpstreamError{Source: sourceName, StatusCode: resp.StatusCode, Message: "failed to decode response", Err: decodeErr}
	}
	if chart.Chart.Error != nil {
		return nil, &models.UpstreamError{
			Source:     sourceName,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description),
		}
	}

	series := c.toSeries(symbol, &chart, models.CalendarDate(from), models.CalendarDate(to))

	c.logger.Info().Str("symbol", symbol).Int("bars", series.Len()).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("Yahoo chart call")

	return series, nil
}

// midnight places a calendar date at 00:00 in the exchange time zone.
func (c *Client) midnight(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, c.location)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Ensure Client implements PriceSource
var _ interfaces.PriceSource = (*Client)(nil)
