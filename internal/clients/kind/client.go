// Package kind provides a client for the KRX KIND corporate listing download
package kind

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/stockinfo/internal/common"
	"github.com/bobmcallan/stockinfo/internal/interfaces"
	"github.com/bobmcallan/stockinfo/internal/models"
)

const (
	DefaultBaseURL   = "http://kind.krx.co.kr"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 2 // requests per second

	listingPath = "/corpgeneral/corpList.do"
	sourceName  = "kind"
)

// Client implements the ListingSource interface against KIND
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
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

// NewClient creates a new KIND listing client.
// No API key is required; the download is public.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetListing downloads and parses the listing table for a market.
// Every call goes to the network.
func (c *Client) GetListing(ctx context.Context, market models.Market) ([]models.ListingRow, error) {
	marketType := market.KINDMarketType()
	if marketType == "" {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownMarket, market)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("method", "download")
	params.Set("marketType", marketType)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, listingPath, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/vnd.ms-excel")

	c.logger.Debug().Str("market", string(market)).Msg("KIND listing request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Error().Err(err).Str("market", string(market)).Dur("elapsed", elapsed).Msg("KIND listing request failed")
		return nil, &models.UpstreamError{Source: sourceName, Message: "listing request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Str("market", string(market)).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("KIND listing non-OK response")
		return nil, &models.UpstreamError{
			Source:     sourceName,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("listing download for %s", marketType),
		}
	}

	// The download is served as EUC-KR; transcode using the declared charset.
	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode listing charset: %w", err)
	}

	rows, err := parseListing(body)
	if err != nil {
		return nil, &models.UpstreamError{Source: sourceName, Message: "unreadable listing", Err: err}
	}

	c.logger.Info().Str("market", string(market)).Int("rows", len(rows)).Dur("elapsed", elapsed).Msg("KIND listing call")

	return rows, nil
}

// Ensure Client implements ListingSource
var _ interfaces.ListingSource = (*Client)(nil)
