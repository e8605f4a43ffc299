package pricefeed

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"CoeffRisk/internal/domain/models"
	drepo "CoeffRisk/internal/domain/repository"
	"CoeffRisk/internal/services/risk"
	pkghttp "CoeffRisk/pkg/http"
	"CoeffRisk/pkg/logger"
)

// Client fetches daily history over HTTP, either from the caching proxy or
// straight from Financial Modeling Prep when only an API key is configured.
type Client struct {
	http     *pkghttp.Client
	httpOpts []pkghttp.ClientOption
	proxyURL string
	fmpURL   string
	apiKey   string
	log      *logger.Logger
}

type Option func(*Client)

// WithProxy routes every fetch through GET {proxyURL}?ticker=T.
func WithProxy(proxyURL string) Option {
	return func(c *Client) { c.proxyURL = strings.TrimSpace(proxyURL) }
}

// WithFMP calls {baseURL}/historical-price-full/T?apikey=K directly.
func WithFMP(baseURL, apiKey string) Option {
	return func(c *Client) {
		c.fmpURL = strings.TrimRight(baseURL, "/")
		c.apiKey = apiKey
	}
}

// WithTimeout bounds each upstream request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpOpts = append(c.httpOpts, pkghttp.WithTimeout(d))
		}
	}
}

// WithRetry retries throttled or gateway-failed fetches n times.
func WithRetry(n int, backoff time.Duration) Option {
	return func(c *Client) {
		c.httpOpts = append(c.httpOpts, pkghttp.WithRetry(n, backoff))
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l.With("pricefeed")
		}
	}
}

// New builds a client. The proxy wins when both modes are configured.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		httpOpts: []pkghttp.ClientOption{pkghttp.WithTimeout(15 * time.Second)},
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = pkghttp.NewClient(c.httpOpts...)
	if c.proxyURL == "" && (c.fmpURL == "" || c.apiKey == "") {
		return nil, fmt.Errorf("pricefeed: proxy url or fmp url and api key required")
	}
	return c, nil
}

// Fetch returns the decoded payload for ticker.
func (c *Client) Fetch(ctx context.Context, ticker string) (models.Payload, error) {
	start := time.Now()
	u, q := c.request(ticker)

	raw, err := c.http.Get(ctx, u, q)
	if err != nil {
		return models.Payload{}, fmt.Errorf("fetch %s: %w", ticker, err)
	}

	p, err := risk.DecodePayload(raw)
	if err != nil {
		return models.Payload{}, fmt.Errorf("fetch %s: %w", ticker, err)
	}

	c.log.Debug("fetched history",
		logger.String("ticker", ticker),
		logger.String("kind", string(p.Kind)),
		logger.Int("records", len(p.History)),
		logger.Duration("took", time.Since(start)),
	)
	return p, nil
}

func (c *Client) request(ticker string) (string, url.Values) {
	if c.proxyURL != "" {
		return c.proxyURL, url.Values{"ticker": {ticker}}
	}
	return c.fmpURL + "/historical-price-full/" + url.PathEscape(ticker), url.Values{"apikey": {c.apiKey}}
}

var _ drepo.PriceSource = (*Client)(nil)
