package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/ratelimit"
	"resty.dev/v3"

	"github.com/quantghar/paper-trader/internal/config"
	"github.com/quantghar/paper-trader/internal/logger"
	"github.com/quantghar/paper-trader/internal/model"
)

const _historicalURL = "/historical"

// ErrRateLimited signals the provider throttled the request. The fetcher
// retries these with backoff; any other error skips the instrument for the
// cycle.
var ErrRateLimited = errors.New("provider rate limited")

// Provider is the market-data fetch contract. Empty results are valid (no
// new bars); rate-limit conditions must be reported as ErrRateLimited.
type Provider interface {
	GetCandles(ctx context.Context, instrument string, interval model.CandleInterval, from, to time.Time) ([]model.Bar, error)
}

type candlesResponse struct {
	Candles []model.Bar `json:"candles"`
}

type providerErrorResponse struct {
	Message string `json:"message"`
}

// Client talks to the historical-candles endpoint of the data provider over
// HTTP. A process-wide limiter keeps the request rate below the provider's
// documented ceiling regardless of how many instruments are tracked.
type Client struct {
	c           *resty.Client
	rateLimiter ratelimit.Limiter

	logger logger.Logger
}

func NewClient(cfg config.ProviderConfig, logger logger.Logger) *Client {
	client := resty.New().
		SetLogger(logger).
		SetBaseURL(cfg.Address).
		SetAuthToken(cfg.APIToken)

	return &Client{
		c:           client,
		rateLimiter: ratelimit.New(cfg.RequestsPerMinute, ratelimit.Per(1*time.Minute)),
		logger:      logger,
	}
}

func (c *Client) GetCandles(ctx context.Context, instrument string, interval model.CandleInterval, from, to time.Time) ([]model.Bar, error) {
	if from.After(to) {
		return nil, fmt.Errorf("invalid interval %s - %s", from, to)
	}

	c.rateLimiter.Take()

	req := c.c.R().
		SetQueryParams(map[string]string{
			"instrument": instrument,
			"interval":   string(interval),
			"from":       from.UTC().Format(time.RFC3339),
			"to":         to.UTC().Format(time.RFC3339),
		}).
		SetResult(&candlesResponse{}).
		SetError(&providerErrorResponse{}).
		SetContext(ctx)

	resp, err := req.Get(_historicalURL)
	if err != nil {
		return nil, fmt.Errorf("%w: can't request candles for %s", err, instrument)
	}
	defer resp.Body.Close()

	c.logger.Debugf("got response %s status: %s, %s", resp.Request.URL, resp.Status(), resp.Duration())

	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, instrument)
	}
	if resp.IsError() {
		response := resp.Error().(*providerErrorResponse)
		return nil, fmt.Errorf("%s: candles request error for %s", response.Message, instrument)
	}
	if resp.IsSuccess() {
		return resp.Result().(*candlesResponse).Candles, nil
	}

	return nil, fmt.Errorf("candles unexpected response for %s: %s", instrument, resp.Status())
}
