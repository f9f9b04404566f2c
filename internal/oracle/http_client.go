package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultTimeout     = 2 * time.Second
	DefaultMaxRetries  = 0
	DefaultRetryDelay  = 100 * time.Millisecond
	DefaultMaxDelay    = 1 * time.Second
	DefaultBackoffMult = 2.0
)

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	Prices []float64 `json:"prices"`
	Symbol string    `json:"symbol"`
}

// PredictResponse is the successful response of POST /predict.
type PredictResponse struct {
	Symbol         string  `json:"symbol"`
	PredictedPrice float64 `json:"predictedPrice"`
	Signal         string  `json:"signal"`
	Confidence     float64 `json:"confidence"`
	CurrentPrice   float64 `json:"currentPrice"`
}

// ErrorResponse is the failure response of POST /predict.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HTTPClient implements Oracle against a remote prediction service.
type HTTPClient struct {
	endpoint    string
	symbol      string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithSymbol sets the symbol reported to the prediction service.
func WithSymbol(symbol string) ClientOption {
	return func(c *HTTPClient) {
		c.symbol = symbol
	}
}

// NewHTTPClient creates a client for the prediction service at baseURL.
// The request goes to baseURL + "/predict".
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    strings.TrimRight(baseURL, "/") + "/predict",
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PredictNext implements Oracle. Any transport, status or decoding failure
// is reported as ErrUnavailable.
func (c *HTTPClient) PredictNext(ctx context.Context, window []float64) (Prediction, error) {
	if len(window) == 0 {
		return Prediction{}, ErrEmptyWindow
	}

	body, err := json.Marshal(PredictRequest{Prices: copyWindow(window), Symbol: c.symbol})
	if err != nil {
		return Prediction{}, fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Prediction{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		pred, err := c.do(ctx, body)
		if err == nil {
			return pred, nil
		}
		lastErr = err
	}

	return Prediction{}, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// do performs a single request.
func (c *HTTPClient) do(ctx context.Context, body []byte) (Prediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Prediction{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Prediction{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return Prediction{}, fmt.Errorf("status %d: %s", resp.StatusCode, errResp.Error)
		}
		return Prediction{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out PredictResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return Prediction{}, fmt.Errorf("unmarshal response: %w", err)
	}

	return Prediction{Price: out.PredictedPrice, Confidence: out.Confidence}, nil
}

var _ Oracle = (*HTTPClient)(nil)
