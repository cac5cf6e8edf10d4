package bods

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

const userAgent = "bods-client/1.0"

// Client requests data from the Bus Open Data Service API. It is safe for
// concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	maxRetries uint64

	newBackOff func() backoff.BackOff
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds each request. It applies to a copy of the HTTP client,
// so a shared client passed to WithHTTPClient is left untouched.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithMaxRetries sets how many times a request failing with a server error or
// a transport error is retried. Client errors are never retried.
func WithMaxRetries(maxRetries uint64) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    APIURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.timeout > 0 {
		httpClient := *c.httpClient
		httpClient.Timeout = c.timeout
		c.httpClient = &httpClient
	}

	return c
}

// get performs a GET against path on the configured API with the api key
// attached to the query.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	requestURL, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, err
	}
	requestURL.RawQuery = params.Encode()

	return c.getURL(ctx, requestURL)
}

func (c *Client) getURL(ctx context.Context, requestURL *url.URL) ([]byte, error) {
	query := requestURL.Query()
	query.Set("api_key", c.apiKey)
	requestURL.RawQuery = query.Encode()

	var body []byte

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL.String(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		content, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode != http.StatusOK {
			apiError := &APIError{StatusCode: resp.StatusCode, Reason: string(content)}
			if resp.StatusCode >= http.StatusInternalServerError {
				return apiError
			}
			return backoff.Permanent(apiError)
		}

		body = content
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		log.Debug().Err(err).Str("path", requestURL.Path).Str("wait", wait.String()).Msg("Retrying BODS request")
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}

	return body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, v any) error {
	body, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}

	return nil
}
