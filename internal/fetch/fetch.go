// Package fetch retrieves external SVG resources over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

const (
	fetchDialTimeout           = 5 * time.Second
	fetchKeepAlive             = 30 * time.Second
	fetchTLSHandshakeTimeout   = 5 * time.Second
	fetchResponseHeaderTimeout = 10 * time.Second
	fetchExpectContinueTimeout = 1 * time.Second
	fetchIdleConnTimeout       = 90 * time.Second

	// a fetched SVG larger than this is not a fetched SVG
	maxBodyBytes = 8 << 20
)

var fetchTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   fetchDialTimeout,
		KeepAlive: fetchKeepAlive,
	}).DialContext,
	TLSHandshakeTimeout:   fetchTLSHandshakeTimeout,
	ResponseHeaderTimeout: fetchResponseHeaderTimeout,
	ExpectContinueTimeout: fetchExpectContinueTimeout,
	IdleConnTimeout:       fetchIdleConnTimeout,
}

// Fetcher retrieves the markup behind a URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// StatusError reports a non-success HTTP response
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

// HTTPFetcher is the production Fetcher. A single attempt is made per
// fetch: a conversion that cannot get its markup simply does not happen.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	log       zerolog.Logger
}

// NewHTTPFetcher creates a fetcher with the given per-request timeout
func NewHTTPFetcher(timeout time.Duration, userAgent string, log zerolog.Logger) *HTTPFetcher {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil
	retryClient.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: fetchTransport,
	}

	return &HTTPFetcher{
		client:    retryClient.StandardClient(),
		userAgent: userAgent,
		log:       log,
	}
}

// Fetch performs a GET of the URL and returns the body as text
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	f.log.Debug().Str("url", url).Msg("fetching svg")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return "", &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read body of %s: %w", url, err)
	}

	f.log.Debug().Str("url", url).Int("bytes", len(body)).Msg("fetched svg")
	return string(body), nil
}
