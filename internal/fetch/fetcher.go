// Package fetch turns an HTTP exchange into a single blocking call that a
// sequential sync worker can make.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"
)

const (
	// DefaultTimeout bounds a single fetch, including reading the body
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response size (32MB)
	MaxResponseSize = 32 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "benthic/1.0"
)

// Getter issues blocking GET requests.
type Getter interface {
	Fetch(ctx context.Context, rawURL string, query url.Values) (*Response, error)
}

// Response is a completed, successful exchange.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Options configures a Fetcher.
type Options struct {
	Timeout         time.Duration
	MaxResponseSize int64
	UserAgent       string
	Logger          *slog.Logger
}

// Fetcher owns a private transport. Create one per sync run and Close it
// when the run ends; it is not shared across runs.
type Fetcher struct {
	transport *http.Transport
	client    *http.Client
	timeout   time.Duration
	maxSize   int64
	userAgent string
	logger    *slog.Logger
	closed    atomic.Bool
}

// New creates a fetcher with its own connection pool.
func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxResponseSize <= 0 {
		opts.MaxResponseSize = MaxResponseSize
	}
	if opts.UserAgent == "" {
		opts.UserAgent = UserAgent
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          4,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: opts.Timeout,
	}

	return &Fetcher{
		transport: transport,
		client:    &http.Client{Transport: transport},
		timeout:   opts.Timeout,
		maxSize:   opts.MaxResponseSize,
		userAgent: opts.UserAgent,
		logger:    opts.Logger,
	}
}

type result struct {
	resp *Response
	err  error
}

// Fetch issues one GET and blocks until it completes, the per-fetch timeout
// expires, or ctx is cancelled. query is merged into rawURL's own query.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	if f.closed.Load() {
		return nil, ErrClosed
	}
	if ctx.Err() != nil {
		return nil, ErrCancelled
	}

	reqURL, err := buildURL(rawURL, query)
	if err != nil {
		return nil, err
	}

	// The request gets its own context so that a timeout and a caller
	// cancellation can be told apart.
	reqCtx, abort := context.WithCancel(context.Background())
	defer abort()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	start := time.Now()
	f.logger.Debug("fetch", "method", http.MethodGet, "url", reqURL)

	done := make(chan result, 1)
	go func() {
		resp, err := f.do(req)
		done <- result{resp: resp, err: err}
	}()

	timer := time.NewTimer(f.timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			f.logger.Debug("fetch failed", "url", reqURL, "error", r.err, "duration", time.Since(start))
			return nil, r.err
		}
		f.logger.Debug("fetch complete", "url", reqURL, "status", r.resp.StatusCode,
			"bytes", len(r.resp.Body), "duration", time.Since(start))
		return r.resp, nil
	case <-timer.C:
		abort()
		f.logger.Warn("fetch timed out", "url", reqURL, "timeout", f.timeout)
		return nil, &NetworkError{URL: reqURL, Err: context.DeadlineExceeded, timeout: true}
	case <-ctx.Done():
		abort()
		f.logger.Debug("fetch cancelled", "url", reqURL)
		return nil, ErrCancelled
	}
}

// do runs on the transport goroutine.
func (f *Fetcher) do(req *http.Request) (*Response, error) {
	reqURL := req.URL.String()

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: reqURL, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return nil, NewHTTPError(resp.StatusCode, reqURL, resp.Status)
	}

	if resp.ContentLength > f.maxSize {
		return nil, &NetworkError{URL: reqURL, Err: ErrResponseTooLarge}
	}

	// +1 to detect if limit exceeded
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, &NetworkError{URL: reqURL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if int64(len(body)) > f.maxSize {
		return nil, &NetworkError{URL: reqURL, Err: ErrResponseTooLarge}
	}

	return &Response{
		URL:         reqURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// Close releases the transport's idle connections. Fetch fails with
// ErrClosed afterwards.
func (f *Fetcher) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	f.transport.CloseIdleConnections()
	return nil
}

func buildURL(rawURL string, query url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid url %q: must be absolute", rawURL)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
