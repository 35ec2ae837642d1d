package tcga

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/terrycain/tcga-cache/pkg/e"
)

const DefaultBlockSize = 1024 * 1024

// Options configures the TCGA web service client.
type Options struct {
	// ServiceURL is the base of the data access matrix web service.
	// Default: DefaultServiceURL
	ServiceURL string

	// Timeout bounds submit and status requests. Archive downloads are bounded
	// only by their context.
	// Default: 60s
	Timeout time.Duration

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 4
	MaxIdleConnsPerHost int

	// UserAgent is sent with every request.
	UserAgent string
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		ServiceURL:          DefaultServiceURL,
		Timeout:             60 * time.Second,
		MaxIdleConnsPerHost: 4,
		UserAgent:           "tcga-cache/0.1",
	}
}

// Client speaks the job submission, status and archive protocol of the service.
type Client struct {
	client *http.Client
	opts   Options

	// Sleep waits between status queries. Replaced in tests.
	Sleep func(ctx context.Context, d time.Duration) error
	// Now is the clock used for poll deadlines. Replaced in tests.
	Now func() time.Time
}

func NewClient(opts Options) *Client {
	if opts.ServiceURL == "" {
		opts.ServiceURL = DefaultServiceURL
	}
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = 4
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConnsPerHost:   opts.MaxIdleConnsPerHost,
		MaxIdleConns:          opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: opts.Timeout,
	}

	return &Client{
		client: &http.Client{Transport: transport},
		opts:   opts,
		Sleep:  sleepContext,
		Now:    time.Now,
	}
}

// Fetch performs a GET and returns the body of a 200 response. The caller closes it.
func (c *Client) Fetch(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, 0, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, 0, remoteError(resp)
	}

	return resp.Body, resp.ContentLength, nil
}

// getAPI performs a GET bounded by the configured timeout and returns status and body.
func (c *Client) getAPI(ctx context.Context, url string) (int, string, []byte, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	resp, err := c.get(ctx, url)
	if err != nil {
		return 0, "", nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", nil, &e.TransportError{URL: url, Err: err}
	}
	return resp.StatusCode, resp.Request.URL.String(), body, nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &e.TransportError{URL: url, Err: err}
	}
	return resp, nil
}

func remoteError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &e.RemoteServiceError{
		StatusCode: resp.StatusCode,
		URL:        resp.Request.URL.String(),
		Body:       string(body),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
