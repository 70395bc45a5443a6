package imageload

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// HTTPSource downloads images with a shared rate limit and retries transient
// failures (network errors, 429 and 5xx) with exponential backoff.
type HTTPSource struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	maxSize    int64
}

type HTTPOption func(*HTTPSource)

// WithHTTPClient replaces the default client (15s timeout).
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.httpClient = c }
}

// WithBackoff sets the first retry delay; later retries double it.
func WithBackoff(d time.Duration) HTTPOption {
	return func(s *HTTPSource) { s.backoff = d }
}

func WithMaxSize(n int64) HTTPOption {
	return func(s *HTTPSource) { s.maxSize = n }
}

// NewHTTPSource allows rps requests per second. rps <= 0 disables the limit.
func NewHTTPSource(userAgent string, rps float64, maxRetries int, opts ...HTTPOption) *HTTPSource {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	s := &HTTPSource{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: maxRetries,
		backoff:    time.Second,
		maxSize:    defaultMaxSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTTPSource) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for i := 0; i <= s.maxRetries; i++ {
		if i > 0 {
			backoff := s.backoff * time.Duration(1<<uint(i-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		b, retry, err := s.once(ctx, url)
		if err == nil {
			return b, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after %d retries: %w", s.maxRetries, lastErr)
}

func (s *HTTPSource) once(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		return nil, resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500, err
	}
	b, err := readLimited(resp.Body, s.maxSize)
	return b, false, err
}
