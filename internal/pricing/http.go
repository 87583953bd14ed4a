package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultHTTPTimeout bounds a single price API request.
const DefaultHTTPTimeout = 15 * time.Second

// httpSource is the shared transport of the HTTP price providers.
type httpSource struct {
	baseURL string
	client  *http.Client
	limiter *Limiter
	headers map[string]string
}

// Option configures an HTTP price provider.
type Option func(*httpSource)

// WithBaseURL overrides the provider base URL.
func WithBaseURL(u string) Option {
	return func(s *httpSource) {
		s.baseURL = u
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *httpSource) {
		s.client = c
	}
}

// WithLimiter throttles outgoing requests.
func WithLimiter(l *Limiter) Option {
	return func(s *httpSource) {
		s.limiter = l
	}
}

func newHTTPSource(baseURL string, opts []Option) httpSource {
	s := httpSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultHTTPTimeout},
		headers: map[string]string{"Accept": "application/json"},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// getJSON performs GET baseURL+path?query and decodes the body into out.
func (s *httpSource) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	u := s.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limited (429)")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
