// Package fetcher retrieves pages over plain HTTP for offline hint previews.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FetchResult contains the fetched HTML and metadata.
type FetchResult struct {
	HTML     string
	FinalURL string // URL after following redirects
}

// Options configures the fetcher behavior.
type Options struct {
	UserAgent      string
	TimeoutSeconds int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		TimeoutSeconds: 30,
	}
}

// Package-level options (set via Configure)
var opts = DefaultOptions()

// Configure sets the package-level options.
func Configure(o Options) {
	if o.UserAgent != "" {
		opts.UserAgent = o.UserAgent
	}
	if o.TimeoutSeconds > 0 {
		opts.TimeoutSeconds = o.TimeoutSeconds
	}
}

// Timeout returns the currently configured timeout duration.
func Timeout() time.Duration {
	return time.Duration(opts.TimeoutSeconds) * time.Second
}

// Simple fetches a URL using standard HTTP.
func Simple(ctx context.Context, url string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	client := &http.Client{Timeout: Timeout()}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetching %s: %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return &FetchResult{
		HTML:     string(body),
		FinalURL: resp.Request.URL.String(),
	}, nil
}
