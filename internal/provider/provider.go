// Package provider resolves a listener's top releases into cover image URLs.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrUserNotFound is returned when the provider does not know the user.
	ErrUserNotFound = errors.New("user does not exist")
	// ErrNoTopItems is returned when the user has no statistics for the period.
	ErrNoTopItems = errors.New("user has no listening statistics for this period")
	// ErrNoCovers is returned when none of the top items has cover art.
	ErrNoCovers = errors.New("no covers found")

	errNoContent = errors.New("empty response")
)

// DefaultUserAgent is sent on every outbound request.
const DefaultUserAgent = "Patchwork-Generator/1.0"

// Item is one entry of a ranked top list.
type Item struct {
	Name      string
	Artist    string
	ImageURL  string
	ReleaseID string
	PlayCount int
}

// CoverResolver is implemented by each listening statistics provider.
type CoverResolver interface {
	// Exists reports whether the user is known to the provider.
	Exists(ctx context.Context, username string) (bool, error)
	// FetchTop returns up to limit items, most played first.
	FetchTop(ctx context.Context, username, period string, limit int) ([]Item, error)
	// CoverURL returns the cover image URL for an item, if it has one.
	CoverURL(ctx context.Context, item Item) (string, bool)
}

// ResolveCovers runs the full resolution flow and returns cover URLs in rank order.
// Items without a cover are skipped.
func ResolveCovers(ctx context.Context, r CoverResolver, username, period string, limit int) ([]string, error) {
	ok, err := r.Exists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check user %q: %w", username, err)
	}
	if !ok {
		return nil, ErrUserNotFound
	}

	items, err := r.FetchTop(ctx, username, period, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch top items: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrNoTopItems
	}

	urls := make([]string, len(items))
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			if u, found := r.CoverURL(gctx, item); found {
				urls[i] = u
			}
			return nil
		})
	}
	_ = g.Wait()

	covers := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			covers = append(covers, u)
		}
	}
	if len(covers) == 0 {
		return nil, ErrNoCovers
	}
	return covers, nil
}

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Options configures the HTTP side of a resolver.
type Options struct {
	Client    *http.Client
	UserAgent string
	BaseURL   string
}

func (o Options) withDefaults(baseURL string) Options {
	if o.Client == nil {
		o.Client = &http.Client{Timeout: 15 * time.Second}
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.BaseURL == "" {
		o.BaseURL = baseURL
	}
	return o
}

// maxJSONBody caps how much of an API response is read.
const maxJSONBody = 4 << 20

func (o Options) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", o.UserAgent)
	if method == http.MethodGet {
		req.Header.Set("Accept", "application/json")
	}
	return o.Client.Do(req)
}

func (o Options) getJSON(ctx context.Context, url string, v any) error {
	resp, err := o.do(ctx, http.MethodGet, url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNoContent {
		return errNoContent
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxJSONBody))
		return &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONBody)).Decode(v); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

// head reports whether a HEAD request for url succeeds.
func (o Options) head(ctx context.Context, url string) bool {
	resp, err := o.do(ctx, http.MethodHead, url)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}
