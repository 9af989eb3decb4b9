package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// Public ListenBrainz and Cover Art Archive endpoints.
const (
	DefaultListenBrainzURL = "https://api.listenbrainz.org/1"
	DefaultCoverArtURL     = "https://coverartarchive.org"
)

// coverArtCandidates are probed in order; the sizeless front image is the fallback.
var coverArtCandidates = []string{"front-500", "front-250", "front-1200", "front"}

// periodRanges maps request periods to ListenBrainz stat ranges.
var periodRanges = map[string]string{
	"7day":       "week",
	"1month":     "month",
	"3month":     "quarter",
	"6month":     "half_yearly",
	"12month":    "year",
	"overall":    "all_time",
	"this_week":  "this_week",
	"this_month": "this_month",
	"this_year":  "this_year",
}

// RangeForPeriod returns the ListenBrainz range for a period. Unknown
// periods are passed through unchanged.
func RangeForPeriod(period string) string {
	if r, ok := periodRanges[period]; ok {
		return r
	}
	return period
}

// ListenBrainz resolves covers from a user's top releases through the
// Cover Art Archive.
type ListenBrainz struct {
	opts        Options
	coverArtURL string
}

// NewListenBrainz creates a ListenBrainz resolver. An empty coverArtURL uses
// the public Cover Art Archive.
func NewListenBrainz(opts Options, coverArtURL string) *ListenBrainz {
	if coverArtURL == "" {
		coverArtURL = DefaultCoverArtURL
	}
	return &ListenBrainz{
		opts:        opts.withDefaults(DefaultListenBrainzURL),
		coverArtURL: strings.TrimRight(coverArtURL, "/"),
	}
}

type listenCount struct {
	Payload struct {
		Count *int64 `json:"count"`
	} `json:"payload"`
}

type releaseStats struct {
	Payload struct {
		Releases []struct {
			ArtistName  string `json:"artist_name"`
			ReleaseName string `json:"release_name"`
			ReleaseMBID string `json:"release_mbid"`
			ListenCount int    `json:"listen_count"`
		} `json:"releases"`
	} `json:"payload"`
}

func (l *ListenBrainz) base() string {
	return strings.TrimRight(l.opts.BaseURL, "/")
}

// Exists checks the user's listen count endpoint.
func (l *ListenBrainz) Exists(ctx context.Context, username string) (bool, error) {
	var lc listenCount
	err := l.opts.getJSON(ctx, fmt.Sprintf("%s/user/%s/listen-count", l.base(), url.PathEscape(username)), &lc)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError {
			return false, nil
		}
		return false, err
	}
	return lc.Payload.Count != nil, nil
}

// FetchTop returns the user's top releases for the mapped range.
// ListenBrainz answers 204 while statistics are still being computed; that
// is reported as an empty list.
func (l *ListenBrainz) FetchTop(ctx context.Context, username, period string, limit int) ([]Item, error) {
	q := url.Values{}
	q.Set("range", RangeForPeriod(period))
	q.Set("count", fmt.Sprint(limit))
	endpoint := fmt.Sprintf("%s/stats/user/%s/releases?%s", l.base(), url.PathEscape(username), q.Encode())

	var stats releaseStats
	if err := l.opts.getJSON(ctx, endpoint, &stats); err != nil {
		if errors.Is(err, errNoContent) {
			return nil, nil
		}
		return nil, err
	}

	items := make([]Item, 0, len(stats.Payload.Releases))
	for _, r := range stats.Payload.Releases {
		items = append(items, Item{
			Name:      r.ReleaseName,
			Artist:    r.ArtistName,
			ReleaseID: r.ReleaseMBID,
			PlayCount: r.ListenCount,
		})
	}
	return items, nil
}

// CoverURL probes the Cover Art Archive candidates and returns the first that exists.
func (l *ListenBrainz) CoverURL(ctx context.Context, item Item) (string, bool) {
	if item.ReleaseID == "" {
		log.Debug().Str("release", item.Name).Str("artist", item.Artist).Msg("No release id for release")
		return "", false
	}
	for _, candidate := range coverArtCandidates {
		u := fmt.Sprintf("%s/release/%s/%s", l.coverArtURL, url.PathEscape(item.ReleaseID), candidate)
		if l.opts.head(ctx, u) {
			return u, true
		}
	}
	return "", false
}
