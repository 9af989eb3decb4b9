package provider

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"github.com/rs/zerolog/log"
)

// DefaultLastFMURL is the public Last.fm API endpoint.
const DefaultLastFMURL = "https://ws.audioscrobbler.com/2.0/"

// LastFM resolves covers from a user's top albums. Cover URLs are derived
// from the thumbnail URLs in the top list, so no extra request per item is needed.
type LastFM struct {
	apiKey string
	opts   Options
}

// NewLastFM creates a Last.fm resolver.
func NewLastFM(apiKey string, opts Options) *LastFM {
	return &LastFM{apiKey: apiKey, opts: opts.withDefaults(DefaultLastFMURL)}
}

type lastFMUserInfo struct {
	User struct {
		Name string `json:"name"`
	} `json:"user"`
}

type lastFMImage struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

type lastFMTopAlbums struct {
	TopAlbums struct {
		Album []struct {
			Name   string `json:"name"`
			Artist struct {
				Name string `json:"name"`
			} `json:"artist"`
			Image     []lastFMImage `json:"image"`
			PlayCount string        `json:"playcount"`
		} `json:"album"`
	} `json:"topalbums"`
}

func (l *LastFM) endpoint(method string, extra url.Values) string {
	q := url.Values{}
	q.Set("method", method)
	q.Set("api_key", l.apiKey)
	q.Set("format", "json")
	for k, v := range extra {
		q[k] = v
	}
	return l.opts.BaseURL + "?" + q.Encode()
}

// Exists calls user.getinfo. A non-2xx answer or a body without a user name
// means the user does not exist.
func (l *LastFM) Exists(ctx context.Context, username string) (bool, error) {
	var info lastFMUserInfo
	err := l.opts.getJSON(ctx, l.endpoint("user.getinfo", url.Values{"user": {username}}), &info)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError {
			return false, nil
		}
		return false, err
	}
	return info.User.Name != "", nil
}

// FetchTop calls user.gettopalbums.
func (l *LastFM) FetchTop(ctx context.Context, username, period string, limit int) ([]Item, error) {
	var top lastFMTopAlbums
	err := l.opts.getJSON(ctx, l.endpoint("user.gettopalbums", url.Values{
		"user":   {username},
		"period": {period},
		"limit":  {strconv.Itoa(limit)},
	}), &top)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(top.TopAlbums.Album))
	for _, a := range top.TopAlbums.Album {
		item := Item{Name: a.Name, Artist: a.Artist.Name}
		item.PlayCount, _ = strconv.Atoi(a.PlayCount)
		for _, img := range a.Image {
			if img.Size == "extralarge" {
				item.ImageURL = img.URL
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// CoverURL rewrites the extralarge thumbnail into the original size URL
// https://<host>/i/u/<file>.
func (l *LastFM) CoverURL(_ context.Context, item Item) (string, bool) {
	return originalCoverURL(item.ImageURL)
}

func originalCoverURL(thumbnail string) (string, bool) {
	if thumbnail == "" {
		return "", false
	}
	u, err := url.Parse(thumbnail)
	if err != nil || u.Host == "" {
		log.Warn().Err(err).Str("url", thumbnail).Msg("Failed to parse album cover URL")
		return "", false
	}
	file := path.Base(u.Path)
	if file == "." || file == "/" {
		return "", false
	}
	return "https://" + u.Hostname() + "/i/u/" + file, true
}
