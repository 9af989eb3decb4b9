// Package analytics sends server-side page views to Matomo.
package analytics

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/guttosm/patchwork-service/config"
	"github.com/guttosm/patchwork-service/internal/logger"
	"github.com/rs/zerolog"
)

const trackTimeout = 5 * time.Second

// PageView describes one tracked request.
type PageView struct {
	URL       string
	UserAgent string
	ClientIP  string
}

// Tracker posts page views to the Matomo tracking endpoint.
// A disabled or misconfigured tracker drops every page view.
type Tracker struct {
	endpoint  string
	siteID    string
	tokenAuth string
	client    *http.Client
	log       zerolog.Logger
	wg        sync.WaitGroup
}

// NewTracker creates a tracker from cfg. It returns nil when tracking is disabled
// or the host or site id is missing. A nil *Tracker is safe to use.
func NewTracker(cfg config.AnalyticsConfig, client *http.Client) *Tracker {
	if !cfg.Enabled || cfg.Host == "" || cfg.SiteID == "" {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: trackTimeout}
	}
	base := cfg.Host
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return &Tracker{
		endpoint:  strings.TrimSuffix(base, "/") + "/matomo.php",
		siteID:    cfg.SiteID,
		tokenAuth: cfg.TokenAuth,
		client:    client,
		log:       logger.Component("analytics"),
	}
}

// TrackPageView sends pv in the background. It never blocks the caller.
func (t *Tracker) TrackPageView(pv PageView) {
	if t == nil {
		return
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), trackTimeout)
		defer cancel()
		if err := t.send(ctx, pv); err != nil {
			t.log.Debug().Err(err).Str("url", pv.URL).Msg("Matomo tracking failed")
		}
	}()
}

// Wait blocks until all in-flight page views are sent.
func (t *Tracker) Wait() {
	if t == nil {
		return
	}
	t.wg.Wait()
}

func (t *Tracker) send(ctx context.Context, pv PageView) error {
	form := url.Values{
		"idsite":     {t.siteID},
		"rec":        {"1"},
		"apiv":       {"1"},
		"rand":       {uuid.NewString()},
		"url":        {pv.URL},
		"ua":         {pv.UserAgent},
		"send_image": {"0"},
	}
	// cip is only honoured by Matomo with a token.
	if t.tokenAuth != "" && pv.ClientIP != "" {
		form.Set("cip", pv.ClientIP)
		form.Set("token_auth", t.tokenAuth)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
