//go:build !integration

package analytics

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/guttosm/patchwork-service/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracker_Disabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.AnalyticsConfig
	}{
		{name: "disabled", cfg: config.AnalyticsConfig{Host: "stats.example.com", SiteID: "1"}},
		{name: "missing host", cfg: config.AnalyticsConfig{Enabled: true, SiteID: "1"}},
		{name: "missing site id", cfg: config.AnalyticsConfig{Enabled: true, Host: "stats.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker(tt.cfg, nil)

			assert.Nil(t, tracker)
			assert.NotPanics(t, func() {
				tracker.TrackPageView(PageView{URL: "/patchwork"})
				tracker.Wait()
			})
		})
	}
}

func TestNewTracker_Endpoint(t *testing.T) {
	tracker := NewTracker(config.AnalyticsConfig{Enabled: true, Host: "stats.example.com", SiteID: "3"}, nil)

	require.NotNil(t, tracker)
	assert.Equal(t, "https://stats.example.com/matomo.php", tracker.endpoint)
}

func captureServer(t *testing.T) (*httptest.Server, func() url.Values) {
	t.Helper()
	var (
		mu   sync.Mutex
		form url.Values
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/matomo.php", r.URL.Path)
		require.NoError(t, r.ParseForm())
		mu.Lock()
		form = r.PostForm
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() url.Values {
		mu.Lock()
		defer mu.Unlock()
		return form
	}
}

func TestTracker_TrackPageView(t *testing.T) {
	t.Run("sends page view", func(t *testing.T) {
		srv, received := captureServer(t)
		tracker := NewTracker(config.AnalyticsConfig{Enabled: true, Host: srv.URL, SiteID: "7"}, srv.Client())

		tracker.TrackPageView(PageView{URL: "http://localhost/patchwork?username=alice", UserAgent: "test-agent", ClientIP: "10.0.0.1"})
		tracker.Wait()

		form := received()
		require.NotNil(t, form)
		assert.Equal(t, "7", form.Get("idsite"))
		assert.Equal(t, "1", form.Get("rec"))
		assert.Equal(t, "0", form.Get("send_image"))
		assert.Equal(t, "http://localhost/patchwork?username=alice", form.Get("url"))
		assert.Equal(t, "test-agent", form.Get("ua"))
		assert.NotEmpty(t, form.Get("rand"))
		assert.Empty(t, form.Get("cip"), "client ip requires a token")
	})

	t.Run("sends client ip with token", func(t *testing.T) {
		srv, received := captureServer(t)
		tracker := NewTracker(config.AnalyticsConfig{Enabled: true, Host: srv.URL, SiteID: "7", TokenAuth: "tok"}, srv.Client())

		tracker.TrackPageView(PageView{URL: "/patchwork", ClientIP: "10.0.0.1"})
		tracker.Wait()

		form := received()
		assert.Equal(t, "10.0.0.1", form.Get("cip"))
		assert.Equal(t, "tok", form.Get("token_auth"))
	})

	t.Run("swallows transport errors", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		host := srv.URL
		srv.Close()
		tracker := NewTracker(config.AnalyticsConfig{Enabled: true, Host: host, SiteID: "7"}, nil)

		assert.NotPanics(t, func() {
			tracker.TrackPageView(PageView{URL: "/patchwork"})
			tracker.Wait()
		})
	})
}
