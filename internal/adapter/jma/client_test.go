package jma

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-catalog/internal/domain"
	"github.com/couchcryptid/quake-catalog/internal/observability"
)

const testUserAgent = "Mozilla/5.0"

func testClient(baseURL string, opts ...ClientOption) (*Client, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return NewClient(baseURL, 5*time.Second, testUserAgent, slog.New(slog.NewTextHandler(io.Discard, nil)), m, opts...), m
}

func testDate() time.Time {
	return time.Date(2025, 12, 8, 0, 0, 0, 0, domain.JST)
}

func TestClient_URL(t *testing.T) {
	c, _ := testClient("https://www.data.jma.go.jp/eqev/data/daily_map/")
	assert.Equal(t, "https://www.data.jma.go.jp/eqev/data/daily_map/20251208.html", c.URL(testDate()))
}

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/20251208.html", r.URL.Path)
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, "<pre>"+testLine+"</pre>")
	}))
	defer srv.Close()

	c, m := testClient(srv.URL)
	page, err := c.Fetch(context.Background(), testDate())
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/20251208.html", page.URL)
	assert.Equal(t, "text/html; charset=utf-8", page.ContentType)
	assert.Equal(t, "<pre>"+testLine+"</pre>", string(page.Body))
	assert.InDelta(t, 1, testutil.ToFloat64(m.ListingsFetched.WithLabelValues("success")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.FetchDuration))
}

func TestClient_Fetch_NonOK(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c, m := testClient(srv.URL)
	_, err := c.Fetch(context.Background(), testDate())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch listing 20251208")
	assert.Contains(t, err.Error(), "status 404")
	assert.Equal(t, int32(1), calls.Load(), "failed fetch must not be retried")
	assert.InDelta(t, 1, testutil.ToFloat64(m.ListingsFetched.WithLabelValues("error")), 0)
}

func TestClient_Fetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, _ := testClient(srv.URL)
	_, err := c.Fetch(ctx, testDate())
	require.ErrorIs(t, err, context.Canceled)
}

func TestClient_Fetch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, _ := testClient(url)
	_, err := c.Fetch(context.Background(), testDate())
	require.Error(t, err)
}

func TestClient_Fetch_PageSizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"at limit", strings.Repeat("x", 16), false},
		{"over limit", strings.Repeat("x", 17), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c, m := testClient(srv.URL, WithMaxPageBytes(16))
			page, err := c.Fetch(context.Background(), testDate())
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "page exceeds 16 bytes")
				assert.InDelta(t, 1, testutil.ToFloat64(m.ListingsFetched.WithLabelValues("error")), 0)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(page.Body))
		})
	}
}

func TestClient_Fetch_DurationUsesClock(t *testing.T) {
	clk := clockwork.NewFakeClock()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		clk.Advance(2 * time.Second)
		_, _ = io.WriteString(w, "<pre></pre>")
	}))
	defer srv.Close()

	c, m := testClient(srv.URL, WithClientClock(clk))
	_, err := c.Fetch(context.Background(), testDate())
	require.NoError(t, err)

	expected := `
# HELP quake_etl_fetch_duration_seconds Duration of a listing page request.
# TYPE quake_etl_fetch_duration_seconds histogram
quake_etl_fetch_duration_seconds_bucket{le="0.1"} 0
quake_etl_fetch_duration_seconds_bucket{le="0.25"} 0
quake_etl_fetch_duration_seconds_bucket{le="0.5"} 0
quake_etl_fetch_duration_seconds_bucket{le="1"} 0
quake_etl_fetch_duration_seconds_bucket{le="2.5"} 1
quake_etl_fetch_duration_seconds_bucket{le="5"} 1
quake_etl_fetch_duration_seconds_bucket{le="10"} 1
quake_etl_fetch_duration_seconds_bucket{le="30"} 1
quake_etl_fetch_duration_seconds_bucket{le="+Inf"} 1
quake_etl_fetch_duration_seconds_sum 2
quake_etl_fetch_duration_seconds_count 1
`
	require.NoError(t, testutil.CollectAndCompare(m.FetchDuration, strings.NewReader(expected), "quake_etl_fetch_duration_seconds"))
}
