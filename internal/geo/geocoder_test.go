// AngelaMos | 2026
// geocoder_test.go

package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/bandmate/backend/internal/config"
	"github.com/bandmate/backend/internal/core"
)

// unreachableRedis returns a client whose commands fail fast, exercising the
// cache-miss path without a live server.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func newTestGeocoder(t *testing.T, handler http.HandlerFunc) *Geocoder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewGeocoder(config.GeocodeConfig{
		BaseURL: srv.URL,
		Timeout: time.Second,
	}, unreachableRedis(t))
}

func TestResolveParsesProviderResponse(t *testing.T) {
	var gotQuery string
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck // test server
		_, _ = w.Write([]byte(`[{"lat": "52.52", "lon": "13.405"}]`))
	})

	coords, err := g.Resolve(context.Background(), "Berlin, Germany")
	require.NoError(t, err)
	require.Equal(t, "Berlin, Germany", gotQuery)
	require.InDelta(t, 52.52, coords.Latitude, 1e-9)
	require.InDelta(t, 13.405, coords.Longitude, 1e-9)
}

func TestResolveEmptyResultIsNotFound(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck // test server
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := g.Resolve(context.Background(), "Nowhereville")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestResolveProviderErrorPropagates(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := g.Resolve(context.Background(), "Berlin")
	require.Error(t, err)
}
