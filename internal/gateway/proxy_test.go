package gateway_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/identity/internal/gateway"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

const unavailableBody = `{"code":503,"message":"Service temporarily unavailable","data":null}`

func upstream(t *testing.T, name string, status int, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("X-Upstream", name)
		w.Header().Set("X-Seen-Path", r.URL.Path)
		w.Header().Set("X-Seen-Forwarded-For", r.Header.Get("X-Forwarded-For"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(name))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func deadUpstream(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func newProxy(t *testing.T, routes map[string]string, s gateway.BreakerSettings) *gateway.Proxy {
	t.Helper()
	p, err := gateway.NewProxy(routes, s, nil, slogx.Discard())
	require.NoError(t, err)
	return p
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestProxyRouting(t *testing.T) {
	t.Parallel()

	api := upstream(t, "api", http.StatusOK, nil)
	orders := upstream(t, "orders", http.StatusOK, nil)

	p := newProxy(t, map[string]string{
		"/api/":        api.URL,
		"/api/orders/": orders.URL,
	}, gateway.DefaultBreakerSettings)

	cases := []struct {
		path string
		want string
	}{
		{"/api/users/1", "api"},
		{"/api/orders/9", "orders"},
		{"/api/orders", "api"},
	}
	for _, tc := range cases {
		rec := serve(p, http.MethodGet, tc.path)
		require.Equal(t, http.StatusOK, rec.Code, tc.path)
		require.Equal(t, tc.want, rec.Header().Get("X-Upstream"), tc.path)
		require.Equal(t, tc.path, rec.Header().Get("X-Seen-Path"))
		require.NotEmpty(t, rec.Header().Get("X-Seen-Forwarded-For"))
	}

	rec := serve(p, http.MethodGet, "/unknown")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"code":404,"message":"Not found","data":null}`, rec.Body.String())
}

func TestProxyUnreachableUpstream(t *testing.T) {
	t.Parallel()

	p := newProxy(t, map[string]string{"/api/": deadUpstream(t)}, gateway.DefaultBreakerSettings)

	rec := serve(p, http.MethodGet, "/api/users")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.JSONEq(t, unavailableBody, rec.Body.String())
}

func TestProxyBreaker(t *testing.T) {
	t.Parallel()

	t.Run("opens after consecutive 5xx", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := upstream(t, "api", http.StatusInternalServerError, &hits)
		p := newProxy(t, map[string]string{"/api/": srv.URL}, gateway.BreakerSettings{
			MaxFailures: 2,
			OpenTimeout: time.Minute,
		})

		// Upstream errors pass through until the breaker opens.
		for range 2 {
			rec := serve(p, http.MethodGet, "/api/x")
			require.Equal(t, http.StatusInternalServerError, rec.Code)
			require.Equal(t, "api", rec.Body.String())
		}

		state, ok := p.BreakerState("/api/x")
		require.True(t, ok)
		require.Equal(t, gobreaker.StateOpen, state)

		rec := serve(p, http.MethodGet, "/api/x")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.JSONEq(t, unavailableBody, rec.Body.String())
		require.Equal(t, int32(2), hits.Load())
	})

	t.Run("client errors do not trip", func(t *testing.T) {
		t.Parallel()

		srv := upstream(t, "api", http.StatusBadRequest, nil)
		p := newProxy(t, map[string]string{"/api/": srv.URL}, gateway.BreakerSettings{
			MaxFailures: 1,
			OpenTimeout: time.Minute,
		})

		for range 3 {
			require.Equal(t, http.StatusBadRequest, serve(p, http.MethodGet, "/api/x").Code)
		}
		state, _ := p.BreakerState("/api/x")
		require.Equal(t, gobreaker.StateClosed, state)
	})

	t.Run("half open probe recovers", func(t *testing.T) {
		t.Parallel()

		var healthy atomic.Bool
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if !healthy.Load() {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(srv.Close)

		p := newProxy(t, map[string]string{"/api/": srv.URL}, gateway.BreakerSettings{
			MaxFailures: 1,
			OpenTimeout: 50 * time.Millisecond,
		})

		require.Equal(t, http.StatusBadGateway, serve(p, http.MethodGet, "/api/x").Code)
		require.Equal(t, http.StatusServiceUnavailable, serve(p, http.MethodGet, "/api/x").Code)

		healthy.Store(true)
		require.Eventually(t, func() bool {
			return serve(p, http.MethodGet, "/api/x").Code == http.StatusOK
		}, time.Second, 20*time.Millisecond)

		state, _ := p.BreakerState("/api/x")
		require.Equal(t, gobreaker.StateClosed, state)
	})

	t.Run("routes trip independently", func(t *testing.T) {
		t.Parallel()

		p := newProxy(t, map[string]string{
			"/down/": deadUpstream(t),
			"/up/":   upstream(t, "up", http.StatusOK, nil).URL,
		}, gateway.BreakerSettings{MaxFailures: 1, OpenTimeout: time.Minute})

		require.Equal(t, http.StatusServiceUnavailable, serve(p, http.MethodGet, "/down/x").Code)
		state, _ := p.BreakerState("/down/x")
		require.Equal(t, gobreaker.StateOpen, state)

		require.Equal(t, http.StatusOK, serve(p, http.MethodGet, "/up/x").Code)
	})
}
