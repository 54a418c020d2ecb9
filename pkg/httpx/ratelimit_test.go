package httpx_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/grantgate/pkg/httpx"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = addr
	return req
}

func TestIPKeyExtractor(t *testing.T) {
	t.Run("extracts from RemoteAddr", func(t *testing.T) {
		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(requestFrom("192.168.1.1:12345")))
	})

	t.Run("prefers X-Forwarded-For", func(t *testing.T) {
		req := requestFrom("192.168.1.1:12345")
		req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.168.1.1")
		require.Equal(t, "203.0.113.1", httpx.IPKeyExtractor(req))
	})

	t.Run("uses X-Real-IP if X-Forwarded-For absent", func(t *testing.T) {
		req := requestFrom("192.168.1.1:12345")
		req.Header.Set("X-Real-IP", "203.0.113.2")
		require.Equal(t, "203.0.113.2", httpx.IPKeyExtractor(req))
	})
}

func TestCookieKeyExtractor(t *testing.T) {
	extract := httpx.CookieKeyExtractor("sid")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, extract(req))

	req.AddCookie(&http.Cookie{Name: "sid", Value: "secret-session"})
	key := extract(req)
	require.NotEmpty(t, key)
	require.NotContains(t, key, "secret-session")
}

func TestCompositeKeyExtractor(t *testing.T) {
	extract := httpx.CompositeKeyExtractor(":", httpx.CookieKeyExtractor("sid"), httpx.IPKeyExtractor)

	req := requestFrom("10.0.0.1:1")
	require.Equal(t, "10.0.0.1", extract(req), "missing parts are skipped")

	req.AddCookie(&http.Cookie{Name: "sid", Value: "v"})
	require.Contains(t, extract(req), ":10.0.0.1")
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("allows requests under limit", func(t *testing.T) {
		h := httpx.RateLimitMiddleware(httpx.RateLimitConfig{
			RequestsPerWindow: 5,
			Window:            time.Second,
			Burst:             5,
		}, httpx.IPKeyExtractor)(okHandler())

		for i := range 5 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, requestFrom("192.168.1.1:12345"))
			require.Equal(t, http.StatusOK, rec.Code, "request %d should succeed", i+1)
		}
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		h := httpx.RateLimitMiddleware(httpx.RateLimitConfig{
			RequestsPerWindow: 1,
			Window:            time.Minute,
			Burst:             1,
		}, httpx.IPKeyExtractor)(okHandler())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("192.168.1.1:12345"))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("192.168.1.1:12345"))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))
		require.Contains(t, rec.Body.String(), "rate_limit_exceeded")

		// Another client is unaffected.
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("192.168.1.2:12345"))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("allows request when key extractor returns empty", func(t *testing.T) {
		h := httpx.RateLimitMiddleware(httpx.RateLimitConfig{
			RequestsPerWindow: 1,
			Window:            time.Minute,
			Burst:             1,
		}, func(*http.Request) string { return "" })(okHandler())

		for range 3 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})
}

func TestRateLimitBySession(t *testing.T) {
	h := httpx.RateLimitBySession(httpx.RateLimitConfig{
		RequestsPerWindow: 1,
		Window:            time.Minute,
		Burst:             1,
	}, "sid")(okHandler())

	withCookie := func(v string) *http.Request {
		req := requestFrom("10.0.0.1:1")
		req.AddCookie(&http.Cookie{Name: "sid", Value: v})
		return req
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withCookie("a"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withCookie("a"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Same IP, different session.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withCookie("b"))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDefaultRateLimits(t *testing.T) {
	limits := httpx.DefaultRateLimits()

	for name, config := range map[string]httpx.RateLimitConfig{
		"session": limits.Session,
		"proxy":   limits.Proxy,
		"public":  limits.Public,
	} {
		t.Run(name, func(t *testing.T) {
			require.Positive(t, config.RequestsPerWindow)
			require.Positive(t, config.Window)
			require.Positive(t, config.Burst)
		})
	}

	require.Less(t, limits.Session.RequestsPerWindow, limits.Proxy.RequestsPerWindow)
	require.Less(t, limits.Proxy.RequestsPerWindow, limits.Public.RequestsPerWindow)
}

func TestParseRateLimitFromEnv(t *testing.T) {
	def := httpx.RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	env := func(m map[string]string) func(string) string {
		return func(k string) string { return m[k] }
	}

	t.Run("no overrides", func(t *testing.T) {
		require.Equal(t, def, httpx.ParseRateLimitFromEnv(env(nil), "PROXY", def))
	})

	t.Run("all overrides", func(t *testing.T) {
		got := httpx.ParseRateLimitFromEnv(env(map[string]string{
			"RATELIMIT_PROXY_REQUESTS":   "50",
			"RATELIMIT_PROXY_WINDOW_SEC": "120",
			"RATELIMIT_PROXY_BURST":      "5",
		}), "PROXY", def)
		require.Equal(t, httpx.RateLimitConfig{RequestsPerWindow: 50, Window: 2 * time.Minute, Burst: 5}, got)
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		got := httpx.ParseRateLimitFromEnv(env(map[string]string{
			"RATELIMIT_PROXY_REQUESTS":   "-1",
			"RATELIMIT_PROXY_WINDOW_SEC": "abc",
			"RATELIMIT_PROXY_BURST":      "0",
		}), "PROXY", def)
		require.Equal(t, def, got)
	})
}

func BenchmarkRateLimitManyIPs(b *testing.B) {
	h := httpx.RateLimitMiddleware(httpx.RateLimitConfig{
		RequestsPerWindow: 1000000,
		Window:            time.Minute,
		Burst:             1000,
	}, httpx.IPKeyExtractor)(okHandler())

	for i := 0; b.Loop(); i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom(fmt.Sprintf("192.168.%d.%d:12345", i%255, (i/255)%255)))
	}
}
