package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newWindowLimiter(t *testing.T, limit int) (*miniredis.Miniredis, *WindowLimiter) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	return mr, NewWindowLimiter(client, limit, time.Minute, zap.NewNop())
}

func serve(h http.Handler, ip string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom(ip))
	return rec
}

func TestWindowRateLimitAllowsUpToMax(t *testing.T) {
	_, l := newWindowLimiter(t, 3)
	h := WindowRateLimit(l, false)(okHandler)

	for i := 0; i < 3; i++ {
		rec := serve(h, "198.51.100.1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	}

	rec := serve(h, "198.51.100.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t, string(rateLimitedBody), rec.Body.String())

	assert.Equal(t, http.StatusOK, serve(h, "198.51.100.2").Code)
}

func TestWindowRateLimitRemainingCountsDown(t *testing.T) {
	_, l := newWindowLimiter(t, 2)
	h := WindowRateLimit(l, false)(okHandler)

	assert.Equal(t, "1", serve(h, "198.51.100.3").Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "0", serve(h, "198.51.100.3").Header().Get("X-RateLimit-Remaining"))
}

func TestWindowRateLimitResetsAfterWindow(t *testing.T) {
	mr, l := newWindowLimiter(t, 1)
	h := WindowRateLimit(l, false)(okHandler)

	require.Equal(t, http.StatusOK, serve(h, "198.51.100.4").Code)
	require.Equal(t, http.StatusTooManyRequests, serve(h, "198.51.100.4").Code)

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, serve(h, "198.51.100.4").Code)
}

func TestWindowRateLimitBlocksOffenders(t *testing.T) {
	mr, l := newWindowLimiter(t, 1)
	l.BlockFor = time.Hour
	h := WindowRateLimit(l, false)(okHandler)

	require.Equal(t, http.StatusOK, serve(h, "198.51.100.5").Code)
	rec := serve(h, "198.51.100.5")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, string(blockedBody), rec.Body.String())
	assert.True(t, mr.Exists(BlockedIPKeyPrefix+"198.51.100.5"))

	// The block outlives the counting window.
	mr.FastForward(2 * time.Minute)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, "198.51.100.5").Code)

	mr.Del(BlockedIPKeyPrefix + "198.51.100.5")
	assert.Equal(t, http.StatusOK, serve(h, "198.51.100.5").Code)
}

func TestWindowRateLimitFallsBackWhenStoreIsDown(t *testing.T) {
	mr, l := newWindowLimiter(t, 100)
	mr.Close()

	h := WindowRateLimit(l, false)(okHandler)
	assert.Equal(t, http.StatusOK, serve(h, "198.51.100.6").Code, "fails open without a fallback")

	l.Fallback = NewIPLimiter(60, 1)
	assert.Equal(t, http.StatusOK, serve(h, "198.51.100.6").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, "198.51.100.6").Code)
}

func TestWindowRateLimitRestoresMissingExpiry(t *testing.T) {
	mr, l := newWindowLimiter(t, 2)
	h := WindowRateLimit(l, false)(okHandler)
	key := RateLimitKeyPrefix + "198.51.100.7"

	// A counter left over past its budget with no TTL.
	require.NoError(t, mr.Set(key, "5"))
	require.Zero(t, mr.TTL(key))

	rec := serve(h, "198.51.100.7")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, time.Minute, mr.TTL(key))
	assert.Equal(t, "61", rec.Header().Get("Retry-After"))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, serve(h, "198.51.100.7").Code)
}
