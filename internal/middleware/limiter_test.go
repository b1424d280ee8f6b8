package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func requestFrom(ip string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/notes/mine", nil)
	r.RemoteAddr = ip + ":5123"
	return r
}

func TestIPLimiterBurstIsPerAddress(t *testing.T) {
	l := NewIPLimiter(60, 3)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"))
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))
}

func TestIPLimiterDefaults(t *testing.T) {
	l := NewIPLimiter(0, 0)
	assert.Equal(t, 1, l.Burst())

	l = NewIPLimiter(50, 0)
	assert.Equal(t, 50, l.Burst())
}

func TestIPLimiterSweepDropsIdleEntries(t *testing.T) {
	l := NewIPLimiter(10, 1)
	l.Allow("10.0.0.1")
	l.Allow("10.0.0.2")
	require.Equal(t, 2, l.size())

	l.sweep(time.Now())
	assert.Equal(t, 2, l.size())

	l.sweep(time.Now().Add(limiterTTL + time.Minute))
	assert.Equal(t, 0, l.size())
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimit(NewIPLimiter(10, 2), false, "Slow down.")(okHandler)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("192.0.2.7"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("192.0.2.7"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.JSONEq(t, `{"success":false,"message":"Slow down."}`, rec.Body.String())
}

func TestRateLimitUsesForwardedAddressWhenTrusted(t *testing.T) {
	h := RateLimit(NewIPLimiter(10, 1), true, "Slow down.")(okHandler)

	first := requestFrom("10.1.1.1")
	first.Header.Set("X-Forwarded-For", "203.0.113.9, 10.1.1.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Same proxy, different client.
	second := requestFrom("10.1.1.1")
	second.Header.Set("X-Forwarded-For", "203.0.113.10")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusOK, rec.Code)
}
