package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=")
}

func TestHostCheck(t *testing.T) {
	cases := []struct {
		name    string
		allowed string
		host    string
		want    int
	}{
		{"disabled", "", "evil.example", http.StatusOK},
		{"match", "api.mindnest.app", "api.mindnest.app", http.StatusOK},
		{"match with port", "api.mindnest.app", "api.mindnest.app:443", http.StatusOK},
		{"case insensitive", "api.mindnest.app", "API.MindNest.app", http.StatusOK},
		{"mismatch", "api.mindnest.app", "evil.example", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/health", nil)
			r.Host = tc.host
			rec := httptest.NewRecorder()
			HostCheck(tc.allowed)(okHandler).ServeHTTP(rec, r)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestCORSAllowList(t *testing.T) {
	h := CORS([]string{"https://mindnest.app"})(okHandler)

	r := httptest.NewRequest(http.MethodOptions, "/api/v1/notes", nil)
	r.Header.Set("Origin", "https://mindnest.app")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, "https://mindnest.app", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	r = httptest.NewRequest(http.MethodGet, "/api/v1/notes", nil)
	r.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
