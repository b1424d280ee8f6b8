package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger is a dependency whose liveness is reported by Ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK"))
}

// Index answers GET /api/v1 so clients can check the API is reachable.
func Index(w http.ResponseWriter, r *http.Request) {
	ok(w, "data", "MindNest API v1")
}

// Ready reports 503 until every named dependency answers a ping.
func Ready(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{}
		healthy := true
		for name, p := range deps {
			if err := p.Ping(ctx); err != nil {
				status[name] = "down"
				healthy = false
				continue
			}
			status[name] = "up"
		}
		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]interface{}{"success": healthy, "dependencies": status})
	}
}
