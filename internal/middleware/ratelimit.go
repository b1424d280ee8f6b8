package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AnshRaj112/mindnest-backend/pkg/clientip"
)

const (
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
)

var (
	rateLimitedBody = []byte(`{"success":false,"message":"Too many requests, please try again later."}`)
	blockedBody     = []byte(`{"success":false,"message":"Your IP has been temporarily blocked due to excessive requests. Please try again later."}`)
)

// WindowLimiter is a fixed-window counter shared through Redis, so every
// instance enforces the same per-IP budget. When BlockFor is positive an
// address that exceeds the budget is blocked for that long.
type WindowLimiter struct {
	client   *redis.Client
	Max      int
	Window   time.Duration
	BlockFor time.Duration
	// Fallback is consulted when Redis is unreachable; nil fails open.
	Fallback *IPLimiter
	log      *zap.Logger
}

func NewWindowLimiter(client *redis.Client, limit int, window time.Duration, log *zap.Logger) *WindowLimiter {
	return &WindowLimiter{client: client, Max: limit, Window: window, log: log}
}

type windowResult struct {
	allowed   bool
	blocked   bool
	remaining int
	resetIn   time.Duration
}

func (l *WindowLimiter) check(ctx context.Context, ip string) (windowResult, error) {
	blockedKey := BlockedIPKeyPrefix + ip
	if l.BlockFor > 0 {
		n, err := l.client.Exists(ctx, blockedKey).Result()
		if err != nil {
			return windowResult{}, err
		}
		if n > 0 {
			return windowResult{blocked: true}, nil
		}
	}

	key := RateLimitKeyPrefix + ip
	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return windowResult{}, err
	}
	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil {
		return windowResult{}, err
	}
	// A counter without an expiry (first hit, or an earlier EXPIRE that
	// never landed) would never reset.
	if ttl < 0 {
		if err := l.client.Expire(ctx, key, l.Window).Err(); err != nil {
			return windowResult{}, err
		}
		ttl = l.Window
	}

	count := int(n)
	res := windowResult{remaining: l.Max - count, resetIn: ttl}
	if res.remaining < 0 {
		res.remaining = 0
	}
	if count <= l.Max {
		res.allowed = true
		return res, nil
	}
	if l.BlockFor > 0 {
		if err := l.client.Set(ctx, blockedKey, "1", l.BlockFor).Err(); err != nil {
			l.log.Warn("failed to block ip", zap.String("ip", ip), zap.Error(err))
		}
		res.blocked = true
	}
	return res, nil
}

// WindowRateLimit enforces l per client address.
func WindowRateLimit(l *WindowLimiter, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientip.FromRequest(r, trustProxy)

			ctx, cancel := context.WithTimeout(r.Context(), time.Second)
			res, err := l.check(ctx, ip)
			cancel()
			if err != nil {
				l.log.Warn("rate limit store unavailable", zap.Error(err))
				if l.Fallback != nil && !l.Fallback.Allow(ip) {
					tooManyRequests(w, rateLimitedBody)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.Max))
			if !res.allowed {
				if res.blocked {
					tooManyRequests(w, blockedBody)
					return
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(res.resetIn.Seconds())+1))
				tooManyRequests(w, rateLimitedBody)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.resetIn).Unix(), 10))
			next.ServeHTTP(w, r)
		})
	}
}
