package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tair/insumos/pkg/logger"
)

// RateLimiter is a Redis sliding-window limiter keyed by client address.
// With a nil client every request is allowed.
type RateLimiter struct {
	redis       *redis.Client
	prefix      string
	maxRequests int
	window      time.Duration
	trusted     []netip.Prefix
	now         func() time.Time
}

// NewRateLimiter keys requests on the peer address. X-Forwarded-For is read
// only when the peer is one of trustedProxies.
func NewRateLimiter(client *redis.Client, prefix string, maxRequests int, window time.Duration, trustedProxies []netip.Prefix) *RateLimiter {
	return &RateLimiter{
		redis:       client,
		prefix:      prefix,
		maxRequests: maxRequests,
		window:      window,
		trusted:     trustedProxies,
		now:         time.Now,
	}
}

// Limit wraps a handler. Limiter failures let the request through.
func (rl *RateLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	if rl == nil || rl.redis == nil || rl.maxRequests <= 0 {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		identifier := rl.clientIP(r)
		allowed, remaining, reset, err := rl.checkLimit(r.Context(), identifier)
		if err != nil {
			logger.Error(r.Context()).Err(err).Str("identifier", identifier).Msg("Rate limiter error")
			next(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.maxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			wait := max(reset.Sub(rl.now()).Round(time.Second), time.Second)
			logger.Warn(r.Context()).
				Str("identifier", identifier).
				Int("limit", rl.maxRequests).
				Msg("Rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds())))
			respondJSON(w, http.StatusTooManyRequests, Response{
				Success: false,
				Error:   fmt.Sprintf("too many requests, try again in %v", wait),
				Code:    "rate_limited",
			})
			return
		}
		next(w, r)
	}
}

// checkLimit records the request and reports whether it fits the window.
func (rl *RateLimiter) checkLimit(ctx context.Context, identifier string) (bool, int, time.Time, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", rl.prefix, identifier)
	now := rl.now()
	windowStart := now.Add(-rl.window)

	pipe := rl.redis.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	pipe.Expire(ctx, key, rl.window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := countCmd.Val()
	remaining := max(rl.maxRequests-int(count)-1, 0)
	return count < int64(rl.maxRequests), remaining, now.Add(rl.window), nil
}

// clientIP walks X-Forwarded-For from the right while hops are trusted
// proxies. The first untrusted hop is the client.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	peer := remoteHost(r)
	if !rl.isTrusted(peer) {
		return peer
	}

	client := peer
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		client = hop
		if !rl.isTrusted(hop) {
			break
		}
	}
	return client
}

func (rl *RateLimiter) isTrusted(host string) bool {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range rl.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
