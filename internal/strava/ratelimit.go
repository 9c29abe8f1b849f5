package strava

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"longevity/internal/ratelimit"
)

// Strava rate limits:
// - 100 requests per 15 minutes
// - 1000 requests per day
const (
	shortWindow = iota
	dailyWindow
)

// NewRateLimiter creates a limiter with Strava's published limits
func NewRateLimiter() *ratelimit.Limiter {
	return ratelimit.New(150*time.Millisecond, // ~6.6 req/s max
		ratelimit.Window{Limit: 100, Period: 15 * time.Minute},
		ratelimit.Window{Limit: 1000, Period: 24 * time.Hour},
	)
}

// updateFromHeaders syncs the limiter with Strava's response headers:
// X-RateLimit-Limit: "100,1000" and X-RateLimit-Usage: "34,512"
func updateFromHeaders(l *ratelimit.Limiter, h http.Header) {
	usage := parsePair(h.Get("X-RateLimit-Usage"))
	limit := parsePair(h.Get("X-RateLimit-Limit"))

	l.Observe(shortWindow, usage[0], limit[0])
	l.Observe(dailyWindow, usage[1], limit[1])
}

// parsePair parses "a,b"; missing or malformed values are -1
func parsePair(s string) [2]int {
	out := [2]int{-1, -1}
	parts := strings.Split(s, ",")
	for i := 0; i < len(parts) && i < 2; i++ {
		if n, err := strconv.Atoi(strings.TrimSpace(parts[i])); err == nil {
			out[i] = n
		}
	}
	return out
}
