package httputil

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitMiddleware limits requests per remote IP. Used on the auth
// endpoints to slow down credential stuffing; limiters for idle IPs are
// evicted after an hour.
func RateLimitMiddleware(rps float64, burst int) func(http.Handler) http.Handler {
	type entry struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var mu sync.Mutex
	limiters := make(map[string]*entry)

	cleanup := func() {
		cutoff := time.Now().Add(-time.Hour)
		for ip, e := range limiters {
			if e.lastSeen.Before(cutoff) {
				delete(limiters, ip)
			}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			mu.Lock()
			e, ok := limiters[ip]
			if !ok {
				e = &entry{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
				limiters[ip] = e
				if len(limiters)%1024 == 0 {
					cleanup()
				}
			}
			e.lastSeen = time.Now()
			allowed := e.limiter.Allow()
			mu.Unlock()

			if !allowed {
				Error(w, http.StatusTooManyRequests, "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
