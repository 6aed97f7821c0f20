package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig controls the per-client token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// TTL is how long an idle client's limiter is kept before cleanup.
	TTL time.Duration
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 10,
		Burst:             20,
		TTL:               3 * time.Minute,
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type visitorStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	cfg      RateLimitConfig
	now      func() time.Time
}

func newVisitorStore(cfg RateLimitConfig) *visitorStore {
	return &visitorStore{
		visitors: make(map[string]*visitor),
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *visitorStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(s.cfg.RequestsPerSecond), s.cfg.Burst)}
		s.visitors[key] = v
	}
	v.lastSeen = s.now()
	return v.limiter
}

func (s *visitorStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.cfg.TTL)
	for key, v := range s.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(s.visitors, key)
		}
	}
}

// RateLimit limits requests per client IP using a token bucket. A background
// goroutine evicts limiters for clients idle longer than cfg.TTL.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	store := newVisitorStore(cfg)

	go func() {
		ticker := time.NewTicker(cfg.TTL)
		defer ticker.Stop()
		for range ticker.C {
			store.cleanup()
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if !store.get(key).Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"code":"RATE_LIMITED","message":"too many requests"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
