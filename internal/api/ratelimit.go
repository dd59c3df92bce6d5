package api

import (
	"net/http"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/wonny/heatmap/internal/api/handlers"
	"github.com/wonny/heatmap/pkg/logger"
	"github.com/wonny/heatmap/pkg/redis"
)

// RateLimiter limits requests per client IP.
// With a shared limiter (Redis) every API instance sees the same budget;
// otherwise each IP gets an in-process token bucket kept in go-cache.
type RateLimiter struct {
	rps    float64
	burst  int
	local  *gocache.Cache
	shared *redis.RateLimiter
	logger *logger.Logger
}

// NewRateLimiter returns nil when rps <= 0 (disabled); shared may be nil
func NewRateLimiter(rps float64, burst int, shared *redis.RateLimiter, log *logger.Logger) *RateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	if log == nil {
		log = logger.Nop()
	}

	return &RateLimiter{
		rps:   rps,
		burst: burst,
		// 10분간 요청 없는 IP의 버킷은 정리
		local:  gocache.New(10*time.Minute, 20*time.Minute),
		shared: shared,
		logger: log,
	}
}

// Middleware rejects requests over the limit with 429
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.Allow(r) {
			next.ServeHTTP(w, r)
			return
		}

		retry := int(float64(l.burst)/l.rps + 0.5)
		if retry < 1 {
			retry = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		handlers.WriteError(w, http.StatusTooManyRequests, "Rate limit exceeded",
			"Too many requests. Please wait "+strconv.Itoa(retry)+" seconds before trying again.")
	})
}

// Allow reports whether the request's client has budget left
func (l *RateLimiter) Allow(r *http.Request) bool {
	ip := clientIP(r)

	if l.shared != nil {
		allowed, _, err := l.shared.Allow(r.Context(), redis.WindowFor("api:"+ip, l.rps, l.burst))
		if err == nil {
			return allowed
		}
		// Redis 장애 시 로컬 버킷으로 대체
		l.logger.WithError(err).Warn("Shared rate limiter failed, using local limiter")
	}

	return l.limiter(ip).Allow()
}

func (l *RateLimiter) limiter(ip string) *rate.Limiter {
	if v, ok := l.local.Get(ip); ok {
		return v.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(rate.Limit(l.rps), l.burst)
	if err := l.local.Add(ip, limiter, gocache.DefaultExpiration); err != nil {
		// 동시에 다른 요청이 먼저 등록함
		if v, ok := l.local.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}
