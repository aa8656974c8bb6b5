package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dunamismax/upright/internal/ratelimit"
)

type RateLimiter interface {
	Allow(ctx context.Context, subject string, cost int64) (ratelimit.Decision, error)
}

type Option func(*Server)

// WithRateLimit charges each normalize request one token per costUnitBytes
// of declared upload size, at least one. Subjects come from subjectHeader,
// falling back to the client address.
func WithRateLimit(limiter RateLimiter, subjectHeader string, costUnitBytes int64) Option {
	return func(s *Server) {
		s.rateLimiter = limiter
		s.rateLimitSubjectHeader = subjectHeader
		s.rateLimitCostUnit = costUnitBytes
	}
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.rateLimiter == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !shouldRateLimit(r) {
			next.ServeHTTP(w, r)
			return
		}

		subject := s.rateLimitSubject(r) + ":" + routeLabel(r.URL.Path)
		decision, err := s.rateLimiter.Allow(r.Context(), subject, requestCost(r.ContentLength, s.rateLimitCostUnit))
		if err != nil {
			s.logger.Printf("rate limiter check failed subject=%s err=%v", subject, err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		if decision.Allowed {
			next.ServeHTTP(w, r)
			return
		}

		retryAfter := int(decision.RetryAfter.Round(time.Second).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		s.metrics.rateLimitRejected.WithLabelValues(routeLabel(r.URL.Path)).Inc()
		writeJSON(w, http.StatusTooManyRequests, map[string]string{
			"error": "rate limit exceeded",
		})
	})
}

func (s *Server) rateLimitSubject(r *http.Request) string {
	if s.rateLimitSubjectHeader != "" {
		if v := strings.TrimSpace(r.Header.Get(s.rateLimitSubjectHeader)); v != "" {
			return v
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return "anonymous"
	}
	return host
}

func requestCost(contentLength, unit int64) int64 {
	if unit <= 0 || contentLength <= 0 {
		return 1
	}
	return (contentLength + unit - 1) / unit
}

func shouldRateLimit(r *http.Request) bool {
	return r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/v1/normalize")
}
