package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dunamismax/upright/internal/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type stubLimiter struct {
	decision ratelimit.Decision
	err      error
	subjects []string
	costs    []int64
}

func (s *stubLimiter) Allow(_ context.Context, subject string, cost int64) (ratelimit.Decision, error) {
	s.subjects = append(s.subjects, subject)
	s.costs = append(s.costs, cost)
	return s.decision, s.err
}

func newRateLimitedServer(t *testing.T, limiter RateLimiter) *Server {
	t.Helper()
	return NewServer(
		log.New(io.Discard, "", 0),
		failingTransformer{},
		prometheus.NewRegistry(),
		0,
		WithRateLimit(limiter, "X-API-Key", 1024),
	)
}

func TestRateLimitRejectsWithRetryAfter(t *testing.T) {
	limiter := &stubLimiter{decision: ratelimit.Decision{Allowed: false, Remaining: 0, RetryAfter: 2400 * time.Millisecond}}
	srv := newRateLimitedServer(t, limiter)

	req := httptest.NewRequest(http.MethodPost, "/v1/normalize", bytes.NewReader(make([]byte, 3000)))
	req.Header.Set("X-API-Key", "tenant-a")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("expected Retry-After 2, got %q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected remaining 0, got %q", got)
	}
	if limiter.subjects[0] != "tenant-a:/v1/normalize" {
		t.Fatalf("unexpected subject %q", limiter.subjects[0])
	}
	if limiter.costs[0] != 3 {
		t.Fatalf("expected cost 3 for 3000 bytes, got %d", limiter.costs[0])
	}
	if got := testutil.ToFloat64(srv.metrics.rateLimitRejected.WithLabelValues("/v1/normalize")); got != 1 {
		t.Fatalf("expected 1 rejection, got %f", got)
	}
}

func TestRateLimitAllowsAndFallsBackToRemoteHost(t *testing.T) {
	limiter := &stubLimiter{decision: ratelimit.Decision{Allowed: true, Remaining: 41}}
	srv := newRateLimitedServer(t, limiter)

	req := httptest.NewRequest(http.MethodPost, "/v1/normalize", strings.NewReader("x"))
	req.RemoteAddr = "10.1.2.3:5555"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code == http.StatusTooManyRequests {
		t.Fatal("expected request to pass the limiter")
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "41" {
		t.Fatalf("expected remaining 41, got %q", got)
	}
	if limiter.subjects[0] != "10.1.2.3:/v1/normalize" {
		t.Fatalf("unexpected subject %q", limiter.subjects[0])
	}
	if limiter.costs[0] != 1 {
		t.Fatalf("expected minimum cost 1, got %d", limiter.costs[0])
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	limiter := &stubLimiter{err: errors.New("redis down")}
	srv := newRateLimitedServer(t, limiter)

	req := httptest.NewRequest(http.MethodPost, "/v1/normalize", strings.NewReader("x"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code == http.StatusTooManyRequests {
		t.Fatal("expected limiter errors to let the request through")
	}
}

func TestRateLimitSkipsOtherRoutes(t *testing.T) {
	limiter := &stubLimiter{decision: ratelimit.Decision{Allowed: false}}
	srv := newRateLimitedServer(t, limiter)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(limiter.subjects) != 0 {
		t.Fatal("expected limiter to be skipped for healthz")
	}
}

func TestRequestCost(t *testing.T) {
	cases := []struct {
		length, unit, want int64
	}{
		{0, 1024, 1},
		{-1, 1024, 1},
		{1024, 1024, 1},
		{1025, 1024, 2},
		{5000, 0, 1},
	}
	for _, tc := range cases {
		if got := requestCost(tc.length, tc.unit); got != tc.want {
			t.Fatalf("requestCost(%d, %d): expected %d, got %d", tc.length, tc.unit, tc.want, got)
		}
	}
}
