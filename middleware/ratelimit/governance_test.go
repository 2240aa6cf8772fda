package ratelimit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"governance-gateway/middleware/normalize"
	"governance-gateway/middleware/ratelimit/application"
	"governance-gateway/middleware/ratelimit/domain"
	"governance-gateway/middleware/ratelimit/infra"
)

// Quota + normalizador juntos, como montado nos binários.
func governed(c *clock, limit int) (http.Handler, *int64) {
	n := normalize.New(nil)
	svc := application.Service{
		Store:    infra.NewMemoryWindowStore(),
		Policies: map[domain.RouteClass]domain.Policy{domain.ClassSecure: {Limit: limit, Window: 60 * time.Second}},
		Now:      c.Now,
	}
	var handled int64
	l := New(Options{Service: svc, OnReject: n.Fail})
	h := n.Boundary(l.For(domain.ClassSecure)(n.Handle(func(*http.Request) (normalize.Result, error) {
		atomic.AddInt64(&handled, 1)
		return normalize.Created(map[string]int{"id": 1}), nil
	})))
	return h, &handled
}

func TestGovernance_ThirtyFirstRequestIsRateLimited(t *testing.T) {
	c := &clock{now: t0}
	h, handled := governed(c, 30)

	for i := 1; i <= 31; i++ {
		c.now = t0.Add(time.Duration(i) * 300 * time.Millisecond)
		w := get(h, http.MethodPost, "10.0.0.1:1234")

		if i <= 30 {
			if w.Code != http.StatusCreated {
				t.Fatalf("request %d: expected 201, got %d", i, w.Code)
			}
			continue
		}

		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("request 31: expected 429, got %d", w.Code)
		}
		var env struct {
			Success   bool   `json:"success"`
			Error     string `json:"error"`
			RequestID string `json:"requestId"`
			Details   struct {
				WaitTimeSeconds int `json:"waitTimeSeconds"`
				Limit           int `json:"limit"`
			} `json:"details"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("invalid envelope: %v", err)
		}
		if env.Success || env.Error != "RATE_LIMITED" || env.RequestID == "" {
			t.Fatalf("unexpected envelope %+v", env)
		}
		if env.Details.WaitTimeSeconds < 50 || env.Details.WaitTimeSeconds > 60 {
			t.Fatalf("expected waitTimeSeconds in [50,60], got %d", env.Details.WaitTimeSeconds)
		}
		if w.Header().Get("Retry-After") != fmt.Sprint(env.Details.WaitTimeSeconds) {
			t.Fatalf("Retry-After must match waitTimeSeconds")
		}
	}
	if *handled != 30 {
		t.Fatalf("expected 30 handled requests, got %d", *handled)
	}
}

func TestGovernance_ConcurrentCallersNeverOverAdmit(t *testing.T) {
	c := &clock{now: t0}
	h, handled := governed(c, 25)

	var wg sync.WaitGroup
	var limited int64
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if w := get(h, http.MethodPost, "10.0.0.7:999"); w.Code == http.StatusTooManyRequests {
				atomic.AddInt64(&limited, 1)
			}
		}()
	}
	wg.Wait()

	if *handled != 25 || limited != 55 {
		t.Fatalf("expected 25 admitted / 55 limited, got %d / %d", *handled, limited)
	}
}
