package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"governance-gateway/middleware/ratelimit/domain"
)

func TestDefaultKeyFunc_PrefersHeaderWhenSet(t *testing.T) {
	fn := DefaultKeyFunc("X-Client", false)

	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Client", " client-123 ")

	if got := fn(r); got != "client-123" {
		t.Fatalf("expected header key, got %q", got)
	}
}

func TestDefaultKeyFunc_TrustXForwardedForUsesFirstIP(t *testing.T) {
	fn := DefaultKeyFunc("", true)

	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")

	if got := fn(r); got != "1.2.3.4" {
		t.Fatalf("expected first XFF ip, got %q", got)
	}
}

func TestDefaultKeyFunc_FallbacksToRemoteAddrHost(t *testing.T) {
	fn := DefaultKeyFunc("", false)

	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	r.Header.Set("X-Forwarded-For", "1.2.3.4")

	if got := fn(r); got != "10.0.0.9" {
		t.Fatalf("expected remote host, got %q", got)
	}
}

func TestMethodClass(t *testing.T) {
	fn := MethodClass("title", "author")

	cases := []struct {
		method, target string
		want           domain.RouteClass
	}{
		{http.MethodGet, "/api/books", domain.ClassFrequent},
		{http.MethodGet, "/api/books?page=2", domain.ClassFrequent},
		{http.MethodGet, "/api/books?author=Herbert", domain.ClassIntensive},
		{http.MethodPost, "/api/books", domain.ClassSecure},
		{http.MethodPatch, "/api/books/1", domain.ClassSecure},
		{http.MethodDelete, "/api/books/1?title=x", domain.ClassSecure},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(tc.method, "http://example"+tc.target, nil)
		if got := fn(r); got != tc.want {
			t.Fatalf("%s %s: expected %s, got %s", tc.method, tc.target, tc.want, got)
		}
	}
}
