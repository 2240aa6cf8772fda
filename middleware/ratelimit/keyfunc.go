package ratelimit

import (
	"net"
	"net/http"
	"strings"

	"governance-gateway/middleware/ratelimit/domain"
)

// KeyFunc extrai a identidade do cliente (IP, API key...).
type KeyFunc func(r *http.Request) string

// ClassFunc escolhe a classe de rota de um request.
type ClassFunc func(r *http.Request) domain.RouteClass

func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			// primeiro IP do X-Forwarded-For (cliente original)
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}

		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

// MethodClass deriva a classe pelo método: mutações são "secure", leituras com
// algum parâmetro de busca são "intensive", demais leituras "frequent".
func MethodClass(searchParams ...string) ClassFunc {
	return func(r *http.Request) domain.RouteClass {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
		default:
			return domain.ClassSecure
		}

		if len(searchParams) > 0 {
			q := r.URL.Query()
			for _, p := range searchParams {
				if strings.TrimSpace(q.Get(p)) != "" {
					return domain.ClassIntensive
				}
			}
		}
		return domain.ClassFrequent
	}
}
