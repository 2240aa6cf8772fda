package ratelimit

import (
	"net/http"
	"time"

	"governance-gateway/middleware/failure"
	"governance-gateway/middleware/ratelimit/application"
	"governance-gateway/middleware/ratelimit/infra"
)

type ConcurrencyOptions struct {
	Max            int
	AcquireTimeout time.Duration
	OnReject       Responder
}

// ConcurrencyMiddleware limita requests em voo. Sem vaga no prazo, rejeita
// com failure.Unavailable (503 no envelope).
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.OnReject == nil {
		opts.OnReject = PlainResponder
	}

	svc := application.ConcurrencyService{
		Pool:           infra.NewChanPool(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, err := svc.Acquire(r.Context())
			if err != nil {
				concurrencyRejects.Inc()
				opts.OnReject(w, r, &failure.Unavailable{Reason: "concurrency limit", Err: err})
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
