package ratelimit

import (
	"errors"
	"net/http"

	"governance-gateway/middleware/failure"
	"governance-gateway/middleware/ratelimit/application"
	"governance-gateway/middleware/ratelimit/domain"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Responder escreve a resposta de uma rejeição. Em produção é o
// normalize.Normalizer.Fail; o padrão responde texto puro.
type Responder func(w http.ResponseWriter, r *http.Request, err error)

type Options struct {
	Service             application.Service
	Stats               domain.StatsStore
	KeyFn               KeyFunc
	KeyHeader           string
	TrustXForwardedFor  bool
	AddRateLimitHeaders bool
	// FailClosed rejeita com 503 quando o store falha; por padrão o request passa.
	FailClosed bool
	OnReject   Responder
	Logger     *zap.Logger
}

// Limiter aplica a quota por (classe de rota, cliente).
type Limiter struct {
	opts Options
}

func New(opts Options) *Limiter {
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.OnReject == nil {
		opts.OnReject = PlainResponder
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Limiter{opts: opts}
}

// Middleware é o atalho para uma classe fixa.
func Middleware(class domain.RouteClass, opts Options) func(next http.Handler) http.Handler {
	return New(opts).For(class)
}

// For aplica a política de uma classe fixa (uso por rota).
func (l *Limiter) For(class domain.RouteClass) func(next http.Handler) http.Handler {
	return l.By(func(*http.Request) domain.RouteClass { return class })
}

// By escolhe a classe por request (uso em proxy).
func (l *Limiter) By(classify ClassFunc) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class := classify(r)
			client := l.opts.KeyFn(r)

			dec, err := l.opts.Service.Decide(r.Context(), class, client)
			if err != nil {
				storeErrors.WithLabelValues(string(class)).Inc()
				l.opts.Logger.Warn("rate limit store failed",
					zap.String("class", string(class)),
					zap.String("key", client),
					zap.Bool("fail_closed", l.opts.FailClosed),
					zap.Error(err))
				if l.opts.FailClosed {
					l.opts.OnReject(w, r, &failure.Unavailable{Reason: "rate limit store", Err: err})
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			observeDecision(class, dec.Admitted)
			l.record(r, dec)

			if l.opts.AddRateLimitHeaders {
				setHeaders(w, dec)
			}
			if !dec.Admitted {
				l.opts.OnReject(w, r, dec.Rejection())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// routePattern devolve o template da rota casada pelo chi ("/books/{id}").
// Sem roteador chi o rótulo fica só com o método; o path cru nunca vira rótulo.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

func (l *Limiter) record(r *http.Request, dec domain.Decision) {
	if l.opts.Stats == nil {
		return
	}
	err := l.opts.Stats.Record(r.Context(), domain.StatsEvent{
		Class:   dec.Class,
		Key:     dec.Key,
		Allowed: dec.Admitted,
		Method:  r.Method,
		Path:    routePattern(r),
		At:      dec.Now,
	})
	if err != nil {
		l.opts.Logger.Warn("rate limit stats failed", zap.Error(err))
	}
}

func setHeaders(w http.ResponseWriter, dec domain.Decision) {
	h := w.Header()
	h.Set("X-RateLimit-Class", string(dec.Class))
	h.Set("X-RateLimit-Limit", formatInt(dec.Policy.Limit))
	h.Set("X-RateLimit-Remaining", formatInt(dec.Remaining()))
	if !dec.WindowStart.IsZero() {
		h.Set("X-RateLimit-Reset", formatInt64(dec.NextValidRequestTime().Unix()))
	}
}

// PlainResponder responde sem envelope: 429 com Retry-After para quota,
// 503 para o resto.
func PlainResponder(w http.ResponseWriter, r *http.Request, err error) {
	var rej *domain.Rejection
	if errors.As(err, &rej) {
		w.Header().Set("Retry-After", formatInt(rej.WaitSeconds()))
		http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		return
	}
	http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
}

// OverloadMiddleware rejeita tudo acima da vazão global do processo.
func OverloadMiddleware(lim domain.Limiter, onReject Responder) func(next http.Handler) http.Handler {
	if lim == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if onReject == nil {
		onReject = PlainResponder
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow() {
				overloadRejects.Inc()
				w.Header().Set("Retry-After", "1")
				onReject(w, r, &failure.Unavailable{Reason: "overloaded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
