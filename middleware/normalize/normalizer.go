package normalize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"governance-gateway/middleware/envelope"

	"go.uber.org/zap"
)

// errNoResponse é usado quando o handler retorna sem escrever nada.
var errNoResponse = errors.New("handler returned without writing a response")

// PanicError carrega o valor recuperado e a stack; só aparece no log.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Normalizer é a fronteira de saída. É seguro para uso concorrente: não tem
// estado mutável além do gerador de ids.
type Normalizer struct {
	log        *zap.Logger
	classifier *Classifier
	builder    envelope.Builder
	newID      func() string
	bodyLimit  int
}

type Option func(*Normalizer)

func WithClassifier(c *Classifier) Option {
	return func(n *Normalizer) { n.classifier = c }
}

// WithClock troca o relógio usado no timestamp dos envelopes.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.builder.Now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(n *Normalizer) { n.newID = gen }
}

// WithBodyLimit limita quantos bytes do corpo vão para o log de falha.
func WithBodyLimit(limit int) Option {
	return func(n *Normalizer) { n.bodyLimit = limit }
}

func New(log *zap.Logger, opts ...Option) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	n := &Normalizer{
		log:        log,
		classifier: NewClassifier(),
		newID:      newRequestID,
		bodyLimit:  4 << 10,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.builder.NewID = n.newID
	return n
}

// Boundary deve ser o middleware mais externo: o id de correlação existe antes
// do rate limit e de qualquer handler. Todo request sai daqui com um envelope
// (ou com a resposta já escrita pelo handler) e com exatamente um log.
func (n *Normalizer) Boundary(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := n.newID()
		out := &outcome{}

		ctx := WithRequestID(r.Context(), id)
		ctx = context.WithValue(ctx, outcomeKey{}, out)
		r = r.WithContext(ctx)

		var body *bodyRecorder
		if r.Body != nil && r.Body != http.NoBody && n.bodyLimit > 0 {
			body = &bodyRecorder{ReadCloser: r.Body, limit: n.bodyLimit}
			r.Body = body
		}

		w.Header().Set(RequestIDHeader, id)
		rw := newResponseWriter(w)

		defer func() {
			p := recover()
			switch {
			case p != nil:
				panicRecoveries.Inc()
				perr := &PanicError{Value: p, Stack: debug.Stack()}
				if rw.written {
					out.fail(perr, envelope.CodeInternal, pathParams(r))
				} else {
					n.Fail(rw, r, perr)
				}
			case !rw.written:
				n.Fail(rw, r, errNoResponse)
			}

			n.logRequest(r, rw.status, out, body, time.Since(start))

			if p == http.ErrAbortHandler {
				panic(p)
			}
		}()

		next.ServeHTTP(rw, r)
	})
}

// Fail classifica err e escreve o envelope de erro. Fora do Boundary gera um
// id próprio e loga na hora.
func (n *Normalizer) Fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	id := RequestID(ctx)
	if id == "" {
		id = n.newID()
		r = r.WithContext(WithRequestID(ctx, id))
	}

	cl := n.classifier.Classify(err)
	env := n.builder.BuildError(cl.Code, cl.Message, cl.Details, id)

	if cl.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(cl.RetryAfter))
	}
	observeResponse(string(env.Error), env.Status)

	out := outcomeFrom(ctx)
	standalone := out == nil
	if standalone {
		out = &outcome{}
	}
	out.fail(err, env.Error, pathParams(r))

	if werr := envelope.WriteJSON(w, env.Status, env); werr != nil {
		n.log.Debug("write error envelope", zap.String("request_id", id), zap.Error(werr))
	}

	if standalone {
		n.logRequest(r, env.Status, out, nil, 0)
	}
}

// Respond escreve o envelope de sucesso. status 0 vira 200.
func (n *Normalizer) Respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	if status == 0 {
		status = http.StatusOK
	}

	raw, err := json.Marshal(n.builder.BuildSuccess(data))
	if err != nil {
		n.Fail(w, r, fmt.Errorf("encode response: %w", err))
		return
	}
	observeResponse("", status)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(raw, '\n'))
}

// Result é o lado Ok de um handler.
type Result struct {
	Status int
	Data   any
}

func OK(data any) Result      { return Result{Status: http.StatusOK, Data: data} }
func Created(data any) Result { return Result{Status: http.StatusCreated, Data: data} }

// HandlerFunc devolve Ok(Result) ou Err(error); nunca escreve no
// ResponseWriter.
type HandlerFunc func(r *http.Request) (Result, error)

// Handle adapta um HandlerFunc para http.Handler passando pelo normalizador.
func (n *Normalizer) Handle(h HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := h(r)
		if err != nil {
			n.Fail(w, r, err)
			return
		}
		n.Respond(w, r, res.Status, res.Data)
	})
}
