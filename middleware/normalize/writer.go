package normalize

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"

	"governance-gateway/middleware/envelope"

	"github.com/go-chi/chi/v5"
)

// responseWriter registra o status e se algo já foi escrito, para o Boundary
// saber se ainda precisa responder.
type responseWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(status int) {
	if rw.written {
		return
	}
	rw.status = status
	rw.written = true
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap permite http.ResponseController (flush do reverse proxy).
func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// bodyRecorder guarda até limit bytes do corpo lido pelo handler, para o log
// de falha.
type bodyRecorder struct {
	io.ReadCloser
	buf   bytes.Buffer
	limit int
}

func (b *bodyRecorder) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if room := b.limit - b.buf.Len(); room > 0 && n > 0 {
		b.buf.Write(p[:min(n, room)])
	}
	return n, err
}

func (b *bodyRecorder) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.buf.Bytes()
}

// outcome é o estado de um único request, vivo só dentro do Boundary.
type outcome struct {
	mu     sync.Mutex
	err    error
	code   envelope.Code
	params map[string]string
}

type outcomeKey struct{}

func outcomeFrom(ctx context.Context) *outcome {
	out, _ := ctx.Value(outcomeKey{}).(*outcome)
	return out
}

func (o *outcome) fail(err error, code envelope.Code, params map[string]string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err, o.code = err, code
	if len(params) > 0 {
		o.params = params
	}
}

func (o *outcome) snapshot() (envelope.Code, map[string]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.code, o.params, o.err
}

func pathParams(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || len(rctx.URLParams.Keys) == 0 {
		return nil
	}
	out := make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		if k == "*" || i >= len(rctx.URLParams.Values) {
			continue
		}
		out[k] = rctx.URLParams.Values[i]
	}
	return out
}
