package normalize

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// logRequest emite o registro único do request. Nunca propaga panic: um
// encoder com problema não pode derrubar a resposta que já foi escrita.
func (n *Normalizer) logRequest(r *http.Request, status int, out *outcome, body *bodyRecorder, d time.Duration) {
	defer func() { _ = recover() }()

	fields := []zap.Field{
		zap.String("request_id", RequestID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Duration("duration", d),
	}
	if cid := r.Header.Get(RequestIDHeader); cid != "" {
		fields = append(fields, zap.String("client_request_id", cid))
	}

	code, params, err := out.snapshot()
	if err == nil {
		n.log.Info("request completed", fields...)
		return
	}

	if params == nil {
		params = pathParams(r)
	}
	fields = append(fields,
		zap.String("error_code", string(code)),
		zap.Error(err),
		zap.Any("query", r.URL.Query()),
		zap.Any("params", params),
	)
	if b := body.Bytes(); len(b) > 0 {
		fields = append(fields, zap.ByteString("body", b))
	}
	var perr *PanicError
	if errors.As(err, &perr) {
		fields = append(fields, zap.ByteString("stack", perr.Stack))
	}

	if status >= http.StatusInternalServerError {
		n.log.Error("request failed", fields...)
		return
	}
	n.log.Warn("request failed", fields...)
}
