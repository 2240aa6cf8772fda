package normalize

import (
	"context"

	"github.com/google/uuid"
)

// RequestIDHeader devolve o id de correlação ao cliente.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID retorna o id de correlação do request, ou "" fora do Boundary.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithRequestID grava o id no contexto. Usado pelo Boundary e por testes.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// newRequestID é seguro para uso concorrente.
func newRequestID() string { return uuid.NewString() }
