package domain

import (
	"context"
	"strings"
	"time"
)

// StatsEvent é uma decisão de admissão já tomada, para contagem.
// Key tem cardinalidade alta e só vai para o store quando pedido.
type StatsEvent struct {
	Class   RouteClass
	Key     Key
	Allowed bool

	Method string
	// Path é o template da rota ("/books/{id}"), nunca o path do request.
	Path string

	At time.Time
}

// Route é o rótulo "METHOD /template" da decisão; vazio quando não há nenhum dos dois.
func (e StatsEvent) Route() string {
	return strings.TrimSpace(e.Method + " " + e.Path)
}

// Outcome é "allowed" ou "denied".
func (e StatsEvent) Outcome() string {
	if e.Allowed {
		return "allowed"
	}
	return "denied"
}

// StatsStore grava decisões. Falha aqui é best-effort: o request segue.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
