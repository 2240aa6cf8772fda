package domain

import (
	"context"
	"errors"
)

// ErrSaturated indica que nenhuma vaga ficou livre antes do prazo.
var ErrSaturated = errors.New("ratelimit: no free slot")

// SlotPool representa um recurso com capacidade finita (ex: requests em voo).
//
// Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar.
// Ao adquirir, retorna uma função de release que deve ser chamada exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}
