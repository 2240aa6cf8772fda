package domain

import (
	"fmt"
	"math"
	"time"
)

// Rejection é a falha de quota devolvida quando a janela está cheia.
// Implementa error para seguir o mesmo caminho das demais falhas até o
// normalizador.
type Rejection struct {
	Class                RouteClass
	Key                  Key
	Limit                int
	Window               time.Duration
	NextValidRequestTime time.Time
	At                   time.Time
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("rate limit exceeded for class %s: %d requests per %s", r.Class, r.Limit, r.Window)
}

// RemainingAttempts é sempre zero: só há rejeição com a janela esgotada.
func (r *Rejection) RemainingAttempts() int { return 0 }

// WaitSeconds arredonda para cima, em segundos inteiros, o tempo entre a
// rejeição e a próxima janela.
func (r *Rejection) WaitSeconds() int {
	d := r.NextValidRequestTime.Sub(r.At)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

func (r *Rejection) WindowSeconds() int {
	return int(math.Ceil(r.Window.Seconds()))
}
