package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"errors"
	"time"
)

// RouteClass agrupa rotas que compartilham a mesma política de quota.
type RouteClass string

const (
	ClassDefault   RouteClass = "default"
	ClassSecure    RouteClass = "secure"
	ClassIntensive RouteClass = "intensive"
	ClassFrequent  RouteClass = "frequent"
)

// Key identifica uma janela: (classe de rota, cliente). Janelas nunca são
// compartilhadas entre classes.
type Key string

func NewKey(class RouteClass, client string) Key {
	return Key(string(class) + "|" + client)
}

// Policy é o par (limit, janela) de uma classe de rota.
type Policy struct {
	Limit  int
	Window time.Duration
}

var ErrInvalidPolicy = errors.New("ratelimit: invalid policy")

func (p Policy) Validate() error {
	if p.Limit < 0 || p.Window <= 0 {
		return ErrInvalidPolicy
	}
	return nil
}

// Window é o estado de contagem de uma chave (janela fixa).
// Vale enquanto now < Start+duração; depois disso é zerada no próximo acesso.
type Window struct {
	Start time.Time
	Count int
}

// Advance aplica uma tentativa de admissão sobre a janela, como um único
// passo: reset se expirada, compara com o limite e incrementa.
// Quem chama é responsável por serializar o acesso à mesma chave.
func Advance(w Window, p Policy, now time.Time) (Window, bool) {
	if w.Start.IsZero() || !now.Before(w.Start.Add(p.Window)) {
		w = Window{Start: now}
	}
	if w.Count < p.Limit {
		w.Count++
		return w, true
	}
	return w, false
}

// Decision é o resultado de uma tentativa de admissão.
// Now é o único instante capturado para a decisão; o tempo de espera é
// sempre calculado a partir dele.
type Decision struct {
	Admitted    bool
	Class       RouteClass
	Key         Key
	Policy      Policy
	WindowStart time.Time
	Count       int
	Now         time.Time
}

func (d Decision) NextValidRequestTime() time.Time {
	return d.WindowStart.Add(d.Policy.Window)
}

func (d Decision) Remaining() int {
	if r := d.Policy.Limit - d.Count; r > 0 {
		return r
	}
	return 0
}

// Rejection retorna a falha de quota correspondente, ou nil se admitido.
func (d Decision) Rejection() *Rejection {
	if d.Admitted {
		return nil
	}
	return &Rejection{
		Class:                d.Class,
		Key:                  d.Key,
		Limit:                d.Policy.Limit,
		Window:               d.Policy.Window,
		NextValidRequestTime: d.NextValidRequestTime(),
		At:                   d.Now,
	}
}

// WindowStore guarda as janelas por chave. TryAdmit precisa ser atômico por
// chave; chaves distintas não devem disputar o mesmo lock.
type WindowStore interface {
	TryAdmit(ctx context.Context, key Key, p Policy, now time.Time) (Decision, error)
}

// Limiter decide se uma ação é permitida agora, sem chave (ex: token bucket
// global de sobrecarga).
type Limiter interface {
	Allow() bool
}
