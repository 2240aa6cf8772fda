package application

import (
	"context"
	"time"

	"governance-gateway/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do rate limit por classe de rota.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
// Policies é configuração estática: não é alterada depois do start.
type Service struct {
	Store    domain.WindowStore
	Policies map[domain.RouteClass]domain.Policy
	Default  domain.Policy
	Now      func() time.Time
}

// Policy retorna a política da classe, ou a padrão do processo.
func (s Service) Policy(class domain.RouteClass) domain.Policy {
	if p, ok := s.Policies[class]; ok {
		return p
	}
	return s.Default
}

// Decide é o tryAdmit(classe, cliente, now): captura now uma única vez e
// delega o passo atômico ao store.
func (s Service) Decide(ctx context.Context, class domain.RouteClass, client string) (domain.Decision, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	key := domain.NewKey(class, client)
	p := s.Policy(class)
	if s.Store == nil || p.Window <= 0 {
		return domain.Decision{Admitted: true, Class: class, Key: key, Policy: p, Now: now}, nil
	}

	dec, err := s.Store.TryAdmit(ctx, key, p, now)
	if err != nil {
		return domain.Decision{Class: class, Key: key, Policy: p, Now: now}, err
	}
	dec.Class = class
	dec.Now = now
	return dec, nil
}
