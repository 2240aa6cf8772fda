package infra

import (
	"golang.org/x/time/rate"
)

// OverloadGuard é um token bucket global do processo (x/time/rate). Não tem
// chave: protege o serviço como um todo, independente das quotas por cliente.
type OverloadGuard struct {
	lim *rate.Limiter
}

func NewOverloadGuard(rps float64, burst int) *OverloadGuard {
	return &OverloadGuard{lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Allow implementa domain.Limiter.
func (g *OverloadGuard) Allow() bool { return g.lim.Allow() }

func (g *OverloadGuard) RPS() float64 { return float64(g.lim.Limit()) }
func (g *OverloadGuard) Burst() int   { return g.lim.Burst() }
