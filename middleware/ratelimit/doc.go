// Package ratelimit fornece adapters HTTP (net/http) para quota por classe de
// rota, sobrecarga global e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: janela fixa, decisão, rejeição (sem dependência de net/http)
//   - application: casos de uso (Decide por classe, acquire/timeout) sem net/http
//   - infra: stores de janela (memória em shards, Redis), token bucket, semáforo, stats
//   - ratelimit (este pacote): middlewares HTTP + extração de chave/classe
//
// Fluxo:
//
//  1. Extrai a chave do cliente (header/XFF/IP) e a classe da rota
//  2. Chama a camada application para obter a decisão
//  3. Se bloqueado, entrega a falha ao Responder (normalmente o normalizador,
//     que responde 429 RATE_LIMITED ou 503 SERVICE_UNAVAILABLE)
//  4. Se permitido, chama o próximo handler
package ratelimit
