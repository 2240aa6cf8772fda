package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"governance-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript executa reset/comparação/incremento num único passo no
// Redis. A expiração da chave é o fim da janela.
//
// KEYS[1] = chave da janela; ARGV[1] = janela em ms; ARGV[2] = limite.
// Retorna {count, ttl_ms, admitido}.
var fixedWindowScript = redis.NewScript(`
local window = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
local ttl = redis.call('PTTL', KEYS[1])

if count == 0 or ttl < 0 then
  if limit < 1 then
    return {0, window, 0}
  end
  redis.call('SET', KEYS[1], 1, 'PX', window)
  return {1, window, 1}
end

if count < limit then
  redis.call('INCR', KEYS[1])
  return {count + 1, ttl, 1}
end

return {count, ttl, 0}
`)

// RedisWindowStore compartilha as janelas entre réplicas do gateway.
// O início da janela é derivado do TTL restante, usando o now do chamador.
type RedisWindowStore struct {
	rdb    redis.Scripter
	prefix string
}

type RedisWindowOption func(*RedisWindowStore)

func WithWindowPrefix(prefix string) RedisWindowOption {
	return func(s *RedisWindowStore) { s.prefix = strings.Trim(prefix, ":") }
}

func NewRedisWindowStore(rdb redis.Scripter, opts ...RedisWindowOption) *RedisWindowStore {
	s := &RedisWindowStore{rdb: rdb, prefix: "ratelimit:window"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TryAdmit implementa domain.WindowStore.
func (s *RedisWindowStore) TryAdmit(ctx context.Context, key domain.Key, p domain.Policy, now time.Time) (domain.Decision, error) {
	windowMS := p.Window.Milliseconds()
	if windowMS <= 0 {
		windowMS = 1
	}

	res, err := fixedWindowScript.Run(ctx, s.rdb, []string{s.prefix + ":" + string(key)}, windowMS, p.Limit).Int64Slice()
	if err != nil {
		return domain.Decision{}, fmt.Errorf("redis window %s: %w", key, err)
	}
	if len(res) != 3 {
		return domain.Decision{}, fmt.Errorf("redis window %s: unexpected reply %v", key, res)
	}

	count, ttl, admitted := int(res[0]), time.Duration(res[1])*time.Millisecond, res[2] == 1
	elapsed := p.Window - ttl
	if elapsed < 0 {
		elapsed = 0
	}

	return domain.Decision{
		Admitted:    admitted,
		Key:         key,
		Policy:      p,
		WindowStart: now.Add(-elapsed),
		Count:       count,
		Now:         now,
	}, nil
}
