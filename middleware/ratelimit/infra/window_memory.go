package infra

import (
	"context"
	"sync"
	"time"

	"governance-gateway/middleware/ratelimit/domain"

	"github.com/cespare/xxhash/v2"
)

// MemoryWindowStore guarda janelas fixas em memória, particionadas em shards
// por hash da chave. O lock de um shard serializa o passo
// ler/resetar/comparar/incrementar de todas as chaves daquele shard; chaves em
// shards diferentes não disputam lock.
type MemoryWindowStore struct {
	shards       []*windowShard
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type windowShard struct {
	mu      sync.Mutex
	entries map[domain.Key]*windowEntry
}

type windowEntry struct {
	window   domain.Window
	span     time.Duration
	lastSeen time.Time
}

// expired indica se a janela corrente já terminou em now.
func (e *windowEntry) expired(now time.Time) bool {
	return e.window.Start.IsZero() || !now.Before(e.window.Start.Add(e.span))
}

type MemoryWindowOption func(*MemoryWindowStore)

func WithShards(n int) MemoryWindowOption {
	return func(s *MemoryWindowStore) {
		if n > 0 {
			s.shards = make([]*windowShard, n)
		}
	}
}

func WithIdleTTL(d time.Duration) MemoryWindowOption {
	return func(s *MemoryWindowStore) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) MemoryWindowOption {
	return func(s *MemoryWindowStore) { s.cleanupEvery = d }
}

func NewMemoryWindowStore(opts ...MemoryWindowOption) *MemoryWindowStore {
	s := &MemoryWindowStore{
		shards:       make([]*windowShard, 64),
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.shards {
		s.shards[i] = &windowShard{entries: make(map[domain.Key]*windowEntry)}
	}
	return s
}

func (s *MemoryWindowStore) CleanupEvery() time.Duration { return s.cleanupEvery }

func (s *MemoryWindowStore) shard(key domain.Key) *windowShard {
	return s.shards[xxhash.Sum64String(string(key))%uint64(len(s.shards))]
}

// TryAdmit implementa domain.WindowStore.
func (s *MemoryWindowStore) TryAdmit(_ context.Context, key domain.Key, p domain.Policy, now time.Time) (domain.Decision, error) {
	sh := s.shard(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	ent, ok := sh.entries[key]
	if !ok {
		ent = &windowEntry{}
		sh.entries[key] = ent
	}

	var admitted bool
	ent.window, admitted = domain.Advance(ent.window, p, now)
	ent.span = p.Window
	ent.lastSeen = now

	return domain.Decision{
		Admitted:    admitted,
		Key:         key,
		Policy:      p,
		WindowStart: ent.window.Start,
		Count:       ent.window.Count,
		Now:         now,
	}, nil
}

// Len retorna quantas chaves estão em memória.
func (s *MemoryWindowStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}

// Cleanup remove chaves sem acesso há mais de idleTTL cuja janela já expirou.
// Uma janela ainda aberta nunca é removida, mesmo com idleTTL curto: o contador
// dela continua valendo até windowStart + window.
func (s *MemoryWindowStore) Cleanup(now time.Time) {
	if s.idleTTL <= 0 {
		return
	}
	cutoff := now.Add(-s.idleTTL)

	for _, sh := range s.shards {
		sh.mu.Lock()
		for k, ent := range sh.entries {
			if ent.lastSeen.Before(cutoff) && ent.expired(now) {
				delete(sh.entries, k)
			}
		}
		sh.mu.Unlock()
	}
}

// StartJanitor inicia uma goroutine que limpa chaves inativas periodicamente.
// Pare cancelando o contexto.
func (s *MemoryWindowStore) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				s.Cleanup(now)
			}
		}
	}()
}
