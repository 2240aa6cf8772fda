// Package governance monta a camada de governança a partir da configuração:
// normalizador, janelas de quota, estatísticas e guardas de carga.
package governance

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"governance-gateway/internal/config"
	"governance-gateway/middleware/failure"
	"governance-gateway/middleware/normalize"
	"governance-gateway/middleware/ratelimit"
	"governance-gateway/middleware/ratelimit/application"
	"governance-gateway/middleware/ratelimit/domain"
	"governance-gateway/middleware/ratelimit/infra"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Stack struct {
	Normalizer *normalize.Normalizer
	// Limiter é nil quando ratelimit.enabled=false.
	Limiter *ratelimit.Limiter

	cfg         *config.Config
	log         *zap.Logger
	rdb         *redis.Client
	windows     *infra.MemoryWindowStore
	memoryStats *infra.MemoryStatsStore
	overload    domain.Limiter
}

// Option troca peças da montagem (usado em testes).
type Option func(*buildOptions)

type buildOptions struct {
	now       func() time.Time
	redis     *redis.Client
	normalize []normalize.Option
}

func WithClock(now func() time.Time) Option {
	return func(o *buildOptions) { o.now = now }
}

// WithRedis injeta um cliente já criado em vez de abrir um a partir de cfg.Redis.
func WithRedis(rdb *redis.Client) Option {
	return func(o *buildOptions) { o.redis = rdb }
}

func WithNormalizerOptions(opts ...normalize.Option) Option {
	return func(o *buildOptions) { o.normalize = append(o.normalize, opts...) }
}

func Build(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...Option) (*Stack, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	s := &Stack{
		Normalizer: normalize.New(log, bo.normalize...),
		cfg:        cfg,
		log:        log,
	}

	if cfg.UsesRedis() {
		rdb := bo.redis
		if rdb == nil {
			rdb = redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := rdb.Ping(pingCtx).Err()
			cancel()
			if err != nil {
				_ = rdb.Close()
				return nil, fmt.Errorf("governance: redis ping %s: %w", cfg.Redis.Addr, err)
			}
		}
		s.rdb = rdb
	}

	stats := s.buildStats()

	if cfg.RateLimit.Enabled {
		s.Limiter = ratelimit.New(ratelimit.Options{
			Service: application.Service{
				Store:    s.buildWindows(),
				Policies: cfg.Policies(),
				Default:  cfg.RateLimit.Default.Policy(),
				Now:      bo.now,
			},
			Stats:               stats,
			KeyHeader:           cfg.RateLimit.KeyHeader,
			TrustXForwardedFor:  cfg.RateLimit.TrustXFF,
			AddRateLimitHeaders: cfg.RateLimit.Headers,
			FailClosed:          cfg.RateLimit.FailClosed,
			OnReject:            s.Normalizer.Fail,
			Logger:              log,
		})
	}

	if cfg.Overload.RPS > 0 {
		s.overload = infra.NewOverloadGuard(cfg.Overload.RPS, cfg.Overload.Burst)
	}

	return s, nil
}

func (s *Stack) buildWindows() domain.WindowStore {
	if s.cfg.RateLimit.Backend == config.BackendRedis {
		return infra.NewRedisWindowStore(s.rdb, infra.WithWindowPrefix(s.cfg.Redis.Prefix+":window"))
	}
	s.windows = infra.NewMemoryWindowStore(
		infra.WithShards(s.cfg.RateLimit.Shards),
		infra.WithIdleTTL(s.cfg.RateLimit.IdleTTL),
		infra.WithCleanupEvery(s.cfg.RateLimit.CleanupEvery),
	)
	return s.windows
}

func (s *Stack) buildStats() domain.StatsStore {
	st := s.cfg.Stats
	if !st.Enabled {
		return nil
	}
	if st.Backend == config.BackendRedis {
		return infra.NewRedisStatsStore(s.rdb,
			infra.WithStatsPrefix(s.cfg.Redis.Prefix+":stats"),
			infra.WithStatsTTL(st.TTL),
			infra.WithStatsBucket(st.Bucket),
			infra.WithStatsTrackKeys(st.TrackKeys),
		)
	}
	s.memoryStats = infra.NewMemoryStatsStore(infra.WithTrackKeys(st.TrackKeys))
	return s.memoryStats
}

// Start liga a limpeza periódica das janelas em memória; para com ctx.
func (s *Stack) Start(ctx context.Context) {
	if s.windows != nil {
		s.windows.StartJanitor(ctx)
	}
}

func (s *Stack) Close() error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// Guard envolve h com boundary → sobrecarga → concorrência. A quota fica por
// conta de quem monta as rotas (Limiter.For / Limiter.By).
func (s *Stack) Guard(h http.Handler) http.Handler {
	h = ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Max:            s.cfg.Concurrency.Max,
		AcquireTimeout: s.cfg.Concurrency.Timeout,
		OnReject:       s.Normalizer.Fail,
	})(h)
	h = ratelimit.OverloadMiddleware(s.overload, s.Normalizer.Fail)(h)
	return s.Normalizer.Boundary(h)
}

// Limit aplica a quota com a classe escolhida por classify; sem Limiter é
// passthrough.
func (s *Stack) Limit(classify ratelimit.ClassFunc) func(http.Handler) http.Handler {
	if s.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return s.Limiter.By(classify)
}

type statsSnapshot struct {
	Total   infra.Counters                       `json:"total"`
	ByClass map[domain.RouteClass]infra.Counters `json:"byClass"`
	ByRoute map[string]infra.Counters            `json:"byRoute"`
}

// Stats expõe os contadores em memória. Com stats em Redis (ou desligado) a
// leitura não é suportada por aqui.
func (s *Stack) Stats(*http.Request) (normalize.Result, error) {
	if s.memoryStats == nil {
		return normalize.Result{}, &failure.InvalidOperation{Message: "admission stats are only readable with stats.enabled and the memory backend"}
	}
	return normalize.OK(statsSnapshot{
		Total:   s.memoryStats.Total(),
		ByClass: s.memoryStats.ByClass(),
		ByRoute: s.memoryStats.ByRoute(),
	}), nil
}
