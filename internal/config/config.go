package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"governance-gateway/middleware/ratelimit/domain"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config é a configuração dos dois binários. Políticas são estáticas depois
// do Load.
type Config struct {
	ListenAddr  string            `mapstructure:"listen_addr"`
	UpstreamURL string            `mapstructure:"upstream_url"`
	Log         LogConfig         `mapstructure:"log"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Stats       StatsConfig       `mapstructure:"stats"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency"`
	Overload    OverloadConfig    `mapstructure:"overload"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type PolicyConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

func (p PolicyConfig) Policy() domain.Policy {
	return domain.Policy{Limit: p.Limit, Window: p.Window}
}

type RateLimitConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Backend      string        `mapstructure:"backend"`
	KeyHeader    string        `mapstructure:"key_header"`
	TrustXFF     bool          `mapstructure:"trust_xff"`
	Headers      bool          `mapstructure:"headers"`
	FailClosed   bool          `mapstructure:"fail_closed"`
	Shards       int           `mapstructure:"shards"`
	IdleTTL      time.Duration `mapstructure:"idle_ttl"`
	CleanupEvery time.Duration `mapstructure:"cleanup_every"`
	SearchParams []string      `mapstructure:"search_params"`

	Default   PolicyConfig `mapstructure:"default"`
	Secure    PolicyConfig `mapstructure:"secure"`
	Intensive PolicyConfig `mapstructure:"intensive"`
	Frequent  PolicyConfig `mapstructure:"frequent"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type StatsConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Backend   string        `mapstructure:"backend"`
	TTL       time.Duration `mapstructure:"ttl"`
	Bucket    string        `mapstructure:"bucket"`
	TrackKeys bool          `mapstructure:"track_keys"`
}

type ConcurrencyConfig struct {
	Max     int           `mapstructure:"max"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// OverloadConfig controla o token bucket global. RPS 0 desliga.
type OverloadConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// Policies devolve a tabela classe → política.
func (c *Config) Policies() map[domain.RouteClass]domain.Policy {
	return map[domain.RouteClass]domain.Policy{
		domain.ClassDefault:   c.RateLimit.Default.Policy(),
		domain.ClassSecure:    c.RateLimit.Secure.Policy(),
		domain.ClassIntensive: c.RateLimit.Intensive.Policy(),
		domain.ClassFrequent:  c.RateLimit.Frequent.Policy(),
	}
}

// UsesRedis indica se algum componente precisa de um cliente Redis.
func (c *Config) UsesRedis() bool {
	return (c.RateLimit.Enabled && c.RateLimit.Backend == BackendRedis) ||
		(c.Stats.Enabled && c.Stats.Backend == BackendRedis)
}

// Upstream valida e devolve upstream_url (só o gateway usa).
func (c *Config) Upstream() (*url.URL, error) {
	if strings.TrimSpace(c.UpstreamURL) == "" {
		return nil, errors.New("config: upstream_url is required")
	}
	u, err := url.Parse(c.UpstreamURL)
	if err != nil {
		return nil, fmt.Errorf("config: invalid upstream_url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("config: upstream_url %q must be absolute", c.UpstreamURL)
	}
	return u, nil
}

func (c *Config) Validate() error {
	var errs []error

	for class, p := range c.Policies() {
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("ratelimit.%s: limit must be >= 0 and window > 0 (got %d/%s)", class, p.Limit, p.Window))
		}
	}
	if !validBackend(c.RateLimit.Backend) {
		errs = append(errs, fmt.Errorf("ratelimit.backend: unknown backend %q", c.RateLimit.Backend))
	}
	if !validBackend(c.Stats.Backend) {
		errs = append(errs, fmt.Errorf("stats.backend: unknown backend %q", c.Stats.Backend))
	}
	if c.UsesRedis() && strings.TrimSpace(c.Redis.Addr) == "" {
		errs = append(errs, errors.New("redis.addr is required when a redis backend is enabled"))
	}
	switch c.Stats.Bucket {
	case "minute", "none":
	default:
		errs = append(errs, fmt.Errorf("stats.bucket: must be minute or none (got %q)", c.Stats.Bucket))
	}
	if c.RateLimit.Backend == BackendMemory && c.RateLimit.IdleTTL > 0 {
		if longest := c.longestWindow(); c.RateLimit.IdleTTL < longest {
			errs = append(errs, fmt.Errorf("ratelimit.idle_ttl (%s) must be >= the longest policy window (%s)", c.RateLimit.IdleTTL, longest))
		}
	}
	if c.RateLimit.Shards < 0 {
		errs = append(errs, errors.New("ratelimit.shards must be >= 0"))
	}
	if c.Concurrency.Max < 0 {
		errs = append(errs, errors.New("concurrency.max must be >= 0"))
	}
	if c.Overload.RPS < 0 {
		errs = append(errs, errors.New("overload.rps must be >= 0"))
	}
	if c.Overload.RPS > 0 && c.Overload.Burst <= 0 {
		errs = append(errs, errors.New("overload.burst must be > 0 when overload.rps is set"))
	}

	return errors.Join(errs...)
}

func (c *Config) longestWindow() time.Duration {
	var longest time.Duration
	for _, p := range c.Policies() {
		if p.Window > longest {
			longest = p.Window
		}
	}
	return longest
}

func validBackend(b string) bool {
	return b == BackendMemory || b == BackendRedis
}
