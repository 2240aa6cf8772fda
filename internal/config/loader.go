// Package config carrega a configuração em três camadas: padrões compilados,
// arquivo YAML opcional e variáveis de ambiente com prefixo GOVERNANCE_
// (ratelimit.secure.limit → GOVERNANCE_RATELIMIT_SECURE_LIMIT).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const EnvPrefix = "GOVERNANCE"

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("upstream_url", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.backend", BackendMemory)
	v.SetDefault("ratelimit.key_header", "")
	v.SetDefault("ratelimit.trust_xff", false)
	v.SetDefault("ratelimit.headers", true)
	v.SetDefault("ratelimit.fail_closed", false)
	v.SetDefault("ratelimit.shards", 64)
	v.SetDefault("ratelimit.idle_ttl", "15m")
	v.SetDefault("ratelimit.cleanup_every", "2m")
	v.SetDefault("ratelimit.search_params", []string{"title", "author", "q", "search"})

	v.SetDefault("ratelimit.default.limit", 100)
	v.SetDefault("ratelimit.default.window", "60s")
	v.SetDefault("ratelimit.secure.limit", 30)
	v.SetDefault("ratelimit.secure.window", "60s")
	v.SetDefault("ratelimit.intensive.limit", 50)
	v.SetDefault("ratelimit.intensive.window", "60s")
	v.SetDefault("ratelimit.frequent.limit", 200)
	v.SetDefault("ratelimit.frequent.window", "60s")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "ratelimit")

	v.SetDefault("stats.enabled", false)
	v.SetDefault("stats.backend", BackendMemory)
	v.SetDefault("stats.ttl", "24h")
	v.SetDefault("stats.bucket", "minute")
	v.SetDefault("stats.track_keys", false)

	v.SetDefault("concurrency.max", 100)
	v.SetDefault("concurrency.timeout", "0s")

	v.SetDefault("overload.rps", 0)
	v.SetDefault("overload.burst", 0)
}

// Load lê a configuração. path vazio usa só padrões e ambiente; um path que
// não existe é erro.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	normalize(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalize(cfg *Config) {
	cfg.RateLimit.Backend = strings.ToLower(strings.TrimSpace(cfg.RateLimit.Backend))
	cfg.Stats.Backend = strings.ToLower(strings.TrimSpace(cfg.Stats.Backend))
	cfg.Stats.Bucket = strings.ToLower(strings.TrimSpace(cfg.Stats.Bucket))
	cfg.Redis.Prefix = strings.Trim(cfg.Redis.Prefix, ":")

	params := cfg.RateLimit.SearchParams[:0]
	for _, p := range cfg.RateLimit.SearchParams {
		if p = strings.TrimSpace(p); p != "" {
			params = append(params, p)
		}
	}
	cfg.RateLimit.SearchParams = params

	if cfg.Concurrency.Timeout < 0 {
		cfg.Concurrency.Timeout = time.Duration(0)
	}
}
