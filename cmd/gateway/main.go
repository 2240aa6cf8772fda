package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"governance-gateway/internal/config"
	"governance-gateway/internal/governance"
	"governance-gateway/internal/observability"
	"governance-gateway/middleware/ratelimit"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Reverse proxy with request governance (quota, overload, error envelope)",
	Long: `gateway fica na frente de um upstream HTTP e aplica a camada de governança:
id de correlação, quota por classe de rota, limites de carga e envelope de erro.

Configuração: --config (YAML) e variáveis GOVERNANCE_*.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "optional .env file loaded before GOVERNANCE_* lookup")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	target, err := cfg.Upstream()
	if err != nil {
		return err
	}

	log, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	stack, err := governance.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = stack.Close() }()
	stack.Start(ctx)

	proxy := stack.Proxy(target)

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Method(http.MethodGet, "/_governance/stats", stack.Guard(stack.Normalizer.Handle(stack.Stats)))
	r.Handle("/*", stack.Guard(stack.Limit(ratelimit.MethodClass(cfg.RateLimit.SearchParams...))(proxy)))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("gateway listening",
		zap.String("addr", cfg.ListenAddr),
		zap.String("upstream", target.String()),
		zap.Bool("ratelimit", cfg.RateLimit.Enabled),
		zap.String("ratelimit_backend", cfg.RateLimit.Backend),
		zap.Any("policies", cfg.Policies()),
		zap.Int("concurrency_max", cfg.Concurrency.Max),
		zap.Duration("concurrency_timeout", cfg.Concurrency.Timeout),
		zap.Float64("overload_rps", cfg.Overload.RPS),
		zap.Bool("stats", cfg.Stats.Enabled),
		zap.String("stats_backend", cfg.Stats.Backend),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
