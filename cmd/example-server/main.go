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

	"governance-gateway/internal/books"
	"governance-gateway/internal/config"
	"governance-gateway/internal/governance"
	"governance-gateway/internal/observability"
	"governance-gateway/middleware/failure"
	"governance-gateway/middleware/normalize"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	envFile string
)

// Exemplo: a governança injetada direto no webserver (sem proxy), com
// classes de quota por rota.
var rootCmd = &cobra.Command{
	Use:          "example-server",
	Short:        "Books API served behind the governance layer",
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

	n := stack.Normalizer
	svc := books.NewService(books.NewMemoryStore(), nil)

	api := chi.NewRouter()
	api.Method(http.MethodGet, "/health", n.Handle(func(*http.Request) (normalize.Result, error) {
		return normalize.OK(map[string]string{"status": "ok"}), nil
	}))
	api.Method(http.MethodGet, "/_governance/stats", n.Handle(stack.Stats))
	api.Route("/api", func(r chi.Router) {
		books.NewHandler(svc).Routes(r, n, stack.Limiter)
	})
	api.NotFound(n.Handle(func(r *http.Request) (normalize.Result, error) {
		return normalize.Result{}, failure.NewNotFound("route", r.Method+" "+r.URL.Path)
	}).ServeHTTP)

	root := chi.NewRouter()
	if cfg.RateLimit.TrustXFF {
		root.Use(middleware.RealIP)
	}
	root.Handle("/metrics", promhttp.Handler())
	root.Handle("/*", stack.Guard(api))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("example server listening", zap.String("addr", cfg.ListenAddr), zap.Any("policies", cfg.Policies()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
