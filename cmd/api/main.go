package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bryanwahyu/automaton-query/internal/bootstrap"
	"github.com/bryanwahyu/automaton-query/internal/config"
	"github.com/bryanwahyu/automaton-query/internal/infra/httpserver"
	"github.com/bryanwahyu/automaton-query/internal/middleware"
	"github.com/bryanwahyu/automaton-query/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "path to config YAML (default $CONFIG_PATH or config.yaml)")
	flag.Parse()

	// load config
	cfg, err := config.Resolve(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	logger := observability.InitLogger("automaton-api", cfg.Log.Level)

	ctx := context.Background()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app, err := bootstrap.Build(ctx, cfg, logger, reg)
	if err != nil {
		logger.Fatal().Err(err).Msg("bootstrap failed")
	}
	defer app.Close()

	httpMetrics, err := middleware.NewHTTPMetrics(reg)
	if err != nil {
		logger.Fatal().Err(err).Msg("http metrics init failed")
	}

	// init router
	handler := httpserver.NewRouter(app.Scans, app.AI, httpserver.Options{
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.RateLimit.RequestsPerSecond,
		Burst:          cfg.RateLimit.Burst,
		Metrics:        httpMetrics,
		Gatherer:       reg,
		Checkers:       app.Checkers,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logger.Info().Str("addr", addr).Str("store", app.Scans.Store.Location()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
}
