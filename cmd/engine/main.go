package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"matchcore/internal/config"
	"matchcore/internal/engine"
	"matchcore/internal/metrics"
	"matchcore/internal/queue"
)

func main() {
	cmd := &cobra.Command{
		Use:   "matchcore-engine",
		Short: "Runs the matching engine: consumes order-queue, publishes match events to event-queue.",
		RunE:  run,
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("engine: exited with error")
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	client, err := queue.NewClient(cfg.RedisAddr)
	if err != nil {
		return err
	}
	ingress := queue.NewRedisQueue(client, cfg.OrderQueueKey)
	egress := queue.NewRedisQueue(client, cfg.EventQueueKey)

	reg := metrics.NewRegistry()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("engine: metrics server failed")
		}
	}()

	eng := engine.New(ingress, egress)

	errCh := make(chan error, 1)
	go func() { errCh <- eng.Run(ctx) }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("engine: run failed")
		}
	}

	_ = metricsSrv.Shutdown(context.Background())
	return nil
}
