package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"matchcore/internal/broadcaster"
	"matchcore/internal/config"
	"matchcore/internal/metrics"
	"matchcore/internal/queue"
	"matchcore/internal/ws"
)

func main() {
	cmd := &cobra.Command{
		Use:   "matchcore-broadcaster",
		Short: "Runs the event broadcaster: consumes event-queue, fans out match events over websocket sessions.",
		RunE:  run,
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("broadcaster: exited with error")
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
	events := queue.NewRedisQueue(client, cfg.EventQueueKey)

	registry := broadcaster.NewRegistry()
	b := broadcaster.New(registry, events)

	reg := metrics.NewRegistry()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/ws", ws.Handler(registry))
	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("broadcaster: http server failed")
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- b.Run(ctx) }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("broadcaster: run failed")
		}
	}

	_ = httpSrv.Shutdown(context.Background())
	return nil
}
