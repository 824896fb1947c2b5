// Package config loads the engine/broadcaster's environment-driven
// configuration via viper. Queue endpoints and listen addresses come
// from process environment variables; there is no in-band config
// reload.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds every environment-supplied setting the core needs. The
// supported market set itself is fixed at build time (common.Markets),
// not configured here.
type Config struct {
	RedisAddr     string
	OrderQueueKey string
	EventQueueKey string
	ListenAddr    string
	MetricsAddr   string
}

func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("redis_addr", "127.0.0.1:6379")
	v.SetDefault("order_queue_key", "order-queue")
	v.SetDefault("event_queue_key", "event-queue")
	v.SetDefault("listen_addr", "0.0.0.0:8080")
	v.SetDefault("metrics_addr", "0.0.0.0:9090")

	return Config{
		RedisAddr:     v.GetString("redis_addr"),
		OrderQueueKey: v.GetString("order_queue_key"),
		EventQueueKey: v.GetString("event_queue_key"),
		ListenAddr:    v.GetString("listen_addr"),
		MetricsAddr:   v.GetString("metrics_addr"),
	}
}
