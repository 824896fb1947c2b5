// Package metrics exposes the prometheus counters that back the
// decode-errors-dropped-silently error policy, plus basic throughput
// counters for the engine and broadcaster loops.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	DecodeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "matchcore",
		Name:      "decode_errors_total",
		Help:      "Payloads dropped because they failed to decode or validate.",
	}, []string{"queue"})

	EventsEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "matchcore",
		Name:      "match_events_emitted_total",
		Help:      "Match events emitted by the matching engine, by event type.",
	}, []string{"market", "event_type"})

	EventsRouted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "matchcore",
		Name:      "events_routed_total",
		Help:      "Match events the broadcaster delivered to a session's outbound queue.",
	}, []string{"event_type"})

	RoutingMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "matchcore",
		Name:      "routing_misses_total",
		Help:      "Deliveries skipped because the target user_id had no live session.",
	}, []string{"event_type"})

	OrdersProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "matchcore",
		Name:      "orders_processed_total",
		Help:      "Orders consumed from order-queue and dispatched to a book, by market.",
	}, []string{"market"})
)

// NewRegistry bundles the counters above behind a fresh prometheus registry
// so the engine and broadcaster binaries can each expose an isolated
// /metrics endpoint.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(DecodeErrors, EventsEmitted, EventsRouted, RoutingMisses, OrdersProcessed)
	return reg
}
