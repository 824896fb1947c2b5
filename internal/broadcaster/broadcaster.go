package broadcaster

import (
	"context"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"matchcore/internal/common"
	"matchcore/internal/metrics"
	"matchcore/internal/queue"
)

// Broadcaster blocks on the event queue and routes each event per its
// type.
type Broadcaster struct {
	registry *Registry
	events   queue.Queue
	t        *tomb.Tomb
}

func New(registry *Registry, events queue.Queue) *Broadcaster {
	return &Broadcaster{registry: registry, events: events}
}

func (b *Broadcaster) Run(ctx context.Context) error {
	var runCtx context.Context
	b.t, runCtx = tomb.WithContext(ctx)

	b.t.Go(func() error {
		return b.consume(runCtx)
	})

	log.Info().Msg("broadcaster running")
	return b.t.Wait()
}

func (b *Broadcaster) consume(ctx context.Context) error {
	for {
		select {
		case <-b.t.Dying():
			return nil
		default:
		}

		payload, err := b.events.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Msg("broadcaster: failed to pop from event-queue")
			continue
		}

		event, err := common.DecodeEvent(payload)
		if err != nil {
			metrics.DecodeErrors.WithLabelValues("event-queue").Inc()
			log.Warn().Err(err).Msg("broadcaster: dropping malformed event")
			continue
		}

		b.route(event, payload)
	}
}

// route delivers FullFill and MarketPartialFill only to the event's own
// user; PartialFill additionally fans out to every current subscriber of
// the event's market, without deduplicating the originator if they are
// also a subscriber.
func (b *Broadcaster) route(event common.MatchEvent, serialized Message) {
	label := event.EventType.String()

	switch event.EventType {
	case common.FullFill, common.MarketPartialFill:
		b.send(event.UserID, serialized, label)
	case common.PartialFill:
		b.send(event.UserID, serialized, label)
		for _, uid := range b.registry.subscribers(event.Market) {
			b.send(uid, serialized, label)
		}
	}
}

func (b *Broadcaster) send(userID string, msg Message, eventTypeLabel string) {
	if b.registry.deliver(userID, msg) {
		metrics.EventsRouted.WithLabelValues(eventTypeLabel).Inc()
		return
	}
	metrics.RoutingMisses.WithLabelValues(eventTypeLabel).Inc()
}
