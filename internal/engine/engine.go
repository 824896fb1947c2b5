// Package engine implements the matching engine loop: it blocks on the
// ingress queue, dispatches each order to its market's book, and
// forwards the resulting match events to the egress queue in order.
package engine

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"matchcore/internal/book"
	"matchcore/internal/common"
	"matchcore/internal/metrics"
	"matchcore/internal/queue"
)

// marketQueueSize bounds how far a market's worker can fall behind the
// ingress consumer before dispatch blocks, applying natural backpressure
// without losing ingress ordering.
const marketQueueSize = 256

// Engine owns the per-market order books and the worker fan-out that
// gives each market its own single-consumer loop, so matching stays
// strictly ordered per market while different markets run concurrently.
type Engine struct {
	books   *book.Books
	ingress queue.Queue
	egress  queue.Queue

	t *tomb.Tomb

	mu      sync.Mutex
	workers map[common.Market]chan common.Order
}

func New(ingress, egress queue.Queue) *Engine {
	return &Engine{
		books:   book.NewBooks(),
		ingress: ingress,
		egress:  egress,
		workers: make(map[common.Market]chan common.Order),
	}
}

// Run blocks until ctx is cancelled or a worker dies with an error.
func (e *Engine) Run(ctx context.Context) error {
	var runCtx context.Context
	e.t, runCtx = tomb.WithContext(ctx)

	e.t.Go(func() error {
		return e.consumeIngress(runCtx)
	})

	log.Info().Msg("engine running")
	return e.t.Wait()
}

func (e *Engine) consumeIngress(ctx context.Context) error {
	for {
		select {
		case <-e.t.Dying():
			return nil
		default:
		}

		payload, err := e.ingress.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Msg("engine: failed to pop from order-queue")
			continue
		}

		order, err := common.DecodeOrder(payload)
		if err != nil {
			metrics.DecodeErrors.WithLabelValues("order-queue").Inc()
			log.Warn().Err(err).Msg("engine: dropping malformed order")
			continue
		}

		e.dispatch(ctx, order)
	}
}

// dispatch hands the order to its market's single-consumer worker,
// starting that worker on first use. Because the worker channel has one
// reader, orders for the same market are matched strictly in the order
// they were dispatched.
func (e *Engine) dispatch(ctx context.Context, order common.Order) {
	ch := e.workerChannel(ctx, order.Market)
	select {
	case ch <- order:
	case <-e.t.Dying():
	}
}

func (e *Engine) workerChannel(ctx context.Context, market common.Market) chan common.Order {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ch, ok := e.workers[market]; ok {
		return ch
	}

	ch := make(chan common.Order, marketQueueSize)
	e.workers[market] = ch
	bk := e.books.GetOrCreate(market)

	e.t.Go(func() error {
		return e.runMarketWorker(ctx, market, bk, ch)
	})

	return ch
}

// runMarketWorker is the single consumer for one market's orders. It
// matches an order to completion and publishes every resulting event,
// contiguously and in emission order, before matching the next one.
func (e *Engine) runMarketWorker(ctx context.Context, market common.Market, bk *book.OrderBook, ch chan common.Order) error {
	log.Info().Str("market", string(market)).Msg("engine: market worker starting")
	for {
		select {
		case <-e.t.Dying():
			return nil
		case order := <-ch:
			events := bk.MatchOrder(order)
			metrics.OrdersProcessed.WithLabelValues(string(market)).Inc()

			for _, ev := range events {
				metrics.EventsEmitted.WithLabelValues(string(market), ev.EventType.String()).Inc()

				payload, err := ev.Encode()
				if err != nil {
					log.Error().Err(err).Msg("engine: failed to encode match event")
					continue
				}
				if err := e.egress.Push(ctx, payload); err != nil {
					log.Error().Err(err).Msg("engine: failed to push match event")
				}
			}
		}
	}
}
