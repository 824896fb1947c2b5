package book

import (
	"sync"

	"github.com/tidwall/btree"

	"matchcore/internal/common"
)

type levels = btree.BTreeG[*PriceLevel]

// OrderBook holds resting orders for a single market: two price-indexed
// ordered maps of FIFO queues, bids traversable descending and asks
// traversable ascending.
type OrderBook struct {
	market common.Market

	// mu serializes matching for this book. The engine already gives
	// each market a single-consumer worker (internal/engine), so this
	// lock is a second, cheap guarantee against any future caller that
	// bypasses the dispatcher.
	mu sync.Mutex

	bids *levels // ordered so Min() yields the highest bid
	asks *levels // ordered so Min() yields the lowest ask
}

func NewOrderBook(market common.Market) *OrderBook {
	return &OrderBook{
		market: market,
		bids: btree.NewBTreeG(func(a, b *PriceLevel) bool {
			return a.price.GreaterThan(b.price)
		}),
		asks: btree.NewBTreeG(func(a, b *PriceLevel) bool {
			return a.price.LessThan(b.price)
		}),
	}
}

// BestBid and BestAsk are exported for tests and the non-crossing
// invariant check; they return (price, true) or (zero, false) if that
// side is empty.
func (b *OrderBook) BestBid() (common.Price, bool) {
	if l, ok := b.bids.Min(); ok {
		return l.price, true
	}
	return common.Price{}, false
}

func (b *OrderBook) BestAsk() (common.Price, bool) {
	if l, ok := b.asks.Min(); ok {
		return l.price, true
	}
	return common.Price{}, false
}

// Snapshot returns the resting quantity at each level, sorted in the
// book's natural traversal order, for tests and introspection.
func (b *OrderBook) Snapshot(side common.Side) []LevelSnapshot {
	tree := b.asks
	if side == common.Buy {
		tree = b.bids
	}
	var out []LevelSnapshot
	tree.Scan(func(level *PriceLevel) bool {
		snap := LevelSnapshot{Price: level.price}
		for _, o := range level.orders {
			snap.Quantities = append(snap.Quantities, o.Quantity)
		}
		out = append(out, snap)
		return true
	})
	return out
}

type LevelSnapshot struct {
	Price      common.Price
	Quantities []uint64
}

// MatchOrder mutates the book and returns the trades produced. It is
// pure over book state and the input order: it performs no I/O and never
// errors — the caller is responsible for rejecting malformed orders
// before they reach here (internal/common's validator does this).
func (b *OrderBook) MatchOrder(order common.Order) []common.MatchEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case order.Side == common.Buy && order.Kind == common.Limit:
		return b.matchLimitBuy(order)
	case order.Side == common.Sell && order.Kind == common.Limit:
		return b.matchLimitSell(order)
	case order.Side == common.Buy && order.Kind == common.MarketKind:
		return b.matchMarketBuy(order)
	default:
		return b.matchMarketSell(order)
	}
}

func (b *OrderBook) matchLimitBuy(order common.Order) []common.MatchEvent {
	remaining := order.Quantity
	events := b.sweep(b.asks, order, &remaining, func(askPrice common.Price) bool {
		return askPrice.LessOrEqual(order.Price)
	})
	if remaining > 0 {
		b.rest(b.bids, order, remaining)
	}
	return events
}

func (b *OrderBook) matchLimitSell(order common.Order) []common.MatchEvent {
	remaining := order.Quantity
	events := b.sweep(b.bids, order, &remaining, func(bidPrice common.Price) bool {
		return bidPrice.GreaterOrEqual(order.Price)
	})
	if remaining > 0 {
		b.rest(b.asks, order, remaining)
	}
	return events
}

func (b *OrderBook) matchMarketBuy(order common.Order) []common.MatchEvent {
	remaining := order.Quantity
	events := b.sweep(b.asks, order, &remaining, alwaysCrosses)
	return appendUnfilledTail(events, order, remaining)
}

func (b *OrderBook) matchMarketSell(order common.Order) []common.MatchEvent {
	remaining := order.Quantity
	events := b.sweep(b.bids, order, &remaining, alwaysCrosses)
	return appendUnfilledTail(events, order, remaining)
}

func alwaysCrosses(common.Price) bool { return true }

// appendUnfilledTail implements the market-order residual rule: a market
// order never rests; if it leaves quantity unfilled, exactly one
// terminating MarketPartialFill signal is emitted.
func appendUnfilledTail(events []common.MatchEvent, order common.Order, remaining uint64) []common.MatchEvent {
	if remaining == 0 {
		return events
	}
	return append(events, common.MatchEvent{
		OrderID:     order.OrderID,
		UserID:      order.UserID,
		MatchedWith: "",
		Quantity:    0,
		Price:       common.ZeroPrice,
		OrderKind:   order.Kind,
		Market:      order.Market,
		EventType:   common.MarketPartialFill,
	})
}

// sweep consumes resting orders from levels while crossOK holds for the
// best remaining level and the incoming order still has quantity left,
// in strict price-then-time priority.
func (b *OrderBook) sweep(tree *levels, order common.Order, remaining *uint64, crossOK func(levelPrice common.Price) bool) []common.MatchEvent {
	var events []common.MatchEvent

	for *remaining > 0 {
		level, ok := tree.Min()
		if !ok || !crossOK(level.price) {
			break
		}

		for *remaining > 0 && !level.empty() {
			resting := level.front()
			tradeQty := min(*remaining, resting.Quantity)
			*remaining -= tradeQty
			resting.Quantity -= tradeQty

			eventType := common.PartialFill
			if *remaining == 0 {
				eventType = common.FullFill
			}
			events = append(events, common.MatchEvent{
				OrderID:     order.OrderID,
				UserID:      order.UserID,
				MatchedWith: resting.OrderID,
				Quantity:    tradeQty,
				Price:       level.price,
				OrderKind:   order.Kind,
				Market:      order.Market,
				EventType:   eventType,
			})

			if resting.Quantity > 0 {
				// Time priority: the partially-filled resting order
				// keeps its head position; stop scanning this level.
				break
			}
			level.popFront()
		}

		if level.empty() {
			tree.Delete(level)
		}
	}

	return events
}

// rest appends a limit order's residual quantity to the tail of its own
// price level, creating the level if it doesn't exist yet.
func (b *OrderBook) rest(tree *levels, order common.Order, remaining uint64) {
	probe := &PriceLevel{price: order.Price}
	level, ok := tree.Get(probe)
	if !ok {
		level = newPriceLevel(order.Price)
		tree.Set(level)
	}
	residual := newRestingOrder(order)
	residual.Quantity = remaining
	level.pushBack(residual)
}
