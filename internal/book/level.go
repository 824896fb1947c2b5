// Package book implements the per-market order book: price-indexed FIFO
// queues and the matching algorithm that consumes them.
package book

import "matchcore/internal/common"

// restingOrder is an order sitting in the book, sharing the fields of
// common.Order but tracked separately so the book can mutate Quantity
// in place without aliasing caller-owned data.
type restingOrder struct {
	UserID   string
	OrderID  string
	Side     common.Side
	Price    common.Price
	Quantity uint64
	Market   common.Market
}

func newRestingOrder(o common.Order) *restingOrder {
	return &restingOrder{
		UserID:   o.UserID,
		OrderID:  o.OrderID,
		Side:     o.Side,
		Price:    o.Price,
		Quantity: o.Quantity,
		Market:   o.Market,
	}
}

// PriceLevel is an ordered, first-in-first-out sequence of resting
// orders sharing one price on one side of the book.
type PriceLevel struct {
	price  common.Price
	orders []*restingOrder
}

func newPriceLevel(price common.Price) *PriceLevel {
	return &PriceLevel{price: price}
}

func (l *PriceLevel) empty() bool { return len(l.orders) == 0 }

func (l *PriceLevel) pushBack(o *restingOrder) {
	l.orders = append(l.orders, o)
}

// front returns the head of the FIFO without removing it, so a
// partially-filled resting order can retain its position.
func (l *PriceLevel) front() *restingOrder {
	if l.empty() {
		return nil
	}
	return l.orders[0]
}

// popFront removes the head of the FIFO once it is fully consumed.
func (l *PriceLevel) popFront() {
	l.orders = l.orders[1:]
}
