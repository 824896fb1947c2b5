package book

import (
	"sync"

	"matchcore/internal/common"
)

// Books is the engine-wide collection of per-market order books, created
// lazily on first use. Reading the map itself is cheap and safe from any
// goroutine; mutating a book requires exclusive access to that book
// alone, which OrderBook.MatchOrder already enforces internally.
type Books struct {
	mu    sync.RWMutex
	books map[common.Market]*OrderBook
}

func NewBooks() *Books {
	return &Books{books: make(map[common.Market]*OrderBook)}
}

// GetOrCreate returns the book for market, creating it on first use.
func (b *Books) GetOrCreate(market common.Market) *OrderBook {
	b.mu.RLock()
	book, ok := b.books[market]
	b.mu.RUnlock()
	if ok {
		return book
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if book, ok = b.books[market]; ok {
		return book
	}
	book = NewOrderBook(market)
	b.books[market] = book
	return book
}
