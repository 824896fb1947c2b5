package common

import (
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNegativePrice is returned when an order's price is negative. Prices
// on the wire are plain JSON numbers, which cannot encode NaN or
// Infinity, so those are already structurally excluded by the time a
// Price reaches this package.
var ErrNegativePrice = errors.New("common: price must be non-negative")

// Price wraps decimal.Decimal so the book's price-indexed maps get an
// exact, total order instead of float64 comparison. decimal.Decimal has
// no NaN representation, which closes the "total ordering over prices"
// design note from the source spec without a hand-rolled wrapper.
type Price struct {
	d decimal.Decimal
}

// ZeroPrice is the sentinel price attached to the MarketPartialFill
// signal event, which carries no real trade price.
var ZeroPrice = Price{d: decimal.Zero}

func PriceFromFloat(f float64) Price {
	return Price{d: decimal.NewFromFloat(f)}
}

func (p Price) Float64() float64 {
	f, _ := p.d.Float64()
	return f
}

func (p Price) Validate() error {
	if p.d.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

// Cmp returns -1, 0 or 1 as p is less than, equal to, or greater than o.
func (p Price) Cmp(o Price) int {
	return p.d.Cmp(o.d)
}

func (p Price) LessThan(o Price) bool       { return p.Cmp(o) < 0 }
func (p Price) GreaterThan(o Price) bool    { return p.Cmp(o) > 0 }
func (p Price) Equal(o Price) bool          { return p.Cmp(o) == 0 }
func (p Price) LessOrEqual(o Price) bool    { return p.Cmp(o) <= 0 }
func (p Price) GreaterOrEqual(o Price) bool { return p.Cmp(o) >= 0 }

func (p Price) String() string {
	return p.d.String()
}

func (p Price) MarshalJSON() ([]byte, error) {
	f, _ := p.d.Float64()
	return json.Marshal(f)
}

func (p *Price) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	p.d = decimal.NewFromFloat(f)
	return nil
}
