package common

import (
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrUnknownMarket is returned when an order names a market outside the
// build's fixed, enumerated set.
var ErrUnknownMarket = errors.New("common: unknown market")

// Order is the unit admitted to the matching engine: an order already
// enriched by the (out-of-scope) HTTP front-end with a server-assigned
// order_id and a resolved user_id. Only Quantity mutates once an order
// rests in the book.
type Order struct {
	UserID    string `json:"user_id" validate:"required"`
	OrderID   string `json:"order_id" validate:"required"`
	Kind      Kind   `json:"kind"`
	Side      Side   `json:"order_type"`
	Price     Price  `json:"price"`
	Quantity  uint64 `json:"quantity" validate:"required,gt=0"`
	Market    Market `json:"market" validate:"required"`
}

// DecodeOrder parses and validates the wire JSON for an enriched order.
// A malformed payload or a failed validation both return an error, so
// the engine loop can drop such payloads rather than panic or forward
// them to the matcher.
func DecodeOrder(payload []byte) (Order, error) {
	var o Order
	if err := json.Unmarshal(payload, &o); err != nil {
		return Order{}, err
	}
	if err := o.Validate(); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (o Order) Validate() error {
	if err := validate.Struct(o); err != nil {
		return err
	}
	if !o.Market.Valid() {
		return ErrUnknownMarket
	}
	return o.Price.Validate()
}

func (o Order) Encode() ([]byte, error) {
	return json.Marshal(o)
}
