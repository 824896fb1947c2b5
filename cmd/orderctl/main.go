// Command orderctl is a development producer: it builds a single
// enriched order from flags and pushes it onto order-queue, standing in
// for the HTTP front-end that would normally assign order IDs and
// enqueue orders in production.
package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"matchcore/internal/common"
	"matchcore/internal/config"
	"matchcore/internal/queue"
)

func main() {
	var (
		userID   string
		market   string
		side     string
		kind     string
		price    float64
		quantity uint64
	)

	cmd := &cobra.Command{
		Use:   "orderctl",
		Short: "Pushes a single order onto order-queue for local testing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := buildOrder(userID, market, side, kind, price, quantity)
			if err != nil {
				return err
			}

			cfg := config.Load()
			client, err := queue.NewClient(cfg.RedisAddr)
			if err != nil {
				return err
			}
			q := queue.NewRedisQueue(client, cfg.OrderQueueKey)

			payload, err := order.Encode()
			if err != nil {
				return fmt.Errorf("orderctl: encode order: %w", err)
			}
			if err := q.Push(context.Background(), payload); err != nil {
				return err
			}

			log.Info().Str("order_id", order.OrderID).Str("market", market).Msg("orderctl: order pushed")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&userID, "user", "", "user id placing the order (required)")
	flags.StringVar(&market, "market", string(common.TataInr), "market, one of TATA_INR, JIO_INR")
	flags.StringVar(&side, "side", "Buy", "Buy or Sell")
	flags.StringVar(&kind, "kind", "Limit", "Limit or Market")
	flags.Float64Var(&price, "price", 0, "limit price (ignored for Market orders)")
	flags.Uint64Var(&quantity, "quantity", 0, "order quantity (required, > 0)")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("quantity")

	if err := cmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("orderctl: failed")
	}
}

func buildOrder(userID, market, side, kind string, price float64, quantity uint64) (common.Order, error) {
	o := common.Order{
		UserID:   userID,
		OrderID:  uuid.NewString(),
		Market:   common.Market(market),
		Quantity: quantity,
		Price:    common.PriceFromFloat(price),
	}

	switch side {
	case "Buy":
		o.Side = common.Buy
	case "Sell":
		o.Side = common.Sell
	default:
		return common.Order{}, fmt.Errorf("orderctl: unknown side %q", side)
	}

	switch kind {
	case "Limit":
		o.Kind = common.Limit
	case "Market":
		o.Kind = common.MarketKind
	default:
		return common.Order{}, fmt.Errorf("orderctl: unknown kind %q", kind)
	}

	if err := o.Validate(); err != nil {
		return common.Order{}, err
	}
	return o, nil
}
