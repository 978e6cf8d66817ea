// Package broker provides the brokerage-execution collaborator interface
// and a paper-trading implementation.
package broker

import (
	"context"

	"krx-trader/internal/models"
)

// Broker is the execution collaborator the order router dispatches to.
type Broker interface {
	// PlaceOrder submits an order. A rejection surfaces as
	// ExecutionRejectedError; the caller records the candidate as skipped
	// and continues.
	PlaceOrder(ctx context.Context, order *models.Order) (*models.OrderResult, error)
}

// PriceFeed supplies the opaque price/volume stream consumed by the engine.
type PriceFeed interface {
	// CurrentPrice returns the latest close for the stock.
	CurrentPrice(ctx context.Context, stockID string) (float64, error)

	// Candles returns recent daily candles, oldest first.
	Candles(ctx context.Context, stockID string, days int) ([]models.Candle, error)
}
