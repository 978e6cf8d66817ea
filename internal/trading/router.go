package trading

import (
	"math"
	"time"

	"krx-trader/internal/errors"
	"krx-trader/internal/models"
	"krx-trader/pkg/utils"
)

// OrderRouter maps a decision and wall-clock time to an execution plan:
// order type from the session time band, quantity from the unit amount.
type OrderRouter struct {
	unitAmount float64 // KRW budget per buy
}

// NewOrderRouter creates a router with the given per-buy budget.
func NewOrderRouter(unitAmount float64) *OrderRouter {
	return &OrderRouter{unitAmount: unitAmount}
}

// RouteBuy sizes and bands a buy order. The quantity is the whole number of
// shares the unit amount affords; when it cannot afford a single share the
// buy fails with InsufficientUnitAmountError and is treated as a skip.
func (r *OrderRouter) RouteBuy(currentPrice float64, now time.Time) (*models.OrderPlan, error) {
	if currentPrice <= 0 {
		return nil, errors.NewInsufficientUnitAmountError(r.unitAmount, currentPrice)
	}
	ratio := r.unitAmount / currentPrice
	qty := int(math.Floor(ratio))
	if qty < 1 {
		return nil, errors.NewInsufficientUnitAmountError(r.unitAmount, currentPrice)
	}
	// The unit amount is a sizing guide, not a hard cash limit: a position
	// one rounding step short of a whole extra share still takes it.
	if ratio-float64(qty) > 0.99 {
		qty++
	}
	return &models.OrderPlan{
		Type:     utils.SessionBand(now),
		Quantity: qty,
	}, nil
}

// RouteSell bands a sell order. Sells are always full-size; positions are
// never partially closed.
func (r *OrderRouter) RouteSell(position *models.Position, now time.Time) *models.OrderPlan {
	return &models.OrderPlan{
		Type:     utils.SessionBand(now),
		Quantity: position.Quantity,
	}
}
