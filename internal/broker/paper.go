package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"krx-trader/internal/errors"
	"krx-trader/internal/logging"
	"krx-trader/internal/models"
)

// PaperBroker simulates order execution for paper trading. Market and
// closing-price orders fill immediately at the order's reference price;
// reserved orders are acknowledged as queued for the next session.
type PaperBroker struct {
	mu           sync.Mutex
	orderCounter int
	orders       map[string]*models.Order
}

// NewPaperBroker creates a new paper trading broker.
func NewPaperBroker() *PaperBroker {
	return &PaperBroker{
		orders: make(map[string]*models.Order),
	}
}

// PlaceOrder simulates execution of the order.
func (p *PaperBroker) PlaceOrder(ctx context.Context, order *models.Order) (*models.OrderResult, error) {
	if order.Quantity < 1 {
		return nil, errors.NewExecutionRejectedError(order.StockID, string(order.Side), "quantity must be at least 1")
	}
	if order.Price <= 0 {
		return nil, errors.NewExecutionRejectedError(order.StockID, string(order.Side), "reference price must be positive")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.orderCounter++
	orderID := fmt.Sprintf("PAPER-%s-%d", time.Now().Format("20060102"), p.orderCounter)
	p.orders[orderID] = order

	status := "COMPLETE"
	message := fmt.Sprintf("filled %d @ %.2f", order.Quantity, order.Price)
	if order.Type == models.OrderTypeReserved {
		status = "QUEUED"
		message = "reserved for next session open"
	}

	logger := logging.FromContext(ctx)
	logger.Debug().
		Str("order_id", orderID).
		Str("status", status).
		Msg("paper order accepted")

	return &models.OrderResult{
		OrderID: orderID,
		Status:  status,
		Message: message,
	}, nil
}

// Orders returns all orders placed in this session, for inspection.
func (p *PaperBroker) Orders() []*models.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*models.Order, 0, len(p.orders))
	for _, o := range p.orders {
		out = append(out, o)
	}
	return out
}
