package models

import "time"

// OrderPlan is the router's verdict for one decision: the execution mode for
// the current time band and the quantity to trade.
type OrderPlan struct {
	Type     OrderType
	Quantity int
}

// Order represents an order request dispatched to the brokerage collaborator.
type Order struct {
	StockID  string
	Side     OrderSide
	Type     OrderType
	Quantity int
	Price    float64 // reference price at routing time
	Tag      string
	PlacedAt time.Time
}

// OrderResult represents the brokerage collaborator's response.
type OrderResult struct {
	OrderID string
	Status  string // COMPLETE, REJECTED, QUEUED
	Message string
}
