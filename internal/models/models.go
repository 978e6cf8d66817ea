// Package models provides domain models for the trading engine.
package models

import "time"

// MarketRegime is the coarse market-direction classification supplied by the
// external market-analysis collaborator. It selects the admission thresholds
// used by the scenario evaluator.
type MarketRegime string

const (
	RegimeBull           MarketRegime = "BULL"
	RegimeBearOrSideways MarketRegime = "BEAR_OR_SIDEWAYS"
)

// Horizon represents the intended holding-period class of a scenario.
type Horizon string

const (
	HorizonShort  Horizon = "SHORT"
	HorizonMedium Horizon = "MEDIUM"
	HorizonLong   Horizon = "LONG"
)

// ValidHorizon reports whether h is one of the known horizon classes.
func ValidHorizon(h Horizon) bool {
	return h == HorizonShort || h == HorizonMedium || h == HorizonLong
}

// OrderSide represents the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType represents the execution mode selected by the order router.
type OrderType string

const (
	OrderTypeMarket       OrderType = "MARKET"
	OrderTypeClosingPrice OrderType = "CLOSING_PRICE"
	OrderTypeReserved     OrderType = "RESERVED"
)

// Candle represents one trading session's close data for a stock.
type Candle struct {
	Date   time.Time
	Close  float64
	Volume int64
}

// TrendDirection classifies the sign of a fitted price trend.
type TrendDirection string

const (
	TrendUp   TrendDirection = "UP"
	TrendDown TrendDirection = "DOWN"
	TrendFlat TrendDirection = "FLAT"
)

// TrendSignal is the output of the trend estimator. It is recomputed every
// tracking cycle and never persisted.
type TrendSignal struct {
	Slope     float64
	Direction TrendDirection
	Strength  float64 // |slope| / mean(price), scale-free
}
