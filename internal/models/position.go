package models

import "time"

// Position represents an open holding. Created when a buy order is confirmed,
// removed from the active set when a sell order is confirmed. Positions are
// never partially closed.
type Position struct {
	StockID     string
	CompanyName string
	Sector      string
	Quantity    int
	EntryPrice  float64
	EntryDate   time.Time
	TargetPrice float64
	StopLoss    float64
	Horizon     Horizon
}

// HoldingDays returns the number of whole days the position has been held as
// of now. Derived, never stored.
func (p *Position) HoldingDays(now time.Time) int {
	d := int(now.Sub(p.EntryDate).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// UnrealizedReturn returns the fractional unrealized return at the given
// price, e.g. 0.05 for +5%.
func (p *Position) UnrealizedReturn(currentPrice float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	return currentPrice/p.EntryPrice - 1
}

// Portfolio is a read-only derived view over the set of open positions,
// recomputed from the position store and never independently persisted.
type Portfolio struct {
	Positions []Position
}

// SlotCount returns the number of occupied slots.
func (pf *Portfolio) SlotCount() int {
	return len(pf.Positions)
}

// Has reports whether a position is open for the given stock.
func (pf *Portfolio) Has(stockID string) bool {
	for i := range pf.Positions {
		if pf.Positions[i].StockID == stockID {
			return true
		}
	}
	return false
}

// SectorCounts returns the number of open positions per sector.
func (pf *Portfolio) SectorCounts() map[string]int {
	counts := make(map[string]int)
	for i := range pf.Positions {
		counts[pf.Positions[i].Sector]++
	}
	return counts
}

// SectorConcentration returns the fraction of open slots held by the given
// sector. Zero when the portfolio is empty.
func (pf *Portfolio) SectorConcentration(sector string) float64 {
	if len(pf.Positions) == 0 {
		return 0
	}
	return float64(pf.SectorCounts()[sector]) / float64(len(pf.Positions))
}

// SellReason is the enum-coded reason attached to a sell decision.
type SellReason string

const (
	SellStopLoss         SellReason = "STOP_LOSS"
	SellTargetHit        SellReason = "TARGET_HIT"
	SellShortTermProfit  SellReason = "SHORT_TERM_PROFIT"
	SellShortTermDefense SellReason = "SHORT_TERM_DEFENSE"
	SellProfitTake       SellReason = "PROFIT_TAKE"
	SellLossCut          SellReason = "LOSS_CUT"
	SellStaleLoss        SellReason = "STALE_LOSS"
	SellAgedProfit       SellReason = "AGED_PROFIT"
	SellLongTermCleanup  SellReason = "LONG_TERM_CLEANUP"
	SellAdvisoryExit     SellReason = "ADVISORY_EXIT"
)

// SellDecision is the verdict for one open position on a tracking cycle.
// Immutable once produced; consumed exactly once by the order router.
type SellDecision struct {
	ShouldSell bool
	Reason     SellReason
	Confidence float64 // 0-1
}

// TradeRecord is one entry in the durable trade history.
type TradeRecord struct {
	ID          int64
	StockID     string
	CompanyName string
	Side        OrderSide
	Quantity    int
	Price       float64
	Reason      string // sell reason or buy rationale tag
	ProfitLoss  float64
	ProfitRate  float64 // percent, only meaningful for sells
	HoldingDays int
	TradedAt    time.Time
}

// SkipRecord documents a candidate or position that a batch cycle could not
// process. Skips never block or roll back other candidates.
type SkipRecord struct {
	ID         int64
	StockID    string
	Stage      string // "scenario", "guard", "routing", "execution"
	Reason     string
	Detail     string
	OccurredAt time.Time
}

// PerformanceMetrics summarizes realized trading performance over the
// recorded sell history.
type PerformanceMetrics struct {
	CalculationDate   time.Time
	TotalTrades       int
	WinningTrades     int
	LosingTrades      int
	WinRate           float64 // percent
	CumulativeReturn  float64 // percent
	AvgReturnPerTrade float64 // percent
}
