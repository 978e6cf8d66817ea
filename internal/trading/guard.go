package trading

import (
	"krx-trader/internal/config"
	"krx-trader/internal/models"
)

// RejectReason identifies which admission check a scenario failed.
type RejectReason string

const (
	RejectAlreadyHeld         RejectReason = "ALREADY_HELD"
	RejectNotEntering         RejectReason = "NOT_ENTERING"
	RejectSlotsFull           RejectReason = "SLOTS_FULL"
	RejectSectorCap           RejectReason = "SECTOR_CAP"
	RejectSectorConcentration RejectReason = "SECTOR_CONCENTRATION"
	RejectScoreTooLow         RejectReason = "SCORE_TOO_LOW"
)

// AdmitResult is the portfolio guard's verdict for one scenario.
type AdmitResult struct {
	OK     bool
	Reason RejectReason
}

// PortfolioGuard enforces slot capacity and sector concentration before a
// buy is admitted. Pure and deterministic over (scenario, portfolio).
type PortfolioGuard struct {
	risk config.RiskConfig
}

// NewPortfolioGuard creates a guard with the given constraint policy.
func NewPortfolioGuard(risk config.RiskConfig) *PortfolioGuard {
	return &PortfolioGuard{risk: risk}
}

// Admit runs the admission checks in order, short-circuiting on the first
// failure. All checks must hold; none is retried or waived.
func (g *PortfolioGuard) Admit(stockID string, scenario *models.Scenario, portfolio *models.Portfolio) AdmitResult {
	if portfolio.Has(stockID) {
		return AdmitResult{Reason: RejectAlreadyHeld}
	}
	if scenario.Decision != models.DecisionEnter {
		return AdmitResult{Reason: RejectNotEntering}
	}
	if portfolio.SlotCount() >= g.risk.MaxSlots {
		return AdmitResult{Reason: RejectSlotsFull}
	}
	if portfolio.SectorCounts()[scenario.Sector] >= g.risk.MaxSameSector {
		return AdmitResult{Reason: RejectSectorCap}
	}
	// Projected concentration if this position were admitted, measured
	// against slot capacity so small portfolios are not rejected outright.
	projected := float64(portfolio.SectorCounts()[scenario.Sector]+1) / float64(g.risk.MaxSlots)
	if projected > g.risk.MaxSectorConcentration {
		return AdmitResult{Reason: RejectSectorConcentration}
	}
	if scenario.Score < scenario.MinScore {
		return AdmitResult{Reason: RejectScoreTooLow}
	}
	return AdmitResult{OK: true}
}
