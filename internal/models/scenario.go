package models

import "fmt"

// ScenarioDecision is the entry verdict of a buy scenario.
type ScenarioDecision string

const (
	DecisionEnter ScenarioDecision = "ENTER"
	DecisionWait  ScenarioDecision = "WAIT"
)

// Scenario is a proposal for entering a position, produced by the scenario
// evaluator from a per-stock analysis artifact.
type Scenario struct {
	Decision    ScenarioDecision
	Score       int // 1-10, higher = stronger conviction
	MinScore    int // regime-dependent admission threshold, set by the evaluator
	TargetPrice float64
	StopLoss    float64
	Horizon     Horizon
	Sector      string
	Rationale   string // free text, opaque to the engine
}

// Validate checks the scenario invariants against the candidate's current
// price. An ENTER scenario must satisfy stopLoss < currentPrice < targetPrice.
func (s *Scenario) Validate(currentPrice float64) error {
	if s.Decision != DecisionEnter && s.Decision != DecisionWait {
		return fmt.Errorf("invalid decision: %q", s.Decision)
	}
	if s.Score < 1 || s.Score > 10 {
		return fmt.Errorf("score must be between 1 and 10, got %d", s.Score)
	}
	if !ValidHorizon(s.Horizon) {
		return fmt.Errorf("invalid investment horizon: %q", s.Horizon)
	}
	if s.Decision == DecisionEnter {
		if currentPrice <= 0 {
			return fmt.Errorf("current price must be positive, got %f", currentPrice)
		}
		if s.StopLoss >= currentPrice {
			return fmt.Errorf("stop loss %.2f must be below current price %.2f", s.StopLoss, currentPrice)
		}
		if s.TargetPrice <= currentPrice {
			return fmt.Errorf("target price %.2f must be above current price %.2f", s.TargetPrice, currentPrice)
		}
		if s.StopLoss <= 0 {
			return fmt.Errorf("stop loss must be positive, got %f", s.StopLoss)
		}
	}
	return nil
}

// RiskReward computes the reward-to-risk ratio of the scenario at the given
// entry price: (target/entry - 1) / |stop/entry - 1|.
func (s *Scenario) RiskReward(entryPrice float64) float64 {
	if entryPrice <= 0 {
		return 0
	}
	risk := s.StopLoss/entryPrice - 1
	if risk < 0 {
		risk = -risk
	}
	if risk == 0 {
		return 0
	}
	return (s.TargetPrice/entryPrice - 1) / risk
}
