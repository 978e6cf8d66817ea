// Package trading implements the decision engine: scenario evaluation,
// portfolio admission, sell timing, order routing, and the batch pipeline
// that sequences them.
package trading

import (
	"context"

	"github.com/rs/zerolog"

	"krx-trader/internal/agents"
	"krx-trader/internal/config"
	"krx-trader/internal/errors"
	"krx-trader/internal/logging"
	"krx-trader/internal/models"
)

// ScenarioEvaluator turns a per-stock analysis artifact into a buy scenario.
// The scoring itself is delegated to a pluggable strategy; the evaluator owns
// threshold selection, invariant validation, and risk/reward coercion.
type ScenarioEvaluator struct {
	strategy agents.ScenarioStrategy
	risk     config.RiskConfig
	logger   zerolog.Logger
}

// NewScenarioEvaluator creates a scenario evaluator backed by the given
// strategy and constraint policy.
func NewScenarioEvaluator(strategy agents.ScenarioStrategy, risk config.RiskConfig, logger zerolog.Logger) *ScenarioEvaluator {
	return &ScenarioEvaluator{
		strategy: strategy,
		risk:     risk,
		logger:   logging.WithStrategy(logger, strategy.Name()),
	}
}

// Evaluate produces a validated scenario for the candidate. An ENTER proposal
// whose risk/reward falls below the regime threshold is coerced to WAIT
// before it can reach the portfolio guard. A strategy failure surfaces as
// ScenarioUnavailableError; the caller decides skip policy.
func (e *ScenarioEvaluator) Evaluate(ctx context.Context, req agents.ScenarioRequest) (*models.Scenario, error) {
	scenario, err := e.strategy.Propose(ctx, req)
	if err != nil {
		var unavailable *errors.ScenarioUnavailableError
		if errors.As(err, &unavailable) {
			return nil, err
		}
		return nil, errors.NewScenarioUnavailableError(req.StockID, err)
	}

	if err := scenario.Validate(req.Price); err != nil {
		return nil, errors.NewScenarioUnavailableError(req.StockID, err)
	}

	minScore, minRR := e.risk.Thresholds(req.Regime)
	scenario.MinScore = minScore

	if scenario.Decision == models.DecisionEnter {
		rr := scenario.RiskReward(req.Price)
		if rr < minRR {
			e.logger.Debug().
				Str("stock_id", req.StockID).
				Float64("risk_reward", rr).
				Float64("min_risk_reward", minRR).
				Msg("risk/reward below threshold, coercing to WAIT")
			scenario.Decision = models.DecisionWait
		}
	}

	logging.LogScenario(e.logger, req.StockID, string(scenario.Decision), scenario.Score, minScore)
	return scenario, nil
}
