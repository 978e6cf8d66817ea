package agents

import (
	"context"

	"krx-trader/internal/errors"
	"krx-trader/internal/models"
	"krx-trader/internal/resilience"
	"krx-trader/pkg/utils"
)

// ScenarioRequest carries everything a scenario strategy may consult when
// proposing an entry for one candidate stock.
type ScenarioRequest struct {
	StockID     string
	CompanyName string
	Sector      string
	Price       float64
	Artifact    string // per-stock analysis artifact, opaque structured text
	Regime      models.MarketRegime
	Trend       *models.TrendSignal
	Portfolio   *models.Portfolio
}

// SellRequest carries the inputs for an advisory sell decision on one open
// position.
type SellRequest struct {
	Position models.Position
	Price    float64
	Regime   models.MarketRegime
	Trend    *models.TrendSignal
	HoldDays int
}

// ScenarioStrategy proposes a buy scenario for a candidate. Implementations
// may be AI-backed or deterministic; either way the returned scenario must
// satisfy models.Scenario.Validate against the request price.
type ScenarioStrategy interface {
	Name() string
	Propose(ctx context.Context, req ScenarioRequest) (*models.Scenario, error)
}

// SellStrategy produces an advisory sell/hold decision. Advisory output is
// only honored when well formed; any error defers to the rule cascade.
type SellStrategy interface {
	Name() string
	Decide(ctx context.Context, req SellRequest) (*models.SellDecision, error)
}

// FallbackScenarioStrategy tries a primary strategy within the capability
// retry budget and degrades to a deterministic fallback when the primary is
// unavailable. Only when both fail does Propose return an error.
type FallbackScenarioStrategy struct {
	primary  ScenarioStrategy
	fallback ScenarioStrategy
	retry    utils.RetryConfig
	breaker  *resilience.Breaker
}

// NewFallbackScenarioStrategy composes a primary strategy with a fallback
// under the standard capability retry budget.
func NewFallbackScenarioStrategy(primary, fallback ScenarioStrategy) *FallbackScenarioStrategy {
	return NewFallbackScenarioStrategyWithRetry(primary, fallback, utils.CapabilityRetryConfig())
}

// NewFallbackScenarioStrategyWithRetry composes the strategies with an
// explicit retry budget.
func NewFallbackScenarioStrategyWithRetry(primary, fallback ScenarioStrategy, retry utils.RetryConfig) *FallbackScenarioStrategy {
	return &FallbackScenarioStrategy{
		primary:  primary,
		fallback: fallback,
		retry:    retry,
	}
}

// WithBreaker attaches an advisory breaker. When the breaker is open the
// primary is skipped entirely and Propose goes straight to the fallback.
func (s *FallbackScenarioStrategy) WithBreaker(breaker *resilience.Breaker) *FallbackScenarioStrategy {
	s.breaker = breaker
	return s
}

func (s *FallbackScenarioStrategy) Name() string {
	return "fallback_scenario"
}

// Propose runs the primary strategy with retry, then the fallback.
func (s *FallbackScenarioStrategy) Propose(ctx context.Context, req ScenarioRequest) (*models.Scenario, error) {
	if s.primary != nil && (s.breaker == nil || s.breaker.Allow() == nil) {
		scenario, err := utils.RetryWithResult(ctx, s.retry, func() (*models.Scenario, error) {
			return s.primary.Propose(ctx, req)
		})
		if s.breaker != nil {
			s.breaker.Record(err)
		}
		if err == nil {
			return scenario, nil
		}
		if ctx.Err() != nil {
			return nil, errors.NewScenarioUnavailableError(req.StockID, ctx.Err())
		}
	}

	if s.fallback != nil {
		scenario, err := s.fallback.Propose(ctx, req)
		if err == nil {
			return scenario, nil
		}
		return nil, errors.NewScenarioUnavailableError(req.StockID, err)
	}

	return nil, errors.NewScenarioUnavailableError(req.StockID, errors.ErrConfigInvalid)
}
