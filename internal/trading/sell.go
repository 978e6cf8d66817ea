package trading

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"krx-trader/internal/agents"
	"krx-trader/internal/models"
	"krx-trader/internal/resilience"
	"krx-trader/pkg/utils"
)

// Sell rule cascade thresholds. Returns are fractional (0.05 = +5%).
const (
	shortTermProfitDays   = 15
	shortTermProfitReturn = 0.05
	shortTermDefenseDays  = 10
	shortTermDefenseLoss  = -0.03
	profitTakeReturn      = 0.10
	lossCutReturn         = -0.05
	staleLossDays         = 30
	agedProfitDays        = 60
	agedProfitReturn      = 0.03
	longTermCleanupDays   = 90
)

// SellEvaluator decides sell timing for open positions. Hard stop-loss and
// target rules come first and cannot be overridden; a configured advisory
// strategy is consulted next, and any advisory failure reduces to the
// deterministic rule cascade.
type SellEvaluator struct {
	advisory agents.SellStrategy // nil disables the advisory layer
	retry    utils.RetryConfig
	breaker  *resilience.Breaker
	logger   zerolog.Logger
}

// NewSellEvaluator creates a sell evaluator. Pass a nil advisory strategy to
// run the rule cascade alone.
func NewSellEvaluator(advisory agents.SellStrategy, logger zerolog.Logger) *SellEvaluator {
	return &SellEvaluator{
		advisory: advisory,
		retry:    utils.CapabilityRetryConfig(),
		logger:   logger,
	}
}

// NewSellEvaluatorWithRetry creates a sell evaluator with an explicit
// advisory retry budget.
func NewSellEvaluatorWithRetry(advisory agents.SellStrategy, retry utils.RetryConfig, logger zerolog.Logger) *SellEvaluator {
	return &SellEvaluator{
		advisory: advisory,
		retry:    retry,
		logger:   logger,
	}
}

// WithBreaker attaches an advisory breaker. While open, the advisory layer
// is skipped and positions go straight to the rule cascade.
func (e *SellEvaluator) WithBreaker(breaker *resilience.Breaker) *SellEvaluator {
	e.breaker = breaker
	return e
}

// Decide produces the sell verdict for one position at the current price.
func (e *SellEvaluator) Decide(ctx context.Context, position *models.Position, currentPrice float64, trend *models.TrendSignal, regime models.MarketRegime, now time.Time) *models.SellDecision {
	// Hard overrides first; no advisory layer can hold through these.
	if currentPrice <= position.StopLoss {
		return &models.SellDecision{ShouldSell: true, Reason: models.SellStopLoss, Confidence: 1.0}
	}
	if currentPrice >= position.TargetPrice {
		return &models.SellDecision{ShouldSell: true, Reason: models.SellTargetHit, Confidence: 1.0}
	}

	holdDays := position.HoldingDays(now)

	if e.advisory != nil && (e.breaker == nil || e.breaker.Allow() == nil) {
		req := agents.SellRequest{
			Position: *position,
			Price:    currentPrice,
			Regime:   regime,
			Trend:    trend,
			HoldDays: holdDays,
		}
		decision, err := utils.RetryWithResult(ctx, e.retry, func() (*models.SellDecision, error) {
			return e.advisory.Decide(ctx, req)
		})
		if e.breaker != nil {
			e.breaker.Record(err)
		}
		if err == nil {
			return decision
		}
		e.logger.Warn().
			Err(err).
			Str("stock_id", position.StockID).
			Msg("advisory sell strategy unavailable, using rule cascade")
	}

	return ruleCascade(position, currentPrice, holdDays)
}

// ruleCascade is the deterministic sell decision shared by every evaluator
// variant. Rules are ordered; the first match wins.
func ruleCascade(position *models.Position, currentPrice float64, holdDays int) *models.SellDecision {
	ret := position.UnrealizedReturn(currentPrice)

	switch {
	case position.Horizon == models.HorizonShort && holdDays >= shortTermProfitDays && ret >= shortTermProfitReturn:
		return sell(models.SellShortTermProfit)
	case position.Horizon == models.HorizonShort && holdDays >= shortTermDefenseDays && ret <= shortTermDefenseLoss:
		return sell(models.SellShortTermDefense)
	case ret >= profitTakeReturn:
		return sell(models.SellProfitTake)
	case ret <= lossCutReturn:
		return sell(models.SellLossCut)
	case holdDays >= staleLossDays && ret < 0:
		return sell(models.SellStaleLoss)
	case holdDays >= agedProfitDays && ret >= agedProfitReturn:
		return sell(models.SellAgedProfit)
	case position.Horizon == models.HorizonLong && holdDays >= longTermCleanupDays && ret < 0:
		return sell(models.SellLongTermCleanup)
	default:
		return &models.SellDecision{ShouldSell: false, Confidence: 1.0}
	}
}

func sell(reason models.SellReason) *models.SellDecision {
	return &models.SellDecision{ShouldSell: true, Reason: reason, Confidence: 1.0}
}
