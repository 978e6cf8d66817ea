package trading

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"krx-trader/internal/agents"
	"krx-trader/internal/analysis"
	"krx-trader/internal/broker"
	"krx-trader/internal/errors"
	"krx-trader/internal/logging"
	"krx-trader/internal/models"
	"krx-trader/internal/store"
	"krx-trader/pkg/utils"
)

// Candidate is one stock under consideration for entry, with its analysis
// artifact attached.
type Candidate struct {
	StockID     string
	CompanyName string
	Sector      string
	Artifact    string
}

// Notifier broadcasts executed signals downstream. Publish failures are
// logged and never fail the cycle.
type Notifier interface {
	PublishBuy(ctx context.Context, signal *models.BuySignal) error
	PublishSell(ctx context.Context, signal *models.SellSignal) error
}

// CycleReport summarizes one batch cycle.
type CycleReport struct {
	Processed int
	Entered   []string
	Sold      []string
	Held      []string
	Skipped   []models.SkipRecord
}

// Pipeline sequences the decision engine over candidates and open
// positions. External capability calls are rate-limited upstream, so the
// pipeline runs a single worker over an explicit job queue: one candidate's
// admit/execute/persist sequence completes before the next starts.
type Pipeline struct {
	scenarios   *ScenarioEvaluator
	guard       *PortfolioGuard
	sells       *SellEvaluator
	router      *OrderRouter
	store       store.PositionStore
	broker      broker.Broker
	feed        broker.PriceFeed
	notifier    Notifier // nil disables broadcast
	trendWindow int
	now         func() time.Time
	logger      zerolog.Logger
}

// PipelineConfig wires the pipeline's collaborators.
type PipelineConfig struct {
	Scenarios   *ScenarioEvaluator
	Guard       *PortfolioGuard
	Sells       *SellEvaluator
	Router      *OrderRouter
	Store       store.PositionStore
	Broker      broker.Broker
	Feed        broker.PriceFeed
	Notifier    Notifier
	TrendWindow int
	Now         func() time.Time
	Logger      zerolog.Logger
}

// NewPipeline creates the batch pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.TrendWindow < 2 {
		cfg.TrendWindow = analysis.DefaultTrendWindow
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().In(utils.KoreaLocation) }
	}
	return &Pipeline{
		scenarios:   cfg.Scenarios,
		guard:       cfg.Guard,
		sells:       cfg.Sells,
		router:      cfg.Router,
		store:       cfg.Store,
		broker:      cfg.Broker,
		feed:        cfg.Feed,
		notifier:    cfg.Notifier,
		trendWindow: cfg.TrendWindow,
		now:         cfg.Now,
		logger:      cfg.Logger,
	}
}

// RunBuyCycle evaluates the candidates in input order through a single
// worker. A per-candidate failure records a skip and moves on; only store
// unavailability aborts the cycle.
func (p *Pipeline) RunBuyCycle(ctx context.Context, candidates []Candidate, regime models.MarketRegime) (*CycleReport, error) {
	report := &CycleReport{}

	jobs := make(chan Candidate)
	done := make(chan error, 1)

	// Exactly one worker: serialization is a property of the queue, not of
	// caller discipline.
	go func() {
		for candidate := range jobs {
			if err := p.processCandidate(ctx, candidate, regime, report); err != nil {
				done <- err
				// Drain so the producer never blocks.
				for range jobs {
				}
				return
			}
		}
		done <- nil
	}()

	for _, candidate := range candidates {
		jobs <- candidate
	}
	close(jobs)

	if err := <-done; err != nil {
		return report, err
	}
	return report, nil
}

// RunSellCycle evaluates every open position in snapshot order through the
// same single-worker queue.
func (p *Pipeline) RunSellCycle(ctx context.Context, regime models.MarketRegime) (*CycleReport, error) {
	report := &CycleReport{}

	portfolio, err := p.store.Snapshot(ctx)
	if err != nil {
		return report, err
	}

	jobs := make(chan models.Position)
	done := make(chan error, 1)

	go func() {
		for position := range jobs {
			if err := p.processPosition(ctx, position, regime, report); err != nil {
				done <- err
				for range jobs {
				}
				return
			}
		}
		done <- nil
	}()

	for _, position := range portfolio.Positions {
		jobs <- position
	}
	close(jobs)

	if err := <-done; err != nil {
		return report, err
	}
	return report, nil
}

// processCandidate runs one candidate's full sequence. The returned error is
// non-nil only for failures fatal to the whole cycle.
func (p *Pipeline) processCandidate(ctx context.Context, candidate Candidate, regime models.MarketRegime, report *CycleReport) error {
	report.Processed++
	logger := logging.WithStock(p.logger, candidate.StockID)

	price, err := p.feed.CurrentPrice(ctx, candidate.StockID)
	if err != nil {
		p.recordSkip(ctx, report, candidate.StockID, "scenario", "PRICE_UNAVAILABLE", err)
		return nil
	}

	trend := p.trendFor(ctx, candidate.StockID)

	portfolio, err := p.store.Snapshot(ctx)
	if err != nil {
		return err
	}

	scenario, err := p.scenarios.Evaluate(ctx, agents.ScenarioRequest{
		StockID:     candidate.StockID,
		CompanyName: candidate.CompanyName,
		Sector:      candidate.Sector,
		Price:       price,
		Artifact:    candidate.Artifact,
		Regime:      regime,
		Trend:       trend,
		Portfolio:   portfolio,
	})
	if err != nil {
		p.recordSkip(ctx, report, candidate.StockID, "scenario", "SCENARIO_UNAVAILABLE", err)
		return nil
	}

	if result := p.guard.Admit(candidate.StockID, scenario, portfolio); !result.OK {
		p.recordSkip(ctx, report, candidate.StockID, "guard", string(result.Reason), nil)
		return nil
	}

	plan, err := p.router.RouteBuy(price, p.now())
	if err != nil {
		p.recordSkip(ctx, report, candidate.StockID, "routing", "INSUFFICIENT_UNIT_AMOUNT", err)
		return nil
	}

	order := &models.Order{
		StockID:  candidate.StockID,
		Side:     models.OrderSideBuy,
		Type:     plan.Type,
		Quantity: plan.Quantity,
		Price:    price,
		Tag:      scenario.Rationale,
		PlacedAt: p.now(),
	}
	logging.LogOrder(p.logger, order.StockID, string(order.Side), string(order.Type), order.Quantity, order.Price)
	result, err := p.broker.PlaceOrder(ctx, order)
	if err != nil {
		p.recordSkip(ctx, report, candidate.StockID, "execution", "EXECUTION_REJECTED", err)
		p.publishBuy(ctx, candidate, price, scenario, false, err.Error())
		return nil
	}

	position := &models.Position{
		StockID:     candidate.StockID,
		CompanyName: candidate.CompanyName,
		Sector:      scenario.Sector,
		Quantity:    plan.Quantity,
		EntryPrice:  price,
		EntryDate:   p.now(),
		TargetPrice: scenario.TargetPrice,
		StopLoss:    scenario.StopLoss,
		Horizon:     scenario.Horizon,
	}
	if err := p.store.Open(ctx, position); err != nil {
		if errors.Is(err, errors.ErrStoreUnavailable) {
			return err
		}
		p.recordSkip(ctx, report, candidate.StockID, "execution", "STORE_REJECTED", err)
		return nil
	}

	logger.Info().
		Str("order_id", result.OrderID).
		Str("order_type", string(plan.Type)).
		Int("quantity", plan.Quantity).
		Float64("price", price).
		Int("score", scenario.Score).
		Msg("position opened")

	report.Entered = append(report.Entered, candidate.StockID)
	p.publishBuy(ctx, candidate, price, scenario, true, result.Message)
	return nil
}

// processPosition runs one open position's sell sequence.
func (p *Pipeline) processPosition(ctx context.Context, position models.Position, regime models.MarketRegime, report *CycleReport) error {
	report.Processed++
	logger := logging.WithStock(p.logger, position.StockID)

	price, err := p.feed.CurrentPrice(ctx, position.StockID)
	if err != nil {
		p.recordSkip(ctx, report, position.StockID, "scenario", "PRICE_UNAVAILABLE", err)
		return nil
	}

	trend := p.trendFor(ctx, position.StockID)

	decision := p.sells.Decide(ctx, &position, price, trend, regime, p.now())
	logging.LogSellDecision(p.logger, position.StockID, decision.ShouldSell, string(decision.Reason), decision.Confidence)
	if !decision.ShouldSell {
		report.Held = append(report.Held, position.StockID)
		return nil
	}

	plan := p.router.RouteSell(&position, p.now())
	order := &models.Order{
		StockID:  position.StockID,
		Side:     models.OrderSideSell,
		Type:     plan.Type,
		Quantity: plan.Quantity,
		Price:    price,
		Tag:      string(decision.Reason),
		PlacedAt: p.now(),
	}
	logging.LogOrder(p.logger, order.StockID, string(order.Side), string(order.Type), order.Quantity, order.Price)
	result, err := p.broker.PlaceOrder(ctx, order)
	if err != nil {
		p.recordSkip(ctx, report, position.StockID, "execution", "EXECUTION_REJECTED", err)
		p.publishSell(ctx, &position, price, decision, false, err.Error())
		return nil
	}

	if _, err := p.store.Close(ctx, position.StockID, price, string(decision.Reason), p.now()); err != nil {
		if errors.Is(err, errors.ErrStoreUnavailable) {
			return err
		}
		p.recordSkip(ctx, report, position.StockID, "execution", "STORE_REJECTED", err)
		return nil
	}

	logger.Info().
		Str("order_id", result.OrderID).
		Str("reason", string(decision.Reason)).
		Float64("price", price).
		Float64("return_pct", position.UnrealizedReturn(price)*100).
		Msg("position closed")

	report.Sold = append(report.Sold, position.StockID)
	p.publishSell(ctx, &position, price, decision, true, result.Message)
	return nil
}

// trendFor computes the trend signal for one stock; trend is advisory input,
// so feed or data failures degrade to a nil signal.
func (p *Pipeline) trendFor(ctx context.Context, stockID string) *models.TrendSignal {
	candles, err := p.feed.Candles(ctx, stockID, p.trendWindow*2)
	if err != nil {
		return nil
	}
	trend, err := analysis.EstimateTrend(candles, p.trendWindow)
	if err != nil {
		return nil
	}
	return trend
}

func (p *Pipeline) recordSkip(ctx context.Context, report *CycleReport, stockID, stage, reason string, cause error) {
	skip := models.SkipRecord{
		StockID:    stockID,
		Stage:      stage,
		Reason:     reason,
		OccurredAt: p.now(),
	}
	if cause != nil {
		skip.Detail = cause.Error()
	}
	report.Skipped = append(report.Skipped, skip)
	logging.LogSkip(p.logger, stockID, reason)

	if err := p.store.RecordSkip(ctx, &skip); err != nil {
		p.logger.Warn().Err(err).Str("stock_id", stockID).Msg("failed to record skip")
	}
}

func (p *Pipeline) publishBuy(ctx context.Context, candidate Candidate, price float64, scenario *models.Scenario, success bool, message string) {
	if p.notifier == nil {
		return
	}
	signal := &models.BuySignal{
		Type:             "BUY",
		Ticker:           candidate.StockID,
		CompanyName:      candidate.CompanyName,
		Price:            price,
		Timestamp:        p.now().Format(time.RFC3339),
		TargetPrice:      scenario.TargetPrice,
		StopLoss:         scenario.StopLoss,
		InvestmentPeriod: string(scenario.Horizon),
		Sector:           scenario.Sector,
		Rationale:        scenario.Rationale,
		BuyScore:         scenario.Score,
		TradeSuccess:     success,
		TradeMessage:     message,
	}
	if err := p.notifier.PublishBuy(ctx, signal); err != nil {
		p.logger.Warn().Err(err).Str("stock_id", candidate.StockID).Msg("buy signal publish failed")
	}
}

func (p *Pipeline) publishSell(ctx context.Context, position *models.Position, price float64, decision *models.SellDecision, success bool, message string) {
	if p.notifier == nil {
		return
	}
	signal := &models.SellSignal{
		Type:         "SELL",
		Ticker:       position.StockID,
		CompanyName:  position.CompanyName,
		Price:        price,
		Timestamp:    p.now().Format(time.RFC3339),
		BuyPrice:     position.EntryPrice,
		ProfitRate:   position.UnrealizedReturn(price) * 100,
		SellReason:   string(decision.Reason),
		TradeSuccess: success,
		TradeMessage: message,
	}
	if err := p.notifier.PublishSell(ctx, signal); err != nil {
		p.logger.Warn().Err(err).Str("stock_id", position.StockID).Msg("sell signal publish failed")
	}
}
