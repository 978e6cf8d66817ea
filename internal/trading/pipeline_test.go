package trading

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"krx-trader/internal/agents"
	"krx-trader/internal/broker"
	"krx-trader/internal/config"
	"krx-trader/internal/errors"
	"krx-trader/internal/models"
	"krx-trader/pkg/utils"
)

// memStore is an in-memory PositionStore for pipeline tests.
type memStore struct {
	positions map[string]models.Position
	trades    []models.TradeRecord
	skips     []models.SkipRecord
	failAll   bool
}

func newMemStore() *memStore {
	return &memStore{positions: make(map[string]models.Position)}
}

func (m *memStore) Open(ctx context.Context, position *models.Position) error {
	if m.failAll {
		return errors.Wrap(errors.ErrStoreUnavailable, "store down")
	}
	if _, ok := m.positions[position.StockID]; ok {
		return &errors.DuplicatePositionError{StockID: position.StockID}
	}
	m.positions[position.StockID] = *position
	return nil
}

func (m *memStore) Close(ctx context.Context, stockID string, exitPrice float64, reason string, now time.Time) (*models.TradeRecord, error) {
	if m.failAll {
		return nil, errors.Wrap(errors.ErrStoreUnavailable, "store down")
	}
	position, ok := m.positions[stockID]
	if !ok {
		return nil, &errors.NoSuchPositionError{StockID: stockID}
	}
	delete(m.positions, stockID)
	record := models.TradeRecord{
		StockID: stockID, Side: models.OrderSideSell,
		Quantity: position.Quantity, Price: exitPrice, Reason: reason, TradedAt: now,
	}
	m.trades = append(m.trades, record)
	return &record, nil
}

func (m *memStore) Snapshot(ctx context.Context) (*models.Portfolio, error) {
	if m.failAll {
		return nil, errors.Wrap(errors.ErrStoreUnavailable, "store down")
	}
	pf := &models.Portfolio{}
	for _, p := range m.positions {
		pf.Positions = append(pf.Positions, p)
	}
	return pf, nil
}

func (m *memStore) History(ctx context.Context, stockID string) ([]models.TradeRecord, error) {
	return m.trades, nil
}

func (m *memStore) RecordSkip(ctx context.Context, skip *models.SkipRecord) error {
	m.skips = append(m.skips, *skip)
	return nil
}

func (m *memStore) Skips(ctx context.Context, limit int) ([]models.SkipRecord, error) {
	return m.skips, nil
}

func (m *memStore) Performance(ctx context.Context, now time.Time) (*models.PerformanceMetrics, error) {
	return &models.PerformanceMetrics{CalculationDate: now}, nil
}

func (m *memStore) Shutdown() error { return nil }

// memFeed serves fixed prices and linear candle history.
type memFeed struct {
	prices map[string]float64
	order  []string // records the request order
}

func (f *memFeed) CurrentPrice(ctx context.Context, stockID string) (float64, error) {
	f.order = append(f.order, stockID)
	price, ok := f.prices[stockID]
	if !ok {
		return 0, fmt.Errorf("no price for %s", stockID)
	}
	return price, nil
}

func (f *memFeed) Candles(ctx context.Context, stockID string, days int) ([]models.Candle, error) {
	price, ok := f.prices[stockID]
	if !ok {
		return nil, fmt.Errorf("no candles for %s", stockID)
	}
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, utils.KoreaLocation)
	candles := make([]models.Candle, days)
	for i := range candles {
		candles[i] = models.Candle{
			Date:   base.AddDate(0, 0, i),
			Close:  price * (0.95 + 0.01*float64(i)/float64(days)),
			Volume: 10000,
		}
	}
	return candles, nil
}

// memNotifier captures published signals.
type memNotifier struct {
	buys  []models.BuySignal
	sells []models.SellSignal
}

func (n *memNotifier) PublishBuy(ctx context.Context, s *models.BuySignal) error {
	n.buys = append(n.buys, *s)
	return nil
}

func (n *memNotifier) PublishSell(ctx context.Context, s *models.SellSignal) error {
	n.sells = append(n.sells, *s)
	return nil
}

// relativeEnterStrategy proposes ENTER with target/stop sized from the
// request price, so any candidate passes validation and risk/reward.
type relativeEnterStrategy struct{}

func (relativeEnterStrategy) Name() string { return "relative_enter" }

func (relativeEnterStrategy) Propose(ctx context.Context, req agents.ScenarioRequest) (*models.Scenario, error) {
	return &models.Scenario{
		Decision:    models.DecisionEnter,
		Score:       9,
		TargetPrice: req.Price * 1.35,
		StopLoss:    req.Price * 0.93,
		Horizon:     models.HorizonShort,
		Sector:      req.Sector,
		Rationale:   "test entry",
	}, nil
}

func testPipeline(st *memStore, feed *memFeed, notifier *memNotifier, strategy agents.ScenarioStrategy) *Pipeline {
	risk := config.DefaultRiskConfig()
	return NewPipeline(PipelineConfig{
		Scenarios: NewScenarioEvaluator(strategy, risk, zerolog.Nop()),
		Guard:     NewPortfolioGuard(risk),
		Sells:     NewSellEvaluator(nil, zerolog.Nop()),
		Router:    NewOrderRouter(10000),
		Store:     st,
		Broker:    broker.NewPaperBroker(),
		Feed:      feed,
		Notifier:  notifier,
		Now: func() time.Time {
			return time.Date(2026, 8, 28, 10, 0, 0, 0, utils.KoreaLocation)
		},
		Logger: zerolog.Nop(),
	})
}

func TestRunBuyCycleEntersPosition(t *testing.T) {
	st := newMemStore()
	feed := &memFeed{prices: map[string]float64{"005930": 3334}}
	notifier := &memNotifier{}
	pipeline := testPipeline(st, feed, notifier, relativeEnterStrategy{})

	report, err := pipeline.RunBuyCycle(context.Background(),
		[]Candidate{{StockID: "005930", CompanyName: "Samsung Electronics", Sector: "Semiconductors"}},
		models.RegimeBull)
	if err != nil {
		t.Fatalf("RunBuyCycle: %v", err)
	}
	if len(report.Entered) != 1 || report.Entered[0] != "005930" {
		t.Fatalf("entered = %v", report.Entered)
	}

	position, ok := st.positions["005930"]
	if !ok {
		t.Fatal("position not persisted")
	}
	if position.Quantity != 3 {
		t.Errorf("quantity = %d, want floor(10000/3334) = 3", position.Quantity)
	}

	if len(notifier.buys) != 1 {
		t.Fatalf("buy signals = %d, want 1", len(notifier.buys))
	}
	signal := notifier.buys[0]
	if signal.Type != "BUY" || !signal.TradeSuccess || signal.BuyScore != 9 {
		t.Errorf("signal = %+v", signal)
	}
	if signal.InvestmentPeriod != "SHORT" {
		t.Errorf("investmentPeriod = %s", signal.InvestmentPeriod)
	}
}

func TestRunBuyCycleSlotsFull(t *testing.T) {
	st := newMemStore()
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("%06d", i)
		st.positions[id] = models.Position{StockID: id, Sector: fmt.Sprintf("S%d", i), Quantity: 1}
	}
	feed := &memFeed{prices: map[string]float64{"005930": 3334}}
	pipeline := testPipeline(st, feed, &memNotifier{}, relativeEnterStrategy{})

	report, err := pipeline.RunBuyCycle(context.Background(),
		[]Candidate{{StockID: "005930", Sector: "Semiconductors"}}, models.RegimeBull)
	if err != nil {
		t.Fatalf("RunBuyCycle: %v", err)
	}
	if len(report.Entered) != 0 {
		t.Errorf("entered = %v, want none", report.Entered)
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Reason != string(RejectSlotsFull) {
		t.Errorf("skipped = %+v, want SLOTS_FULL", report.Skipped)
	}
}

func TestRunBuyCycleFailureIsolation(t *testing.T) {
	st := newMemStore()
	// First candidate has no price; second is fine.
	feed := &memFeed{prices: map[string]float64{"000660": 5000}}
	pipeline := testPipeline(st, feed, &memNotifier{}, relativeEnterStrategy{})

	report, err := pipeline.RunBuyCycle(context.Background(), []Candidate{
		{StockID: "999999", Sector: "Unknown"},
		{StockID: "000660", CompanyName: "SK Hynix", Sector: "Semiconductors"},
	}, models.RegimeBull)
	if err != nil {
		t.Fatalf("RunBuyCycle: %v", err)
	}
	if len(report.Skipped) != 1 || report.Skipped[0].StockID != "999999" {
		t.Errorf("skipped = %+v", report.Skipped)
	}
	if len(report.Entered) != 1 || report.Entered[0] != "000660" {
		t.Errorf("entered = %v, want 000660 despite earlier failure", report.Entered)
	}
}

func TestRunBuyCyclePreservesInputOrder(t *testing.T) {
	st := newMemStore()
	feed := &memFeed{prices: map[string]float64{
		"000001": 1000, "000002": 1000, "000003": 1000, "000004": 1000,
	}}
	strategy := &fakeScenarioStrategy{scenario: &models.Scenario{
		Decision: models.DecisionWait, Score: 5, Horizon: models.HorizonShort, Sector: "X",
	}}
	pipeline := testPipeline(st, feed, &memNotifier{}, strategy)

	candidates := []Candidate{
		{StockID: "000001"}, {StockID: "000002"}, {StockID: "000003"}, {StockID: "000004"},
	}
	if _, err := pipeline.RunBuyCycle(context.Background(), candidates, models.RegimeBull); err != nil {
		t.Fatalf("RunBuyCycle: %v", err)
	}

	for i, want := range []string{"000001", "000002", "000003", "000004"} {
		if feed.order[i] != want {
			t.Fatalf("processing order = %v, want input order", feed.order)
		}
	}
}

func TestRunBuyCycleStoreUnavailableIsFatal(t *testing.T) {
	st := newMemStore()
	st.failAll = true
	feed := &memFeed{prices: map[string]float64{"005930": 3334}}
	pipeline := testPipeline(st, feed, &memNotifier{}, relativeEnterStrategy{})

	_, err := pipeline.RunBuyCycle(context.Background(),
		[]Candidate{{StockID: "005930", Sector: "Semiconductors"}}, models.RegimeBull)
	if !errors.Is(err, errors.ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestRunSellCycleShortTermProfit(t *testing.T) {
	st := newMemStore()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, utils.KoreaLocation)
	st.positions["005930"] = models.Position{
		StockID:     "005930",
		CompanyName: "Samsung Electronics",
		Sector:      "Semiconductors",
		Quantity:    10,
		EntryPrice:  100,
		EntryDate:   now.AddDate(0, 0, -16),
		TargetPrice: 120,
		StopLoss:    90,
		Horizon:     models.HorizonShort,
	}
	feed := &memFeed{prices: map[string]float64{"005930": 106}}
	notifier := &memNotifier{}
	pipeline := testPipeline(st, feed, notifier, relativeEnterStrategy{})

	report, err := pipeline.RunSellCycle(context.Background(), models.RegimeBull)
	if err != nil {
		t.Fatalf("RunSellCycle: %v", err)
	}
	if len(report.Sold) != 1 {
		t.Fatalf("sold = %v, want one", report.Sold)
	}
	if len(st.trades) != 1 || st.trades[0].Reason != string(models.SellShortTermProfit) {
		t.Errorf("trade = %+v, want SHORT_TERM_PROFIT", st.trades)
	}
	if _, open := st.positions["005930"]; open {
		t.Error("position still open after sell")
	}

	if len(notifier.sells) != 1 {
		t.Fatalf("sell signals = %d, want 1", len(notifier.sells))
	}
	signal := notifier.sells[0]
	if signal.Type != "SELL" || signal.SellReason != string(models.SellShortTermProfit) {
		t.Errorf("signal = %+v", signal)
	}
	if signal.BuyPrice != 100 || signal.ProfitRate != 6 {
		t.Errorf("buyPrice = %v, profitRate = %v, want 100 / 6", signal.BuyPrice, signal.ProfitRate)
	}
}

func TestRunSellCycleHoldsQuietPosition(t *testing.T) {
	st := newMemStore()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, utils.KoreaLocation)
	st.positions["005930"] = models.Position{
		StockID: "005930", Sector: "Semiconductors", Quantity: 10,
		EntryPrice: 100, EntryDate: now.AddDate(0, 0, -5),
		TargetPrice: 120, StopLoss: 90, Horizon: models.HorizonMedium,
	}
	feed := &memFeed{prices: map[string]float64{"005930": 102}}
	pipeline := testPipeline(st, feed, &memNotifier{}, relativeEnterStrategy{})

	report, err := pipeline.RunSellCycle(context.Background(), models.RegimeBull)
	if err != nil {
		t.Fatalf("RunSellCycle: %v", err)
	}
	if len(report.Sold) != 0 || len(report.Held) != 1 {
		t.Errorf("report = %+v, want one held", report)
	}
}
