package trading

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"krx-trader/internal/agents"
	"krx-trader/internal/config"
	"krx-trader/internal/errors"
	"krx-trader/internal/models"
)

type fakeScenarioStrategy struct {
	scenario *models.Scenario
	err      error
}

func (f *fakeScenarioStrategy) Name() string { return "fake_scenario" }

func (f *fakeScenarioStrategy) Propose(ctx context.Context, req agents.ScenarioRequest) (*models.Scenario, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := *f.scenario
	return &s, nil
}

func evalRequest(regime models.MarketRegime) agents.ScenarioRequest {
	return agents.ScenarioRequest{
		StockID:     "005930",
		CompanyName: "Samsung Electronics",
		Sector:      "Semiconductors",
		Price:       100,
		Regime:      regime,
	}
}

func TestScenarioEvaluatorThresholds(t *testing.T) {
	risk := config.DefaultRiskConfig()

	t.Run("bull regime sets minScore 6", func(t *testing.T) {
		strategy := &fakeScenarioStrategy{scenario: &models.Scenario{
			Decision: models.DecisionEnter, Score: 6,
			TargetPrice: 130, StopLoss: 90, Horizon: models.HorizonShort, Sector: "X",
		}}
		evaluator := NewScenarioEvaluator(strategy, risk, zerolog.Nop())
		scenario, err := evaluator.Evaluate(context.Background(), evalRequest(models.RegimeBull))
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if scenario.MinScore != 6 {
			t.Errorf("minScore = %d, want 6", scenario.MinScore)
		}
	})

	t.Run("bear regime sets minScore 7", func(t *testing.T) {
		strategy := &fakeScenarioStrategy{scenario: &models.Scenario{
			Decision: models.DecisionWait, Score: 5, Horizon: models.HorizonShort,
		}}
		evaluator := NewScenarioEvaluator(strategy, risk, zerolog.Nop())
		scenario, err := evaluator.Evaluate(context.Background(), evalRequest(models.RegimeBearOrSideways))
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if scenario.MinScore != 7 {
			t.Errorf("minScore = %d, want 7", scenario.MinScore)
		}
	})
}

func TestScenarioEvaluatorRiskRewardCoercion(t *testing.T) {
	risk := config.DefaultRiskConfig()

	tests := []struct {
		name   string
		regime models.MarketRegime
		target float64
		stop   float64
		want   models.ScenarioDecision
	}{
		// entry 100: target 130 / stop 90 → rr = 0.30/0.10 = 3.0
		{"rr 3.0 passes bull threshold", models.RegimeBull, 130, 90, models.DecisionEnter},
		// target 112 / stop 90 → rr = 0.12/0.10 = 1.2 < 1.5
		{"rr 1.2 coerced to WAIT in bull", models.RegimeBull, 112, 90, models.DecisionWait},
		// target 118 / stop 90 → rr = 1.8: passes bull (1.5), fails bear (2.0)
		{"rr 1.8 passes bull", models.RegimeBull, 118, 90, models.DecisionEnter},
		{"rr 1.8 coerced to WAIT in bear", models.RegimeBearOrSideways, 118, 90, models.DecisionWait},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy := &fakeScenarioStrategy{scenario: &models.Scenario{
				Decision: models.DecisionEnter, Score: 9,
				TargetPrice: tt.target, StopLoss: tt.stop,
				Horizon: models.HorizonShort, Sector: "X",
			}}
			evaluator := NewScenarioEvaluator(strategy, risk, zerolog.Nop())
			scenario, err := evaluator.Evaluate(context.Background(), evalRequest(tt.regime))
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if scenario.Decision != tt.want {
				t.Errorf("decision = %s, want %s", scenario.Decision, tt.want)
			}
		})
	}
}

func TestScenarioEvaluatorInvalidScenario(t *testing.T) {
	risk := config.DefaultRiskConfig()

	t.Run("ENTER with stop above price rejected before guard", func(t *testing.T) {
		strategy := &fakeScenarioStrategy{scenario: &models.Scenario{
			Decision: models.DecisionEnter, Score: 9,
			TargetPrice: 130, StopLoss: 105, Horizon: models.HorizonShort,
		}}
		evaluator := NewScenarioEvaluator(strategy, risk, zerolog.Nop())
		_, err := evaluator.Evaluate(context.Background(), evalRequest(models.RegimeBull))
		var unavailable *errors.ScenarioUnavailableError
		if !errors.As(err, &unavailable) {
			t.Errorf("err = %v, want ScenarioUnavailableError", err)
		}
	})

	t.Run("strategy failure surfaces as unavailable", func(t *testing.T) {
		strategy := &fakeScenarioStrategy{err: fmt.Errorf("capability down")}
		evaluator := NewScenarioEvaluator(strategy, risk, zerolog.Nop())
		_, err := evaluator.Evaluate(context.Background(), evalRequest(models.RegimeBull))
		var unavailable *errors.ScenarioUnavailableError
		if !errors.As(err, &unavailable) {
			t.Errorf("err = %v, want ScenarioUnavailableError", err)
		}
	})
}
