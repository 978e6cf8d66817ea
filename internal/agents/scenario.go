package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"krx-trader/internal/config"
	"krx-trader/internal/errors"
	"krx-trader/internal/models"
)

const scenarioSystemPrompt = `You are a disciplined equity analyst for the Korean stock market.
Given an analysis report for one stock, decide whether to enter a position now.
Respond with JSON only, no prose, in exactly this shape:
{"decision":"ENTER"|"WAIT","score":1-10,"targetPrice":number,"stopLoss":number,"investmentHorizon":"SHORT"|"MEDIUM"|"LONG","sector":"string","rationale":"one sentence"}
For ENTER, stopLoss must be below the current price and targetPrice above it.`

// scenarioResponse is the wire shape of the LLM scenario output.
type scenarioResponse struct {
	Decision          string  `json:"decision"`
	Score             int     `json:"score"`
	TargetPrice       float64 `json:"targetPrice"`
	StopLoss          float64 `json:"stopLoss"`
	InvestmentHorizon string  `json:"investmentHorizon"`
	Sector            string  `json:"sector"`
	Rationale         string  `json:"rationale"`
}

// LLMScenarioStrategy proposes entry scenarios by asking an LLM to score the
// analysis artifact. Malformed output is an error, never a silent default.
type LLMScenarioStrategy struct {
	llm LLMClient
}

// NewLLMScenarioStrategy creates an AI-backed scenario strategy.
func NewLLMScenarioStrategy(llm LLMClient) *LLMScenarioStrategy {
	return &LLMScenarioStrategy{llm: llm}
}

func (s *LLMScenarioStrategy) Name() string {
	return "llm_scenario"
}

// Propose asks the LLM for an entry scenario and validates the structured
// output against the scenario invariants.
func (s *LLMScenarioStrategy) Propose(ctx context.Context, req ScenarioRequest) (*models.Scenario, error) {
	prompt := buildScenarioPrompt(req)

	raw, err := s.llm.CompleteWithSystem(ctx, scenarioSystemPrompt, prompt)
	if err != nil {
		return nil, errors.NewStrategyError(s.Name(), "complete", err)
	}

	var resp scenarioResponse
	if err := json.Unmarshal([]byte(cleanJSONResponse(raw)), &resp); err != nil {
		return nil, errors.NewStrategyError(s.Name(), "parse", err)
	}

	scenario := &models.Scenario{
		Decision:    models.ScenarioDecision(resp.Decision),
		Score:       resp.Score,
		TargetPrice: resp.TargetPrice,
		StopLoss:    resp.StopLoss,
		Horizon:     models.Horizon(resp.InvestmentHorizon),
		Sector:      resp.Sector,
		Rationale:   resp.Rationale,
	}
	if scenario.Sector == "" {
		scenario.Sector = req.Sector
	}
	if err := scenario.Validate(req.Price); err != nil {
		return nil, errors.NewStrategyError(s.Name(), "validate", err)
	}

	return scenario, nil
}

func buildScenarioPrompt(req ScenarioRequest) string {
	trend := "unknown"
	if req.Trend != nil {
		trend = fmt.Sprintf("%s (slope %.4f, strength %.4f)",
			req.Trend.Direction, req.Trend.Slope, req.Trend.Strength)
	}
	return fmt.Sprintf(
		"Stock: %s (%s)\nCurrent price: %.2f\nMarket regime: %s\nPrice trend over recent sessions: %s\n\nAnalysis report:\n%s",
		req.CompanyName, req.StockID, req.Price, req.Regime, trend, req.Artifact)
}

// RuleScenarioStrategy is the deterministic fallback scorer. It derives a
// conviction score from the trend signal alone and sizes target/stop as
// fixed ratios of the current price.
type RuleScenarioStrategy struct {
	risk config.RiskConfig
}

// NewRuleScenarioStrategy creates the deterministic fallback strategy.
func NewRuleScenarioStrategy(risk config.RiskConfig) *RuleScenarioStrategy {
	return &RuleScenarioStrategy{risk: risk}
}

func (s *RuleScenarioStrategy) Name() string {
	return "rule_scenario"
}

// Propose scores the candidate from its trend signal. A clear uptrend earns
// points above the neutral baseline, a downtrend loses them; the decision is
// ENTER only when the score clears the regime threshold.
func (s *RuleScenarioStrategy) Propose(ctx context.Context, req ScenarioRequest) (*models.Scenario, error) {
	if req.Price <= 0 {
		return nil, errors.NewStrategyError(s.Name(), "propose",
			fmt.Errorf("non-positive price %f for %s", req.Price, req.StockID))
	}

	score := 5
	if req.Trend != nil {
		switch req.Trend.Direction {
		case models.TrendUp:
			score += 2
			if req.Trend.Strength >= 0.01 {
				score++
			}
		case models.TrendDown:
			score -= 2
		}
	}
	if req.Regime == models.RegimeBull {
		score++
	}
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}

	minScore, _ := s.risk.Thresholds(req.Regime)
	decision := models.DecisionWait
	if score >= minScore {
		decision = models.DecisionEnter
	}

	scenario := &models.Scenario{
		Decision:    decision,
		Score:       score,
		TargetPrice: req.Price * 1.12,
		StopLoss:    req.Price * 0.94,
		Horizon:     models.HorizonShort,
		Sector:      req.Sector,
		Rationale:   fmt.Sprintf("rule-based score %d from %s trend", score, trendLabel(req.Trend)),
	}
	return scenario, nil
}

func trendLabel(t *models.TrendSignal) string {
	if t == nil {
		return "unknown"
	}
	return string(t.Direction)
}
