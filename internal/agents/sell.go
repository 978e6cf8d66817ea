package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"krx-trader/internal/errors"
	"krx-trader/internal/models"
)

const sellSystemPrompt = `You are a disciplined portfolio manager for the Korean stock market.
Given one open position and the current market context, decide whether to sell now or keep holding.
Stop-loss and target levels are enforced elsewhere; only advise on discretionary timing.
Respond with JSON only, no prose, in exactly this shape:
{"shouldSell":true|false,"confidence":0.0-1.0,"reason":"one sentence"}`

// sellResponse is the wire shape of the LLM sell output.
type sellResponse struct {
	ShouldSell bool    `json:"shouldSell"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// LLMSellStrategy is the advisory sell layer. Its verdict is honored only
// when the structured output is valid; any failure defers to the rule
// cascade in the sell evaluator.
type LLMSellStrategy struct {
	llm LLMClient
}

// NewLLMSellStrategy creates an AI-backed advisory sell strategy.
func NewLLMSellStrategy(llm LLMClient) *LLMSellStrategy {
	return &LLMSellStrategy{llm: llm}
}

func (s *LLMSellStrategy) Name() string {
	return "llm_sell"
}

// Decide asks the LLM whether to exit the position now.
func (s *LLMSellStrategy) Decide(ctx context.Context, req SellRequest) (*models.SellDecision, error) {
	prompt := buildSellPrompt(req)

	raw, err := s.llm.CompleteWithSystem(ctx, sellSystemPrompt, prompt)
	if err != nil {
		return nil, errors.NewStrategyError(s.Name(), "complete", err)
	}

	var resp sellResponse
	if err := json.Unmarshal([]byte(cleanJSONResponse(raw)), &resp); err != nil {
		return nil, errors.NewStrategyError(s.Name(), "parse", err)
	}
	if resp.Confidence < 0 || resp.Confidence > 1 {
		return nil, errors.NewStrategyError(s.Name(), "validate",
			fmt.Errorf("confidence %f out of range", resp.Confidence))
	}

	return &models.SellDecision{
		ShouldSell: resp.ShouldSell,
		Reason:     models.SellAdvisoryExit,
		Confidence: resp.Confidence,
	}, nil
}

func buildSellPrompt(req SellRequest) string {
	trend := "unknown"
	if req.Trend != nil {
		trend = fmt.Sprintf("%s (strength %.4f)", req.Trend.Direction, req.Trend.Strength)
	}
	ret := req.Position.UnrealizedReturn(req.Price) * 100
	return fmt.Sprintf(
		"Position: %s (%s)\nEntry price: %.2f, current price: %.2f (%.2f%%)\nHolding days: %d, horizon: %s\nTarget: %.2f, stop: %.2f\nMarket regime: %s\nPrice trend: %s",
		req.Position.CompanyName, req.Position.StockID,
		req.Position.EntryPrice, req.Price, ret,
		req.HoldDays, req.Position.Horizon,
		req.Position.TargetPrice, req.Position.StopLoss,
		req.Regime, trend)
}
