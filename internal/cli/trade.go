package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"krx-trader/internal/agents"
	"krx-trader/internal/broker"
	"krx-trader/internal/logging"
	"krx-trader/internal/models"
	"krx-trader/internal/notify"
	"krx-trader/internal/resilience"
	"krx-trader/internal/trading"
	"krx-trader/pkg/utils"
)

// candidateFile is the JSON shape of the candidates input:
// a list of stocks with their analysis artifacts.
type candidateFile struct {
	Regime     string              `json:"regime"`
	Candidates []trading.Candidate `json:"candidates"`
}

func newTradeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade <candidates.json>",
		Short: "Run a buy cycle over candidate stocks",
		Long: `Run one buy cycle: evaluate each candidate's analysis artifact into a
scenario, admit or reject it against the portfolio constraints, route and
execute admitted buys, and record the results.

The candidates file carries the market regime and one entry per stock:
  {"regime": "BULL", "candidates": [{"StockID": "005930", ...}]}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			ctx = logging.WithLogger(ctx, app.Logger)

			input, err := loadCandidates(args[0])
			if err != nil {
				return err
			}

			feedPath, _ := cmd.Flags().GetString("feed")
			pipeline, shutdown, err := buildPipeline(app, feedPath)
			if err != nil {
				return err
			}
			defer shutdown()

			sessionNotice(app)
			report, err := pipeline.RunBuyCycle(ctx, input.Candidates, parseRegime(input.Regime))
			if err != nil {
				return fmt.Errorf("buy cycle aborted: %w", err)
			}
			return printReport(cmd, report)
		},
	}

	cmd.Flags().String("feed", "", "price feed snapshot file (JSON)")
	cmd.MarkFlagRequired("feed")
	return cmd
}

func newTrackCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Run a sell cycle over open positions",
		Long: `Run one tracking cycle: recompute the trend signal for every open
position, decide sell timing (hard stop/target rules first, then the
advisory strategy, then the rule cascade), and execute sells.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			ctx = logging.WithLogger(ctx, app.Logger)

			regime, _ := cmd.Flags().GetString("regime")
			feedPath, _ := cmd.Flags().GetString("feed")

			pipeline, shutdown, err := buildPipeline(app, feedPath)
			if err != nil {
				return err
			}
			defer shutdown()

			sessionNotice(app)
			report, err := pipeline.RunSellCycle(ctx, parseRegime(regime))
			if err != nil {
				return fmt.Errorf("sell cycle aborted: %w", err)
			}
			return printReport(cmd, report)
		},
	}

	cmd.Flags().String("regime", "BEAR_OR_SIDEWAYS", "market regime (BULL or BEAR_OR_SIDEWAYS)")
	cmd.Flags().String("feed", "", "price feed snapshot file (JSON)")
	cmd.MarkFlagRequired("feed")
	return cmd
}

// sessionNotice warns when orders placed now cannot fill in the regular
// session and will queue as reserved or closing-price orders.
func sessionNotice(app *App) {
	now := time.Now().In(utils.KoreaLocation)
	switch {
	case !utils.IsTradingDay(now):
		app.Logger.Warn().
			Time("next_open", utils.NextSessionOpen(now)).
			Msg("market closed today, orders will queue as reserved")
	case !utils.IsRegularSession(now):
		app.Logger.Info().
			Time("session_close", utils.SessionClose(now)).
			Time("next_open", utils.NextSessionOpen(now)).
			Msg("outside regular session")
	}
}

// buildPipeline wires the full decision pipeline from the app dependencies.
func buildPipeline(app *App, feedPath string) (*trading.Pipeline, func(), error) {
	if app.Store == nil {
		return nil, nil, fmt.Errorf("position store unavailable")
	}

	feed, err := broker.NewFileFeed(feedPath)
	if err != nil {
		return nil, nil, err
	}

	risk := app.Config.Risk

	var scenarioStrategy agents.ScenarioStrategy
	ruleStrategy := agents.NewRuleScenarioStrategy(risk)
	if app.LLMClient != nil && app.Config.Agents.AdvisoryBuy {
		scenarioStrategy = agents.NewFallbackScenarioStrategy(
			agents.NewLLMScenarioStrategy(app.LLMClient), ruleStrategy).
			WithBreaker(resilience.NewBreaker("scenario_advisory", resilience.DefaultBreakerConfig()))
	} else {
		scenarioStrategy = agents.NewFallbackScenarioStrategy(nil, ruleStrategy)
	}

	sells := trading.NewSellEvaluator(nil, app.Logger)
	if app.LLMClient != nil && app.Config.Agents.AdvisorySell {
		sells = trading.NewSellEvaluator(agents.NewLLMSellStrategy(app.LLMClient), app.Logger).
			WithBreaker(resilience.NewBreaker("sell_advisory", resilience.DefaultBreakerConfig()))
	}

	pipeline := trading.NewPipeline(trading.PipelineConfig{
		Scenarios:   trading.NewScenarioEvaluator(scenarioStrategy, risk, app.Logger),
		Guard:       trading.NewPortfolioGuard(risk),
		Sells:       sells,
		Router:      trading.NewOrderRouter(app.Config.Trading.UnitAmount),
		Store:       app.Store,
		Broker:      broker.NewPaperBroker(),
		Feed:        feed,
		Notifier:    notify.NewBroadcaster(app.Config.Notifications, app.Logger),
		TrendWindow: app.Config.Agents.TrendWindow,
		Logger:      app.Logger,
	})

	return pipeline, func() {}, nil
}

func loadCandidates(path string) (*candidateFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading candidates: %w", err)
	}
	var input candidateFile
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("parsing candidates: %w", err)
	}
	if len(input.Candidates) == 0 {
		return nil, fmt.Errorf("candidates file is empty")
	}
	return &input, nil
}

func parseRegime(s string) models.MarketRegime {
	if s == string(models.RegimeBull) {
		return models.RegimeBull
	}
	return models.RegimeBearOrSideways
}

func printReport(cmd *cobra.Command, report *trading.CycleReport) error {
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	cmd.Printf("Processed: %d\n", report.Processed)
	for _, id := range report.Entered {
		cmd.Printf("  ENTERED  %s\n", id)
	}
	for _, id := range report.Sold {
		cmd.Printf("  SOLD     %s\n", id)
	}
	for _, id := range report.Held {
		cmd.Printf("  HELD     %s\n", id)
	}
	for _, skip := range report.Skipped {
		cmd.Printf("  SKIPPED  %s (%s: %s)\n", skip.StockID, skip.Stage, skip.Reason)
	}
	return nil
}
