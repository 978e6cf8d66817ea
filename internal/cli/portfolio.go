package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"krx-trader/internal/models"
	"krx-trader/pkg/utils"
)

func newPortfolioCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Show open positions and sector allocation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return fmt.Errorf("position store unavailable")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			portfolio, err := app.Store.Snapshot(ctx)
			if err != nil {
				return err
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(portfolio)
			}

			cmd.Printf("Open positions: %d/%d slots\n", portfolio.SlotCount(), app.Config.Risk.MaxSlots)
			now := time.Now().In(utils.KoreaLocation)
			for _, p := range portfolio.Positions {
				cmd.Printf("  %-8s %-24s %4d @ %10.0f  target %10.0f  stop %10.0f  %-6s %3dd  [%s]\n",
					p.StockID, p.CompanyName, p.Quantity, p.EntryPrice,
					p.TargetPrice, p.StopLoss, p.Horizon, p.HoldingDays(now), p.Sector)
			}
			if portfolio.SlotCount() > 0 {
				cmd.Println("Sector allocation:")
				for sector, count := range portfolio.SectorCounts() {
					cmd.Printf("  %-24s %d\n", sector, count)
				}
			}
			return nil
		},
	}
}

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [stock-id]",
		Short: "Show the trade journal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return fmt.Errorf("position store unavailable")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			stockID := ""
			if len(args) == 1 {
				stockID = args[0]
			}
			records, err := app.Store.History(ctx, stockID)
			if err != nil {
				return err
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			for _, r := range records {
				line := fmt.Sprintf("%s  %-4s %-8s %4d @ %10.2f",
					r.TradedAt.Format("2006-01-02"), r.Side, r.StockID, r.Quantity, r.Price)
				if r.Side == models.OrderSideSell {
					line += fmt.Sprintf("  %+9.2f (%+.2f%%) %3dd  %s",
						r.ProfitLoss, r.ProfitRate, r.HoldingDays, r.Reason)
				}
				cmd.Println(line)
			}
			return nil
		},
	}
	return cmd
}

func newPerformanceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "performance",
		Short: "Show realized performance metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return fmt.Errorf("position store unavailable")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			metrics, err := app.Store.Performance(ctx, time.Now().In(utils.KoreaLocation))
			if err != nil {
				return err
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(metrics)
			}

			cmd.Printf("Realized trades:    %d (%d won / %d lost)\n",
				metrics.TotalTrades, metrics.WinningTrades, metrics.LosingTrades)
			cmd.Printf("Win rate:           %.1f%%\n", metrics.WinRate)
			cmd.Printf("Cumulative return:  %+.2f%%\n", metrics.CumulativeReturn)
			cmd.Printf("Avg return/trade:   %+.2f%%\n", metrics.AvgReturnPerTrade)
			return nil
		},
	}
}

func newSkipsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skips",
		Short: "Show recently skipped candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return fmt.Errorf("position store unavailable")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			limit, _ := cmd.Flags().GetInt("limit")
			skips, err := app.Store.Skips(ctx, limit)
			if err != nil {
				return err
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(skips)
			}

			for _, s := range skips {
				cmd.Printf("%s  %-8s %-10s %s  %s\n",
					s.OccurredAt.Format("2006-01-02 15:04"), s.StockID, s.Stage, s.Reason, s.Detail)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 50, "maximum records to show")
	return cmd
}
