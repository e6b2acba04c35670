package engine

import (
	"fmt"

	"github.com/potatotify/backtesting-engine/types"
	"github.com/shopspring/decimal"
)

// PrintReport writes a human-readable summary of a finished run to stdout.
func PrintReport(result *types.BacktestResult) {
	fmt.Println("===== Backtest Report =====")
	fmt.Printf("Backtest ID:           %s\n", result.BacktestID)
	fmt.Printf("Strategy:              %s\n", result.StrategyName)
	fmt.Printf("Symbol / Interval:     %s / %s\n", result.Symbol, result.Interval)
	fmt.Printf("Bars:                  %d\n", len(result.EquityCurve))

	fmt.Println("\n-- Capital --")
	fmt.Printf("Initial Capital:       %s\n", result.InitialCapital)
	fmt.Printf("Final Capital:         %s\n", result.FinalCapital)
	fmt.Printf("Total Return:          %s\n", result.Metrics.TotalReturn)

	fmt.Println("\n-- Trades --")
	fmt.Printf("Total Trades:          %d\n", result.TotalTrades)
	fmt.Printf("Winning / Losing:      %d / %d\n", result.WinningTrades, result.LosingTrades)
	fmt.Printf("Win Rate:              %s\n", fmtOptional(result.Metrics.WinRate))
	fmt.Printf("Avg Win:               %s\n", result.Metrics.AvgWin)
	fmt.Printf("Avg Loss:              %s\n", result.Metrics.AvgLoss)
	fmt.Printf("Profit Factor:         %s\n", fmtOptional(result.Metrics.ProfitFactor))

	fmt.Println("\n-- Risk --")
	fmt.Printf("Max Drawdown:          %s\n", result.Metrics.MaxDrawdown)
	fmt.Printf("Sharpe Ratio:          %s\n", fmtOptional(result.Metrics.SharpeRatio))

	if result.OpenPosition != nil {
		p := result.OpenPosition
		fmt.Println("\n-- Still Open --")
		fmt.Printf("%s %s @ %s (entered %s)\n", p.Side, p.Quantity, p.EntryPrice, p.EntryTime.Format("2006-01-02 15:04"))
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("\n-- Warnings (%d) --\n", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Printf("bar %d: %s\n", w.BarIndex, w.Message)
		}
	}

	fmt.Println("===========================")
}

func fmtOptional(d *decimal.Decimal) string {
	if d == nil {
		return "n/a"
	}
	return d.String()
}
