package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Metrics are summary statistics derived from the closed-trade list and the
// equity curve. Pointer fields are nil when the metric is undefined (no
// trades, no losing trades, fewer than two bars, zero variance).
type Metrics struct {
	TotalReturn  decimal.Decimal  `json:"total_return"`
	SharpeRatio  *decimal.Decimal `json:"sharpe_ratio"`
	MaxDrawdown  decimal.Decimal  `json:"max_drawdown"`
	WinRate      *decimal.Decimal `json:"win_rate"`
	AvgWin       decimal.Decimal  `json:"avg_win"`
	AvgLoss      decimal.Decimal  `json:"avg_loss"`
	ProfitFactor *decimal.Decimal `json:"profit_factor"`
}

// Warning records a fault that was recovered locally during a run: the
// offending intent was discarded and the loop continued.
type Warning struct {
	BarIndex int    `json:"bar_index"`
	Message  string `json:"message"`
}

// BacktestResult is assembled once after the run loop finishes and returned
// to the caller immutable. Partial progress is never surfaced as a result.
type BacktestResult struct {
	BacktestID     string            `json:"backtest_id"`
	StrategyName   string            `json:"strategy_name"`
	Symbol         string            `json:"symbol"`
	Interval       Interval          `json:"interval"`
	InitialCapital decimal.Decimal   `json:"initial_capital"`
	FinalCapital   decimal.Decimal   `json:"final_capital"`
	Metrics        Metrics           `json:"metrics"`
	TotalTrades    int               `json:"total_trades"`
	WinningTrades  int               `json:"winning_trades"`
	LosingTrades   int               `json:"losing_trades"`
	Trades         []Trade           `json:"trades"`
	EquityCurve    []decimal.Decimal `json:"equity_curve"`

	// OpenPosition is non-nil when the run ended with exposure still on.
	// Positions are not force-closed at the last bar; FinalCapital includes
	// their value marked to the last close.
	OpenPosition *Position `json:"open_position,omitempty"`

	Warnings  []Warning `json:"warnings,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
