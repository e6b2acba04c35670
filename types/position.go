package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the single open exposure of a backtest run. At most one
// position exists per run; it is mutated bar-by-bar by the order simulator
// (favorable extreme, bars held) and converted into a Trade when closed.
type Position struct {
	Side            PositionSide    `json:"side"`
	EntryPrice      decimal.Decimal `json:"entry_price"`
	Quantity        decimal.Decimal `json:"quantity"`
	EntryTime       time.Time       `json:"entry_time"`
	StopLossPrice   decimal.Decimal `json:"stop_loss_price,omitempty"`
	TakeProfitPrice decimal.Decimal `json:"take_profit_price,omitempty"`
	TrailingStopPct decimal.Decimal `json:"trailing_stop_pct,omitempty"`

	// FavorableExtreme is the best price reached in the position's favor
	// since entry: highest high for LONG, lowest low for SHORT.
	FavorableExtreme decimal.Decimal `json:"favorable_extreme"`

	BarsHeld int `json:"bars_held"`
}

// UnrealizedPnL marks the position to the given price without closing it.
func (p *Position) UnrealizedPnL(price decimal.Decimal) decimal.Decimal {
	if p.Side == SideShort {
		return p.EntryPrice.Sub(price).Mul(p.Quantity)
	}
	return price.Sub(p.EntryPrice).Mul(p.Quantity)
}
