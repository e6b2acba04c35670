package types

import (
	"github.com/shopspring/decimal"
)

// OrderIntent is what a strategy hands back from OnBar. It is consumed
// immediately by the order simulator and never retried on later bars.
//
// Optional decimal fields use the zero value as "unset"; all real prices and
// quantities are strictly positive so there is no ambiguity.
type OrderIntent struct {
	Action    OrderAction
	Quantity  decimal.Decimal
	Price     decimal.Decimal // limit price, zero => market
	OrderType OrderType       // defaults to MARKET when empty

	// PositionSide selects the exposure an opening intent creates. It
	// defaults to LONG for BUY; a SELL only opens a short when the side is
	// set to SHORT explicitly.
	PositionSide PositionSide

	// Stop/target levels. An absolute price wins over a percentage; a
	// percentage is converted into an absolute price once at fill time and
	// frozen for the life of the position.
	StopLossPct     decimal.Decimal
	StopLossPrice   decimal.Decimal
	TakeProfitPct   decimal.Decimal
	TakeProfitPrice decimal.Decimal

	// TrailingStopPct is the distance maintained from the best favorable
	// excursion, e.g. 0.05 for 5%.
	TrailingStopPct decimal.Decimal

	// ExitReason is persisted on the trade when the intent closes a
	// position. Defaults to STRATEGY_SIGNAL.
	ExitReason string
}

func (o *OrderIntent) IsOpening() bool {
	return o.Action == ActionBuy || o.Action == ActionSell
}

func (o *OrderIntent) IsLimit() bool {
	return o.OrderType == TypeLimit && !o.Price.IsZero()
}
