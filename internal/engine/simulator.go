package engine

import (
	"github.com/potatotify/backtesting-engine/types"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// The order simulator has two responsibilities, always performed in a fixed
// order to keep runs deterministic: first the open position is checked
// against the new bar for stop/target/trailing triggers, then the strategy's
// intent for the same bar is filled.

// exitTrigger is the outcome of an intrabar exit check.
type exitTrigger struct {
	price  decimal.Decimal
	reason string
}

// resolveExit checks whether the bar's range breaches the position's stop,
// trailing stop or take profit.
//
// Tie-break policy: if both the stop and the target are breached within the
// same bar, the stop is honored first. The bar gives no intrabar ordering,
// so the pessimistic reading protects against overstating performance.
// Trailing stops count as stops for this purpose.
//
// The trailing level is derived from the best favorable excursion seen on
// PRIOR bars; the caller updates the extreme with the current bar only after
// this check, so a bar can never trail itself out on its own high.
func resolveExit(pos *types.Position, bar types.Bar) (exitTrigger, bool) {
	trail, hasTrail := trailingLevel(pos)

	if pos.Side == types.SideShort {
		if !pos.StopLossPrice.IsZero() && bar.High.GreaterThanOrEqual(pos.StopLossPrice) {
			return exitTrigger{price: pos.StopLossPrice, reason: types.ExitReasonStopLoss}, true
		}
		if hasTrail && bar.High.GreaterThanOrEqual(trail) {
			return exitTrigger{price: trail, reason: types.ExitReasonTrailingStop}, true
		}
		if !pos.TakeProfitPrice.IsZero() && bar.Low.LessThanOrEqual(pos.TakeProfitPrice) {
			return exitTrigger{price: pos.TakeProfitPrice, reason: types.ExitReasonTakeProfit}, true
		}
		return exitTrigger{}, false
	}

	if !pos.StopLossPrice.IsZero() && bar.Low.LessThanOrEqual(pos.StopLossPrice) {
		return exitTrigger{price: pos.StopLossPrice, reason: types.ExitReasonStopLoss}, true
	}
	if hasTrail && bar.Low.LessThanOrEqual(trail) {
		return exitTrigger{price: trail, reason: types.ExitReasonTrailingStop}, true
	}
	if !pos.TakeProfitPrice.IsZero() && bar.High.GreaterThanOrEqual(pos.TakeProfitPrice) {
		return exitTrigger{price: pos.TakeProfitPrice, reason: types.ExitReasonTakeProfit}, true
	}
	return exitTrigger{}, false
}

// trailingLevel computes the current trailing-stop price from the favorable
// extreme: extreme*(1-pct) for LONG, extreme*(1+pct) for SHORT.
func trailingLevel(pos *types.Position) (decimal.Decimal, bool) {
	if pos.TrailingStopPct.IsZero() || pos.FavorableExtreme.IsZero() {
		return decimal.Zero, false
	}
	if pos.Side == types.SideShort {
		return pos.FavorableExtreme.Mul(one.Add(pos.TrailingStopPct)), true
	}
	return pos.FavorableExtreme.Mul(one.Sub(pos.TrailingStopPct)), true
}

// updateFavorableExtreme folds the current bar into the position's best
// favorable excursion. Called after resolveExit.
func updateFavorableExtreme(pos *types.Position, bar types.Bar) {
	if pos.Side == types.SideShort {
		if bar.Low.LessThan(pos.FavorableExtreme) {
			pos.FavorableExtreme = bar.Low
		}
		return
	}
	if bar.High.GreaterThan(pos.FavorableExtreme) {
		pos.FavorableExtreme = bar.High
	}
}

// fillPrice resolves the execution price of an intent against the bar it was
// emitted on. Market orders fill at the close; the strategy only ever sees
// fully-closed bar data, so there is no look-ahead. Limit orders fill at the
// limit price only if the bar's range crosses it; otherwise the intent is
// dropped (limit orders are never queued for later bars).
func fillPrice(intent *types.OrderIntent, bar types.Bar) (decimal.Decimal, bool) {
	if !intent.IsLimit() {
		return bar.Close, true
	}
	if bar.Low.LessThanOrEqual(intent.Price) && intent.Price.LessThanOrEqual(bar.High) {
		return intent.Price, true
	}
	return decimal.Zero, false
}

// resolveStopLevels freezes the intent's stop and target into absolute
// prices at fill time. An absolute price wins when both an absolute price
// and a percentage are given; a percentage is applied to the fill price once
// and never recomputed for the life of the position.
func resolveStopLevels(intent *types.OrderIntent, side types.PositionSide, fill decimal.Decimal) (stop, target decimal.Decimal) {
	stop = intent.StopLossPrice
	target = intent.TakeProfitPrice

	if stop.IsZero() && !intent.StopLossPct.IsZero() {
		if side == types.SideShort {
			stop = fill.Mul(one.Add(intent.StopLossPct))
		} else {
			stop = fill.Mul(one.Sub(intent.StopLossPct))
		}
	}
	if target.IsZero() && !intent.TakeProfitPct.IsZero() {
		if side == types.SideShort {
			target = fill.Mul(one.Sub(intent.TakeProfitPct))
		} else {
			target = fill.Mul(one.Add(intent.TakeProfitPct))
		}
	}
	return stop, target
}
