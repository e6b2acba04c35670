package engine

import (
	"github.com/shopspring/decimal"
)

// positionSize converts a risk fraction of available cash into a quantity:
// the dollar risk budget divided by the per-unit distance between entry and
// stop. Fails closed to zero on degenerate inputs; the runner treats a
// zero-size intent as a no-op rather than opening an empty position.
func positionSize(entryPrice, stopLossPrice, availableCash, riskFraction decimal.Decimal) decimal.Decimal {
	if entryPrice.LessThanOrEqual(decimal.Zero) ||
		stopLossPrice.LessThanOrEqual(decimal.Zero) ||
		availableCash.LessThanOrEqual(decimal.Zero) ||
		riskFraction.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	riskPerUnit := entryPrice.Sub(stopLossPrice).Abs()
	if riskPerUnit.IsZero() {
		return decimal.Zero
	}
	riskBudget := availableCash.Mul(riskFraction)
	return riskBudget.Div(riskPerUnit)
}
