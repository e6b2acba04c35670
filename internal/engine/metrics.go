package engine

import (
	"math"
	"sync"

	"github.com/potatotify/backtesting-engine/types"
	"github.com/shopspring/decimal"
)

// computeMetrics derives the summary statistics from the closed-trade list
// and the equity curve. It is a pure function of its inputs; the independent
// calculations run concurrently.
func computeMetrics(trades []types.Trade, equity []decimal.Decimal, initialCapital decimal.Decimal, periodsPerYear int) types.Metrics {
	m := types.Metrics{}

	finalCapital := initialCapital
	if len(equity) > 0 {
		finalCapital = equity[len(equity)-1]
	}
	if !initialCapital.IsZero() {
		m.TotalReturn = finalCapital.Sub(initialCapital).Div(initialCapital)
	}

	// Done must fire after the assignment into m, not inside the calc
	// function, so Wait orders every write before the caller reads m.
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		m.MaxDrawdown = calcMaxDrawdown(equity)
	}()
	go func() {
		defer wg.Done()
		m.WinRate, m.AvgWin, m.AvgLoss, m.ProfitFactor = calcTradeStats(trades)
	}()
	go func() {
		defer wg.Done()
		m.SharpeRatio = calcSharpeRatio(equity, periodsPerYear)
	}()
	wg.Wait()

	return m
}

// calcMaxDrawdown returns the deepest drop below the running equity peak as
// a negative fraction, or zero if equity never dips below its peak.
func calcMaxDrawdown(equity []decimal.Decimal) decimal.Decimal {
	if len(equity) < 2 {
		return decimal.Zero
	}

	peak := equity[0]
	maxDD := decimal.Zero

	for _, eq := range equity[1:] {
		if eq.GreaterThan(peak) {
			peak = eq
			continue
		}
		if peak.GreaterThan(decimal.Zero) {
			dd := eq.Sub(peak).Div(peak)
			if dd.LessThan(maxDD) {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// calcTradeStats computes the trade-level distribution metrics.
//
// Winning means pnl > 0. AvgLoss is the mean of losing pnls and therefore
// negative. WinRate is nil with no trades; ProfitFactor is nil when there
// are no losing trades (instead of dividing by zero or inventing an
// infinity sentinel).
func calcTradeStats(trades []types.Trade) (winRate *decimal.Decimal, avgWin, avgLoss decimal.Decimal, profitFactor *decimal.Decimal) {
	sumWins := decimal.Zero
	sumLosses := decimal.Zero
	winCount := 0
	lossCount := 0

	for _, t := range trades {
		switch {
		case t.PnL.IsPositive():
			sumWins = sumWins.Add(t.PnL)
			winCount++
		case t.PnL.IsNegative():
			sumLosses = sumLosses.Add(t.PnL)
			lossCount++
		}
	}

	if len(trades) > 0 {
		wr := decimal.NewFromInt(int64(winCount)).Div(decimal.NewFromInt(int64(len(trades))))
		winRate = &wr
	}
	if winCount > 0 {
		avgWin = sumWins.Div(decimal.NewFromInt(int64(winCount)))
	}
	if lossCount > 0 {
		avgLoss = sumLosses.Div(decimal.NewFromInt(int64(lossCount)))
		pf := sumWins.Div(sumLosses.Abs())
		profitFactor = &pf
	}
	return winRate, avgWin, avgLoss, profitFactor
}

// calcSharpeRatio annualizes the mean over stddev of per-bar equity
// returns. Nil with fewer than two bars or zero variance.
func calcSharpeRatio(equity []decimal.Decimal, periodsPerYear int) *decimal.Decimal {
	if len(equity) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1]
		if !prev.GreaterThan(decimal.Zero) {
			continue
		}
		r := equity[i].Div(prev).Sub(one).InexactFloat64()
		returns = append(returns, r)
	}
	if len(returns) < 2 {
		return nil
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var varianceSum float64
	for _, r := range returns {
		diff := r - mean
		varianceSum += diff * diff
	}
	stddev := math.Sqrt(varianceSum / float64(len(returns)))
	if stddev == 0 {
		return nil
	}

	sharpe := decimal.NewFromFloat(mean / stddev * math.Sqrt(float64(periodsPerYear)))
	return &sharpe
}
