// Package indicators provides pure technical-indicator functions over price
// history. Every function takes the full series and returns a slice of the
// same length, with nil entries where there is not yet enough history. There
// is no shared cache: each call computes fresh, so concurrent backtest runs
// never observe each other's state.
package indicators

import (
	"math"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// SMA computes the simple moving average over the given period.
func SMA(prices []decimal.Decimal, period int) []*decimal.Decimal {
	out := make([]*decimal.Decimal, len(prices))
	if period <= 0 || len(prices) < period {
		return out
	}
	p := decimal.NewFromInt(int64(period))
	sum := decimal.Zero
	for i, price := range prices {
		sum = sum.Add(price)
		if i >= period {
			sum = sum.Sub(prices[i-period])
		}
		if i >= period-1 {
			v := sum.Div(p)
			out[i] = &v
		}
	}
	return out
}

// EMA computes the exponential moving average, seeded with the SMA of the
// first period values and smoothed with 2/(period+1).
func EMA(prices []decimal.Decimal, period int) []*decimal.Decimal {
	out := make([]*decimal.Decimal, len(prices))
	if period <= 0 || len(prices) < period {
		return out
	}
	p := decimal.NewFromInt(int64(period))
	multiplier := decimal.NewFromInt(2).Div(p.Add(one))

	seed := decimal.Zero
	for _, price := range prices[:period] {
		seed = seed.Add(price)
	}
	seed = seed.Div(p)
	out[period-1] = &seed

	prev := seed
	for i := period; i < len(prices); i++ {
		ema := prices[i].Sub(prev).Mul(multiplier).Add(prev)
		out[i] = &ema
		prev = ema
	}
	return out
}

// RSI computes the relative strength index over simple averages of gains and
// losses in the trailing period. Values range 0-100; 100 when there are no
// losses in the window.
func RSI(prices []decimal.Decimal, period int) []*decimal.Decimal {
	out := make([]*decimal.Decimal, len(prices))
	if period <= 0 || len(prices) < period+1 {
		return out
	}
	p := decimal.NewFromInt(int64(period))

	changes := make([]decimal.Decimal, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		changes[i-1] = prices[i].Sub(prices[i-1])
	}

	for i := period; i <= len(changes); i++ {
		avgGain := decimal.Zero
		avgLoss := decimal.Zero
		for _, c := range changes[i-period : i] {
			if c.IsPositive() {
				avgGain = avgGain.Add(c)
			} else {
				avgLoss = avgLoss.Sub(c)
			}
		}
		avgGain = avgGain.Div(p)
		avgLoss = avgLoss.Div(p)

		var rsi decimal.Decimal
		if avgLoss.IsZero() {
			rsi = hundred
		} else {
			rs := avgGain.Div(avgLoss)
			rsi = hundred.Sub(hundred.Div(one.Add(rs)))
		}
		out[i] = &rsi
	}
	return out
}

// MACDResult holds the three MACD series, each aligned to the input length.
type MACDResult struct {
	MACD      []*decimal.Decimal
	Signal    []*decimal.Decimal
	Histogram []*decimal.Decimal
}

// MACD computes the moving average convergence divergence: fast EMA minus
// slow EMA, a signal EMA of that line, and their difference.
func MACD(prices []decimal.Decimal, fast, slow, signal int) MACDResult {
	n := len(prices)
	res := MACDResult{
		MACD:      make([]*decimal.Decimal, n),
		Signal:    make([]*decimal.Decimal, n),
		Histogram: make([]*decimal.Decimal, n),
	}
	if n < slow || fast <= 0 || slow <= 0 || signal <= 0 {
		return res
	}

	fastEMA := EMA(prices, fast)
	slowEMA := EMA(prices, slow)

	var macdValues []decimal.Decimal
	firstMACD := -1
	for i := 0; i < n; i++ {
		if fastEMA[i] == nil || slowEMA[i] == nil {
			continue
		}
		if firstMACD < 0 {
			firstMACD = i
		}
		v := fastEMA[i].Sub(*slowEMA[i])
		res.MACD[i] = &v
		macdValues = append(macdValues, v)
	}

	signalEMA := EMA(macdValues, signal)
	for j, s := range signalEMA {
		if s == nil {
			continue
		}
		i := firstMACD + j
		res.Signal[i] = s
		h := res.MACD[i].Sub(*s)
		res.Histogram[i] = &h
	}
	return res
}

// BollingerResult holds the three band series.
type BollingerResult struct {
	Upper  []*decimal.Decimal
	Middle []*decimal.Decimal
	Lower  []*decimal.Decimal
}

// Bollinger computes Bollinger bands: an SMA middle band and upper/lower
// bands stdDev population standard deviations away.
func Bollinger(prices []decimal.Decimal, period int, stdDev decimal.Decimal) BollingerResult {
	n := len(prices)
	res := BollingerResult{
		Upper:  make([]*decimal.Decimal, n),
		Middle: SMA(prices, period),
		Lower:  make([]*decimal.Decimal, n),
	}
	if period <= 0 || n < period {
		return res
	}

	for i := period - 1; i < n; i++ {
		mean := *res.Middle[i]
		varianceSum := 0.0
		for _, price := range prices[i-period+1 : i+1] {
			diff := price.Sub(mean).InexactFloat64()
			varianceSum += diff * diff
		}
		std := decimal.NewFromFloat(math.Sqrt(varianceSum / float64(period)))
		width := stdDev.Mul(std)

		upper := mean.Add(width)
		lower := mean.Sub(width)
		res.Upper[i] = &upper
		res.Lower[i] = &lower
	}
	return res
}

// ATR computes the average true range as an SMA of true ranges, where the
// true range folds the gap from the prior close into the bar's span.
func ATR(highs, lows, closes []decimal.Decimal, period int) []*decimal.Decimal {
	n := len(highs)
	out := make([]*decimal.Decimal, n)
	if period <= 0 || n < period+1 || len(lows) != n || len(closes) != n {
		return out
	}
	p := decimal.NewFromInt(int64(period))

	trueRanges := make([]decimal.Decimal, n-1)
	for i := 1; i < n; i++ {
		r1 := highs[i].Sub(lows[i])
		r2 := highs[i].Sub(closes[i-1]).Abs()
		r3 := lows[i].Sub(closes[i-1]).Abs()
		trueRanges[i-1] = decimal.Max(r1, r2, r3)
	}

	for i := period - 1; i < len(trueRanges); i++ {
		sum := decimal.Zero
		for _, tr := range trueRanges[i-period+1 : i+1] {
			sum = sum.Add(tr)
		}
		atr := sum.Div(p)
		out[i+1] = &atr
	}
	return out
}

// StochasticResult holds the %K and %D series.
type StochasticResult struct {
	K []*decimal.Decimal
	D []*decimal.Decimal
}

// Stochastic computes the stochastic oscillator: %K locates the close within
// the trailing kPeriod high/low range, %D is an SMA of %K over dPeriod.
func Stochastic(highs, lows, closes []decimal.Decimal, kPeriod, dPeriod int) StochasticResult {
	n := len(closes)
	res := StochasticResult{
		K: make([]*decimal.Decimal, n),
		D: make([]*decimal.Decimal, n),
	}
	if kPeriod <= 0 || dPeriod <= 0 || n < kPeriod || len(highs) != n || len(lows) != n {
		return res
	}

	var kValues []decimal.Decimal
	firstK := -1
	for i := kPeriod - 1; i < n; i++ {
		highest := highs[i]
		lowest := lows[i]
		for _, h := range highs[i-kPeriod+1 : i] {
			if h.GreaterThan(highest) {
				highest = h
			}
		}
		for _, l := range lows[i-kPeriod+1 : i] {
			if l.LessThan(lowest) {
				lowest = l
			}
		}

		span := highest.Sub(lowest)
		var k decimal.Decimal
		if span.IsZero() {
			k = decimal.NewFromInt(50)
		} else {
			k = closes[i].Sub(lowest).Div(span).Mul(hundred)
		}
		res.K[i] = &k
		if firstK < 0 {
			firstK = i
		}
		kValues = append(kValues, k)
	}

	dValues := SMA(kValues, dPeriod)
	for j, d := range dValues {
		if d != nil {
			res.D[firstK+j] = d
		}
	}
	return res
}

// Supertrend computes the supertrend line: ATR bands around the bar
// midpoint, ratcheted so the active band only tightens until price crosses
// it.
func Supertrend(highs, lows, closes []decimal.Decimal, period int, multiplier decimal.Decimal) []*decimal.Decimal {
	n := len(highs)
	out := make([]*decimal.Decimal, n)
	if period <= 0 || n < period+1 || len(lows) != n || len(closes) != n {
		return out
	}

	atr := ATR(highs, lows, closes, period)
	two := decimal.NewFromInt(2)

	var finalUpper, finalLower decimal.Decimal
	uptrend := true
	started := false

	for i := period; i < n; i++ {
		if atr[i] == nil {
			continue
		}
		hlAvg := highs[i].Add(lows[i]).Div(two)
		width := multiplier.Mul(*atr[i])
		basicUpper := hlAvg.Add(width)
		basicLower := hlAvg.Sub(width)

		if !started {
			finalUpper = basicUpper
			finalLower = basicLower
			started = true
		} else {
			prevClose := closes[i-1]
			if prevClose.LessThanOrEqual(finalUpper) {
				finalUpper = decimal.Min(basicUpper, finalUpper)
			} else {
				finalUpper = basicUpper
			}
			if prevClose.GreaterThanOrEqual(finalLower) {
				finalLower = decimal.Max(basicLower, finalLower)
			} else {
				finalLower = basicLower
			}
		}

		if closes[i].GreaterThan(finalUpper) {
			uptrend = true
		} else if closes[i].LessThan(finalLower) {
			uptrend = false
		}

		var st decimal.Decimal
		if uptrend {
			st = finalLower
		} else {
			st = finalUpper
		}
		out[i] = &st
	}
	return out
}
