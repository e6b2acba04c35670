package indicators

import (
	"testing"

	"github.com/shopspring/decimal"
)

func series(vals ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}

func TestSMA(t *testing.T) {
	prices := series(1, 2, 3, 4, 5)
	got := SMA(prices, 3)

	if len(got) != len(prices) {
		t.Fatalf("len = %d, want %d", len(got), len(prices))
	}
	for i := 0; i < 2; i++ {
		if got[i] != nil {
			t.Errorf("sma[%d] = %s, want nil during warmup", i, got[i])
		}
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		v := got[i+2]
		if v == nil || !v.Equal(decimal.NewFromFloat(w)) {
			t.Errorf("sma[%d] = %v, want %v", i+2, v, w)
		}
	}
}

func TestSMAShortSeries(t *testing.T) {
	got := SMA(series(1, 2), 5)
	for i, v := range got {
		if v != nil {
			t.Errorf("sma[%d] = %s, want nil when series shorter than period", i, v)
		}
	}
}

func TestEMA(t *testing.T) {
	prices := series(1, 2, 3, 4, 5)
	got := EMA(prices, 3)

	if got[0] != nil || got[1] != nil {
		t.Fatal("warmup entries should be nil")
	}
	// seeded with SMA(1,2,3) = 2, multiplier 0.5
	if !got[2].Equal(decimal.NewFromInt(2)) {
		t.Errorf("ema[2] = %s, want 2", got[2])
	}
	// (4-2)*0.5 + 2 = 3
	if !got[3].Equal(decimal.NewFromInt(3)) {
		t.Errorf("ema[3] = %s, want 3", got[3])
	}
	// (5-3)*0.5 + 3 = 4
	if !got[4].Equal(decimal.NewFromInt(4)) {
		t.Errorf("ema[4] = %s, want 4", got[4])
	}
}

func TestRSI(t *testing.T) {
	t.Run("all gains is 100", func(t *testing.T) {
		got := RSI(series(1, 2, 3, 4, 5), 3)
		last := got[len(got)-1]
		if last == nil || !last.Equal(decimal.NewFromInt(100)) {
			t.Errorf("rsi = %v, want 100", last)
		}
	})

	t.Run("balanced gains and losses is 50", func(t *testing.T) {
		got := RSI(series(10, 11, 10, 11, 10), 4)
		last := got[len(got)-1]
		if last == nil || !last.Equal(decimal.NewFromInt(50)) {
			t.Errorf("rsi = %v, want 50", last)
		}
	})

	t.Run("warmup is nil", func(t *testing.T) {
		got := RSI(series(1, 2, 3, 4, 5), 3)
		for i := 0; i < 3; i++ {
			if got[i] != nil {
				t.Errorf("rsi[%d] = %s, want nil", i, got[i])
			}
		}
	})
}

func TestMACD(t *testing.T) {
	prices := series(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	res := MACD(prices, 2, 4, 3)

	if len(res.MACD) != len(prices) || len(res.Signal) != len(prices) || len(res.Histogram) != len(prices) {
		t.Fatal("all series must align to the input length")
	}
	for i := 0; i < 3; i++ {
		if res.MACD[i] != nil {
			t.Errorf("macd[%d] = %s, want nil before slow EMA is ready", i, res.MACD[i])
		}
	}
	last := len(prices) - 1
	if res.MACD[last] == nil || !res.MACD[last].IsPositive() {
		t.Errorf("macd[last] = %v, want positive in a steady uptrend", res.MACD[last])
	}
	if res.Signal[last] == nil || res.Histogram[last] == nil {
		t.Fatal("signal and histogram should be populated at the end")
	}
	wantHist := res.MACD[last].Sub(*res.Signal[last])
	if !res.Histogram[last].Equal(wantHist) {
		t.Errorf("histogram = %s, want macd-signal = %s", res.Histogram[last], wantHist)
	}
}

func TestBollinger(t *testing.T) {
	prices := series(10, 10, 10, 10)
	res := Bollinger(prices, 3, decimal.NewFromInt(2))

	last := len(prices) - 1
	if res.Middle[last] == nil || !res.Middle[last].Equal(decimal.NewFromInt(10)) {
		t.Errorf("middle = %v, want 10", res.Middle[last])
	}
	// flat series has zero stddev, so the bands collapse onto the middle
	if !res.Upper[last].Equal(*res.Middle[last]) || !res.Lower[last].Equal(*res.Middle[last]) {
		t.Errorf("bands = %s/%s, want both equal to middle", res.Upper[last], res.Lower[last])
	}

	varied := series(8, 10, 12)
	res = Bollinger(varied, 3, decimal.NewFromInt(1))
	if !res.Upper[2].GreaterThan(*res.Middle[2]) || !res.Lower[2].LessThan(*res.Middle[2]) {
		t.Error("bands should straddle the middle for a varied series")
	}
}

func TestATR(t *testing.T) {
	highs := series(12, 13, 14, 15)
	lows := series(8, 9, 10, 11)
	closes := series(10, 11, 12, 13)

	got := ATR(highs, lows, closes, 2)
	if got[0] != nil || got[1] != nil {
		t.Fatal("warmup entries should be nil")
	}
	// every true range is high-low = 4 (gaps never exceed the bar span here)
	for _, i := range []int{2, 3} {
		if got[i] == nil || !got[i].Equal(decimal.NewFromInt(4)) {
			t.Errorf("atr[%d] = %v, want 4", i, got[i])
		}
	}
}

func TestStochastic(t *testing.T) {
	highs := series(10, 12, 14)
	lows := series(6, 8, 10)
	closes := series(8, 10, 14)

	res := Stochastic(highs, lows, closes, 3, 1)
	if res.K[0] != nil || res.K[1] != nil {
		t.Fatal("warmup entries should be nil")
	}
	// range over the window is [6, 14]; close 14 sits at the top
	if res.K[2] == nil || !res.K[2].Equal(decimal.NewFromInt(100)) {
		t.Errorf("%%K = %v, want 100", res.K[2])
	}
	if res.D[2] == nil || !res.D[2].Equal(decimal.NewFromInt(100)) {
		t.Errorf("%%D = %v, want 100", res.D[2])
	}
}

func TestStochasticFlatRange(t *testing.T) {
	flat := series(10, 10, 10)
	res := Stochastic(flat, flat, flat, 3, 1)
	if res.K[2] == nil || !res.K[2].Equal(decimal.NewFromInt(50)) {
		t.Errorf("%%K = %v, want 50 when the range is zero", res.K[2])
	}
}

func TestSupertrend(t *testing.T) {
	highs := series(11, 12, 13, 14, 15, 16)
	lows := series(9, 10, 11, 12, 13, 14)
	closes := series(10, 11, 12, 13, 14, 15)

	got := Supertrend(highs, lows, closes, 2, decimal.NewFromInt(3))
	last := got[len(got)-1]
	if last == nil {
		t.Fatal("supertrend should be populated after warmup")
	}
	// in an uptrend the line tracks the lower band, below price
	if !last.LessThan(closes[len(closes)-1]) {
		t.Errorf("supertrend = %s, want below close %s in an uptrend", last, closes[len(closes)-1])
	}
}
