package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/potatotify/backtesting-engine/types"
	"github.com/shopspring/decimal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dbar(ts int, o, h, l, c float64) types.Bar {
	return types.Bar{
		Symbol:    "TEST",
		Interval:  types.Hour,
		Timestamp: time.UnixMilli(int64(ts)),
		Open:      decimal.NewFromFloat(o),
		High:      decimal.NewFromFloat(h),
		Low:       decimal.NewFromFloat(l),
		Close:     decimal.NewFromFloat(c),
		Volume:    decimal.NewFromInt(1000),
	}
}

func testFeed(t *testing.T, bars ...types.Bar) *BarFeed {
	t.Helper()
	feed, err := NewBarFeed("TEST", types.Hour, bars)
	if err != nil {
		t.Fatalf("NewBarFeed: %v", err)
	}
	return feed
}

// scriptStrategy plays back a fixed intent per bar index.
type scriptStrategy struct {
	intents map[int]*types.OrderIntent
	errAt   int
	panicAt int
	bar     int
	api     BrokerAPI
}

func newScript(intents map[int]*types.OrderIntent) *scriptStrategy {
	return &scriptStrategy{intents: intents, errAt: -1, panicAt: -1}
}

func (s *scriptStrategy) Name() string { return "script" }

func (s *scriptStrategy) Init(api BrokerAPI) error {
	s.api = api
	return nil
}

func (s *scriptStrategy) OnBar(bar types.Bar) (*types.OrderIntent, error) {
	i := s.bar
	s.bar++
	if i == s.errAt {
		return nil, errors.New("scripted failure")
	}
	if i == s.panicAt {
		panic("scripted panic")
	}
	return s.intents[i], nil
}

func run(t *testing.T, feed *BarFeed, strat Strategy, capital float64) *types.BacktestResult {
	t.Helper()
	cfg := NewRunConfig(decimal.NewFromFloat(capital))
	result, err := RunFeed(context.Background(), feed, strat, cfg, testLogger())
	if err != nil {
		t.Fatalf("RunFeed: %v", err)
	}
	return result
}

func TestRunBuyThenClose(t *testing.T) {
	feed := testFeed(t,
		dbar(1, 10, 10, 10, 10),
		dbar(2, 11, 11, 11, 11),
		dbar(3, 9, 9, 9, 9),
		dbar(4, 13, 13, 13, 13),
		dbar(5, 14, 14, 14, 14),
	)
	strat := newScript(map[int]*types.OrderIntent{
		1: {Action: types.ActionBuy, Quantity: decimal.NewFromInt(1)},
		4: {Action: types.ActionClose},
	})

	result := run(t, feed, strat, 1000)

	if len(result.EquityCurve) != feed.Len() {
		t.Fatalf("equity curve length = %d, want %d", len(result.EquityCurve), feed.Len())
	}
	if result.TotalTrades != 1 {
		t.Fatalf("total trades = %d, want 1", result.TotalTrades)
	}

	trade := result.Trades[0]
	if !trade.PnL.Equal(decimal.NewFromInt(3)) {
		t.Errorf("pnl = %s, want 3", trade.PnL)
	}
	wantReturn := decimal.NewFromInt(300).Div(decimal.NewFromInt(11))
	if !trade.ReturnPct.Sub(wantReturn).Abs().LessThan(decimal.NewFromFloat(0.0001)) {
		t.Errorf("return pct = %s, want ~%s", trade.ReturnPct, wantReturn)
	}
	if trade.BarsHeld != 3 {
		t.Errorf("bars held = %d, want 3", trade.BarsHeld)
	}

	if !result.FinalCapital.Equal(decimal.NewFromInt(1003)) {
		t.Errorf("final capital = %s, want 1003", result.FinalCapital)
	}
	if result.OpenPosition != nil {
		t.Errorf("open position should be nil")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", result.Warnings)
	}
}

func TestRunStopBeforeTargetTieBreak(t *testing.T) {
	// Both the stop (95) and the target (110) are breached on the second
	// bar; the stop must be honored.
	feed := testFeed(t,
		dbar(1, 100, 100, 100, 100),
		dbar(2, 100, 115, 90, 100),
	)
	strat := newScript(map[int]*types.OrderIntent{
		0: {
			Action:          types.ActionBuy,
			Quantity:        decimal.NewFromInt(1),
			StopLossPrice:   decimal.NewFromInt(95),
			TakeProfitPrice: decimal.NewFromInt(110),
		},
	})

	result := run(t, feed, strat, 1000)

	if result.TotalTrades != 1 {
		t.Fatalf("total trades = %d, want 1", result.TotalTrades)
	}
	trade := result.Trades[0]
	if trade.ExitReason != types.ExitReasonStopLoss {
		t.Errorf("exit reason = %s, want %s", trade.ExitReason, types.ExitReasonStopLoss)
	}
	if !trade.ExitPrice.Equal(decimal.NewFromInt(95)) {
		t.Errorf("exit price = %s, want 95", trade.ExitPrice)
	}
	if !trade.PnL.Equal(decimal.NewFromInt(-5)) {
		t.Errorf("pnl = %s, want -5", trade.PnL)
	}
}

func TestRunTrailingStop(t *testing.T) {
	// Long from 100 with a 5% trail. Price runs to 120, then retraces to
	// 113: the position must close at 114 (120 * 0.95), not 113.
	feed := testFeed(t,
		dbar(1, 100, 100, 100, 100),
		dbar(2, 100, 120, 100, 118),
		dbar(3, 118, 118, 113, 115),
	)
	strat := newScript(map[int]*types.OrderIntent{
		0: {
			Action:          types.ActionBuy,
			Quantity:        decimal.NewFromInt(1),
			TrailingStopPct: decimal.NewFromFloat(0.05),
		},
	})

	result := run(t, feed, strat, 1000)

	if result.TotalTrades != 1 {
		t.Fatalf("total trades = %d, want 1", result.TotalTrades)
	}
	trade := result.Trades[0]
	if trade.ExitReason != types.ExitReasonTrailingStop {
		t.Errorf("exit reason = %s, want %s", trade.ExitReason, types.ExitReasonTrailingStop)
	}
	if !trade.ExitPrice.Equal(decimal.NewFromInt(114)) {
		t.Errorf("exit price = %s, want 114", trade.ExitPrice)
	}
}

func TestRunShortRoundTrip(t *testing.T) {
	feed := testFeed(t,
		dbar(1, 100, 100, 100, 100),
		dbar(2, 95, 95, 90, 90),
	)
	strat := newScript(map[int]*types.OrderIntent{
		0: {
			Action:       types.ActionSell,
			PositionSide: types.SideShort,
			Quantity:     decimal.NewFromInt(1),
		},
		1: {Action: types.ActionClose, ExitReason: "cover"},
	})

	result := run(t, feed, strat, 1000)

	if result.TotalTrades != 1 {
		t.Fatalf("total trades = %d, want 1", result.TotalTrades)
	}
	trade := result.Trades[0]
	if trade.Side != types.SideShort {
		t.Errorf("side = %s, want SHORT", trade.Side)
	}
	if !trade.PnL.Equal(decimal.NewFromInt(10)) {
		t.Errorf("pnl = %s, want 10", trade.PnL)
	}
	if trade.ExitReason != "cover" {
		t.Errorf("exit reason = %s, want cover", trade.ExitReason)
	}
	if !result.FinalCapital.Equal(decimal.NewFromInt(1010)) {
		t.Errorf("final capital = %s, want 1010", result.FinalCapital)
	}
}

func TestRunOpenPositionNotForceClosed(t *testing.T) {
	feed := testFeed(t,
		dbar(1, 100, 100, 100, 100),
		dbar(2, 105, 105, 105, 105),
	)
	strat := newScript(map[int]*types.OrderIntent{
		0: {Action: types.ActionBuy, Quantity: decimal.NewFromInt(1)},
	})

	result := run(t, feed, strat, 1000)

	if result.TotalTrades != 0 {
		t.Fatalf("total trades = %d, want 0", result.TotalTrades)
	}
	if result.OpenPosition == nil {
		t.Fatal("open position missing from result")
	}
	// final capital = cash 900 + position marked at the last close 105
	if !result.FinalCapital.Equal(decimal.NewFromInt(1005)) {
		t.Errorf("final capital = %s, want 1005", result.FinalCapital)
	}
}

func TestRunDoubleExposeRejected(t *testing.T) {
	feed := testFeed(t,
		dbar(1, 100, 100, 100, 100),
		dbar(2, 100, 100, 100, 100),
		dbar(3, 110, 110, 110, 110),
	)
	strat := newScript(map[int]*types.OrderIntent{
		0: {Action: types.ActionBuy, Quantity: decimal.NewFromInt(1)},
		1: {Action: types.ActionBuy, Quantity: decimal.NewFromInt(1)},
		2: {Action: types.ActionClose},
	})

	result := run(t, feed, strat, 1000)

	if len(result.Warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", result.Warnings)
	}
	if result.Warnings[0].BarIndex != 1 {
		t.Errorf("warning bar index = %d, want 1", result.Warnings[0].BarIndex)
	}
	// The faulty intent must not corrupt the rest of the run.
	if result.TotalTrades != 1 {
		t.Fatalf("total trades = %d, want 1", result.TotalTrades)
	}
	if !result.Trades[0].PnL.Equal(decimal.NewFromInt(10)) {
		t.Errorf("pnl = %s, want 10", result.Trades[0].PnL)
	}
}

func TestRunZeroQuantityIsSizingWarning(t *testing.T) {
	feed := testFeed(t,
		dbar(1, 100, 100, 100, 100),
	)
	strat := newScript(map[int]*types.OrderIntent{
		0: {Action: types.ActionBuy, Quantity: decimal.Zero},
	})

	result := run(t, feed, strat, 1000)

	if result.TotalTrades != 0 || result.OpenPosition != nil {
		t.Fatal("zero-size intent must be a no-op")
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", result.Warnings)
	}
}

func TestRunCloseWithoutPositionWarns(t *testing.T) {
	feed := testFeed(t,
		dbar(1, 100, 100, 100, 100),
	)
	strat := newScript(map[int]*types.OrderIntent{
		0: {Action: types.ActionClose},
	})

	result := run(t, feed, strat, 1000)
	if len(result.Warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", result.Warnings)
	}
}

func TestRunLimitOrderNotCrossedIsDropped(t *testing.T) {
	feed := testFeed(t,
		dbar(1, 100, 102, 98, 100),
		dbar(2, 100, 102, 98, 100),
	)
	strat := newScript(map[int]*types.OrderIntent{
		0: {
			Action:    types.ActionBuy,
			Quantity:  decimal.NewFromInt(1),
			OrderType: types.TypeLimit,
			Price:     decimal.NewFromInt(90),
		},
	})

	result := run(t, feed, strat, 1000)

	if result.OpenPosition != nil || result.TotalTrades != 0 {
		t.Fatal("uncrossed limit must not open a position")
	}
	// A missed limit is not a fault.
	if len(result.Warnings) != 0 {
		t.Fatalf("warnings = %v, want none", result.Warnings)
	}
}

func TestRunLimitOrderFillsAtLimitPrice(t *testing.T) {
	feed := testFeed(t,
		dbar(1, 100, 102, 95, 100),
		dbar(2, 100, 110, 100, 110),
	)
	strat := newScript(map[int]*types.OrderIntent{
		0: {
			Action:    types.ActionBuy,
			Quantity:  decimal.NewFromInt(1),
			OrderType: types.TypeLimit,
			Price:     decimal.NewFromInt(96),
		},
		1: {Action: types.ActionClose},
	})

	result := run(t, feed, strat, 1000)

	if result.TotalTrades != 1 {
		t.Fatalf("total trades = %d, want 1", result.TotalTrades)
	}
	if !result.Trades[0].EntryPrice.Equal(decimal.NewFromInt(96)) {
		t.Errorf("entry price = %s, want 96", result.Trades[0].EntryPrice)
	}
}

func TestRunStrategyErrorIsFatal(t *testing.T) {
	feed := testFeed(t,
		dbar(1, 100, 100, 100, 100),
		dbar(2, 100, 100, 100, 100),
		dbar(3, 100, 100, 100, 100),
	)
	strat := newScript(nil)
	strat.errAt = 2

	cfg := NewRunConfig(decimal.NewFromInt(1000))
	_, err := RunFeed(context.Background(), feed, strat, cfg, testLogger())
	if !errors.Is(err, StrategyRuntimeErr) {
		t.Fatalf("err = %v, want StrategyRuntimeErr", err)
	}
	var barErr *BarError
	if !errors.As(err, &barErr) || barErr.Index != 2 {
		t.Fatalf("err = %v, want BarError at index 2", err)
	}
}

func TestRunStrategyPanicIsFatal(t *testing.T) {
	feed := testFeed(t,
		dbar(1, 100, 100, 100, 100),
		dbar(2, 100, 100, 100, 100),
	)
	strat := newScript(nil)
	strat.panicAt = 1

	cfg := NewRunConfig(decimal.NewFromInt(1000))
	_, err := RunFeed(context.Background(), feed, strat, cfg, testLogger())
	if !errors.Is(err, StrategyRuntimeErr) {
		t.Fatalf("err = %v, want StrategyRuntimeErr", err)
	}
	var barErr *BarError
	if !errors.As(err, &barErr) || barErr.Index != 1 {
		t.Fatalf("err = %v, want BarError at index 1", err)
	}
}

func TestRunCancelledContextIsResourceExhausted(t *testing.T) {
	feed := testFeed(t, dbar(1, 100, 100, 100, 100))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := NewRunConfig(decimal.NewFromInt(1000))
	_, err := RunFeed(ctx, feed, newScript(nil), cfg, testLogger())
	if !errors.Is(err, ResourceExhaustedErr) {
		t.Fatalf("err = %v, want ResourceExhaustedErr", err)
	}
}

func TestRunEmptyFeed(t *testing.T) {
	_, err := NewBarFeed("TEST", types.Hour, nil)
	if !errors.Is(err, EmptyFeedErr) {
		t.Fatalf("err = %v, want EmptyFeedErr", err)
	}

	cfg := NewRunConfig(decimal.NewFromInt(1000))
	_, err = RunFeed(context.Background(), nil, newScript(nil), cfg, testLogger())
	if !errors.Is(err, EmptyFeedErr) {
		t.Fatalf("err = %v, want EmptyFeedErr", err)
	}
}

func TestRunDeterminism(t *testing.T) {
	bars := []types.Bar{
		dbar(1, 10, 11, 9, 10),
		dbar(2, 10, 12, 10, 11),
		dbar(3, 11, 13, 10, 12),
		dbar(4, 12, 12, 8, 9),
		dbar(5, 9, 14, 9, 13),
		dbar(6, 13, 15, 12, 14),
	}
	intents := func() map[int]*types.OrderIntent {
		return map[int]*types.OrderIntent{
			1: {
				Action:          types.ActionBuy,
				Quantity:        decimal.NewFromInt(2),
				StopLossPct:     decimal.NewFromFloat(0.2),
				TrailingStopPct: decimal.NewFromFloat(0.1),
			},
			4: {Action: types.ActionBuy, Quantity: decimal.NewFromInt(1)},
			5: {Action: types.ActionCloseAll},
		}
	}

	first := run(t, testFeed(t, bars...), newScript(intents()), 1000)
	second := run(t, testFeed(t, bars...), newScript(intents()), 1000)

	if len(first.Trades) != len(second.Trades) {
		t.Fatalf("trade counts differ: %d vs %d", len(first.Trades), len(second.Trades))
	}
	for i := range first.Trades {
		a, b := first.Trades[i], second.Trades[i]
		if !a.PnL.Equal(b.PnL) || !a.EntryPrice.Equal(b.EntryPrice) || !a.ExitPrice.Equal(b.ExitPrice) || a.ExitReason != b.ExitReason {
			t.Fatalf("trade %d differs: %+v vs %+v", i, a, b)
		}
	}
	for i := range first.EquityCurve {
		if !first.EquityCurve[i].Equal(second.EquityCurve[i]) {
			t.Fatalf("equity curve differs at %d: %s vs %s", i, first.EquityCurve[i], second.EquityCurve[i])
		}
	}
	if !first.FinalCapital.Equal(second.FinalCapital) {
		t.Fatalf("final capital differs: %s vs %s", first.FinalCapital, second.FinalCapital)
	}
}

func TestRunFinalCapitalMatchesTradePnL(t *testing.T) {
	feed := testFeed(t,
		dbar(1, 10, 11, 9, 10),
		dbar(2, 10, 12, 10, 11),
		dbar(3, 11, 13, 10, 12),
		dbar(4, 12, 12, 11, 11),
	)
	strat := newScript(map[int]*types.OrderIntent{
		0: {Action: types.ActionBuy, Quantity: decimal.NewFromInt(3)},
		2: {Action: types.ActionClose},
	})

	result := run(t, feed, strat, 1000)

	sum := decimal.Zero
	for _, trade := range result.Trades {
		sum = sum.Add(trade.PnL)
	}
	want := result.InitialCapital.Add(sum)
	if !result.FinalCapital.Equal(want) {
		t.Errorf("final capital = %s, want initial + pnl = %s", result.FinalCapital, want)
	}
}
