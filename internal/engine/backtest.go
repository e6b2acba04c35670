package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/potatotify/backtesting-engine/types"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
)

// backtester owns the per-bar loop of a single run: exit checks first, then
// the strategy, then fills, then mark-to-market. It also implements the
// BrokerAPI handed to the strategy.
type backtester struct {
	feed     *BarFeed
	strategy Strategy
	cfg      RunConfig
	ledger   *ledger
	warnings []types.Warning
	logger   *slog.Logger

	lastClose decimal.Decimal
}

func newBacktester(feed *BarFeed, strat Strategy, cfg RunConfig, logger *slog.Logger) *backtester {
	if logger == nil {
		logger = slog.Default()
	}
	return &backtester{
		feed:     feed,
		strategy: strat,
		cfg:      cfg,
		ledger:   newLedger(cfg.InitialCapital, feed.Len()),
		logger:   logger,
	}
}

func (b *backtester) run(ctx context.Context) error {
	if err := b.initStrategy(); err != nil {
		return &BarError{Index: 0, Err: fmt.Errorf("%w: %v", StrategyRuntimeErr, err)}
	}

	var progress *progressbar.ProgressBar
	if b.cfg.ShowProgress {
		progress = initProgressBar(b.feed.Len())
	}

	for i := 0; i < b.feed.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return &BarError{Index: i, Err: fmt.Errorf("%w: %v", ResourceExhaustedErr, err)}
		}
		bar := b.feed.Bar(i)
		b.lastClose = bar.Close

		// 1. Check the open position for intrabar exits before the strategy
		// sees the bar. The favorable extreme is updated with the bar's own
		// range only after the check.
		if pos := b.ledger.position; pos != nil {
			pos.BarsHeld++
			if trig, ok := resolveExit(pos, bar); ok {
				if _, err := b.ledger.close(trig.price, trig.reason, bar.Timestamp); err != nil {
					return &BarError{Index: i, Err: err}
				}
			} else {
				updateFavorableExtreme(pos, bar)
			}
		}

		// 2. Strategy faults are fatal: a broken run must never be presented
		// as a complete one.
		intent, err := b.callStrategy(bar)
		if err != nil {
			return &BarError{Index: i, Err: fmt.Errorf("%w: %v", StrategyRuntimeErr, err)}
		}

		// 3. Apply the intent. Malformed intents are discarded with a
		// warning; bars before and after the fault stay valid.
		if intent != nil {
			b.applyIntent(intent, bar, i)
		}

		// 4. One equity entry per bar, open exposure marked to the close.
		b.ledger.markToMarket(bar.Close)

		if progress != nil {
			progress.Add(1)
		}
	}
	return nil
}

func (b *backtester) initStrategy() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in Init: %v", r)
		}
	}()
	return b.strategy.Init(b)
}

// callStrategy shields the run from panics in externally authored code.
func (b *backtester) callStrategy(bar types.Bar) (intent *types.OrderIntent, err error) {
	defer func() {
		if r := recover(); r != nil {
			intent = nil
			err = fmt.Errorf("panic in OnBar: %v", r)
		}
	}()
	return b.strategy.OnBar(bar)
}

func (b *backtester) applyIntent(intent *types.OrderIntent, bar types.Bar, i int) {
	switch intent.Action {
	case types.ActionClose, types.ActionCloseAll:
		// Always closes the full open position at the bar close,
		// independent of any size fields on the intent.
		if b.ledger.position == nil {
			b.warn(i, "%v: %s with no open position", InvalidIntentErr, intent.Action)
			return
		}
		reason := intent.ExitReason
		if reason == "" {
			reason = types.ExitReasonSignal
		}
		if _, err := b.ledger.close(bar.Close, reason, bar.Timestamp); err != nil {
			b.warn(i, "close failed: %v", err)
		}

	case types.ActionBuy:
		if pos := b.ledger.position; pos != nil {
			if pos.Side == types.SideShort {
				b.closeWithFill(intent, bar, i)
				return
			}
			b.warn(i, "%v: BUY while a %s position is open", InvalidIntentErr, pos.Side)
			return
		}
		b.openPosition(intent, types.SideLong, bar, i)

	case types.ActionSell:
		if pos := b.ledger.position; pos != nil {
			if pos.Side == types.SideLong {
				b.closeWithFill(intent, bar, i)
				return
			}
			b.warn(i, "%v: SELL while a %s position is open", InvalidIntentErr, pos.Side)
			return
		}
		if intent.PositionSide == types.SideShort {
			b.openPosition(intent, types.SideShort, bar, i)
			return
		}
		b.warn(i, "%v: SELL with no open position", InvalidIntentErr)

	default:
		b.warn(i, "%v: unknown action %q", InvalidIntentErr, intent.Action)
	}
}

func (b *backtester) openPosition(intent *types.OrderIntent, side types.PositionSide, bar types.Bar, i int) {
	if intent.Quantity.IsNegative() {
		b.warn(i, "%v: %s with negative quantity %s", InvalidIntentErr, intent.Action, intent.Quantity)
		return
	}
	if intent.Quantity.IsZero() {
		// Zero quantity means the sizer failed closed; treat the intent as
		// a no-op rather than opening an empty position.
		b.warn(i, "%v", SizingErr)
		return
	}

	fill, ok := fillPrice(intent, bar)
	if !ok {
		// An uncrossed limit is not a fault, just a miss. The strategy must
		// resubmit on a later bar if it still wants in.
		b.logger.Debug("limit order not filled",
			"bar", i, "limit", intent.Price, "low", bar.Low, "high", bar.High)
		return
	}

	stop, target := resolveStopLevels(intent, side, fill)
	pos := &types.Position{
		Side:             side,
		EntryPrice:       fill,
		Quantity:         intent.Quantity,
		EntryTime:        bar.Timestamp,
		StopLossPrice:    stop,
		TakeProfitPrice:  target,
		TrailingStopPct:  intent.TrailingStopPct,
		FavorableExtreme: fill,
	}
	if err := b.ledger.open(pos); err != nil {
		b.warn(i, "%v: %v", InvalidIntentErr, err)
	}
}

// closeWithFill closes the open position from an explicit BUY/SELL on the
// opposite side, honoring the intent's fill policy.
func (b *backtester) closeWithFill(intent *types.OrderIntent, bar types.Bar, i int) {
	fill, ok := fillPrice(intent, bar)
	if !ok {
		b.logger.Debug("limit close not filled",
			"bar", i, "limit", intent.Price, "low", bar.Low, "high", bar.High)
		return
	}
	reason := intent.ExitReason
	if reason == "" {
		reason = types.ExitReasonSignal
	}
	if _, err := b.ledger.close(fill, reason, bar.Timestamp); err != nil {
		b.warn(i, "close failed: %v", err)
	}
}

func (b *backtester) warn(i int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	b.warnings = append(b.warnings, types.Warning{BarIndex: i, Message: msg})
	b.logger.Warn("intent discarded", "bar", i, "reason", msg)
}

// BrokerAPI implementation handed to the strategy.

func (b *backtester) CalculatePositionSize(entryPrice, stopLossPrice decimal.Decimal) decimal.Decimal {
	return positionSize(entryPrice, stopLossPrice, b.ledger.cash, b.cfg.RiskFraction)
}

func (b *backtester) Cash() decimal.Decimal {
	return b.ledger.cash
}

func (b *backtester) Equity() decimal.Decimal {
	return b.ledger.equity(b.lastClose)
}

func (b *backtester) OpenPosition() *types.Position {
	return b.ledger.position
}

func initProgressBar(maxTicks int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
