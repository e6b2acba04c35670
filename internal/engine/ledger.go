package engine

import (
	"errors"
	"time"

	"github.com/potatotify/backtesting-engine/types"
	"github.com/shopspring/decimal"
)

var InsufficientCashErr = errors.New("insufficient cash for fill")
var PositionOpenErr = errors.New("a position is already open")
var NoPositionErr = errors.New("no open position")

// ledger is the single mutable source of truth for open exposure and
// available capital during one run. It is owned exclusively by the runner;
// nothing else mutates it.
//
// Cash accounting is symmetric across sides: opening a LONG spends the
// notional, opening a SHORT books the sale proceeds; closing reverses the
// leg. Marking to market therefore adds the long notional back (or subtracts
// the short buy-back cost) at the current price.
type ledger struct {
	cash        decimal.Decimal
	position    *types.Position
	equityCurve []decimal.Decimal
	trades      []types.Trade
}

func newLedger(initialCash decimal.Decimal, bars int) *ledger {
	return &ledger{
		cash:        initialCash,
		equityCurve: make([]decimal.Decimal, 0, bars),
	}
}

func (l *ledger) open(pos *types.Position) error {
	if l.position != nil {
		return PositionOpenErr
	}
	notional := pos.EntryPrice.Mul(pos.Quantity)
	// The notional is required as collateral for shorts too, so a buggy
	// strategy cannot lever up through the short side.
	if notional.GreaterThan(l.cash) {
		return InsufficientCashErr
	}
	if pos.Side == types.SideShort {
		l.cash = l.cash.Add(notional)
	} else {
		l.cash = l.cash.Sub(notional)
	}
	l.position = pos
	return nil
}

// close converts the open position into a trade at the given price and
// returns the appended record.
func (l *ledger) close(exitPrice decimal.Decimal, exitReason string, exitTime time.Time) (types.Trade, error) {
	if l.position == nil {
		return types.Trade{}, NoPositionErr
	}
	pos := l.position
	notional := exitPrice.Mul(pos.Quantity)
	if pos.Side == types.SideShort {
		l.cash = l.cash.Sub(notional)
	} else {
		l.cash = l.cash.Add(notional)
	}

	pnl := pos.UnrealizedPnL(exitPrice)
	cost := pos.EntryPrice.Mul(pos.Quantity)
	returnPct := decimal.Zero
	if !cost.IsZero() {
		returnPct = pnl.Div(cost).Mul(decimal.NewFromInt(100))
	}

	trade := types.Trade{
		EntryTime:  pos.EntryTime,
		ExitTime:   exitTime,
		Side:       pos.Side,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exitPrice,
		Quantity:   pos.Quantity,
		PnL:        pnl,
		ReturnPct:  returnPct,
		ExitReason: exitReason,
		BarsHeld:   pos.BarsHeld,
	}
	l.trades = append(l.trades, trade)
	l.position = nil
	return trade, nil
}

// markToMarket values the portfolio at the given price and appends the
// result to the equity curve, one entry per bar.
func (l *ledger) markToMarket(price decimal.Decimal) decimal.Decimal {
	equity := l.equity(price)
	l.equityCurve = append(l.equityCurve, equity)
	return equity
}

func (l *ledger) equity(price decimal.Decimal) decimal.Decimal {
	if l.position == nil {
		return l.cash
	}
	notional := price.Mul(l.position.Quantity)
	if l.position.Side == types.SideShort {
		return l.cash.Sub(notional)
	}
	return l.cash.Add(notional)
}
