// Package smacross implements a simple moving-average crossover strategy:
// long when the fast SMA crosses above the slow SMA, flat (or short) when it
// crosses back below. Entries are risk-sized through the broker API and
// protected by a percentage stop, target and trailing stop.
package smacross

import (
	"github.com/potatotify/backtesting-engine/internal/engine"
	"github.com/potatotify/backtesting-engine/types"
	"github.com/shopspring/decimal"
)

type Config struct {
	FastPeriod      int
	SlowPeriod      int
	StopLossPct     decimal.Decimal
	TakeProfitPct   decimal.Decimal
	TrailingStopPct decimal.Decimal
	AllowShort      bool
}

// Strategy keeps rolling window sums so each bar is O(1) instead of
// recomputing both full SMA series per bar.
type Strategy struct {
	cfg    Config
	api    engine.BrokerAPI
	closes []decimal.Decimal

	fastSum  decimal.Decimal
	slowSum  decimal.Decimal
	prevFast decimal.Decimal
	prevSlow decimal.Decimal
	havePrev bool
}

func New(cfg Config) *Strategy {
	if cfg.FastPeriod <= 0 {
		cfg.FastPeriod = 10
	}
	if cfg.SlowPeriod <= cfg.FastPeriod {
		cfg.SlowPeriod = cfg.FastPeriod * 3
	}
	if cfg.StopLossPct.IsZero() {
		cfg.StopLossPct = decimal.NewFromFloat(0.03)
	}
	return &Strategy{cfg: cfg}
}

func (s *Strategy) Name() string {
	return "sma-cross"
}

func (s *Strategy) Init(api engine.BrokerAPI) error {
	s.api = api
	s.closes = nil
	s.fastSum = decimal.Zero
	s.slowSum = decimal.Zero
	s.havePrev = false
	return nil
}

func (s *Strategy) OnBar(bar types.Bar) (*types.OrderIntent, error) {
	fast, slow, ok := s.updateAverages(bar.Close)
	if !ok {
		return nil, nil
	}

	crossUp := s.prevFast.LessThanOrEqual(s.prevSlow) && fast.GreaterThan(slow)
	crossDown := s.prevFast.GreaterThanOrEqual(s.prevSlow) && fast.LessThan(slow)
	s.prevFast, s.prevSlow = fast, slow

	pos := s.api.OpenPosition()

	switch {
	case crossUp:
		if pos != nil {
			if pos.Side == types.SideShort {
				return &types.OrderIntent{
					Action:     types.ActionClose,
					ExitReason: "fast SMA crossed above slow SMA",
				}, nil
			}
			return nil, nil
		}
		return s.openIntent(types.ActionBuy, types.SideLong, bar.Close)

	case crossDown:
		if pos != nil {
			if pos.Side == types.SideLong {
				return &types.OrderIntent{
					Action:     types.ActionClose,
					ExitReason: "fast SMA crossed below slow SMA",
				}, nil
			}
			return nil, nil
		}
		if s.cfg.AllowShort {
			return s.openIntent(types.ActionSell, types.SideShort, bar.Close)
		}
	}
	return nil, nil
}

// updateAverages folds the close into both rolling sums and returns the
// current fast/slow SMAs. ok is false until both windows are full and a
// prior pair exists to compare against.
func (s *Strategy) updateAverages(close decimal.Decimal) (fast, slow decimal.Decimal, ok bool) {
	s.closes = append(s.closes, close)
	i := len(s.closes) - 1

	s.fastSum = s.fastSum.Add(close)
	if i >= s.cfg.FastPeriod {
		s.fastSum = s.fastSum.Sub(s.closes[i-s.cfg.FastPeriod])
	}
	s.slowSum = s.slowSum.Add(close)
	if i >= s.cfg.SlowPeriod {
		s.slowSum = s.slowSum.Sub(s.closes[i-s.cfg.SlowPeriod])
	}

	if i < s.cfg.SlowPeriod-1 {
		return fast, slow, false
	}
	fast = s.fastSum.Div(decimal.NewFromInt(int64(s.cfg.FastPeriod)))
	slow = s.slowSum.Div(decimal.NewFromInt(int64(s.cfg.SlowPeriod)))
	if !s.havePrev {
		s.prevFast, s.prevSlow, s.havePrev = fast, slow, true
		return fast, slow, false
	}
	return fast, slow, true
}

func (s *Strategy) openIntent(action types.OrderAction, side types.PositionSide, close decimal.Decimal) (*types.OrderIntent, error) {
	stop := close.Mul(decimal.NewFromInt(1).Sub(s.cfg.StopLossPct))
	if side == types.SideShort {
		stop = close.Mul(decimal.NewFromInt(1).Add(s.cfg.StopLossPct))
	}
	qty := s.api.CalculatePositionSize(close, stop)
	if qty.IsZero() {
		return nil, nil
	}
	return &types.OrderIntent{
		Action:          action,
		PositionSide:    side,
		Quantity:        qty,
		StopLossPct:     s.cfg.StopLossPct,
		TakeProfitPct:   s.cfg.TakeProfitPct,
		TrailingStopPct: s.cfg.TrailingStopPct,
	}, nil
}
