package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/potatotify/backtesting-engine/types"
)

// FeedRequest selects the bars a backtest runs over: one symbol and
// interval, bounded either by a maximum bar count or by an explicit
// [Start, End) window. The two selection modes are mutually exclusive.
type FeedRequest struct {
	Symbol   string
	Interval types.Interval
	Start    time.Time
	End      time.Time
	Limit    int
}

func (r FeedRequest) Validate() error {
	if r.Symbol == "" {
		return errors.New("feed request: symbol is required")
	}
	hasRange := !r.Start.IsZero() || !r.End.IsZero()
	if r.Limit > 0 && hasRange {
		return errors.New("feed request: limit and time range are mutually exclusive")
	}
	if r.Limit <= 0 && !hasRange {
		return errors.New("feed request: either limit or time range is required")
	}
	if hasRange && !r.End.After(r.Start) {
		return errors.New("feed request: end must be after start")
	}
	return nil
}

// BarStore supplies historical bars. Implemented by the repository layer;
// the engine only requires that the returned slice is materialized and
// time-ordered.
type BarStore interface {
	LoadBars(ctx context.Context, req FeedRequest) ([]types.Bar, error)
}

// BarFeed is an ordered, immutable sequence of bars for one instrument and
// interval. Construction validates the invariants the run loop relies on.
type BarFeed struct {
	symbol   string
	interval types.Interval
	bars     []types.Bar
}

func NewBarFeed(symbol string, interval types.Interval, bars []types.Bar) (*BarFeed, error) {
	if len(bars) == 0 {
		return nil, EmptyFeedErr
	}
	for i := 1; i < len(bars); i++ {
		if bars[i].Timestamp.Before(bars[i-1].Timestamp) {
			return nil, fmt.Errorf("%w: bar %d precedes bar %d", UnorderedFeedErr, i, i-1)
		}
	}
	return &BarFeed{symbol: symbol, interval: interval, bars: bars}, nil
}

func (f *BarFeed) Symbol() string           { return f.symbol }
func (f *BarFeed) Interval() types.Interval { return f.interval }
func (f *BarFeed) Len() int                 { return len(f.bars) }
func (f *BarFeed) Bar(i int) types.Bar      { return f.bars[i] }
