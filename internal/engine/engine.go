package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/potatotify/backtesting-engine/types"
	"github.com/shopspring/decimal"
)

// Engine ties a bar store to the run loop: it loads the requested feed,
// executes the strategy over it and assembles the result.
type Engine struct {
	store  BarStore
	logger *slog.Logger
}

func NewEngine(store BarStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// Run loads bars per the request and backtests the strategy over them.
func (e *Engine) Run(ctx context.Context, req FeedRequest, strat Strategy, cfg RunConfig) (*types.BacktestResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	bars, err := e.store.LoadBars(ctx, req)
	if err != nil {
		return nil, err
	}
	feed, err := NewBarFeed(req.Symbol, req.Interval, bars)
	if err != nil {
		return nil, err
	}
	return RunFeed(ctx, feed, strat, cfg, e.logger)
}

// RunFeed executes one backtest over an already materialized feed. It is
// strictly sequential and performs no I/O; callers may run many instances
// concurrently as long as each gets its own strategy instance.
//
// The caller receives either a complete result or an error; a run that
// aborts mid-loop never surfaces partial progress.
func RunFeed(ctx context.Context, feed *BarFeed, strat Strategy, cfg RunConfig, logger *slog.Logger) (*types.BacktestResult, error) {
	if feed == nil || feed.Len() == 0 {
		return nil, EmptyFeedErr
	}
	if cfg.InitialCapital.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("initial capital must be positive")
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	b := newBacktester(feed, strat, cfg, logger)
	if err := b.run(ctx); err != nil {
		return nil, err
	}

	lastClose := feed.Bar(feed.Len() - 1).Close
	finalCapital := b.ledger.equity(lastClose)
	metrics := computeMetrics(b.ledger.trades, b.ledger.equityCurve, cfg.InitialCapital, cfg.periodsPerYear())

	winning := 0
	for _, t := range b.ledger.trades {
		if t.PnL.IsPositive() {
			winning++
		}
	}

	return &types.BacktestResult{
		BacktestID:     uuid.NewString(),
		StrategyName:   strat.Name(),
		Symbol:         feed.Symbol(),
		Interval:       feed.Interval(),
		InitialCapital: cfg.InitialCapital,
		FinalCapital:   finalCapital,
		Metrics:        metrics,
		TotalTrades:    len(b.ledger.trades),
		WinningTrades:  winning,
		LosingTrades:   len(b.ledger.trades) - winning,
		Trades:         b.ledger.trades,
		EquityCurve:    b.ledger.equityCurve,
		OpenPosition:   b.ledger.position,
		Warnings:       b.warnings,
		CreatedAt:      time.Now().UTC(),
	}, nil
}
