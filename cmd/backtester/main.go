package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/potatotify/backtesting-engine/internal/config"
	"github.com/potatotify/backtesting-engine/internal/engine"
	"github.com/potatotify/backtesting-engine/internal/repository"
	"github.com/potatotify/backtesting-engine/strategies/smacross"
	"github.com/potatotify/backtesting-engine/types"
	"github.com/shopspring/decimal"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	symbol := flag.String("symbol", "", "override the configured symbol")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	if *symbol != "" {
		cfg.Backtest.Symbol = *symbol
	}

	logger := newLogger(cfg.Logging.Level)
	slog.SetDefault(logger)

	ctx := context.Background()
	db, err := repository.NewDatabase(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("connect database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	req, err := feedRequest(cfg.Backtest)
	if err != nil {
		logger.Error("build feed request", "err", err)
		os.Exit(1)
	}

	runCfg := engine.NewRunConfig(decimal.NewFromFloat(cfg.Backtest.InitialCapital))
	runCfg.RiskFraction = decimal.NewFromFloat(cfg.Backtest.RiskPerTrade)
	runCfg.PeriodsPerYear = cfg.Backtest.PeriodsPerYear
	runCfg.Timeout = time.Duration(cfg.Backtest.TimeoutSeconds) * time.Second
	runCfg.ShowProgress = cfg.Backtest.Progress

	strat := smacross.New(smacross.Config{
		TakeProfitPct:   decimal.NewFromFloat(0.10),
		TrailingStopPct: decimal.NewFromFloat(0.05),
	})

	eng := engine.NewEngine(db, logger)
	result, err := eng.Run(ctx, req, strat, runCfg)
	if err != nil {
		logger.Error("backtest failed", "err", err)
		os.Exit(1)
	}

	engine.PrintReport(result)

	if cfg.Backtest.TradesCSV != "" {
		if err := engine.WriteTradesCSVFile(cfg.Backtest.TradesCSV, result.Trades); err != nil {
			logger.Error("write trades csv", "err", err)
			os.Exit(1)
		}
		logger.Info("trades written", "path", cfg.Backtest.TradesCSV, "count", len(result.Trades))
	}
}

func feedRequest(bt config.BacktestConfig) (engine.FeedRequest, error) {
	req := engine.FeedRequest{
		Symbol:   bt.Symbol,
		Interval: types.Interval(bt.Interval),
		Limit:    bt.Limit,
	}
	var err error
	if bt.Start != "" {
		if req.Start, err = parseTime(bt.Start); err != nil {
			return req, err
		}
	}
	if bt.End != "" {
		if req.End, err = parseTime(bt.End); err != nil {
			return req, err
		}
	}
	return req, req.Validate()
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func newLogger(level string) *slog.Logger {
	var slevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slevel = slog.LevelDebug
	case "warn":
		slevel = slog.LevelWarn
	case "error":
		slevel = slog.LevelError
	default:
		slevel = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slevel})
	return slog.New(handler)
}
