package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

const defaultPeriodsPerYear = 252

// RunConfig holds the per-run knobs of the backtester.
type RunConfig struct {
	InitialCapital decimal.Decimal

	// RiskFraction is the fraction of available cash put at risk per trade
	// when a strategy sizes through BrokerAPI.CalculatePositionSize,
	// e.g. 0.01 for 1%.
	RiskFraction decimal.Decimal

	// PeriodsPerYear annualizes the Sharpe ratio. Defaults to 252 (daily
	// bars) when zero.
	PeriodsPerYear int

	// Timeout bounds the wall clock of a single run. Zero means no quota.
	// Strategy code is externally supplied and may be resource-hungry;
	// breaching the quota aborts the run with ResourceExhaustedErr.
	Timeout time.Duration

	ShowProgress bool
}

func NewRunConfig(initialCapital decimal.Decimal) RunConfig {
	return RunConfig{
		InitialCapital: initialCapital,
		RiskFraction:   decimal.NewFromFloat(0.01),
		PeriodsPerYear: defaultPeriodsPerYear,
	}
}

func (c RunConfig) periodsPerYear() int {
	if c.PeriodsPerYear <= 0 {
		return defaultPeriodsPerYear
	}
	return c.PeriodsPerYear
}
