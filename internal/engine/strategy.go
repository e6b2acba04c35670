package engine

import (
	"github.com/potatotify/backtesting-engine/types"
	"github.com/shopspring/decimal"
)

// Strategy is externally authored code driven once per fully-closed bar. The
// engine never inspects strategy internals, only the returned intent.
//
// Init is invoked exactly once before the first bar and receives a handle
// back into the engine for position sizing and account state. OnBar returns
// nil when no trade should be placed. An error (or panic) from either method
// is fatal to the run.
type Strategy interface {
	Name() string
	Init(api BrokerAPI) error
	OnBar(bar types.Bar) (*types.OrderIntent, error)
}

// BrokerAPI is the capability set the engine exposes to a strategy.
type BrokerAPI interface {
	// CalculatePositionSize converts the configured risk fraction of
	// available cash into a quantity given the distance between entry and
	// stop. Returns zero on degenerate inputs.
	CalculatePositionSize(entryPrice, stopLossPrice decimal.Decimal) decimal.Decimal

	Cash() decimal.Decimal
	Equity() decimal.Decimal
	OpenPosition() *types.Position
}
