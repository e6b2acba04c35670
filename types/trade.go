package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is the record of a closed position. Trades are append-only and never
// mutated after creation.
type Trade struct {
	EntryTime  time.Time       `json:"entry_time"`
	ExitTime   time.Time       `json:"exit_time"`
	Side       PositionSide    `json:"side"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	ExitPrice  decimal.Decimal `json:"exit_price"`
	Quantity   decimal.Decimal `json:"quantity"`
	PnL        decimal.Decimal `json:"pnl"`
	ReturnPct  decimal.Decimal `json:"return_pct"`
	ExitReason string          `json:"exit_reason"`
	BarsHeld   int             `json:"bars_held"`
}
